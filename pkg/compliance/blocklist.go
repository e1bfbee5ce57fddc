package compliance

import (
	"context"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/wavesplatform/etoken/pkg/keyvalue"
	"github.com/wavesplatform/etoken/pkg/proto"
)

const (
	blockedKeyPrefix byte = iota
)

func blockedKey(addr proto.Address) []byte {
	return append([]byte{blockedKeyPrefix}, addr[:]...)
}

// Blocklist is an oracle denying every transfer from or to a blocked address.
type Blocklist struct {
	kv     keyvalue.KeyValue
	logger *zap.SugaredLogger
}

func NewBlocklist(kv keyvalue.KeyValue) *Blocklist {
	return &Blocklist{kv: kv, logger: zap.S().Named("compliance")}
}

func (b *Blocklist) Block(addr proto.Address) error {
	return errors.Wrap(b.kv.Put(blockedKey(addr), []byte{1}), "block")
}

func (b *Blocklist) Unblock(addr proto.Address) error {
	return errors.Wrap(b.kv.Delete(blockedKey(addr)), "unblock")
}

func (b *Blocklist) IsBlocked(addr proto.Address) (bool, error) {
	return b.kv.Has(blockedKey(addr))
}

func (b *Blocklist) allowed(addrs ...proto.Address) (bool, error) {
	for _, a := range addrs {
		blocked, err := b.IsBlocked(a)
		if err != nil {
			return false, err
		}
		if blocked {
			return false, nil
		}
	}
	return true, nil
}

func (b *Blocklist) IsTransferAllowed(_ context.Context, from, to proto.Address, _ *uint256.Int) (bool, error) {
	return b.allowed(from, to)
}

func (b *Blocklist) IsTransferToICAPAllowed(_ context.Context, from, _ proto.Address, _ *uint256.Int) (bool, error) {
	return b.allowed(from)
}

func (b *Blocklist) ProcessTransferResult(_ context.Context, from, to proto.Address, value *uint256.Int, success bool) error {
	b.logger.Debugf("Transfer of %s from %s to %s processed, success: %t", amountString(value), from, to, success)
	return nil
}

func (b *Blocklist) ProcessTransferToICAPResult(_ context.Context, from, icap proto.Address, value *uint256.Int, success bool) error {
	b.logger.Debugf("Transfer of %s from %s to ICAP %s processed, success: %t", amountString(value), from, icap, success)
	return nil
}
