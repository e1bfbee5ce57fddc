package compliance

import (
	"context"
	"sync"

	"github.com/holiman/uint256"

	"github.com/wavesplatform/etoken/pkg/proto"
)

//go:generate mockgen -destination=../mock/oracle.go -package=mock github.com/wavesplatform/etoken/pkg/compliance Oracle

// Oracle authorizes transfers before they happen and is notified about their results.
type Oracle interface {
	IsTransferAllowed(ctx context.Context, from, to proto.Address, value *uint256.Int) (bool, error)
	IsTransferToICAPAllowed(ctx context.Context, from, icap proto.Address, value *uint256.Int) (bool, error)
	ProcessTransferResult(ctx context.Context, from, to proto.Address, value *uint256.Int, success bool) error
	ProcessTransferToICAPResult(ctx context.Context, from, icap proto.Address, value *uint256.Int, success bool) error
}

// Directory resolves oracle addresses.
type Directory interface {
	Oracle(addr proto.Address) (Oracle, bool)
}

// Oracles is an in-memory Directory.
type Oracles struct {
	mu      sync.RWMutex
	oracles map[proto.Address]Oracle
}

func NewOracles() *Oracles {
	return &Oracles{oracles: make(map[proto.Address]Oracle)}
}

func (d *Oracles) Register(addr proto.Address, o Oracle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.oracles[addr] = o
}

func (d *Oracles) Oracle(addr proto.Address) (Oracle, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	o, ok := d.oracles[addr]
	return o, ok
}

// amountString renders a nil amount as zero.
func amountString(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}
