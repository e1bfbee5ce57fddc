package ledger

import (
	"github.com/wavesplatform/etoken/pkg/proto"
)

const (
	// Asset records.
	assetKeyPrefix byte = iota
	// Holder balances.
	balanceKeyPrefix
	// Spender allowances.
	allowanceKeyPrefix
)

type assetKey struct {
	symbol proto.Symbol
}

func (k *assetKey) bytes() []byte {
	buf := make([]byte, 1+proto.SymbolSize)
	buf[0] = assetKeyPrefix
	copy(buf[1:], k.symbol[:])
	return buf
}

type balanceKey struct {
	symbol proto.Symbol
	holder proto.Address
}

func (k *balanceKey) bytes() []byte {
	buf := make([]byte, 1+proto.SymbolSize+proto.AddressSize)
	buf[0] = balanceKeyPrefix
	copy(buf[1:], k.symbol[:])
	copy(buf[1+proto.SymbolSize:], k.holder[:])
	return buf
}

type allowanceKey struct {
	symbol  proto.Symbol
	owner   proto.Address
	spender proto.Address
}

func (k *allowanceKey) bytes() []byte {
	buf := make([]byte, 1+proto.SymbolSize+2*proto.AddressSize)
	buf[0] = allowanceKeyPrefix
	copy(buf[1:], k.symbol[:])
	copy(buf[1+proto.SymbolSize:], k.owner[:])
	copy(buf[1+proto.SymbolSize+proto.AddressSize:], k.spender[:])
	return buf
}
