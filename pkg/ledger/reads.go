package ledger

import (
	"github.com/holiman/uint256"

	"github.com/wavesplatform/etoken/pkg/proto"
)

// Asset returns the full record of the asset. The second result is false if the asset is not issued.
func (l *Ledger) Asset(symbol proto.Symbol) (Asset, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok, err := l.asset(symbol)
	if err != nil || !ok {
		return Asset{Symbol: symbol, TotalSupply: new(uint256.Int)}, false, err
	}
	return *a, true, nil
}

func (l *Ledger) BalanceOf(symbol proto.Symbol, holder proto.Address) (*uint256.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance(symbol, holder)
}

func (l *Ledger) Allowance(symbol proto.Symbol, owner, spender proto.Address) (*uint256.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowance(symbol, owner, spender)
}

func (l *Ledger) TotalSupply(symbol proto.Symbol) (*uint256.Int, error) {
	a, _, err := l.Asset(symbol)
	return a.TotalSupply, err
}

func (l *Ledger) Name(symbol proto.Symbol) (string, error) {
	a, _, err := l.Asset(symbol)
	return a.Name, err
}

func (l *Ledger) Description(symbol proto.Symbol) (string, error) {
	a, _, err := l.Asset(symbol)
	return a.Description, err
}

func (l *Ledger) BaseUnit(symbol proto.Symbol) (uint8, error) {
	a, _, err := l.Asset(symbol)
	return a.BaseUnit, err
}

func (l *Ledger) IsReissuable(symbol proto.Symbol) (bool, error) {
	a, _, err := l.Asset(symbol)
	return a.Reissuable, err
}

func (l *Ledger) Owner(symbol proto.Symbol) (proto.Address, error) {
	a, _, err := l.Asset(symbol)
	return a.Owner, err
}

func (l *Ledger) IsOwner(owner proto.Address, symbol proto.Symbol) (bool, error) {
	a, ok, err := l.Asset(symbol)
	return ok && a.Owner == owner, err
}

func (l *Ledger) IsCreated(symbol proto.Symbol) (bool, error) {
	_, ok, err := l.Asset(symbol)
	return ok, err
}

func (l *Ledger) IsLocked(symbol proto.Symbol) (bool, error) {
	a, _, err := l.Asset(symbol)
	return a.Locked, err
}

func (l *Ledger) Proxy(symbol proto.Symbol) (proto.Address, error) {
	a, _, err := l.Asset(symbol)
	return a.Proxy, err
}
