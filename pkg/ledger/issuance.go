package ledger

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/wavesplatform/etoken/pkg/errs"
	"github.com/wavesplatform/etoken/pkg/events"
	"github.com/wavesplatform/etoken/pkg/proto"
)

// IssueRequest describes a new asset.
type IssueRequest struct {
	Symbol      proto.Symbol
	Value       *uint256.Int
	Name        string
	Description string
	BaseUnit    uint8
	Reissuable  bool
}

// Issue creates a new asset owned by caller, who receives the whole initial supply.
func (l *Ledger) Issue(ctx context.Context, caller proto.Address, req IssueRequest) (errs.Outcome, error) {
	const op = "issue"
	l.mu.Lock()
	defer l.mu.Unlock()
	if req.Symbol.IsZero() {
		return l.reject(ctx, op, errs.CodeInvalidArgument)
	}
	value := new(uint256.Int)
	if req.Value != nil {
		value.Set(req.Value)
	}
	if !req.Reissuable && value.IsZero() {
		return l.reject(ctx, op, errs.CodeZeroValue)
	}
	_, exists, err := l.asset(req.Symbol)
	if err != nil {
		return l.fail(op, err)
	}
	if exists {
		return l.reject(ctx, op, errs.CodeAssetExists)
	}
	a := &Asset{
		Symbol:      req.Symbol,
		Owner:       caller,
		Name:        req.Name,
		Description: req.Description,
		BaseUnit:    req.BaseUnit,
		TotalSupply: value,
		Reissuable:  req.Reissuable,
	}
	batch, err := l.kv.NewBatch()
	if err != nil {
		return l.fail(op, err)
	}
	if err := putAsset(batch, a); err != nil {
		return l.fail(op, err)
	}
	bk := balanceKey{symbol: req.Symbol, holder: caller}
	putAmount(batch, bk.bytes(), value)
	if err := l.kv.Flush(batch); err != nil {
		return l.fail(op, storageError(err, op))
	}
	l.logger.Infof("Asset %s issued by %s with supply %s", req.Symbol, caller, value.Dec())
	l.emitCommitted(ctx, op, events.Event{Name: events.Issue, Symbol: req.Symbol, To: caller, Value: value.Clone()})
	return l.accept(op)
}

// Reissue increases the owner balance and the total supply.
func (l *Ledger) Reissue(ctx context.Context, caller proto.Address, symbol proto.Symbol, amount *uint256.Int) (errs.Outcome, error) {
	const op = "reissue"
	l.mu.Lock()
	defer l.mu.Unlock()
	if isZero(amount) {
		return l.reject(ctx, op, errs.CodeZeroValue)
	}
	a, ok, err := l.asset(symbol)
	if err != nil {
		return l.fail(op, err)
	}
	if !ok {
		return l.reject(ctx, op, errs.CodeAssetNotFound)
	}
	if a.Owner != caller {
		return l.reject(ctx, op, errs.CodeOnlyOwner)
	}
	if !a.Reissuable {
		return l.reject(ctx, op, errs.CodeNotReissuable)
	}
	supply, overflow := new(uint256.Int).AddOverflow(a.TotalSupply, amount)
	if overflow {
		return l.reject(ctx, op, errs.CodeSupplyOverflow)
	}
	bal, err := l.balance(symbol, caller)
	if err != nil {
		return l.fail(op, err)
	}
	// Owner balance can't overflow as it never exceeds the total supply.
	bal.Add(bal, amount)
	a.TotalSupply = supply
	batch, err := l.kv.NewBatch()
	if err != nil {
		return l.fail(op, err)
	}
	if err := putAsset(batch, a); err != nil {
		return l.fail(op, err)
	}
	bk := balanceKey{symbol: symbol, holder: caller}
	putAmount(batch, bk.bytes(), bal)
	if err := l.kv.Flush(batch); err != nil {
		return l.fail(op, storageError(err, op))
	}
	l.emitCommitted(ctx, op, events.Event{Name: events.Issue, Symbol: symbol, To: caller, Value: amount.Clone()})
	return l.accept(op)
}

// Revoke burns amount from the caller's own balance.
func (l *Ledger) Revoke(ctx context.Context, caller proto.Address, symbol proto.Symbol, amount *uint256.Int) (errs.Outcome, error) {
	const op = "revoke"
	l.mu.Lock()
	defer l.mu.Unlock()
	if isZero(amount) {
		return l.reject(ctx, op, errs.CodeZeroValue)
	}
	a, ok, err := l.asset(symbol)
	if err != nil {
		return l.fail(op, err)
	}
	if !ok {
		return l.reject(ctx, op, errs.CodeAssetNotFound)
	}
	bal, err := l.balance(symbol, caller)
	if err != nil {
		return l.fail(op, err)
	}
	if bal.Lt(amount) {
		return l.reject(ctx, op, errs.CodeInsufficientBalance)
	}
	bal.Sub(bal, amount)
	a.TotalSupply.Sub(a.TotalSupply, amount)
	batch, err := l.kv.NewBatch()
	if err != nil {
		return l.fail(op, err)
	}
	if err := putAsset(batch, a); err != nil {
		return l.fail(op, err)
	}
	bk := balanceKey{symbol: symbol, holder: caller}
	putAmount(batch, bk.bytes(), bal)
	if err := l.kv.Flush(batch); err != nil {
		return l.fail(op, storageError(err, op))
	}
	l.emitCommitted(ctx, op, events.Event{Name: events.Revoke, Symbol: symbol, From: caller, Value: amount.Clone()})
	return l.accept(op)
}

// updateOwned loads the asset, checks that caller owns it and stores the result of update.
func (l *Ledger) updateOwned(ctx context.Context, op string, caller proto.Address, symbol proto.Symbol,
	update func(a *Asset) errs.Code, event events.Event) (errs.Outcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok, err := l.asset(symbol)
	if err != nil {
		return l.fail(op, err)
	}
	if !ok {
		return l.reject(ctx, op, errs.CodeAssetNotFound)
	}
	if a.Owner != caller {
		return l.reject(ctx, op, errs.CodeOnlyOwner)
	}
	if code := update(a); code != errs.CodeOK {
		return l.reject(ctx, op, code)
	}
	batch, err := l.kv.NewBatch()
	if err != nil {
		return l.fail(op, err)
	}
	if err := putAsset(batch, a); err != nil {
		return l.fail(op, err)
	}
	if err := l.kv.Flush(batch); err != nil {
		return l.fail(op, storageError(err, op))
	}
	if event.Name != "" {
		event.Symbol = symbol
		l.emitCommitted(ctx, op, event)
	}
	return l.accept(op)
}

func (l *Ledger) ChangeOwnership(ctx context.Context, caller proto.Address, symbol proto.Symbol, newOwner proto.Address) (errs.Outcome, error) {
	return l.updateOwned(ctx, "changeOwnership", caller, symbol, func(a *Asset) errs.Code {
		if newOwner.IsZero() {
			return errs.CodeInvalidArgument
		}
		if newOwner == a.Owner {
			return errs.CodeSameOwner
		}
		a.Owner = newOwner
		return errs.CodeOK
	}, events.Event{Name: events.OwnershipChange, From: caller, To: newOwner})
}

// Lock makes asset metadata and its gateway registration immutable.
func (l *Ledger) Lock(ctx context.Context, caller proto.Address, symbol proto.Symbol) (errs.Outcome, error) {
	return l.updateOwned(ctx, "lock", caller, symbol, func(a *Asset) errs.Code {
		if a.Locked {
			return errs.CodeAssetLocked
		}
		a.Locked = true
		return errs.CodeOK
	}, events.Event{})
}

func (l *Ledger) ChangeAsset(ctx context.Context, caller proto.Address, symbol proto.Symbol, name, description string, baseUnit uint8) (errs.Outcome, error) {
	return l.updateOwned(ctx, "changeAsset", caller, symbol, func(a *Asset) errs.Code {
		if a.Locked {
			return errs.CodeAssetLocked
		}
		a.Name = name
		a.Description = description
		a.BaseUnit = baseUnit
		return errs.CodeOK
	}, events.Event{Name: events.Change})
}

// SetProxy registers the gateway of the asset. Only the ledger owner may do it, and a gateway of a
// locked asset can't be replaced. The zero address unregisters the gateway.
func (l *Ledger) SetProxy(ctx context.Context, caller proto.Address, symbol proto.Symbol, gateway proto.Address) (errs.Outcome, error) {
	const op = "setProxy"
	l.mu.Lock()
	defer l.mu.Unlock()
	if caller != l.owner {
		return l.reject(ctx, op, errs.CodeOnlyOwner)
	}
	a, ok, err := l.asset(symbol)
	if err != nil {
		return l.fail(op, err)
	}
	if !ok {
		return l.reject(ctx, op, errs.CodeAssetNotFound)
	}
	if a.Locked && !a.Proxy.IsZero() {
		return l.reject(ctx, op, errs.CodeAssetLocked)
	}
	a.Proxy = gateway
	batch, err := l.kv.NewBatch()
	if err != nil {
		return l.fail(op, err)
	}
	if err := putAsset(batch, a); err != nil {
		return l.fail(op, err)
	}
	if err := l.kv.Flush(batch); err != nil {
		return l.fail(op, storageError(err, op))
	}
	l.logger.Infof("Gateway of %s set to %s", symbol, gateway)
	return l.accept(op)
}
