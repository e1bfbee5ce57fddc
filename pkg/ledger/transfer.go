package ledger

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/wavesplatform/etoken/pkg/errs"
	"github.com/wavesplatform/etoken/pkg/events"
	"github.com/wavesplatform/etoken/pkg/proto"
)

// Transfer moves value from holder from to holder to. Caller must be the gateway of the asset.
func (l *Ledger) Transfer(ctx context.Context, caller proto.Address, symbol proto.Symbol, from, to proto.Address,
	value *uint256.Int, reference string) (errs.Outcome, error) {
	return l.TransferFrom(ctx, caller, symbol, from, from, to, value, reference)
}

// TransferFrom moves value from holder from to holder to on behalf of spender. The allowance is not
// checked nor consumed when spender is the holder itself.
func (l *Ledger) TransferFrom(ctx context.Context, caller proto.Address, symbol proto.Symbol, spender, from, to proto.Address,
	value *uint256.Int, reference string) (errs.Outcome, error) {
	const op = "transfer"
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.checkGateway(caller, symbol); err != nil {
		return l.fail(op, err)
	}
	return l.transfer(ctx, op, symbol, spender, from, to, value, reference)
}

// transfer runs under the lock after the gateway check.
func (l *Ledger) transfer(ctx context.Context, op string, symbol proto.Symbol, spender, from, to proto.Address,
	value *uint256.Int, reference string) (errs.Outcome, error) {
	if from == to {
		return l.reject(ctx, op, errs.CodeSelfTransfer)
	}
	if isZero(value) {
		return l.reject(ctx, op, errs.CodeZeroValue)
	}
	var allowance *uint256.Int
	if spender != from {
		var err error
		allowance, err = l.allowance(symbol, from, spender)
		if err != nil {
			return l.fail(op, err)
		}
		if allowance.Lt(value) {
			return l.reject(ctx, op, errs.CodeInsufficientAllow)
		}
	}
	fromBalance, err := l.balance(symbol, from)
	if err != nil {
		return l.fail(op, err)
	}
	if fromBalance.Lt(value) {
		return l.reject(ctx, op, errs.CodeInsufficientBalance)
	}
	toBalance, err := l.balance(symbol, to)
	if err != nil {
		return l.fail(op, err)
	}
	fromBalance.Sub(fromBalance, value)
	// Sum of balances is bounded by the total supply, so the recipient balance can't overflow.
	toBalance.Add(toBalance, value)

	batch, err := l.kv.NewBatch()
	if err != nil {
		return l.fail(op, err)
	}
	fk := balanceKey{symbol: symbol, holder: from}
	tk := balanceKey{symbol: symbol, holder: to}
	putAmount(batch, fk.bytes(), fromBalance)
	putAmount(batch, tk.bytes(), toBalance)
	if allowance != nil {
		allowance.Sub(allowance, value)
		ak := allowanceKey{symbol: symbol, owner: from, spender: spender}
		putAmount(batch, ak.bytes(), allowance)
	}
	if err := l.kv.Flush(batch); err != nil {
		return l.fail(op, storageError(err, op))
	}
	e := events.Event{
		Name:      events.Transfer,
		Symbol:    symbol,
		From:      from,
		To:        to,
		Value:     value.Clone(),
		Reference: reference,
	}
	if spender != from {
		e.Spender = spender
	}
	l.emitCommitted(ctx, op, e)
	return l.accept(op)
}

// Approve overwrites the allowance of spender on the holder's balance.
func (l *Ledger) Approve(ctx context.Context, caller proto.Address, symbol proto.Symbol, from, spender proto.Address,
	value *uint256.Int) (errs.Outcome, error) {
	const op = "approve"
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.checkGateway(caller, symbol); err != nil {
		return l.fail(op, err)
	}
	if from == spender {
		return l.reject(ctx, op, errs.CodeSelfApprove)
	}
	v := new(uint256.Int)
	if value != nil {
		v.Set(value)
	}
	batch, err := l.kv.NewBatch()
	if err != nil {
		return l.fail(op, err)
	}
	ak := allowanceKey{symbol: symbol, owner: from, spender: spender}
	putAmount(batch, ak.bytes(), v)
	if err := l.kv.Flush(batch); err != nil {
		return l.fail(op, storageError(err, op))
	}
	l.emitCommitted(ctx, op, events.Event{Name: events.Approve, Symbol: symbol, From: from, Spender: spender, Value: v})
	return l.accept(op)
}

// TransferToICAP resolves the code and transfers value to the institution it routes to.
func (l *Ledger) TransferToICAP(ctx context.Context, caller proto.Address, symbol proto.Symbol, from, icap proto.Address,
	value *uint256.Int, reference string) (errs.Outcome, error) {
	return l.TransferFromToICAP(ctx, caller, symbol, from, from, icap, value, reference)
}

func (l *Ledger) TransferFromToICAP(ctx context.Context, caller proto.Address, symbol proto.Symbol, spender, from, icap proto.Address,
	value *uint256.Int, reference string) (errs.Outcome, error) {
	const op = "transferToICAP"
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.checkGateway(caller, symbol); err != nil {
		return l.fail(op, err)
	}
	if l.registry == nil {
		return l.reject(ctx, op, errs.CodeICAPNotResolved)
	}
	to, resolved, ok, err := l.registry.Parse(icap)
	if err != nil {
		return l.fail(op, err)
	}
	if !ok {
		return l.reject(ctx, op, errs.CodeICAPNotResolved)
	}
	if resolved != symbol {
		return l.reject(ctx, op, errs.CodeICAPSymbolMismatch)
	}
	o, err := l.transfer(ctx, op, symbol, spender, from, to, value, reference)
	if err != nil || !o.Accepted {
		return o, err
	}
	e := events.Event{
		Name:      events.TransferToICAP,
		Symbol:    symbol,
		From:      from,
		To:        to,
		ICAP:      icap,
		Value:     value.Clone(),
		Reference: reference,
	}
	l.emitCommitted(ctx, op, e)
	return o, nil
}
