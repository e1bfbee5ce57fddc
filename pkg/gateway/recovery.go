package gateway

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/wavesplatform/etoken/pkg/errs"
	"github.com/wavesplatform/etoken/pkg/events"
	"github.com/wavesplatform/etoken/pkg/proto"
)

// Token is any asset that may end up on the gateway's own address.
type Token interface {
	BalanceOf(holder proto.Address) (*uint256.Int, error)
	Transfer(ctx context.Context, sender, to proto.Address, value *uint256.Int) (errs.Outcome, error)
}

// RecoverTokens sends tokens mistakenly transferred to the gateway address to receiver.
// Only the asset owner may recover tokens.
func (g *Gateway) RecoverTokens(ctx context.Context, caller proto.Address, token Token, receiver proto.Address,
	value *uint256.Int) (errs.Outcome, error) {
	const op = "recoverTokens"
	g.mu.Lock()
	symbol, err := g.symbol()
	if err != nil {
		g.mu.Unlock()
		return g.fail(op, err)
	}
	ok, err := g.ledger.IsOwner(caller, symbol)
	if err != nil {
		g.mu.Unlock()
		return g.fail(op, err)
	}
	if !ok {
		defer g.mu.Unlock()
		return g.reject(ctx, op, errs.CodeOnlyOwner)
	}
	g.mu.Unlock()

	balance, err := token.BalanceOf(g.address)
	if err != nil {
		return g.fail(op, err)
	}
	if value == nil || value.IsZero() {
		value = balance
	}
	if balance.Lt(value) || balance.IsZero() {
		g.mu.Lock()
		defer g.mu.Unlock()
		return g.reject(ctx, op, errs.CodeInsufficientProxyBal)
	}
	o, err := token.Transfer(ctx, g.address, receiver, value)
	if err != nil || !o.Accepted {
		return o, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.emit(ctx, events.Event{Name: events.Recovery, From: g.address, To: receiver, Value: value.Clone()}); err != nil {
		return g.fail(op, err)
	}
	return g.accept(op)
}
