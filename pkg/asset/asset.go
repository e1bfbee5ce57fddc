package asset

import (
	"context"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/wavesplatform/etoken/pkg/errs"
	"github.com/wavesplatform/etoken/pkg/events"
	"github.com/wavesplatform/etoken/pkg/gateway"
	"github.com/wavesplatform/etoken/pkg/metrics"
	"github.com/wavesplatform/etoken/pkg/proto"
	"github.com/wavesplatform/etoken/pkg/roles"
)

const component = "asset"

// Gateway is the part of the gateway an implementation calls back.
type Gateway interface {
	Address() proto.Address
	Symbol() proto.Symbol
	ForwardTransferFrom(ctx context.Context, impl, sender, from, to proto.Address, value *uint256.Int,
		reference string) (errs.Outcome, error)
	ForwardTransferFromToICAP(ctx context.Context, impl, sender, from, icap proto.Address, value *uint256.Int,
		reference string) (errs.Outcome, error)
	ForwardApprove(ctx context.Context, impl, sender, spender proto.Address, value *uint256.Int) (errs.Outcome, error)
}

// Resolver decodes ICAP codes into an institution address and an asset symbol.
type Resolver interface {
	Parse(code proto.Address) (proto.Address, proto.Symbol, bool, error)
}

type Params struct {
	Address   proto.Address
	Gateway   Gateway
	Resolver  Resolver
	Authority roles.Authority
	Sink      events.Sink
}

// Asset is the plain implementation of an asset. It is registered in the gateway's directory
// and receives the holder calls the gateway forwards to it.
type Asset struct {
	address   proto.Address
	gateway   Gateway
	resolver  Resolver
	authority roles.Authority
	sink      events.Sink
	logger    *zap.SugaredLogger
}

func New(p Params) (*Asset, error) {
	if p.Gateway == nil {
		return nil, errors.New("asset implementation requires a gateway")
	}
	if p.Sink == nil {
		p.Sink = events.Nop
	}
	return &Asset{
		address:   p.Address,
		gateway:   p.Gateway,
		resolver:  p.Resolver,
		authority: p.Authority,
		sink:      p.Sink,
		logger:    zap.S().Named(component).With("implementation", p.Address.String()),
	}, nil
}

func (a *Asset) Address() proto.Address {
	return a.address
}

func (a *Asset) Gateway() proto.Address {
	return a.gateway.Address()
}

// Claim makes account the administrator of this implementation if nobody claimed it yet.
func (a *Asset) Claim(ctx context.Context, account proto.Address) (bool, error) {
	if a.authority == nil {
		return false, errors.New("no role authority configured")
	}
	return a.authority.ClaimFor(ctx, a.address, account)
}

// Invoke executes a declared method. Any other method is a hard error.
func (a *Asset) Invoke(ctx context.Context, call gateway.Call) (errs.Outcome, error) {
	switch call.Method {
	case gateway.MethodTransfer:
		return a.route(ctx, call.Sender, call.Sender, call.To, call.Value, call.Reference)
	case gateway.MethodTransferFrom:
		return a.route(ctx, call.Sender, call.From, call.To, call.Value, call.Reference)
	case gateway.MethodTransferToICAP:
		return a.gateway.ForwardTransferFromToICAP(ctx, a.address, call.Sender, call.Sender, call.To, call.Value, call.Reference)
	case gateway.MethodTransferFromToICAP:
		return a.gateway.ForwardTransferFromToICAP(ctx, a.address, call.Sender, call.From, call.To, call.Value, call.Reference)
	case gateway.MethodApprove:
		return a.gateway.ForwardApprove(ctx, a.address, call.Sender, call.To, call.Value)
	default:
		return a.fail(string(call.Method), errors.Wrapf(errs.ErrUndeclaredMethod, "method %q", call.Method))
	}
}

// routesToICAP reports whether to is an ICAP code that resolves to an institution of this asset.
func (a *Asset) routesToICAP(to proto.Address) (bool, error) {
	if a.resolver == nil || !proto.IsICAP(to) {
		return false, nil
	}
	_, symbol, ok, err := a.resolver.Parse(to)
	if err != nil {
		return false, err
	}
	return ok && symbol == a.gateway.Symbol(), nil
}

// route transfers to an ICAP destination when it resolves, and to the literal address otherwise.
func (a *Asset) route(ctx context.Context, sender, from, to proto.Address, value *uint256.Int,
	reference string) (errs.Outcome, error) {
	icap, err := a.routesToICAP(to)
	if err != nil {
		return a.fail("transfer", err)
	}
	if icap {
		return a.gateway.ForwardTransferFromToICAP(ctx, a.address, sender, from, to, value, reference)
	}
	return a.gateway.ForwardTransferFrom(ctx, a.address, sender, from, to, value, reference)
}

func (a *Asset) hasRole(ctx context.Context, role roles.Role, account proto.Address) (bool, error) {
	if a.authority == nil {
		return false, nil
	}
	ok, err := a.authority.HasRole(ctx, a.address, role, account)
	if err != nil {
		return false, errors.Wrap(err, "role check")
	}
	return ok, nil
}

func (a *Asset) emit(ctx context.Context, e events.Event) error {
	e.Emitter = a.address
	e.Symbol = a.gateway.Symbol()
	if err := a.sink.Emit(ctx, e); err != nil {
		return errors.Wrapf(err, "failed to emit %s", e.Name)
	}
	return nil
}

func (a *Asset) reject(ctx context.Context, op string, code errs.Code) (errs.Outcome, error) {
	a.logger.Debugf("%s rejected: %s", op, code)
	if err := a.emit(ctx, events.NewError(a.address, code)); err != nil {
		return a.fail(op, err)
	}
	o := errs.Rejected(code)
	metrics.Outcome(component, op, o, nil)
	return o, nil
}

func (a *Asset) accept(op string) (errs.Outcome, error) {
	o := errs.Accepted()
	metrics.Outcome(component, op, o, nil)
	return o, nil
}

func (a *Asset) fail(op string, err error) (errs.Outcome, error) {
	metrics.Outcome(component, op, errs.Outcome{}, err)
	a.logger.Errorf("%s failed: %v", op, err)
	return errs.Outcome{}, err
}
