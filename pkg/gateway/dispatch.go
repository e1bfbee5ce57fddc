package gateway

import (
	"context"
	"sync"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/wavesplatform/etoken/pkg/errs"
	"github.com/wavesplatform/etoken/pkg/proto"
)

type Method string

const (
	MethodTransfer           Method = "transfer"
	MethodTransferFrom       Method = "transferFrom"
	MethodTransferToICAP     Method = "transferToICAP"
	MethodTransferFromToICAP Method = "transferFromToICAP"
	MethodApprove            Method = "approve"
)

// Call is a holder request forwarded by the gateway to an implementation.
// Sender is the holder who called the gateway.
type Call struct {
	Method    Method
	Sender    proto.Address
	From      proto.Address
	To        proto.Address
	Value     *uint256.Int
	Reference string
}

// Implementation executes calls forwarded by a gateway.
type Implementation interface {
	Address() proto.Address
	Invoke(ctx context.Context, call Call) (errs.Outcome, error)
}

// Directory resolves implementation addresses.
type Directory interface {
	Implementation(addr proto.Address) (Implementation, bool)
}

// Implementations is an in-memory Directory.
type Implementations struct {
	mu    sync.RWMutex
	impls map[proto.Address]Implementation
}

func NewImplementations() *Implementations {
	return &Implementations{impls: make(map[proto.Address]Implementation)}
}

func (d *Implementations) Register(impl Implementation) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.impls[impl.Address()] = impl
}

func (d *Implementations) Implementation(addr proto.Address) (Implementation, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	impl, ok := d.impls[addr]
	return impl, ok
}

func (g *Gateway) implementationFor(sender proto.Address) (Implementation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, err := g.symbol(); err != nil {
		return nil, err
	}
	v, err := g.versionFor(sender)
	if err != nil {
		return nil, err
	}
	if v.IsZero() {
		return nil, errors.Wrapf(errs.ErrNoImplementation, "gateway %s has no version", g.address)
	}
	impl, ok := g.directory.Implementation(v)
	if !ok {
		return nil, errors.Wrapf(errs.ErrNoImplementation, "version %s is unknown", v)
	}
	return impl, nil
}

// Invoke forwards the call of sender to the implementation version sender tracks.
// The gateway lock is not held while the implementation runs, as it calls back the Forward methods.
func (g *Gateway) Invoke(ctx context.Context, sender proto.Address, call Call) (errs.Outcome, error) {
	impl, err := g.implementationFor(sender)
	if err != nil {
		return g.fail(string(call.Method), err)
	}
	call.Sender = sender
	return impl.Invoke(ctx, call)
}

func (g *Gateway) Transfer(ctx context.Context, sender, to proto.Address, value *uint256.Int) (errs.Outcome, error) {
	return g.TransferWithReference(ctx, sender, to, value, "")
}

func (g *Gateway) TransferWithReference(ctx context.Context, sender, to proto.Address, value *uint256.Int, reference string) (errs.Outcome, error) {
	return g.Invoke(ctx, sender, Call{Method: MethodTransfer, From: sender, To: to, Value: value, Reference: reference})
}

func (g *Gateway) TransferFrom(ctx context.Context, sender, from, to proto.Address, value *uint256.Int) (errs.Outcome, error) {
	return g.TransferFromWithReference(ctx, sender, from, to, value, "")
}

func (g *Gateway) TransferFromWithReference(ctx context.Context, sender, from, to proto.Address, value *uint256.Int, reference string) (errs.Outcome, error) {
	return g.Invoke(ctx, sender, Call{Method: MethodTransferFrom, From: from, To: to, Value: value, Reference: reference})
}

func (g *Gateway) TransferToICAP(ctx context.Context, sender, icap proto.Address, value *uint256.Int, reference string) (errs.Outcome, error) {
	return g.Invoke(ctx, sender, Call{Method: MethodTransferToICAP, From: sender, To: icap, Value: value, Reference: reference})
}

func (g *Gateway) TransferFromToICAP(ctx context.Context, sender, from, icap proto.Address, value *uint256.Int, reference string) (errs.Outcome, error) {
	return g.Invoke(ctx, sender, Call{Method: MethodTransferFromToICAP, From: from, To: icap, Value: value, Reference: reference})
}

func (g *Gateway) Approve(ctx context.Context, sender, spender proto.Address, value *uint256.Int) (errs.Outcome, error) {
	return g.Invoke(ctx, sender, Call{Method: MethodApprove, From: sender, To: spender, Value: value})
}

// checkAccess returns the asset symbol if impl is the version sender tracks.
func (g *Gateway) checkAccess(impl, sender proto.Address) (proto.Symbol, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	symbol, err := g.symbol()
	if err != nil {
		return proto.Symbol{}, err
	}
	v, err := g.versionFor(sender)
	if err != nil {
		return proto.Symbol{}, err
	}
	if v.IsZero() || v != impl {
		return proto.Symbol{}, errors.Wrapf(errs.ErrAccessDenied, "%s is not the version of %s", impl, sender)
	}
	return symbol, nil
}

// ForwardTransferFrom performs a ledger transfer on behalf of sender. The allowance of sender is
// used unless sender is the holder itself.
func (g *Gateway) ForwardTransferFrom(ctx context.Context, impl, sender, from, to proto.Address,
	value *uint256.Int, reference string) (errs.Outcome, error) {
	symbol, err := g.checkAccess(impl, sender)
	if err != nil {
		return g.fail("forwardTransferFrom", err)
	}
	return g.ledger.TransferFrom(ctx, g.address, symbol, sender, from, to, value, reference)
}

func (g *Gateway) ForwardTransferFromToICAP(ctx context.Context, impl, sender, from, icap proto.Address,
	value *uint256.Int, reference string) (errs.Outcome, error) {
	symbol, err := g.checkAccess(impl, sender)
	if err != nil {
		return g.fail("forwardTransferFromToICAP", err)
	}
	return g.ledger.TransferFromToICAP(ctx, g.address, symbol, sender, from, icap, value, reference)
}

func (g *Gateway) ForwardApprove(ctx context.Context, impl, sender, spender proto.Address, value *uint256.Int) (errs.Outcome, error) {
	symbol, err := g.checkAccess(impl, sender)
	if err != nil {
		return g.fail("forwardApprove", err)
	}
	return g.ledger.Approve(ctx, g.address, symbol, sender, spender, value)
}
