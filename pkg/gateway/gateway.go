package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/qmuntal/stateless"
	"go.uber.org/zap"

	"github.com/wavesplatform/etoken/pkg/errs"
	"github.com/wavesplatform/etoken/pkg/events"
	"github.com/wavesplatform/etoken/pkg/keyvalue"
	"github.com/wavesplatform/etoken/pkg/metrics"
	"github.com/wavesplatform/etoken/pkg/proto"
	"github.com/wavesplatform/etoken/pkg/roles"
	"github.com/wavesplatform/etoken/pkg/types"
)

const (
	component = "gateway"

	DefaultFreezePeriod = 3 * 24 * time.Hour
)

// Ledger is the part of the ledger a gateway works with.
type Ledger interface {
	IsOwner(owner proto.Address, symbol proto.Symbol) (bool, error)
	TotalSupply(symbol proto.Symbol) (*uint256.Int, error)
	BalanceOf(symbol proto.Symbol, holder proto.Address) (*uint256.Int, error)
	Allowance(symbol proto.Symbol, owner, spender proto.Address) (*uint256.Int, error)
	BaseUnit(symbol proto.Symbol) (uint8, error)
	TransferFrom(ctx context.Context, caller proto.Address, symbol proto.Symbol, spender, from, to proto.Address,
		value *uint256.Int, reference string) (errs.Outcome, error)
	TransferFromToICAP(ctx context.Context, caller proto.Address, symbol proto.Symbol, spender, from, icap proto.Address,
		value *uint256.Int, reference string) (errs.Outcome, error)
	Approve(ctx context.Context, caller proto.Address, symbol proto.Symbol, from, spender proto.Address,
		value *uint256.Int) (errs.Outcome, error)
}

type Params struct {
	Address      proto.Address
	FreezePeriod time.Duration
	Ledger       Ledger
	Directory    Directory
	Authority    roles.Authority
	Sink         events.Sink
	Clock        types.Time
}

// Gateway is the stable address of one asset. It forwards holder calls to the implementation
// version the holder tracks and manages upgrades of that implementation.
type Gateway struct {
	mu        sync.Mutex
	kv        keyvalue.KeyValue
	address   proto.Address
	freeze    time.Duration
	ledger    Ledger
	directory Directory
	authority roles.Authority
	sink      events.Sink
	clock     types.Time
	logger    *zap.SugaredLogger

	st     state
	fsm    *stateless.StateMachine
	emitQ  []events.Event
	fireAt time.Time
}

func New(kv keyvalue.KeyValue, p Params) (*Gateway, error) {
	if p.Ledger == nil || p.Directory == nil {
		return nil, errors.New("gateway requires a ledger and an implementation directory")
	}
	if p.FreezePeriod <= 0 {
		p.FreezePeriod = DefaultFreezePeriod
	}
	if p.Sink == nil {
		p.Sink = events.Nop
	}
	if p.Clock == nil {
		p.Clock = types.SystemTime{}
	}
	g := &Gateway{
		kv:        kv,
		address:   p.Address,
		freeze:    p.FreezePeriod,
		ledger:    p.Ledger,
		directory: p.Directory,
		authority: p.Authority,
		sink:      p.Sink,
		clock:     p.Clock,
		logger:    zap.S().Named(component).With("gateway", p.Address.String()),
	}
	data, err := kv.Get(stateKey)
	switch {
	case errors.Is(err, keyvalue.ErrNotFound):
	case err != nil:
		return nil, errors.Wrap(err, "failed to load gateway state")
	default:
		if err := g.st.unmarshalBinary(data); err != nil {
			return nil, errors.Wrap(err, "corrupted gateway state")
		}
	}
	g.fsm = g.newUpgradeMachine()
	return g, nil
}

func (g *Gateway) Address() proto.Address {
	return g.address
}

// Init binds the gateway to an asset of the ledger. It can be done only once.
func (g *Gateway) Init(ctx context.Context, symbol proto.Symbol, name string) (errs.Outcome, error) {
	const op = "init"
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.st.initialized() {
		return g.reject(ctx, op, errs.CodeAlreadyInitialized)
	}
	if symbol.IsZero() {
		return g.reject(ctx, op, errs.CodeInvalidArgument)
	}
	next := g.st
	next.Symbol = symbol
	next.Name = name
	if err := g.store(next); err != nil {
		return g.fail(op, err)
	}
	g.logger.Infof("Bound to asset %s", symbol)
	return g.accept(op)
}

func (g *Gateway) store(s state) error {
	data, err := s.marshalBinary()
	if err != nil {
		return errors.Wrap(err, "failed to marshal gateway state")
	}
	if err := g.kv.Put(stateKey, data); err != nil {
		return errs.Extend(errs.NewStorageError(err.Error()), component)
	}
	g.st = s
	return nil
}

func (g *Gateway) emit(ctx context.Context, e events.Event) error {
	e.Emitter = g.address
	e.Symbol = g.st.Symbol
	if err := g.sink.Emit(ctx, e); err != nil {
		return errors.Wrapf(err, "failed to emit %s", e.Name)
	}
	return nil
}

func (g *Gateway) reject(ctx context.Context, op string, code errs.Code) (errs.Outcome, error) {
	g.logger.Debugf("%s rejected: %s", op, code)
	if err := g.emit(ctx, events.NewError(g.address, code)); err != nil {
		return g.fail(op, err)
	}
	o := errs.Rejected(code)
	metrics.Outcome(component, op, o, nil)
	return o, nil
}

func (g *Gateway) accept(op string) (errs.Outcome, error) {
	o := errs.Accepted()
	metrics.Outcome(component, op, o, nil)
	return o, nil
}

func (g *Gateway) fail(op string, err error) (errs.Outcome, error) {
	metrics.Outcome(component, op, errs.Outcome{}, err)
	g.logger.Errorf("%s failed: %v", op, err)
	return errs.Outcome{}, err
}

// symbol returns the bound asset or ErrNotInitialized.
func (g *Gateway) symbol() (proto.Symbol, error) {
	if !g.st.initialized() {
		return proto.Symbol{}, errors.Wrapf(errs.ErrNotInitialized, "gateway %s", g.address)
	}
	return g.st.Symbol, nil
}

// isPrivileged reports whether caller owns the asset or holds the role on the gateway.
func (g *Gateway) isPrivileged(ctx context.Context, caller proto.Address, role roles.Role) (bool, error) {
	symbol, err := g.symbol()
	if err != nil {
		return false, err
	}
	ok, err := g.ledger.IsOwner(caller, symbol)
	if err != nil || ok {
		return ok, err
	}
	if g.authority == nil {
		return false, nil
	}
	ok, err = g.authority.HasRole(ctx, g.address, role, caller)
	if err != nil {
		return false, errors.Wrap(err, "role check")
	}
	return ok, nil
}

func (g *Gateway) Symbol() proto.Symbol {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.st.Symbol
}

func (g *Gateway) Name() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.st.Name
}

func (g *Gateway) Decimals() (uint8, error) {
	g.mu.Lock()
	symbol, err := g.symbol()
	g.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return g.ledger.BaseUnit(symbol)
}

func (g *Gateway) TotalSupply() (*uint256.Int, error) {
	g.mu.Lock()
	symbol, err := g.symbol()
	g.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return g.ledger.TotalSupply(symbol)
}

func (g *Gateway) BalanceOf(holder proto.Address) (*uint256.Int, error) {
	g.mu.Lock()
	symbol, err := g.symbol()
	g.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return g.ledger.BalanceOf(symbol, holder)
}

func (g *Gateway) Allowance(from, spender proto.Address) (*uint256.Int, error) {
	g.mu.Lock()
	symbol, err := g.symbol()
	g.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return g.ledger.Allowance(symbol, from, spender)
}
