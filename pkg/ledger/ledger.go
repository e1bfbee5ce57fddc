package ledger

import (
	"context"
	"sync"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/wavesplatform/etoken/pkg/errs"
	"github.com/wavesplatform/etoken/pkg/events"
	"github.com/wavesplatform/etoken/pkg/keyvalue"
	"github.com/wavesplatform/etoken/pkg/metrics"
	"github.com/wavesplatform/etoken/pkg/proto"
)

const component = "ledger"

// Resolver resolves ICAP codes into an institution address and the symbol routed to it.
type Resolver interface {
	Parse(code proto.Address) (proto.Address, proto.Symbol, bool, error)
}

// Ledger keeps metadata, balances and allowances of all assets.
// Mutating operations run one at a time and commit their writes in a single batch.
type Ledger struct {
	mu       sync.Mutex
	kv       keyvalue.KeyValue
	address  proto.Address
	owner    proto.Address
	sink     events.Sink
	registry Resolver
	logger   *zap.SugaredLogger
}

// New creates a ledger identified by address and administered by owner.
func New(kv keyvalue.KeyValue, address, owner proto.Address, sink events.Sink) *Ledger {
	if sink == nil {
		sink = events.Nop
	}
	return &Ledger{
		kv:      kv,
		address: address,
		owner:   owner,
		sink:    sink,
		logger:  zap.S().Named(component),
	}
}

func (l *Ledger) Address() proto.Address {
	return l.address
}

func (l *Ledger) ContractOwner() proto.Address {
	return l.owner
}

// SetupRegistryICAP installs the ICAP resolver. Only the ledger owner may call it.
func (l *Ledger) SetupRegistryICAP(_ context.Context, caller proto.Address, registry Resolver) (errs.Outcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if caller != l.owner {
		return errs.Rejected(errs.CodeOnlyOwner), nil
	}
	l.registry = registry
	return errs.Accepted(), nil
}

// SetupEventsHistory replaces the event sink. Only the ledger owner may call it.
func (l *Ledger) SetupEventsHistory(_ context.Context, caller proto.Address, sink events.Sink) (errs.Outcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if caller != l.owner {
		return errs.Rejected(errs.CodeOnlyOwner), nil
	}
	if sink == nil {
		return errs.Rejected(errs.CodeInvalidArgument), nil
	}
	l.sink = sink
	return errs.Accepted(), nil
}

func (l *Ledger) emit(ctx context.Context, e events.Event) error {
	e.Emitter = l.address
	if err := l.sink.Emit(ctx, e); err != nil {
		return errors.Wrapf(err, "failed to emit %s", e.Name)
	}
	return nil
}

// emitCommitted emits an event of an already flushed change. The change stands if the sink fails.
func (l *Ledger) emitCommitted(ctx context.Context, op string, e events.Event) {
	if err := l.emit(ctx, e); err != nil {
		l.logger.Errorf("%s committed, but its event was lost: %v", op, err)
	}
}

func (l *Ledger) reject(ctx context.Context, op string, code errs.Code) (errs.Outcome, error) {
	l.logger.Debugf("%s rejected: %s", op, code)
	if err := l.emit(ctx, events.NewError(l.address, code)); err != nil {
		return errs.Outcome{}, err
	}
	o := errs.Rejected(code)
	metrics.Outcome(component, op, o, nil)
	return o, nil
}

func (l *Ledger) accept(op string) (errs.Outcome, error) {
	o := errs.Accepted()
	metrics.Outcome(component, op, o, nil)
	return o, nil
}

func (l *Ledger) fail(op string, err error) (errs.Outcome, error) {
	metrics.Outcome(component, op, errs.Outcome{}, err)
	l.logger.Errorf("%s failed: %v", op, err)
	return errs.Outcome{}, err
}

func storageError(err error, op string) error {
	return errs.Extend(errs.NewStorageError(err.Error()), op)
}

func (l *Ledger) asset(symbol proto.Symbol) (*Asset, bool, error) {
	key := assetKey{symbol: symbol}
	data, err := l.kv.Get(key.bytes())
	if errors.Is(err, keyvalue.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storageError(err, "asset")
	}
	a := new(Asset)
	if err := a.unmarshalBinary(symbol, data); err != nil {
		return nil, false, errors.Wrapf(err, "corrupted asset %s", symbol)
	}
	return a, true, nil
}

func (l *Ledger) amount(key []byte) (*uint256.Int, error) {
	data, err := l.kv.Get(key)
	if errors.Is(err, keyvalue.ErrNotFound) {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, storageError(err, "amount")
	}
	return proto.AmountFromBytes(data)
}

func (l *Ledger) balance(symbol proto.Symbol, holder proto.Address) (*uint256.Int, error) {
	key := balanceKey{symbol: symbol, holder: holder}
	return l.amount(key.bytes())
}

func (l *Ledger) allowance(symbol proto.Symbol, owner, spender proto.Address) (*uint256.Int, error) {
	key := allowanceKey{symbol: symbol, owner: owner, spender: spender}
	return l.amount(key.bytes())
}

// putAmount stores v or deletes the record if v is zero.
func putAmount(batch keyvalue.Batch, key []byte, v *uint256.Int) {
	if v.IsZero() {
		batch.Delete(key)
		return
	}
	batch.Put(key, proto.AmountBytes(v))
}

func putAsset(batch keyvalue.Batch, a *Asset) error {
	data, err := a.marshalBinary()
	if err != nil {
		return errors.Wrapf(err, "failed to marshal asset %s", a.Symbol)
	}
	key := assetKey{symbol: a.Symbol}
	batch.Put(key.bytes(), data)
	return nil
}

func isZero(v *uint256.Int) bool {
	return v == nil || v.IsZero()
}

// checkGateway returns the asset if caller is its registered gateway and ErrNotGateway otherwise.
func (l *Ledger) checkGateway(caller proto.Address, symbol proto.Symbol) (*Asset, error) {
	a, ok, err := l.asset(symbol)
	if err != nil {
		return nil, err
	}
	if !ok || a.Proxy.IsZero() || a.Proxy != caller {
		return nil, errors.Wrapf(errs.ErrNotGateway, "%s for %s", caller, symbol)
	}
	return a, nil
}
