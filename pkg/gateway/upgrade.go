package gateway

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/qmuntal/stateless"

	"github.com/wavesplatform/etoken/pkg/errs"
	"github.com/wavesplatform/etoken/pkg/events"
	"github.com/wavesplatform/etoken/pkg/keyvalue"
	"github.com/wavesplatform/etoken/pkg/proto"
	"github.com/wavesplatform/etoken/pkg/roles"
)

// rejection is returned by the upgrade machine for triggers not permitted in the current phase.
type rejection struct {
	code errs.Code
}

func (r *rejection) Error() string {
	return string(r.code)
}

func (g *Gateway) newUpgradeMachine() *stateless.StateMachine {
	fsm := stateless.NewStateMachineWithExternalStorage(
		func(_ context.Context) (stateless.State, error) {
			return g.st.Phase, nil
		},
		func(_ context.Context, s stateless.State) error {
			g.st.Phase = s.(Phase)
			return nil
		},
		stateless.FiringImmediate,
	)
	fsm.Configure(Uninitialized).
		Permit(triggerPropose, Bootstrapped)
	fsm.Configure(Bootstrapped).
		OnEntryFrom(triggerPropose, g.onBootstrap).
		OnEntryFrom(triggerPurge, g.onPurge).
		OnEntryFrom(triggerCommit, g.onCommit).
		Permit(triggerPropose, ProposalPending)
	fsm.Configure(ProposalPending).
		OnEntryFrom(triggerPropose, g.onPropose).
		Permit(triggerPurge, Bootstrapped).
		Permit(triggerCommit, Bootstrapped, g.freezeOver)
	fsm.OnUnhandledTrigger(func(_ context.Context, _ stateless.State, t stateless.Trigger, unmetGuards []string) error {
		if len(unmetGuards) > 0 {
			return &rejection{code: errs.CodeFreezePeriod}
		}
		if t == triggerPropose {
			return &rejection{code: errs.CodeProposalPending}
		}
		return &rejection{code: errs.CodeNoProposal}
	})
	return fsm
}

func (g *Gateway) onBootstrap(_ context.Context, args ...any) error {
	g.st.Latest = args[0].(proto.Address)
	g.logger.Infof("Bootstrapped with version %s", g.st.Latest)
	return nil
}

func (g *Gateway) onPropose(_ context.Context, args ...any) error {
	g.st.Pending = args[0].(proto.Address)
	g.st.PendingUnixSec = g.fireAt.Unix()
	g.emitQ = append(g.emitQ, events.Event{Name: events.UpgradeProposed, Version: g.st.Pending})
	return nil
}

func (g *Gateway) onPurge(_ context.Context, _ ...any) error {
	g.emitQ = append(g.emitQ, events.Event{Name: events.UpgradePurged, Version: g.st.Pending})
	g.st.Pending = proto.Address{}
	g.st.PendingUnixSec = 0
	return nil
}

func (g *Gateway) onCommit(_ context.Context, _ ...any) error {
	g.st.Latest = g.st.Pending
	g.st.Pending = proto.Address{}
	g.st.PendingUnixSec = 0
	g.emitQ = append(g.emitQ, events.Event{Name: events.UpgradeCommited, Version: g.st.Latest})
	g.logger.Infof("Upgraded to version %s", g.st.Latest)
	return nil
}

func (g *Gateway) freezeOver(_ context.Context, _ ...any) bool {
	return !g.fireAt.Before(time.Unix(g.st.PendingUnixSec, 0).Add(g.freeze))
}

// fire runs a trigger of the upgrade machine and persists the resulting state.
// Must be called with the lock held.
func (g *Gateway) fire(ctx context.Context, op string, t trigger, args ...any) (errs.Outcome, error) {
	backup := g.st
	g.emitQ = g.emitQ[:0]
	g.fireAt = g.clock.Now()
	if err := g.fsm.FireCtx(ctx, t, args...); err != nil {
		g.st = backup
		var r *rejection
		if errors.As(err, &r) {
			return g.reject(ctx, op, r.code)
		}
		return g.fail(op, errors.Wrap(err, op))
	}
	if err := g.store(g.st); err != nil {
		g.st = backup
		return g.fail(op, err)
	}
	for _, e := range g.emitQ {
		if err := g.emit(ctx, e); err != nil {
			return g.fail(op, err)
		}
	}
	return g.accept(op)
}

// ProposeUpgrade sets the first version immediately, every next version is proposed and may be
// committed only after the freeze period.
func (g *Gateway) ProposeUpgrade(ctx context.Context, caller, impl proto.Address) (errs.Outcome, error) {
	const op = "proposeUpgrade"
	g.mu.Lock()
	defer g.mu.Unlock()
	ok, err := g.isPrivileged(ctx, caller, roles.Upgrader)
	if err != nil {
		return g.fail(op, err)
	}
	if !ok {
		return g.reject(ctx, op, errs.CodeOnlyOwner)
	}
	if impl.IsZero() {
		return g.reject(ctx, op, errs.CodeEmptyVersion)
	}
	return g.fire(ctx, op, triggerPropose, impl)
}

func (g *Gateway) PurgeUpgrade(ctx context.Context, caller proto.Address) (errs.Outcome, error) {
	const op = "purgeUpgrade"
	g.mu.Lock()
	defer g.mu.Unlock()
	ok, err := g.isPrivileged(ctx, caller, roles.Upgrader)
	if err != nil {
		return g.fail(op, err)
	}
	if !ok {
		return g.reject(ctx, op, errs.CodeOnlyOwner)
	}
	return g.fire(ctx, op, triggerPurge)
}

// CommitUpgrade makes the pending version the latest one. Anyone may call it.
func (g *Gateway) CommitUpgrade(ctx context.Context, _ proto.Address) (errs.Outcome, error) {
	const op = "commitUpgrade"
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fire(ctx, op, triggerCommit)
}

func (g *Gateway) pin(holder proto.Address) (proto.Address, bool, error) {
	key := pinKey{holder: holder}
	data, err := g.kv.Get(key.bytes())
	if errors.Is(err, keyvalue.ErrNotFound) {
		return proto.Address{}, false, nil
	}
	if err != nil {
		return proto.Address{}, false, errs.Extend(errs.NewStorageError(err.Error()), component)
	}
	v, err := proto.NewAddressFromBytes(data)
	if err != nil {
		return proto.Address{}, false, errors.Wrap(err, "corrupted pin")
	}
	return v, true, nil
}

// OptOut pins the caller to the current latest version.
func (g *Gateway) OptOut(ctx context.Context, caller proto.Address) (errs.Outcome, error) {
	const op = "optOut"
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.st.Latest.IsZero() {
		return g.reject(ctx, op, errs.CodeNoVersion)
	}
	_, ok, err := g.pin(caller)
	if err != nil {
		return g.fail(op, err)
	}
	if ok {
		return g.reject(ctx, op, errs.CodeAlreadyOptedOut)
	}
	key := pinKey{holder: caller}
	if err := g.kv.Put(key.bytes(), g.st.Latest[:]); err != nil {
		return g.fail(op, errs.Extend(errs.NewStorageError(err.Error()), op))
	}
	if err := g.emit(ctx, events.Event{Name: events.OptedOut, From: caller, Version: g.st.Latest}); err != nil {
		return g.fail(op, err)
	}
	return g.accept(op)
}

// OptIn removes the pin of the caller, so it tracks the latest version again.
func (g *Gateway) OptIn(ctx context.Context, caller proto.Address) (errs.Outcome, error) {
	const op = "optIn"
	g.mu.Lock()
	defer g.mu.Unlock()
	pinned, ok, err := g.pin(caller)
	if err != nil {
		return g.fail(op, err)
	}
	if !ok {
		return g.reject(ctx, op, errs.CodeNotOptedOut)
	}
	key := pinKey{holder: caller}
	if err := g.kv.Delete(key.bytes()); err != nil {
		return g.fail(op, errs.Extend(errs.NewStorageError(err.Error()), op))
	}
	if err := g.emit(ctx, events.Event{Name: events.OptedIn, From: caller, Version: pinned}); err != nil {
		return g.fail(op, err)
	}
	return g.accept(op)
}

func (g *Gateway) versionFor(holder proto.Address) (proto.Address, error) {
	pinned, ok, err := g.pin(holder)
	if err != nil {
		return proto.Address{}, err
	}
	if ok {
		return pinned, nil
	}
	return g.st.Latest, nil
}

// GetVersionFor returns the version pinned by the holder or the latest version.
func (g *Gateway) GetVersionFor(holder proto.Address) (proto.Address, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.versionFor(holder)
}

func (g *Gateway) GetLatestVersion() proto.Address {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.st.Latest
}

func (g *Gateway) GetPendingVersion() proto.Address {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.st.Pending
}

// GetPendingVersionTimestamp returns the proposal time or zero time if nothing is pending.
func (g *Gateway) GetPendingVersionTimestamp() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.st.Pending.IsZero() {
		return time.Time{}
	}
	return time.Unix(g.st.PendingUnixSec, 0)
}

func (g *Gateway) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.st.Phase
}
