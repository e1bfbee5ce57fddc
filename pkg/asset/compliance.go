package asset

import (
	"context"
	"sync"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/wavesplatform/etoken/pkg/compliance"
	"github.com/wavesplatform/etoken/pkg/errs"
	"github.com/wavesplatform/etoken/pkg/events"
	"github.com/wavesplatform/etoken/pkg/gateway"
	"github.com/wavesplatform/etoken/pkg/keyvalue"
	"github.com/wavesplatform/etoken/pkg/proto"
	"github.com/wavesplatform/etoken/pkg/roles"
)

var oracleKey = []byte{0}

// Compliant is an asset implementation whose transfers are authorized by a compliance oracle.
// Without a configured oracle it behaves exactly as the plain implementation.
type Compliant struct {
	*Asset
	mu      sync.Mutex
	kv      keyvalue.KeyValue
	oracles compliance.Directory
	oracle  proto.Address
}

func WithCompliance(a *Asset, kv keyvalue.KeyValue, oracles compliance.Directory) (*Compliant, error) {
	c := &Compliant{Asset: a, kv: kv, oracles: oracles}
	data, err := kv.Get(oracleKey)
	switch {
	case errors.Is(err, keyvalue.ErrNotFound):
	case err != nil:
		return nil, errors.Wrap(err, "failed to load compliance configuration")
	default:
		if c.oracle, err = proto.NewAddressFromBytes(data); err != nil {
			return nil, errors.Wrap(err, "corrupted compliance configuration")
		}
	}
	return c, nil
}

// SetupComplianceConfiguration installs or replaces the oracle. The zero address removes it.
func (c *Compliant) SetupComplianceConfiguration(ctx context.Context, caller, oracle proto.Address) (errs.Outcome, error) {
	const op = "setupComplianceConfiguration"
	ok, err := c.hasRole(ctx, roles.Admin, caller)
	if err != nil {
		return c.fail(op, err)
	}
	if !ok {
		return c.reject(ctx, op, errs.CodeAccessDenied)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if oracle.IsZero() {
		err = c.kv.Delete(oracleKey)
	} else {
		err = c.kv.Put(oracleKey, oracle.Bytes())
	}
	if err != nil {
		return c.fail(op, errs.Extend(errs.NewStorageError(err.Error()), op))
	}
	c.oracle = oracle
	c.logger.Infof("Compliance oracle set to %s", oracle)
	if err := c.emit(ctx, events.Event{Name: events.ComplianceConfigurationSet, From: caller, To: oracle}); err != nil {
		return c.fail(op, err)
	}
	return c.accept(op)
}

func (c *Compliant) ComplianceConfiguration() proto.Address {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.oracle
}

// currentOracle returns nil when no oracle is configured.
func (c *Compliant) currentOracle() (compliance.Oracle, error) {
	c.mu.Lock()
	addr := c.oracle
	c.mu.Unlock()
	if addr.IsZero() {
		return nil, nil
	}
	if c.oracles == nil {
		return nil, errs.NewOracleError("no oracle directory")
	}
	o, ok := c.oracles.Oracle(addr)
	if !ok {
		return nil, errs.NewOracleError("oracle " + addr.String() + " is unknown")
	}
	return o, nil
}

func (c *Compliant) Invoke(ctx context.Context, call gateway.Call) (errs.Outcome, error) {
	switch call.Method {
	case gateway.MethodTransfer:
		return c.gated(ctx, call.Sender, call.Sender, call.To, call.Value, call.Reference, false)
	case gateway.MethodTransferFrom:
		return c.gated(ctx, call.Sender, call.From, call.To, call.Value, call.Reference, false)
	case gateway.MethodTransferToICAP:
		return c.gated(ctx, call.Sender, call.Sender, call.To, call.Value, call.Reference, true)
	case gateway.MethodTransferFromToICAP:
		return c.gated(ctx, call.Sender, call.From, call.To, call.Value, call.Reference, true)
	default:
		return c.Asset.Invoke(ctx, call)
	}
}

func (c *Compliant) mutate(ctx context.Context, sender, from, to proto.Address, value *uint256.Int,
	reference string, icap bool) (errs.Outcome, error) {
	if icap {
		return c.gateway.ForwardTransferFromToICAP(ctx, c.address, sender, from, to, value, reference)
	}
	return c.route(ctx, sender, from, to, value, reference)
}

// gated asks the oracle first, mutates only if allowed and always notifies the oracle of the result.
func (c *Compliant) gated(ctx context.Context, sender, from, to proto.Address, value *uint256.Int,
	reference string, icap bool) (errs.Outcome, error) {
	const op = "transfer"
	if value == nil {
		value = new(uint256.Int)
	}
	oracle, err := c.currentOracle()
	if err != nil {
		return c.fail(op, err)
	}
	if oracle == nil {
		return c.mutate(ctx, sender, from, to, value, reference, icap)
	}
	var allowed bool
	if icap {
		allowed, err = oracle.IsTransferToICAPAllowed(ctx, from, to, value)
	} else {
		allowed, err = oracle.IsTransferAllowed(ctx, from, to, value)
	}
	if err != nil {
		return c.fail(op, errs.Extend(err, "authorization"))
	}
	if !allowed {
		c.notify(ctx, oracle, from, to, value, icap, false)
		return c.reject(ctx, op, errs.CodeTransferNotAllowed)
	}
	o, err := c.mutate(ctx, sender, from, to, value, reference, icap)
	c.notify(ctx, oracle, from, to, value, icap, err == nil && o.Accepted)
	return o, err
}

// notify reports the result to the oracle. Its failures never affect the transfer.
func (c *Compliant) notify(ctx context.Context, oracle compliance.Oracle, from, to proto.Address, value *uint256.Int,
	icap, success bool) {
	var err error
	if icap {
		err = oracle.ProcessTransferToICAPResult(ctx, from, to, value, success)
	} else {
		err = oracle.ProcessTransferResult(ctx, from, to, value, success)
	}
	if err != nil {
		c.logger.Warnf("Oracle failed to process transfer result: %v", err)
	}
}

// LegalTransferFrom moves value from holder from without asking the oracle. The oracle is still
// notified. Caller must have the legal role on this implementation.
func (c *Compliant) LegalTransferFrom(ctx context.Context, caller, from, to proto.Address, value *uint256.Int,
	reference string) (errs.Outcome, error) {
	const op = "legalTransferFrom"
	ok, err := c.hasRole(ctx, roles.Legal, caller)
	if err != nil {
		return c.fail(op, err)
	}
	if !ok {
		return c.reject(ctx, op, errs.CodeAccessDenied)
	}
	if value == nil {
		value = new(uint256.Int)
	}
	oracle, err := c.currentOracle()
	if err != nil {
		return c.fail(op, err)
	}
	o, err := c.route(ctx, from, from, to, value, reference)
	if oracle != nil {
		c.notify(ctx, oracle, from, to, value, false, err == nil && o.Accepted)
	}
	return o, err
}
