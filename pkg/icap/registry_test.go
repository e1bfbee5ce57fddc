package icap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavesplatform/etoken/pkg/errs"
	"github.com/wavesplatform/etoken/pkg/keyvalue"
	"github.com/wavesplatform/etoken/pkg/proto"
)

var (
	owner       = proto.MustAddressFromString("0x0100000000000000000000000000000000000000")
	institution = proto.MustAddressFromString("0x0200000000000000000000000000000000000000")
	stranger    = proto.MustAddressFromString("0x0300000000000000000000000000000000000000")
	symbol      = proto.MustSymbolFromString("TEST")
	code        = proto.MustAddressFromString("XE73TSTXREG123456789")
)

func newTestRegistry(t *testing.T) *Registry {
	kv, err := keyvalue.NewInMemory(keyvalue.BloomFilterParams{N: 100, FalsePositiveProbability: 0.01})
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, kv.Close())
	})
	return NewRegistry(kv, owner)
}

func requireOutcome(t *testing.T, expected errs.Outcome) func(errs.Outcome, error) {
	return func(o errs.Outcome, err error) {
		t.Helper()
		require.NoError(t, err)
		require.Equal(t, expected, o)
	}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	_, ok, err := r.Resolve(code)
	require.NoError(t, err)
	assert.False(t, ok)

	requireOutcome(t, errs.Accepted())(r.RegisterAsset(ctx, owner, "TST", symbol))
	requireOutcome(t, errs.Accepted())(r.RegisterInstitution(ctx, owner, "XREG", institution))
	_, ok, err = r.Resolve(code)
	require.NoError(t, err)
	assert.False(t, ok, "code must not resolve without institution confirmation")

	requireOutcome(t, errs.Rejected(errs.CodeAccessDenied))(r.RegisterInstitutionAsset(ctx, stranger, "TST", "XREG", institution))
	requireOutcome(t, errs.Rejected(errs.CodeAccessDenied))(r.RegisterInstitutionAsset(ctx, stranger, "TST", "XREG", stranger))
	requireOutcome(t, errs.Accepted())(r.RegisterInstitutionAsset(ctx, institution, "TST", "XREG", institution))

	addr, ok, err := r.Resolve(code)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, institution, addr)

	addr, sym, ok, err := r.Parse(code)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, institution, addr)
	assert.Equal(t, symbol, sym)

	// Client part is ignored for routing.
	_, ok, err = r.Resolve(proto.MustAddressFromString("XE00TSTXREG000000000"))
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = r.Resolve(proto.MustAddressFromString("XE73TSTXREG12345678a"))
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = r.Resolve(proto.MustAddressFromString("XE73ABCXREG123456789"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	requireOutcome(t, errs.Rejected(errs.CodeOnlyOwner))(r.RegisterAsset(ctx, stranger, "TST", symbol))
	requireOutcome(t, errs.Rejected(errs.CodeInvalidArgument))(r.RegisterAsset(ctx, owner, "TS", symbol))
	requireOutcome(t, errs.Rejected(errs.CodeInvalidArgument))(r.RegisterAsset(ctx, owner, "tst", symbol))
	requireOutcome(t, errs.Accepted())(r.RegisterAsset(ctx, owner, "TST", symbol))
	requireOutcome(t, errs.Rejected(errs.CodeAlreadyRegistered))(r.RegisterAsset(ctx, owner, "TST", symbol))

	requireOutcome(t, errs.Rejected(errs.CodeOnlyOwner))(r.RegisterInstitution(ctx, stranger, "XREG", institution))
	requireOutcome(t, errs.Rejected(errs.CodeInvalidArgument))(r.RegisterInstitution(ctx, owner, "XRE", institution))
	requireOutcome(t, errs.Rejected(errs.CodeInvalidArgument))(r.RegisterInstitution(ctx, owner, "XREG", proto.ZeroAddress))
	requireOutcome(t, errs.Accepted())(r.RegisterInstitution(ctx, owner, "XREG", institution))
	requireOutcome(t, errs.Rejected(errs.CodeAlreadyRegistered))(r.RegisterInstitution(ctx, owner, "XREG", stranger))

	requireOutcome(t, errs.Rejected(errs.CodeNotRegistered))(r.RegisterInstitutionAsset(ctx, institution, "ABC", "XREG", institution))
	requireOutcome(t, errs.Rejected(errs.CodeNotRegistered))(r.RegisterInstitutionAsset(ctx, institution, "TST", "YREG", institution))

	sym, ok, err := r.Symbol("TST")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, symbol, sym)
	addr, ok, err := r.Institution("XREG")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, institution, addr)
}
