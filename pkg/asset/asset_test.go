package asset

import (
	"context"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavesplatform/etoken/pkg/compliance"
	"github.com/wavesplatform/etoken/pkg/errs"
	"github.com/wavesplatform/etoken/pkg/events"
	"github.com/wavesplatform/etoken/pkg/gateway"
	"github.com/wavesplatform/etoken/pkg/icap"
	"github.com/wavesplatform/etoken/pkg/keyvalue"
	"github.com/wavesplatform/etoken/pkg/ledger"
	"github.com/wavesplatform/etoken/pkg/mock"
	"github.com/wavesplatform/etoken/pkg/proto"
	"github.com/wavesplatform/etoken/pkg/roles"
)

var (
	ledgerAddress  = proto.MustAddressFromString("0xe700000000000000000000000000000000000000")
	contractOwner  = proto.MustAddressFromString("0xc000000000000000000000000000000000000000")
	issuer         = proto.MustAddressFromString("0x1000000000000000000000000000000000000000")
	alice          = proto.MustAddressFromString("0xa000000000000000000000000000000000000000")
	bob            = proto.MustAddressFromString("0xb000000000000000000000000000000000000000")
	carol          = proto.MustAddressFromString("0xca00000000000000000000000000000000000000")
	institution    = proto.MustAddressFromString("0x1500000000000000000000000000000000000000")
	gatewayAddress = proto.MustAddressFromString("0x9000000000000000000000000000000000000000")
	implAddress    = proto.MustAddressFromString("0x0100000000000000000000000000000000000001")
	oracleAddress  = proto.MustAddressFromString("0x0c00000000000000000000000000000000000001")
	symbol         = proto.MustSymbolFromString("TEST")

	validICAP      = proto.MustAddressFromString("XE73TSTXREG123456789")
	unresolvedICAP = proto.MustAddressFromString("XE73TSTXBAD123456789")
	invalidICAP    = proto.MustAddressFromString("XE73TSTXREG12345678a")
)

type testAsset struct {
	*Compliant
	t       *testing.T
	ctx     context.Context
	kv      *keyvalue.KeyVal
	ledger  *ledger.Ledger
	gateway *gateway.Gateway
	roles   *roles.Registry
	oracles *compliance.Oracles
	rec     *events.Recorder
}

func newTestAsset(t *testing.T) *testAsset {
	kv, err := keyvalue.NewInMemory(keyvalue.BloomFilterParams{N: 1000, FalsePositiveProbability: 0.01})
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, kv.Close())
	})
	ta := &testAsset{
		t:       t,
		ctx:     context.Background(),
		kv:      kv,
		roles:   roles.NewRegistry(keyvalue.NewPrefixed(kv, 3)),
		oracles: compliance.NewOracles(),
		rec:     events.NewRecorder(),
	}
	ta.ledger = ledger.New(keyvalue.NewPrefixed(kv, 0), ledgerAddress, contractOwner, ta.rec)
	ta.mustAccept(ta.ledger.Issue(ta.ctx, issuer, ledger.IssueRequest{Symbol: symbol, Value: uint256.NewInt(1000), Name: "Test"}))
	ta.mustAccept(ta.ledger.SetProxy(ta.ctx, contractOwner, symbol, gatewayAddress))

	registry := icap.NewRegistry(keyvalue.NewPrefixed(kv, 1), contractOwner)
	ta.mustAccept(ta.ledger.SetupRegistryICAP(ta.ctx, contractOwner, registry))
	ta.mustAccept(registry.RegisterAsset(ta.ctx, contractOwner, "TST", symbol))
	ta.mustAccept(registry.RegisterInstitution(ta.ctx, contractOwner, "XREG", institution))
	ta.mustAccept(registry.RegisterInstitutionAsset(ta.ctx, institution, "TST", "XREG", institution))

	impls := gateway.NewImplementations()
	ta.gateway, err = gateway.New(keyvalue.NewPrefixed(kv, 2), gateway.Params{
		Address:   gatewayAddress,
		Ledger:    ta.ledger,
		Directory: impls,
		Sink:      ta.rec,
	})
	require.NoError(t, err)
	ta.mustAccept(ta.gateway.Init(ta.ctx, symbol, "Test"))

	a, err := New(Params{
		Address:   implAddress,
		Gateway:   ta.gateway,
		Resolver:  registry,
		Authority: ta.roles,
		Sink:      ta.rec,
	})
	require.NoError(t, err)
	ta.Compliant = ta.wrap(a)
	impls.Register(ta.Compliant)
	ta.mustAccept(ta.gateway.ProposeUpgrade(ta.ctx, issuer, implAddress))
	return ta
}

func (ta *testAsset) wrap(a *Asset) *Compliant {
	c, err := WithCompliance(a, keyvalue.NewPrefixed(ta.kv, 4), ta.oracles)
	require.NoError(ta.t, err)
	return c
}

func (ta *testAsset) mustAccept(o errs.Outcome, err error) {
	ta.t.Helper()
	require.NoError(ta.t, err)
	require.True(ta.t, o.Accepted, o.String())
}

func (ta *testAsset) requireOutcome(expected errs.Outcome, o errs.Outcome, err error) {
	ta.t.Helper()
	require.NoError(ta.t, err)
	require.Equal(ta.t, expected, o)
}

func (ta *testAsset) balance(holder proto.Address) uint64 {
	ta.t.Helper()
	b, err := ta.ledger.BalanceOf(symbol, holder)
	require.NoError(ta.t, err)
	return b.Uint64()
}

// installOracle makes admin the administrator of the implementation and sets up the oracle.
func (ta *testAsset) installOracle(admin proto.Address, o compliance.Oracle) {
	ta.t.Helper()
	ok, err := ta.Claim(ta.ctx, admin)
	require.NoError(ta.t, err)
	require.True(ta.t, ok)
	ta.oracles.Register(oracleAddress, o)
	ta.mustAccept(ta.SetupComplianceConfiguration(ta.ctx, admin, oracleAddress))
}

func TestUndeclaredMethod(t *testing.T) {
	ta := newTestAsset(t)
	_, err := ta.Invoke(ta.ctx, gateway.Call{Method: "mint", Sender: issuer, To: issuer, Value: uint256.NewInt(1)})
	assert.True(t, errors.Is(err, errs.ErrUndeclaredMethod))
	_, err = ta.gateway.Invoke(ta.ctx, issuer, gateway.Call{Method: "burn", Value: uint256.NewInt(1)})
	assert.True(t, errors.Is(err, errs.ErrUndeclaredMethod))
	assert.Equal(t, uint64(1000), ta.balance(issuer))
}

func TestRoundTrip(t *testing.T) {
	ta := newTestAsset(t)
	ta.mustAccept(ta.gateway.Transfer(ta.ctx, issuer, alice, uint256.NewInt(100)))
	ta.mustAccept(ta.gateway.Transfer(ta.ctx, alice, issuer, uint256.NewInt(100)))
	assert.Equal(t, uint64(1000), ta.balance(issuer))
	assert.Equal(t, uint64(0), ta.balance(alice))
	assert.Len(t, ta.rec.Named(events.Transfer), 2)
}

func TestApprove(t *testing.T) {
	ta := newTestAsset(t)
	ta.mustAccept(ta.gateway.Approve(ta.ctx, issuer, alice, uint256.NewInt(50)))
	ta.mustAccept(ta.gateway.Approve(ta.ctx, issuer, alice, uint256.NewInt(20)))
	allowance, err := ta.gateway.Allowance(issuer, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), allowance.Uint64())

	o, err := ta.gateway.TransferFrom(ta.ctx, alice, issuer, bob, uint256.NewInt(21))
	ta.requireOutcome(errs.Rejected(errs.CodeInsufficientAllow), o, err)
	ta.mustAccept(ta.gateway.TransferFrom(ta.ctx, alice, issuer, bob, uint256.NewInt(20)))
	assert.Equal(t, uint64(20), ta.balance(bob))
}

func TestICAPRouting(t *testing.T) {
	ta := newTestAsset(t)
	ta.mustAccept(ta.gateway.TransferWithReference(ta.ctx, issuer, validICAP, uint256.NewInt(10), "invoice 1"))
	assert.Equal(t, uint64(10), ta.balance(institution))
	assert.Equal(t, uint64(0), ta.balance(validICAP))
	routed := ta.rec.Named(events.TransferToICAP)
	require.Len(t, routed, 1)
	assert.Equal(t, validICAP, routed[0].ICAP)
	assert.Equal(t, institution, routed[0].To)
	assert.Equal(t, "invoice 1", routed[0].Reference)

	// Codes that don't resolve are plain addresses.
	ta.mustAccept(ta.gateway.Transfer(ta.ctx, issuer, invalidICAP, uint256.NewInt(3)))
	assert.Equal(t, uint64(3), ta.balance(invalidICAP))
	ta.mustAccept(ta.gateway.Transfer(ta.ctx, issuer, unresolvedICAP, uint256.NewInt(4)))
	assert.Equal(t, uint64(4), ta.balance(unresolvedICAP))
	assert.Len(t, ta.rec.Named(events.TransferToICAP), 1)

	o, err := ta.gateway.TransferToICAP(ta.ctx, issuer, unresolvedICAP, uint256.NewInt(1), "")
	ta.requireOutcome(errs.Rejected(errs.CodeICAPNotResolved), o, err)

	ta.mustAccept(ta.gateway.Approve(ta.ctx, issuer, alice, uint256.NewInt(5)))
	ta.mustAccept(ta.gateway.TransferFromToICAP(ta.ctx, alice, issuer, validICAP, uint256.NewInt(5), ""))
	assert.Equal(t, uint64(15), ta.balance(institution))
}

func TestSetupComplianceConfiguration(t *testing.T) {
	ta := newTestAsset(t)
	o, err := ta.SetupComplianceConfiguration(ta.ctx, alice, oracleAddress)
	ta.requireOutcome(errs.Rejected(errs.CodeAccessDenied), o, err)
	assert.True(t, ta.ComplianceConfiguration().IsZero())

	ta.installOracle(carol, compliance.NewBlocklist(keyvalue.NewPrefixed(ta.kv, 5)))
	assert.Equal(t, oracleAddress, ta.ComplianceConfiguration())
	set := ta.rec.Named(events.ComplianceConfigurationSet)
	require.Len(t, set, 1)
	assert.Equal(t, oracleAddress, set[0].To)

	reloaded := ta.wrap(ta.Asset)
	assert.Equal(t, oracleAddress, reloaded.ComplianceConfiguration())

	ta.mustAccept(ta.SetupComplianceConfiguration(ta.ctx, carol, proto.Address{}))
	assert.True(t, ta.wrap(ta.Asset).ComplianceConfiguration().IsZero())
}

func TestComplianceDenial(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	oracle := mock.NewMockOracle(ctrl)
	ta := newTestAsset(t)
	ta.installOracle(carol, oracle)

	gomock.InOrder(
		oracle.EXPECT().IsTransferAllowed(gomock.Any(), issuer, alice, gomock.Any()).Return(false, nil),
		oracle.EXPECT().ProcessTransferResult(gomock.Any(), issuer, alice, gomock.Any(), false).Return(nil).Times(1),
	)
	o, err := ta.gateway.Transfer(ta.ctx, issuer, alice, uint256.NewInt(10))
	ta.requireOutcome(errs.Rejected(errs.CodeTransferNotAllowed), o, err)
	assert.Equal(t, uint64(1000), ta.balance(issuer))
	assert.Equal(t, uint64(0), ta.balance(alice))
	assert.Empty(t, ta.rec.Named(events.Transfer))
}

func TestComplianceAllowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	oracle := mock.NewMockOracle(ctrl)
	ta := newTestAsset(t)
	ta.installOracle(carol, oracle)

	gomock.InOrder(
		oracle.EXPECT().IsTransferAllowed(gomock.Any(), issuer, alice, gomock.Any()).Return(true, nil),
		oracle.EXPECT().ProcessTransferResult(gomock.Any(), issuer, alice, gomock.Any(), true).Return(errors.New("audit is down")),
	)
	ta.mustAccept(ta.gateway.Transfer(ta.ctx, issuer, alice, uint256.NewInt(10)))
	assert.Equal(t, uint64(10), ta.balance(alice))

	// A failed mutation is reported too.
	gomock.InOrder(
		oracle.EXPECT().IsTransferAllowed(gomock.Any(), alice, bob, gomock.Any()).Return(true, nil),
		oracle.EXPECT().ProcessTransferResult(gomock.Any(), alice, bob, gomock.Any(), false).Return(nil),
	)
	o, err := ta.gateway.Transfer(ta.ctx, alice, bob, uint256.NewInt(11))
	ta.requireOutcome(errs.Rejected(errs.CodeInsufficientBalance), o, err)

	gomock.InOrder(
		oracle.EXPECT().IsTransferToICAPAllowed(gomock.Any(), issuer, validICAP, gomock.Any()).Return(true, nil),
		oracle.EXPECT().ProcessTransferToICAPResult(gomock.Any(), issuer, validICAP, gomock.Any(), true).Return(nil),
	)
	ta.mustAccept(ta.gateway.TransferToICAP(ta.ctx, issuer, validICAP, uint256.NewInt(7), ""))
	assert.Equal(t, uint64(7), ta.balance(institution))

	ta.mustAccept(ta.gateway.Approve(ta.ctx, issuer, bob, uint256.NewInt(1)))
}

func TestOracleFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	oracle := mock.NewMockOracle(ctrl)
	ta := newTestAsset(t)
	ta.installOracle(carol, oracle)

	oracle.EXPECT().IsTransferAllowed(gomock.Any(), issuer, alice, gomock.Any()).
		Return(false, errs.NewOracleError("timeout"))
	_, err := ta.gateway.Transfer(ta.ctx, issuer, alice, uint256.NewInt(10))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.OracleError{}))
	assert.Equal(t, uint64(0), ta.balance(alice))

	ta.oracles = compliance.NewOracles()
	c := ta.wrap(ta.Asset)
	_, err = c.Invoke(ta.ctx, gateway.Call{Method: gateway.MethodTransfer, Sender: issuer, To: alice, Value: uint256.NewInt(1)})
	assert.True(t, errors.Is(err, errs.OracleError{}))
}

func TestLegalTransferFrom(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	oracle := mock.NewMockOracle(ctrl)
	ta := newTestAsset(t)
	ta.installOracle(carol, oracle)

	oracle.EXPECT().IsTransferAllowed(gomock.Any(), issuer, alice, gomock.Any()).Return(true, nil)
	oracle.EXPECT().ProcessTransferResult(gomock.Any(), issuer, alice, gomock.Any(), true).Return(nil)
	ta.mustAccept(ta.gateway.Transfer(ta.ctx, issuer, alice, uint256.NewInt(30)))

	o, err := ta.LegalTransferFrom(ta.ctx, bob, alice, bob, uint256.NewInt(30), "court order")
	ta.requireOutcome(errs.Rejected(errs.CodeAccessDenied), o, err)

	ta.mustAccept(ta.roles.Grant(ta.ctx, carol, implAddress, roles.Legal, bob))
	oracle.EXPECT().ProcessTransferResult(gomock.Any(), alice, bob, gomock.Any(), true).Return(nil)
	ta.mustAccept(ta.LegalTransferFrom(ta.ctx, bob, alice, bob, uint256.NewInt(30), "court order"))
	assert.Equal(t, uint64(0), ta.balance(alice))
	assert.Equal(t, uint64(30), ta.balance(bob))
}

func TestNilValueThroughOracle(t *testing.T) {
	ta := newTestAsset(t)
	ta.installOracle(carol, compliance.NewBlocklist(keyvalue.NewPrefixed(ta.kv, 5)))

	var (
		o   errs.Outcome
		err error
	)
	require.NotPanics(t, func() {
		o, err = ta.gateway.Transfer(ta.ctx, issuer, alice, nil)
	})
	ta.requireOutcome(errs.Rejected(errs.CodeZeroValue), o, err)
	require.NotPanics(t, func() {
		o, err = ta.gateway.TransferToICAP(ta.ctx, issuer, validICAP, nil, "")
	})
	ta.requireOutcome(errs.Rejected(errs.CodeZeroValue), o, err)
	assert.Equal(t, uint64(1000), ta.balance(issuer))
}

func TestNilValueReachesOracleAsZero(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	oracle := mock.NewMockOracle(ctrl)
	ta := newTestAsset(t)
	ta.installOracle(carol, oracle)

	zero := new(uint256.Int)
	gomock.InOrder(
		oracle.EXPECT().IsTransferAllowed(gomock.Any(), issuer, alice, zero).Return(true, nil),
		oracle.EXPECT().ProcessTransferResult(gomock.Any(), issuer, alice, zero, false).Return(nil),
	)
	o, err := ta.gateway.Transfer(ta.ctx, issuer, alice, nil)
	ta.requireOutcome(errs.Rejected(errs.CodeZeroValue), o, err)

	ta.mustAccept(ta.roles.Grant(ta.ctx, carol, implAddress, roles.Legal, bob))
	oracle.EXPECT().ProcessTransferResult(gomock.Any(), issuer, bob, zero, false).Return(nil)
	o, err = ta.LegalTransferFrom(ta.ctx, bob, issuer, bob, nil, "")
	ta.requireOutcome(errs.Rejected(errs.CodeZeroValue), o, err)
}

func TestConcurrentTransfers(t *testing.T) {
	const (
		workers = 100
		value   = 10
	)
	ta := newTestAsset(t)
	recipients := make([]proto.Address, workers)
	for i := range recipients {
		recipients[i] = proto.Address{0xd0, byte(i + 1)}
	}

	var wg sync.WaitGroup
	for _, r := range recipients {
		wg.Add(1)
		go func(to proto.Address) {
			defer wg.Done()
			o, err := ta.gateway.Transfer(ta.ctx, issuer, to, uint256.NewInt(value))
			assert.NoError(t, err)
			assert.True(t, o.Accepted, o.String())
		}(r)
	}
	wg.Wait()

	assert.Equal(t, uint64(0), ta.balance(issuer))
	var sum uint64
	for _, r := range recipients {
		b := ta.balance(r)
		assert.Equal(t, uint64(value), b)
		sum += b
	}
	assert.Equal(t, uint64(workers*value), sum)
	supply, err := ta.ledger.TotalSupply(symbol)
	require.NoError(t, err)
	assert.Equal(t, sum, supply.Uint64())
	assert.Len(t, ta.rec.Named(events.Transfer), workers)

	o, err := ta.gateway.Transfer(ta.ctx, issuer, alice, uint256.NewInt(1))
	ta.requireOutcome(errs.Rejected(errs.CodeInsufficientBalance), o, err)
}
