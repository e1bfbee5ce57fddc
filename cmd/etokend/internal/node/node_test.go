package node

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavesplatform/etoken/pkg/compliance"
	"github.com/wavesplatform/etoken/pkg/errs"
	"github.com/wavesplatform/etoken/pkg/events"
	"github.com/wavesplatform/etoken/pkg/keyvalue"
	"github.com/wavesplatform/etoken/pkg/proto"
	"github.com/wavesplatform/etoken/pkg/settings"
)

var (
	owner       = proto.MustAddressFromString("0x1000000000000000000000000000000000000000")
	alice       = proto.MustAddressFromString("0xa000000000000000000000000000000000000000")
	mallory     = proto.MustAddressFromString("0xbad0000000000000000000000000000000000000")
	institution = proto.MustAddressFromString("0x1500000000000000000000000000000000000000")
	oracle      = proto.MustAddressFromString("0x0c00000000000000000000000000000000000001")
	symbol      = proto.MustSymbolFromString("TEST")
	plain       = proto.MustSymbolFromString("PLAIN")
)

func testSettings() *settings.Settings {
	s := settings.DefaultSettings()
	s.DataDir = "/tmp/etoken"
	s.LedgerAddress = proto.MustAddressFromString("0xe700000000000000000000000000000000000000")
	s.ContractOwner = proto.MustAddressFromString("0xc000000000000000000000000000000000000000")
	s.ICAP = settings.ICAPSettings{
		Aliases:      map[string]proto.Symbol{"TST": symbol},
		Institutions: []settings.ICAPInstitution{{Code: "XREG", Address: institution, Aliases: []string{"TST"}}},
	}
	s.Oracles = []settings.OracleSettings{{Address: oracle}}
	s.Assets = []settings.AssetSettings{
		{
			Symbol:         symbol,
			Name:           "Test",
			Owner:          owner,
			Supply:         "1000",
			BaseUnit:       2,
			Gateway:        proto.MustAddressFromString("0x9000000000000000000000000000000000000000"),
			Implementation: proto.MustAddressFromString("0x0100000000000000000000000000000000000001"),
			Compliant:      true,
			Oracle:         oracle,
		},
		{
			Symbol:         plain,
			Name:           "Plain",
			Owner:          owner,
			Supply:         "50",
			Gateway:        proto.MustAddressFromString("0x9000000000000000000000000000000000000001"),
			Implementation: proto.MustAddressFromString("0x0100000000000000000000000000000000000002"),
		},
	}
	return s
}

func newKeyVal(t *testing.T) *keyvalue.KeyVal {
	kv, err := keyvalue.NewInMemory(keyvalue.BloomFilterParams{N: 1000, FalsePositiveProbability: 0.01})
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, kv.Close())
	})
	return kv
}

func TestNewBootstrapsAssets(t *testing.T) {
	ctx := context.Background()
	cfg := testSettings()
	require.NoError(t, cfg.Validate())
	n, err := New(ctx, newKeyVal(t), cfg, nil)
	require.NoError(t, err)

	require.Len(t, n.Gateways, 2)
	g, ok := n.Gateways.Gateway(symbol)
	require.True(t, ok)
	supply, err := g.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), supply.Uint64())
	v, err := g.GetVersionFor(owner)
	require.NoError(t, err)
	assert.Equal(t, cfg.Assets[0].Implementation, v)

	proxy, err := n.Ledger.Proxy(plain)
	require.NoError(t, err)
	assert.Equal(t, cfg.Assets[1].Gateway, proxy)

	addr, sym, ok, err := n.Registry.Parse(proto.MustAddressFromString("XE73TSTXREG123456789"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, institution, addr)
	assert.Equal(t, symbol, sym)

	_, ok, err = n.History.VersionOf(cfg.Assets[0].Implementation)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotZero(t, n.Log.Len())
}

func TestNewIsIdempotent(t *testing.T) {
	ctx := context.Background()
	kv := newKeyVal(t)
	cfg := testSettings()
	n, err := New(ctx, kv, cfg, nil)
	require.NoError(t, err)
	g, _ := n.Gateways.Gateway(symbol)
	o, err := g.Transfer(ctx, owner, alice, uint256.NewInt(10))
	require.NoError(t, err)
	require.True(t, o.Accepted)

	n, err = New(ctx, kv, cfg, nil)
	require.NoError(t, err)
	balance, err := n.Ledger.BalanceOf(symbol, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), balance.Uint64())
	supply, err := n.Ledger.TotalSupply(symbol)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), supply.Uint64())
}

func TestBlocklistOracle(t *testing.T) {
	ctx := context.Background()
	n, err := New(ctx, newKeyVal(t), testSettings(), nil)
	require.NoError(t, err)
	o, ok := n.Oracles.Oracle(oracle)
	require.True(t, ok)
	bl, ok := o.(*compliance.Blocklist)
	require.True(t, ok)
	require.NoError(t, bl.Block(mallory))

	var denied []events.Event
	require.NoError(t, n.Bus.Subscribe(events.Error, func(e events.Event) {
		denied = append(denied, e)
	}))
	g, _ := n.Gateways.Gateway(symbol)
	out, err := g.Transfer(ctx, owner, mallory, uint256.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, errs.Rejected(errs.CodeTransferNotAllowed), out)
	require.NotEmpty(t, denied)
	assert.Equal(t, errs.CodeTransferNotAllowed, denied[len(denied)-1].Code)

	p, _ := n.Gateways.Gateway(plain)
	out, err = p.Transfer(ctx, owner, mallory, uint256.NewInt(1))
	require.NoError(t, err)
	assert.True(t, out.Accepted)
}

func TestHTTPOracle(t *testing.T) {
	cfg := testSettings()
	cfg.Oracles[0].URL = "http://oracle.local"
	n, err := New(context.Background(), newKeyVal(t), cfg, nil)
	require.NoError(t, err)
	o, ok := n.Oracles.Oracle(oracle)
	require.True(t, ok)
	_, isClient := o.(*compliance.Client)
	assert.True(t, isClient)
}
