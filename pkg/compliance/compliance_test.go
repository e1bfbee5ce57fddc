package compliance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavesplatform/etoken/pkg/errs"
	"github.com/wavesplatform/etoken/pkg/keyvalue"
	"github.com/wavesplatform/etoken/pkg/proto"
)

var (
	alice = proto.MustAddressFromString("0xa000000000000000000000000000000000000000")
	bob   = proto.MustAddressFromString("0xb000000000000000000000000000000000000000")
)

func TestBlocklist(t *testing.T) {
	kv, err := keyvalue.NewInMemory(keyvalue.BloomFilterParams{N: 100, FalsePositiveProbability: 0.01})
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, kv.Close())
	}()
	ctx := context.Background()
	b := NewBlocklist(kv)
	value := uint256.NewInt(10)

	ok, err := b.IsTransferAllowed(ctx, alice, bob, value)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, b.Block(bob))
	ok, err = b.IsTransferAllowed(ctx, alice, bob, value)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = b.IsTransferToICAPAllowed(ctx, alice, proto.MustAddressFromString("XE73TSTXREG123456789"), value)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, b.Unblock(bob))
	ok, err = b.IsTransferAllowed(ctx, alice, bob, value)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, b.ProcessTransferResult(ctx, alice, bob, value, true))
}

func TestOracles(t *testing.T) {
	d := NewOracles()
	_, ok := d.Oracle(alice)
	assert.False(t, ok)
	d.Register(alice, &Blocklist{})
	o, ok := d.Oracle(alice)
	assert.True(t, ok)
	assert.NotNil(t, o)
}

func TestClientIsTransferAllowed(t *testing.T) {
	var received transferRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oracle/isTransferAllowed", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get(ApiKeyHeader))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{"allowed":true}`))
	}))
	defer ts.Close()

	c, err := NewClient(Options{BaseUrl: ts.URL + "/oracle", ApiKey: "secret"})
	require.NoError(t, err)
	ok, err := c.IsTransferAllowed(context.Background(), alice, bob, uint256.NewInt(42))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, alice, received.From)
	assert.Equal(t, bob, received.To)
	assert.Equal(t, "42", received.Value)
}

func TestClientProcessResult(t *testing.T) {
	var received transferRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/processTransferResult", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
	}))
	defer ts.Close()

	c, err := NewClient(Options{BaseUrl: ts.URL})
	require.NoError(t, err)
	require.NoError(t, c.ProcessTransferResult(context.Background(), alice, bob, uint256.NewInt(1), false))
	require.NotNil(t, received.Success)
	assert.False(t, *received.Success)
}

func TestClientFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	c, err := NewClient(Options{BaseUrl: ts.URL})
	require.NoError(t, err)
	_, err = c.IsTransferAllowed(context.Background(), alice, bob, uint256.NewInt(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.OracleError{}))

	_, err = NewClient(Options{})
	assert.Error(t, err)
}
