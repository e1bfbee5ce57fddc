package roles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavesplatform/etoken/pkg/errs"
	"github.com/wavesplatform/etoken/pkg/keyvalue"
	"github.com/wavesplatform/etoken/pkg/proto"
)

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	kv, err := keyvalue.NewInMemory(keyvalue.BloomFilterParams{N: 100, FalsePositiveProbability: 0.01})
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, kv.Close())
	}()
	r := NewRegistry(kv)

	target := proto.MustAddressFromString("0x0a00000000000000000000000000000000000000")
	admin := proto.MustAddressFromString("0x0b00000000000000000000000000000000000000")
	other := proto.MustAddressFromString("0x0c00000000000000000000000000000000000000")

	ok, err := r.ClaimFor(ctx, target, admin)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.ClaimFor(ctx, target, other)
	require.NoError(t, err)
	assert.False(t, ok, "second claim must fail")

	ok, err = r.HasRole(ctx, target, Admin, admin)
	require.NoError(t, err)
	assert.True(t, ok)

	o, err := r.Grant(ctx, other, target, Legal, other)
	require.NoError(t, err)
	assert.Equal(t, errs.Rejected(errs.CodeAccessDenied), o)

	o, err = r.Grant(ctx, admin, target, Legal, other)
	require.NoError(t, err)
	assert.True(t, o.Accepted)
	ok, err = r.HasRole(ctx, target, Legal, other)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.HasRole(ctx, target, Admin, other)
	require.NoError(t, err)
	assert.False(t, ok)

	o, err = r.Revoke(ctx, admin, target, Legal, other)
	require.NoError(t, err)
	assert.True(t, o.Accepted)
	ok, err = r.HasRole(ctx, target, Legal, other)
	require.NoError(t, err)
	assert.False(t, ok)
}
