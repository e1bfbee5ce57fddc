package keyvalue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixed(t *testing.T) {
	kv, err := NewInMemory(BloomFilterParams{n, falsePositiveProbability})
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, kv.Close())
	}()
	a := NewPrefixed(kv, 1)
	b := NewPrefixed(kv, 2)

	require.NoError(t, a.Put([]byte("k"), []byte("a")))
	has, err := b.Has([]byte("k"))
	require.NoError(t, err)
	assert.False(t, has)

	batch, err := b.NewBatch()
	require.NoError(t, err)
	batch.Put([]byte("k"), []byte("b"))
	require.NoError(t, b.Flush(batch))

	va, err := a.Get([]byte("k"))
	require.NoError(t, err)
	vb, err := b.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), va)
	assert.Equal(t, []byte("b"), vb)

	raw, err := kv.Get([]byte{2, 'k'})
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), raw)

	iter, err := a.NewKeyIterator(nil)
	require.NoError(t, err)
	var keys [][]byte
	for iter.Next() {
		keys = append(keys, Copy(iter.Key()))
	}
	iter.Release()
	require.NoError(t, iter.Error())
	assert.Equal(t, [][]byte{{1, 'k'}}, keys)
}
