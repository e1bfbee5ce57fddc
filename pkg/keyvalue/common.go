package keyvalue

import (
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("not found")

// KeyValue is the storage every persistent component works with.
type KeyValue interface {
	NewBatch() (Batch, error)
	Has(key []byte) (bool, error)
	Put(key, val []byte) error
	Get(key []byte) ([]byte, error)
	Delete(key []byte) error
	Flush(batch Batch) error
	Close() error
}

// Batch accumulates writes that are applied atomically by Flush.
type Batch interface {
	Delete(key []byte)
	Put(key, val []byte)
	Reset()
}

// Iterator walks keys in ascending order. Key and Value are valid until the next call to Next.
type Iterator interface {
	Key() []byte
	Value() []byte
	Next() bool
	Error() error
	Release()
}

type IterableKeyVal interface {
	KeyValue
	NewKeyIterator(prefix []byte) (Iterator, error)
}

// Copy returns a copy of b that outlives the iterator position it was taken from.
func Copy(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
