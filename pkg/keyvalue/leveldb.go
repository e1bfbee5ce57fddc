package keyvalue

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

type pair struct {
	key      []byte
	value    []byte
	deletion bool
}

type batch struct {
	pairs []pair
}

func (b *batch) Delete(key []byte) {
	keyCopy := make([]byte, len(key))
	copy(keyCopy, key)
	b.pairs = append(b.pairs, pair{key: keyCopy, deletion: true})
}

func (b *batch) Put(key, val []byte) {
	valCopy := make([]byte, len(val))
	copy(valCopy, val)
	keyCopy := make([]byte, len(key))
	copy(keyCopy, key)
	b.pairs = append(b.pairs, pair{key: keyCopy, value: valCopy, deletion: false})
}

func (b *batch) leveldbBatch() *leveldb.Batch {
	leveldbBatch := new(leveldb.Batch)
	for _, pair := range b.pairs {
		if pair.deletion {
			leveldbBatch.Delete(pair.key)
		} else {
			leveldbBatch.Put(pair.key, pair.value)
		}
	}
	return leveldbBatch
}

func (b *batch) Reset() {
	b.pairs = nil
}

type KeyVal struct {
	db     *leveldb.DB
	filter *bloomFilter
}

func initBloomFilter(kv *KeyVal, params BloomFilterParams) (err error) {
	filter, err := newBloomFilter(params)
	if err != nil {
		return err
	}
	iter, err := kv.NewKeyIterator(nil)
	if err != nil {
		return err
	}
	defer func() {
		iter.Release()
		if itErr := iter.Error(); itErr != nil && err == nil {
			err = errors.Wrap(itErr, "bloom filter initialization")
		}
	}()
	for iter.Next() {
		filter.add(iter.Key())
	}
	kv.filter = filter
	return nil
}

func newKeyVal(db *leveldb.DB, params BloomFilterParams) (*KeyVal, error) {
	kv := &KeyVal{db: db}
	if err := initBloomFilter(kv, params); err != nil {
		_ = db.Close()
		return nil, err
	}
	return kv, nil
}

// NewKeyVal opens (or creates) a leveldb database at path.
func NewKeyVal(path string, params BloomFilterParams) (*KeyVal, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database at %q", path)
	}
	return newKeyVal(db, params)
}

// NewInMemory creates a leveldb database that lives in memory only.
func NewInMemory(params BloomFilterParams) (*KeyVal, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open in-memory database")
	}
	return newKeyVal(db, params)
}

func (k *KeyVal) NewBatch() (Batch, error) {
	return &batch{}, nil
}

func (k *KeyVal) Get(key []byte) ([]byte, error) {
	if k.filter != nil && k.filter.notInTheSet(key) {
		return nil, ErrNotFound
	}
	val, err := k.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return val, err
}

func (k *KeyVal) Has(key []byte) (bool, error) {
	if k.filter != nil && k.filter.notInTheSet(key) {
		return false, nil
	}
	return k.db.Has(key, nil)
}

func (k *KeyVal) Delete(key []byte) error {
	return k.db.Delete(key, nil)
}

func (k *KeyVal) Put(key, val []byte) error {
	if err := k.db.Put(key, val, nil); err != nil {
		return err
	}
	k.filter.add(key)
	return nil
}

func (k *KeyVal) Flush(b1 Batch) error {
	b, ok := b1.(*batch)
	if !ok {
		return errors.New("can't convert batch interface to leveldb's batch")
	}
	if err := k.db.Write(b.leveldbBatch(), nil); err != nil {
		return err
	}
	for _, p := range b.pairs {
		if !p.deletion {
			k.filter.add(p.key)
		}
	}
	b.Reset()
	return nil
}

func (k *KeyVal) NewKeyIterator(prefix []byte) (Iterator, error) {
	if prefix != nil {
		return k.db.NewIterator(util.BytesPrefix(prefix), nil), nil
	}
	return k.db.NewIterator(nil, nil), nil
}

func (k *KeyVal) Close() error {
	return k.db.Close()
}
