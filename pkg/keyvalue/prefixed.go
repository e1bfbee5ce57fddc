package keyvalue

// Prefixed is a view of an iterable store in which every key is namespaced by a fixed prefix.
// Components sharing one database get their own Prefixed view.
type Prefixed struct {
	kv     IterableKeyVal
	prefix []byte
}

func NewPrefixed(kv IterableKeyVal, prefix ...byte) *Prefixed {
	p := make([]byte, len(prefix))
	copy(p, prefix)
	return &Prefixed{kv: kv, prefix: p}
}

func (p *Prefixed) key(k []byte) []byte {
	res := make([]byte, len(p.prefix)+len(k))
	copy(res, p.prefix)
	copy(res[len(p.prefix):], k)
	return res
}

type prefixedBatch struct {
	owner *Prefixed
	inner Batch
}

func (b *prefixedBatch) Delete(key []byte) {
	b.inner.Delete(b.owner.key(key))
}

func (b *prefixedBatch) Put(key, val []byte) {
	b.inner.Put(b.owner.key(key), val)
}

func (b *prefixedBatch) Reset() {
	b.inner.Reset()
}

func (p *Prefixed) NewBatch() (Batch, error) {
	inner, err := p.kv.NewBatch()
	if err != nil {
		return nil, err
	}
	return &prefixedBatch{owner: p, inner: inner}, nil
}

func (p *Prefixed) Has(key []byte) (bool, error) {
	return p.kv.Has(p.key(key))
}

func (p *Prefixed) Put(key, val []byte) error {
	return p.kv.Put(p.key(key), val)
}

func (p *Prefixed) Get(key []byte) ([]byte, error) {
	return p.kv.Get(p.key(key))
}

func (p *Prefixed) Delete(key []byte) error {
	return p.kv.Delete(p.key(key))
}

func (p *Prefixed) Flush(b Batch) error {
	if pb, ok := b.(*prefixedBatch); ok {
		return p.kv.Flush(pb.inner)
	}
	return p.kv.Flush(b)
}

// Close does nothing, the underlying store is owned by the caller of NewPrefixed.
func (p *Prefixed) Close() error {
	return nil
}

// NewKeyIterator iterates over keys of this view, keys are returned with the view prefix.
func (p *Prefixed) NewKeyIterator(prefix []byte) (Iterator, error) {
	return p.kv.NewKeyIterator(p.key(prefix))
}

func (p *Prefixed) Prefix() []byte {
	return p.prefix
}
