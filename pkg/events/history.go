package events

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/wavesplatform/etoken/pkg/errs"
	"github.com/wavesplatform/etoken/pkg/keyvalue"
	"github.com/wavesplatform/etoken/pkg/proto"
)

const (
	historyCounterKeyPrefix byte = iota
	historyVersionKeyPrefix
)

var historyCounterKey = []byte{historyCounterKeyPrefix}

func historyVersionKey(emitter proto.Address) []byte {
	return append([]byte{historyVersionKeyPrefix}, emitter[:]...)
}

// Version describes the emitter registered to write into the history.
type Version struct {
	Number    uint32 `cbor:"1,keyasint"`
	Name      string `cbor:"2,keyasint"`
	Changelog string `cbor:"3,keyasint"`
}

// History forwards events of registered emitters to the next sink and drops all the others.
type History struct {
	mu    sync.Mutex
	kv    keyvalue.KeyValue
	owner proto.Address
	next  Sink
}

func NewHistory(kv keyvalue.KeyValue, owner proto.Address, next Sink) *History {
	return &History{kv: kv, owner: owner, next: next}
}

func (h *History) count() (uint32, error) {
	b, err := h.kv.Get(historyCounterKey)
	if errors.Is(err, keyvalue.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(b) != 4 {
		return 0, errors.Errorf("invalid history counter of size %d", len(b))
	}
	return binary.BigEndian.Uint32(b), nil
}

func (h *History) version(emitter proto.Address) (Version, bool, error) {
	b, err := h.kv.Get(historyVersionKey(emitter))
	if errors.Is(err, keyvalue.ErrNotFound) {
		return Version{}, false, nil
	}
	if err != nil {
		return Version{}, false, err
	}
	var v Version
	if err := cbor.Unmarshal(b, &v); err != nil {
		return Version{}, false, errors.Wrap(err, "failed to unmarshal version")
	}
	return v, true, nil
}

// AddVersion registers emitter. Only the history owner may add versions, each emitter once.
func (h *History) AddVersion(_ context.Context, caller, emitter proto.Address, name, changelog string) (errs.Outcome, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if caller != h.owner {
		return errs.Rejected(errs.CodeOnlyOwner), nil
	}
	if emitter.IsZero() || name == "" || changelog == "" {
		return errs.Rejected(errs.CodeInvalidArgument), nil
	}
	_, ok, err := h.version(emitter)
	if err != nil {
		return errs.Outcome{}, err
	}
	if ok {
		return errs.Rejected(errs.CodeAlreadyRegistered), nil
	}
	n, err := h.count()
	if err != nil {
		return errs.Outcome{}, err
	}
	n++
	data, err := cbor.Marshal(Version{Number: n, Name: name, Changelog: changelog})
	if err != nil {
		return errs.Outcome{}, err
	}
	counter := make([]byte, 4)
	binary.BigEndian.PutUint32(counter, n)
	batch, err := h.kv.NewBatch()
	if err != nil {
		return errs.Outcome{}, err
	}
	batch.Put(historyVersionKey(emitter), data)
	batch.Put(historyCounterKey, counter)
	if err := h.kv.Flush(batch); err != nil {
		return errs.Outcome{}, errs.Extend(errs.NewStorageError(err.Error()), "history")
	}
	return errs.Accepted(), nil
}

func (h *History) VersionOf(emitter proto.Address) (Version, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.version(emitter)
}

func (h *History) Emit(ctx context.Context, e Event) error {
	_, ok, err := h.VersionOf(e.Emitter)
	if err != nil {
		return errors.Wrap(err, "history")
	}
	if !ok {
		zap.S().Named("events").Debugf("Event %s from unregistered emitter %s dropped", e.Name, e.Emitter)
		return nil
	}
	return h.next.Emit(ctx, e)
}
