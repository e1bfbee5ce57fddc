package events

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"

	"github.com/wavesplatform/etoken/pkg/errs"
	"github.com/wavesplatform/etoken/pkg/keyvalue"
	"github.com/wavesplatform/etoken/pkg/proto"
)

const (
	logCounterKeyPrefix byte = iota
	logEventKeyPrefix
)

var logCounterKey = []byte{logCounterKeyPrefix}

func logEventKey(seq uint64) []byte {
	buf := make([]byte, 9)
	buf[0] = logEventKeyPrefix
	binary.BigEndian.PutUint64(buf[1:], seq)
	return buf
}

type eventRecord struct {
	Name      Name          `cbor:"1,keyasint"`
	Emitter   proto.Address `cbor:"2,keyasint"`
	Symbol    proto.Symbol  `cbor:"3,keyasint"`
	From      proto.Address `cbor:"4,keyasint"`
	To        proto.Address `cbor:"5,keyasint"`
	Spender   proto.Address `cbor:"6,keyasint"`
	ICAP      proto.Address `cbor:"7,keyasint"`
	Value     []byte        `cbor:"8,keyasint,omitempty"`
	Reference string        `cbor:"9,keyasint,omitempty"`
	Version   proto.Address `cbor:"10,keyasint"`
	Code      errs.Code     `cbor:"11,keyasint,omitempty"`
}

func (e Event) marshalBinary() ([]byte, error) {
	r := eventRecord{
		Name:      e.Name,
		Emitter:   e.Emitter,
		Symbol:    e.Symbol,
		From:      e.From,
		To:        e.To,
		Spender:   e.Spender,
		ICAP:      e.ICAP,
		Reference: e.Reference,
		Version:   e.Version,
		Code:      e.Code,
	}
	if e.Value != nil {
		r.Value = proto.AmountBytes(e.Value)
	}
	return cbor.Marshal(r)
}

func (e *Event) unmarshalBinary(data []byte) error {
	var r eventRecord
	if err := cbor.Unmarshal(data, &r); err != nil {
		return err
	}
	*e = Event{
		Name:      r.Name,
		Emitter:   r.Emitter,
		Symbol:    r.Symbol,
		From:      r.From,
		To:        r.To,
		Spender:   r.Spender,
		ICAP:      r.ICAP,
		Reference: r.Reference,
		Version:   r.Version,
		Code:      r.Code,
	}
	if r.Value != nil {
		v, err := proto.AmountFromBytes(r.Value)
		if err != nil {
			return err
		}
		e.Value = v
	}
	return nil
}

// Log is an append-only persistent event log.
type Log struct {
	mu   sync.Mutex
	kv   keyvalue.KeyValue
	next uint64
}

func NewLog(kv keyvalue.KeyValue) (*Log, error) {
	l := &Log{kv: kv}
	b, err := kv.Get(logCounterKey)
	switch {
	case errors.Is(err, keyvalue.ErrNotFound):
	case err != nil:
		return nil, errors.Wrap(err, "failed to read event log counter")
	case len(b) != 8:
		return nil, errors.Errorf("invalid event log counter of size %d", len(b))
	default:
		l.next = binary.BigEndian.Uint64(b)
	}
	return l, nil
}

func (l *Log) Emit(_ context.Context, e Event) error {
	data, err := e.marshalBinary()
	if err != nil {
		return errors.Wrap(err, "failed to marshal event")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	batch, err := l.kv.NewBatch()
	if err != nil {
		return err
	}
	counter := make([]byte, 8)
	binary.BigEndian.PutUint64(counter, l.next+1)
	batch.Put(logEventKey(l.next), data)
	batch.Put(logCounterKey, counter)
	if err := l.kv.Flush(batch); err != nil {
		return errs.Extend(errs.NewStorageError(err.Error()), "event log")
	}
	l.next++
	return nil
}

func (l *Log) Len() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.next
}

// Range returns events with sequence numbers in [from, to).
func (l *Log) Range(from, to uint64) ([]Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if to > l.next {
		to = l.next
	}
	if from >= to {
		return nil, nil
	}
	res := make([]Event, 0, to-from)
	for seq := from; seq < to; seq++ {
		data, err := l.kv.Get(logEventKey(seq))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read event %d", seq)
		}
		var e Event
		if err := e.unmarshalBinary(data); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal event %d", seq)
		}
		res = append(res, e)
	}
	return res, nil
}
