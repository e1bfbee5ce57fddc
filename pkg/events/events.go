package events

import (
	"context"
	"sync"

	"github.com/holiman/uint256"

	"github.com/wavesplatform/etoken/pkg/errs"
	"github.com/wavesplatform/etoken/pkg/proto"
)

type Name string

const (
	Transfer                   Name = "Transfer"
	TransferToICAP             Name = "TransferToICAP"
	Issue                      Name = "Issue"
	Revoke                     Name = "Revoke"
	OwnershipChange            Name = "OwnershipChange"
	Approve                    Name = "Approve"
	Error                      Name = "Error"
	Change                     Name = "Change"
	UpgradeProposed            Name = "UpgradeProposed"
	UpgradePurged              Name = "UpgradePurged"
	UpgradeCommited            Name = "UpgradeCommited"
	OptedOut                   Name = "OptedOut"
	OptedIn                    Name = "OptedIn"
	ComplianceConfigurationSet Name = "ComplianceConfigurationSet"
	Recovery                   Name = "Recovery"
)

// Event is a single log entry. Fields not relevant to the event name are left zero.
type Event struct {
	Name      Name
	Emitter   proto.Address
	Symbol    proto.Symbol
	From      proto.Address
	To        proto.Address
	Spender   proto.Address
	ICAP      proto.Address
	Value     *uint256.Int
	Reference string
	Version   proto.Address
	Code      errs.Code
}

func NewError(emitter proto.Address, code errs.Code) Event {
	return Event{Name: Error, Emitter: emitter, Code: code}
}

type Sink interface {
	Emit(ctx context.Context, e Event) error
}

type nopSink struct{}

func (nopSink) Emit(context.Context, Event) error {
	return nil
}

// Nop discards all events.
var Nop Sink = nopSink{}

type multiSink []Sink

func (m multiSink) Emit(ctx context.Context, e Event) error {
	for _, s := range m {
		if err := s.Emit(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Multi emits every event to all sinks in order, stopping at the first error.
func Multi(sinks ...Sink) Sink {
	return multiSink(sinks)
}

// Recorder keeps emitted events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]Event, len(r.events))
	copy(res, r.events)
	return res
}

func (r *Recorder) Named(name Name) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []Event
	for _, e := range r.events {
		if e.Name == name {
			res = append(res, e)
		}
	}
	return res
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
