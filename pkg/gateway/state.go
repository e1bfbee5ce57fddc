package gateway

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/wavesplatform/etoken/pkg/proto"
)

// Phase is a state of the upgrade machine.
type Phase uint8

const (
	Uninitialized Phase = iota
	Bootstrapped
	ProposalPending
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "Uninitialized"
	case Bootstrapped:
		return "Bootstrapped"
	case ProposalPending:
		return "ProposalPending"
	default:
		return "Unknown"
	}
}

type trigger string

const (
	triggerPropose trigger = "propose"
	triggerPurge   trigger = "purge"
	triggerCommit  trigger = "commit"
)

// state is the persisted binding and upgrade state of a gateway.
type state struct {
	Symbol         proto.Symbol  `cbor:"1,keyasint"`
	Name           string        `cbor:"2,keyasint"`
	Phase          Phase         `cbor:"3,keyasint"`
	Latest         proto.Address `cbor:"4,keyasint"`
	Pending        proto.Address `cbor:"5,keyasint"`
	PendingUnixSec int64         `cbor:"6,keyasint"`
}

func (s *state) initialized() bool {
	return !s.Symbol.IsZero()
}

func (s *state) marshalBinary() ([]byte, error) {
	return cbor.Marshal(s)
}

func (s *state) unmarshalBinary(data []byte) error {
	return cbor.Unmarshal(data, s)
}
