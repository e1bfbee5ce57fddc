package proto

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// MaxAmount is the largest supply an asset may reach.
var MaxAmount = new(uint256.Int).SetAllOne()

func NewAmount(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func ParseAmount(s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid amount %q", s)
	}
	return v, nil
}

// AmountFromBytes decodes a big-endian amount of at most 32 bytes.
func AmountFromBytes(b []byte) (*uint256.Int, error) {
	if len(b) > 32 {
		return nil, errors.Errorf("amount is %d bytes long", len(b))
	}
	return new(uint256.Int).SetBytes(b), nil
}

func AmountBytes(v *uint256.Int) []byte {
	b := v.Bytes32()
	return b[:]
}
