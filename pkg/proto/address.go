package proto

import (
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

const (
	AddressSize = 20
	hexPrefix   = "0x"
)

// Address identifies an account, a gateway, an implementation or an institution.
// An Address whose bytes spell a valid ICAP code is routed through the ICAP registry.
type Address [AddressSize]byte

var ZeroAddress = Address{}

func NewAddressFromBytes(b []byte) (Address, error) {
	var a Address
	if l := len(b); l != AddressSize {
		return a, errors.Errorf("invalid address length %d, expected %d", l, AddressSize)
	}
	copy(a[:], b)
	return a, nil
}

// NewAddressFromString accepts either the "0x" prefixed hex form or a raw 20 character code.
func NewAddressFromString(s string) (Address, error) {
	if strings.HasPrefix(s, hexPrefix) {
		b, err := hex.DecodeString(s[len(hexPrefix):])
		if err != nil {
			return Address{}, errors.Wrapf(err, "invalid hex address %q", s)
		}
		return NewAddressFromBytes(b)
	}
	if len(s) != AddressSize {
		return Address{}, errors.Errorf("invalid address %q", s)
	}
	return NewAddressFromBytes([]byte(s))
}

func MustAddressFromString(s string) Address {
	a, err := NewAddressFromString(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) Hex() string {
	return hexPrefix + hex.EncodeToString(a[:])
}

func (a Address) String() string {
	if IsICAP(a) {
		return string(a[:])
	}
	return a.Hex()
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	addr, err := NewAddressFromString(string(text))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}
