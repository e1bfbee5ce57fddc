package proto

import (
	"bytes"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

const SymbolSize = 32

// Symbol is the fixed width identity of an asset issued on the ledger.
type Symbol [SymbolSize]byte

func NewSymbolFromString(s string) (Symbol, error) {
	var sym Symbol
	if s == "" {
		return sym, errors.New("empty symbol")
	}
	if len(s) > SymbolSize {
		return sym, errors.Errorf("symbol %q is longer than %d bytes", s, SymbolSize)
	}
	copy(sym[:], s)
	return sym, nil
}

func MustSymbolFromString(s string) Symbol {
	sym, err := NewSymbolFromString(s)
	if err != nil {
		panic(err)
	}
	return sym
}

func (s Symbol) IsZero() bool {
	return s == Symbol{}
}

func (s Symbol) Bytes() []byte {
	return s[:]
}

// String returns the symbol text if it is printable, otherwise the Base58 form of the raw bytes.
func (s Symbol) String() string {
	trimmed := bytes.TrimRight(s[:], "\x00")
	for _, c := range trimmed {
		if c < 0x20 || c > 0x7e {
			return base58.Encode(s[:])
		}
	}
	return string(trimmed)
}

func (s Symbol) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Symbol) UnmarshalText(text []byte) error {
	sym, err := NewSymbolFromString(string(text))
	if err != nil {
		return err
	}
	*s = sym
	return nil
}
