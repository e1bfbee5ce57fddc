package proto

import (
	"github.com/pkg/errors"
)

const (
	icapCountry           = "XE"
	icapCheckOffset       = 2
	icapAliasOffset       = 4
	icapInstitutionOffset = 7
	icapClientOffset      = 11

	AliasSize       = icapInstitutionOffset - icapAliasOffset
	InstitutionSize = icapClientOffset - icapInstitutionOffset
)

// ICAP is the decoded form of an address in the reserved XE format.
// Check digits are kept as they were given and are not verified.
type ICAP struct {
	Check       string
	Alias       string
	Institution string
	Client      string
}

func isICAPChar(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z')
}

func validCode(s string, size int) bool {
	if len(s) != size {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isICAPChar(s[i]) {
			return false
		}
	}
	return true
}

// IsICAP reports whether the address bytes form a syntactically valid ICAP code.
func IsICAP(a Address) bool {
	if string(a[:icapCheckOffset]) != icapCountry {
		return false
	}
	return validCode(string(a[:]), AddressSize)
}

func ParseICAP(a Address) (ICAP, error) {
	if !IsICAP(a) {
		return ICAP{}, errors.Errorf("%s is not an ICAP code", a.Hex())
	}
	return ICAP{
		Check:       string(a[icapCheckOffset:icapAliasOffset]),
		Alias:       string(a[icapAliasOffset:icapInstitutionOffset]),
		Institution: string(a[icapInstitutionOffset:icapClientOffset]),
		Client:      string(a[icapClientOffset:]),
	}, nil
}

func ValidAlias(alias string) bool {
	return validCode(alias, AliasSize)
}

func ValidInstitution(code string) bool {
	return validCode(code, InstitutionSize)
}
