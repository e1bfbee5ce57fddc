package proto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsICAP(t *testing.T) {
	for _, test := range []struct {
		code  string
		valid bool
	}{
		{"XE73TSTXREG123456789", true},
		{"XE00AAABBBB000000000", true},
		{"YE73TSTXREG123456789", false},
		{"XE73TSTXREG12345678a", false},
		{"XE73TST-REG123456789", false},
		{"xe73TSTXREG123456789", false},
	} {
		a, err := NewAddressFromString(test.code)
		require.NoError(t, err)
		assert.Equal(t, test.valid, IsICAP(a), test.code)
	}
}

func TestParseICAP(t *testing.T) {
	a := MustAddressFromString("XE73TSTXREG123456789")
	icap, err := ParseICAP(a)
	require.NoError(t, err)
	assert.Equal(t, ICAP{Check: "73", Alias: "TST", Institution: "XREG", Client: "123456789"}, icap)

	_, err = ParseICAP(MustAddressFromString("0x0000000000000000000000000000000000000001"))
	assert.Error(t, err)
}

func TestAddressString(t *testing.T) {
	a := MustAddressFromString("0x00000000000000000000000000000000000000ff")
	assert.Equal(t, "0x00000000000000000000000000000000000000ff", a.String())
	assert.False(t, a.IsZero())
	assert.True(t, ZeroAddress.IsZero())

	icap := MustAddressFromString("XE73TSTXREG123456789")
	assert.Equal(t, "XE73TSTXREG123456789", icap.String())

	_, err := NewAddressFromString("0x00ff")
	assert.Error(t, err)
	_, err = NewAddressFromString("short")
	assert.Error(t, err)
}

func TestAddressJSON(t *testing.T) {
	type holder struct {
		Addr Address `json:"addr"`
	}
	in := holder{Addr: MustAddressFromString("0x1100000000000000000000000000000000000022")}
	js, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"addr":"0x1100000000000000000000000000000000000022"}`, string(js))
	var out holder
	require.NoError(t, json.Unmarshal(js, &out))
	assert.Equal(t, in, out)
}

func TestSymbol(t *testing.T) {
	s, err := NewSymbolFromString("TEST")
	require.NoError(t, err)
	assert.Equal(t, "TEST", s.String())
	assert.False(t, s.IsZero())

	_, err = NewSymbolFromString("")
	assert.Error(t, err)
	_, err = NewSymbolFromString("0123456789012345678901234567890123")
	assert.Error(t, err)

	var raw Symbol
	raw[0] = 0x01
	assert.NotEqual(t, "\x01", raw.String())
}

func TestAmount(t *testing.T) {
	v, err := ParseAmount("1001")
	require.NoError(t, err)
	assert.Equal(t, uint64(1001), v.Uint64())

	b := AmountBytes(v)
	assert.Len(t, b, 32)
	back, err := AmountFromBytes(b)
	require.NoError(t, err)
	assert.True(t, v.Eq(back))

	_, err = ParseAmount("-1")
	assert.Error(t, err)
	_, err = AmountFromBytes(make([]byte, 33))
	assert.Error(t, err)
	assert.Equal(t, "115792089237316195423570985008687907853269984665640564039457584007913129639935", MaxAmount.Dec())
}
