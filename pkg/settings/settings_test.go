package settings

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavesplatform/etoken/pkg/proto"
)

const validSettings = `{
	"dataDir": "/tmp/etoken",
	"ledgerAddress": "0xe700000000000000000000000000000000000000",
	"contractOwner": "0xc000000000000000000000000000000000000000",
	"freezePeriod": "1d12h",
	"api": {"apiKey": "secret", "sender": "0x1000000000000000000000000000000000000000"},
	"icap": {
		"aliases": {"TST": "TEST"},
		"institutions": [{"code": "XREG", "address": "0x1500000000000000000000000000000000000000", "aliases": ["TST"]}]
	},
	"oracles": [{"address": "0x0c00000000000000000000000000000000000001"}],
	"assets": [{
		"symbol": "TEST",
		"name": "Test",
		"owner": "0x1000000000000000000000000000000000000000",
		"supply": "1000000",
		"baseUnit": 2,
		"gateway": "0x9000000000000000000000000000000000000000",
		"implementation": "0x0100000000000000000000000000000000000001",
		"compliant": true,
		"oracle": "0x0c00000000000000000000000000000000000001"
	}]
}`

func writeFile(t *testing.T, content string) afero.Fs {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/etoken.json", []byte(content), 0o644))
	return fs
}

func TestReadSettings(t *testing.T) {
	s, err := ReadSettings(writeFile(t, validSettings), "/etc/etoken.json")
	require.NoError(t, err)
	require.NoError(t, s.Validate())
	assert.Equal(t, defaultNTPServer, s.NTPServer)
	assert.Equal(t, defaultAPIAddress, s.API.Address)
	assert.Equal(t, "0x1000000000000000000000000000000000000000", s.API.Sender.Hex())
	d, err := s.FreezeDuration()
	require.NoError(t, err)
	assert.Equal(t, 36*time.Hour, d)
	require.Len(t, s.Assets, 1)
	assert.Equal(t, "TEST", s.Assets[0].Symbol.String())
	assert.True(t, s.Assets[0].Compliant)
	assert.Equal(t, "TEST", s.ICAP.Aliases["TST"].String())
}

func TestReadSettingsErrors(t *testing.T) {
	_, err := ReadSettings(afero.NewMemMapFs(), "/nope.json")
	assert.Error(t, err)
	_, err = ReadSettings(writeFile(t, "{"), "/etc/etoken.json")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	for _, test := range []struct {
		name   string
		modify func(s *Settings)
	}{
		{"EmptyDataDir", func(s *Settings) { s.DataDir = "" }},
		{"APIKeyWithoutSender", func(s *Settings) { s.API.Sender = proto.Address{} }},
		{"BadFreezePeriod", func(s *Settings) { s.FreezePeriod = "3x" }},
		{"BadAlias", func(s *Settings) { s.ICAP.Aliases["TOOLONG"] = s.Assets[0].Symbol }},
		{"DuplicateAsset", func(s *Settings) { s.Assets = append(s.Assets, s.Assets[0]) }},
		{"DuplicateOracle", func(s *Settings) { s.Oracles = append(s.Oracles, s.Oracles[0]) }},
		{"UnknownOracle", func(s *Settings) { s.Oracles = nil }},
		{"OracleWithoutCompliance", func(s *Settings) { s.Assets[0].Compliant = false }},
		{"BadSupply", func(s *Settings) { s.Assets[0].Supply = "-1" }},
		{"UnknownInstitutionAlias", func(s *Settings) { s.ICAP.Institutions[0].Aliases = []string{"ABC"} }},
	} {
		t.Run(test.name, func(t *testing.T) {
			s, err := ReadSettings(writeFile(t, validSettings), "/etc/etoken.json")
			require.NoError(t, err)
			test.modify(s)
			assert.Error(t, s.Validate())
		})
	}
}
