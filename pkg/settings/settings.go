package settings

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/wavesplatform/etoken/pkg/proto"
	"github.com/wavesplatform/etoken/pkg/util/common"
)

const (
	defaultFreezePeriod = "3d"
	defaultNTPServer    = "pool.ntp.org"
	defaultAPIAddress   = "127.0.0.1:6870"
)

type APISettings struct {
	Address              string        `json:"address"`
	ApiKey               string        `json:"apiKey"`
	Sender               proto.Address `json:"sender"`
	MaxRequestsPerSecond int           `json:"maxRequestsPerSecond"`
	MaxBurst             int           `json:"maxBurst"`
	MaxConnections       int           `json:"maxConnections"`
	LogRequests          bool          `json:"logRequests"`
}

type MetricsSettings struct {
	PrometheusAddress string `json:"prometheusAddress"`
	InfluxURL         string `json:"influxUrl"`
	ReporterID        int    `json:"reporterId"`
}

// OracleSettings describes a compliance oracle. An oracle without URL is a local blocklist.
type OracleSettings struct {
	Address proto.Address `json:"address"`
	URL     string        `json:"url"`
	ApiKey  string        `json:"apiKey"`
}

// AssetSettings binds an asset to its gateway and first implementation.
// The asset is issued to Owner on the first start if the ledger does not know it yet.
type AssetSettings struct {
	Symbol         proto.Symbol  `json:"symbol"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Owner          proto.Address `json:"owner"`
	Supply         string        `json:"supply"`
	BaseUnit       uint8         `json:"baseUnit"`
	Reissuable     bool          `json:"reissuable"`
	Gateway        proto.Address `json:"gateway"`
	Implementation proto.Address `json:"implementation"`
	Compliant      bool          `json:"compliant"`
	Oracle         proto.Address `json:"oracle"`
}

type ICAPInstitution struct {
	Code    string        `json:"code"`
	Address proto.Address `json:"address"`
	Aliases []string      `json:"aliases"`
}

type ICAPSettings struct {
	Aliases      map[string]proto.Symbol `json:"aliases"`
	Institutions []ICAPInstitution       `json:"institutions"`
}

type Settings struct {
	DataDir       string           `json:"dataDir"`
	LedgerAddress proto.Address    `json:"ledgerAddress"`
	ContractOwner proto.Address    `json:"contractOwner"`
	FreezePeriod  string           `json:"freezePeriod"`
	NTPServer     string           `json:"ntpServer"`
	API           APISettings      `json:"api"`
	Metrics       MetricsSettings  `json:"metrics"`
	ICAP          ICAPSettings     `json:"icap"`
	Oracles       []OracleSettings `json:"oracles"`
	Assets        []AssetSettings  `json:"assets"`
}

func DefaultSettings() *Settings {
	return &Settings{
		FreezePeriod: defaultFreezePeriod,
		NTPServer:    defaultNTPServer,
		API: APISettings{
			Address:              defaultAPIAddress,
			MaxRequestsPerSecond: 10,
			MaxBurst:             20,
		},
	}
}

// ReadSettings reads the JSON file over the defaults.
func ReadSettings(fs afero.Fs, path string) (*Settings, error) {
	s := DefaultSettings()
	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open settings file")
	}
	defer func() {
		_ = f.Close()
	}()
	if err := json.NewDecoder(f).Decode(s); err != nil {
		return nil, errors.Wrapf(err, "failed to parse settings file %q", path)
	}
	return s, nil
}

// FreezeDuration parses the freeze period in the "3d12h" format.
func (s *Settings) FreezeDuration() (time.Duration, error) {
	secs, err := common.ParseDuration(s.FreezePeriod)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid freeze period %q", s.FreezePeriod)
	}
	return time.Duration(secs) * time.Second, nil
}

func (s *Settings) Validate() error {
	if s.DataDir == "" {
		return errors.New("empty data directory")
	}
	if s.LedgerAddress.IsZero() || s.ContractOwner.IsZero() {
		return errors.New("ledger address and contract owner must be set")
	}
	if s.API.ApiKey != "" && s.API.Sender.IsZero() {
		return errors.New("API key requires a sender")
	}
	d, err := s.FreezeDuration()
	if err != nil {
		return err
	}
	if d == 0 {
		return errors.New("zero freeze period")
	}
	for alias := range s.ICAP.Aliases {
		if !proto.ValidAlias(alias) {
			return errors.Errorf("invalid ICAP alias %q", alias)
		}
	}
	for _, i := range s.ICAP.Institutions {
		if !proto.ValidInstitution(i.Code) || i.Address.IsZero() {
			return errors.Errorf("invalid ICAP institution %q", i.Code)
		}
		for _, alias := range i.Aliases {
			if _, ok := s.ICAP.Aliases[alias]; !ok {
				return errors.Errorf("institution %q refers to unknown alias %q", i.Code, alias)
			}
		}
	}
	oracles := make(map[proto.Address]struct{}, len(s.Oracles))
	for _, o := range s.Oracles {
		if o.Address.IsZero() {
			return errors.New("oracle without address")
		}
		if _, ok := oracles[o.Address]; ok {
			return errors.Errorf("duplicate oracle %s", o.Address)
		}
		oracles[o.Address] = struct{}{}
	}
	addresses := make(map[proto.Address]struct{})
	symbols := make(map[proto.Symbol]struct{})
	for _, a := range s.Assets {
		if a.Symbol.IsZero() || a.Gateway.IsZero() || a.Implementation.IsZero() {
			return errors.Errorf("asset %q: symbol, gateway and implementation must be set", a.Symbol)
		}
		if a.Owner.IsZero() {
			return errors.Errorf("asset %s: owner must be set", a.Symbol)
		}
		if a.Supply != "" {
			if _, err := proto.ParseAmount(a.Supply); err != nil {
				return errors.Wrapf(err, "asset %s: invalid supply", a.Symbol)
			}
		}
		if !a.Oracle.IsZero() {
			if !a.Compliant {
				return errors.Errorf("asset %s: oracle requires a compliant implementation", a.Symbol)
			}
			if _, ok := oracles[a.Oracle]; !ok {
				return errors.Errorf("asset %s: unknown oracle %s", a.Symbol, a.Oracle)
			}
		}
		if _, ok := symbols[a.Symbol]; ok {
			return errors.Errorf("duplicate asset %s", a.Symbol)
		}
		symbols[a.Symbol] = struct{}{}
		for _, addr := range []proto.Address{a.Gateway, a.Implementation} {
			if _, ok := addresses[addr]; ok {
				return errors.Errorf("address %s is used twice", addr)
			}
			addresses[addr] = struct{}{}
		}
	}
	return nil
}
