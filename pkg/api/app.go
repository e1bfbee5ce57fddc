package api

import (
	"context"
	"crypto/subtle"

	"github.com/ccoveille/go-safecast"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"

	apiErrs "github.com/wavesplatform/etoken/pkg/api/errors"
	"github.com/wavesplatform/etoken/pkg/errs"
	"github.com/wavesplatform/etoken/pkg/events"
	"github.com/wavesplatform/etoken/pkg/gateway"
	"github.com/wavesplatform/etoken/pkg/icap"
	"github.com/wavesplatform/etoken/pkg/ledger"
	"github.com/wavesplatform/etoken/pkg/proto"
)

// default app settings
const (
	defaultEventsRequestLimit = 100
)

type appSettings struct {
	EventsRequestLimit int
}

func defaultAppSettings() *appSettings {
	return &appSettings{
		EventsRequestLimit: defaultEventsRequestLimit,
	}
}

// Gateways looks up the gateway of an asset.
type Gateways interface {
	Gateway(symbol proto.Symbol) (*gateway.Gateway, bool)
}

type GatewayMap map[proto.Symbol]*gateway.Gateway

func (m GatewayMap) Gateway(symbol proto.Symbol) (*gateway.Gateway, bool) {
	g, ok := m[symbol]
	return g, ok
}

type App struct {
	hashedApiKey  [blake2b.Size256]byte
	apiKeyEnabled bool
	sender        proto.Address
	ledger        *ledger.Ledger
	gateways      Gateways
	registry      *icap.Registry
	log           *events.Log
	settings      *appSettings
}

// NewApp creates the API application. Authorized calls act on behalf of sender; without a sender
// the API key is disabled.
func NewApp(apiKey string, sender proto.Address, l *ledger.Ledger, gateways Gateways, registry *icap.Registry, log *events.Log) (*App, error) {
	if l == nil || gateways == nil {
		return nil, errors.New("api requires a ledger and gateways")
	}
	return &App{
		hashedApiKey:  blake2b.Sum256([]byte(apiKey)),
		apiKeyEnabled: len(apiKey) > 0 && !sender.IsZero(),
		sender:        sender,
		ledger:        l,
		gateways:      gateways,
		registry:      registry,
		log:           log,
		settings:      defaultAppSettings(),
	}, nil
}

func (a *App) checkAuth(key string) error {
	if !a.apiKeyEnabled {
		return apiErrs.ErrAPIKeyDisabled
	}
	d := blake2b.Sum256([]byte(key))
	if subtle.ConstantTimeCompare(d[:], a.hashedApiKey[:]) != 1 {
		return apiErrs.ErrAPIKeyNotValid
	}
	return nil
}

type assetInfo struct {
	Symbol      proto.Symbol  `json:"symbol"`
	Owner       proto.Address `json:"owner"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	BaseUnit    uint8         `json:"baseUnit"`
	TotalSupply string        `json:"totalSupply"`
	Reissuable  bool          `json:"reissuable"`
	Locked      bool          `json:"locked"`
	Gateway     proto.Address `json:"gateway"`
}

func (a *App) Asset(symbol proto.Symbol) (assetInfo, error) {
	asset, ok, err := a.ledger.Asset(symbol)
	if err != nil {
		return assetInfo{}, err
	}
	if !ok {
		return assetInfo{}, apiErrs.AssetDoesNotExist
	}
	return assetInfo{
		Symbol:      asset.Symbol,
		Owner:       asset.Owner,
		Name:        asset.Name,
		Description: asset.Description,
		BaseUnit:    asset.BaseUnit,
		TotalSupply: asset.TotalSupply.Dec(),
		Reissuable:  asset.Reissuable,
		Locked:      asset.Locked,
		Gateway:     asset.Proxy,
	}, nil
}

type balanceInfo struct {
	Symbol  proto.Symbol  `json:"symbol"`
	Address proto.Address `json:"address"`
	Balance string        `json:"balance"`
}

func (a *App) Balance(symbol proto.Symbol, holder proto.Address) (balanceInfo, error) {
	b, err := a.ledger.BalanceOf(symbol, holder)
	if err != nil {
		return balanceInfo{}, err
	}
	return balanceInfo{Symbol: symbol, Address: holder, Balance: b.Dec()}, nil
}

type allowanceInfo struct {
	Symbol    proto.Symbol  `json:"symbol"`
	Owner     proto.Address `json:"owner"`
	Spender   proto.Address `json:"spender"`
	Allowance string        `json:"allowance"`
}

func (a *App) Allowance(symbol proto.Symbol, owner, spender proto.Address) (allowanceInfo, error) {
	v, err := a.ledger.Allowance(symbol, owner, spender)
	if err != nil {
		return allowanceInfo{}, err
	}
	return allowanceInfo{Symbol: symbol, Owner: owner, Spender: spender, Allowance: v.Dec()}, nil
}

func (a *App) gateway(symbol proto.Symbol) (*gateway.Gateway, error) {
	g, ok := a.gateways.Gateway(symbol)
	if !ok {
		return nil, apiErrs.GatewayDoesNotExist
	}
	return g, nil
}

type gatewayInfo struct {
	Address          proto.Address `json:"address"`
	Symbol           proto.Symbol  `json:"symbol"`
	Name             string        `json:"name"`
	Decimals         uint8         `json:"decimals"`
	TotalSupply      string        `json:"totalSupply"`
	Phase            string        `json:"phase"`
	LatestVersion    proto.Address `json:"latestVersion"`
	PendingVersion   proto.Address `json:"pendingVersion"`
	PendingTimestamp int64         `json:"pendingTimestamp,omitempty"`
}

func (a *App) Gateway(symbol proto.Symbol) (gatewayInfo, error) {
	g, err := a.gateway(symbol)
	if err != nil {
		return gatewayInfo{}, err
	}
	decimals, err := g.Decimals()
	if err != nil {
		return gatewayInfo{}, err
	}
	supply, err := g.TotalSupply()
	if err != nil {
		return gatewayInfo{}, err
	}
	info := gatewayInfo{
		Address:        g.Address(),
		Symbol:         g.Symbol(),
		Name:           g.Name(),
		Decimals:       decimals,
		TotalSupply:    supply.Dec(),
		Phase:          g.Phase().String(),
		LatestVersion:  g.GetLatestVersion(),
		PendingVersion: g.GetPendingVersion(),
	}
	if ts := g.GetPendingVersionTimestamp(); !ts.IsZero() {
		info.PendingTimestamp = ts.Unix()
	}
	return info, nil
}

type versionInfo struct {
	Address proto.Address `json:"address"`
	Version proto.Address `json:"version"`
}

func (a *App) VersionFor(symbol proto.Symbol, holder proto.Address) (versionInfo, error) {
	g, err := a.gateway(symbol)
	if err != nil {
		return versionInfo{}, err
	}
	v, err := g.GetVersionFor(holder)
	if err != nil {
		return versionInfo{}, err
	}
	return versionInfo{Address: holder, Version: v}, nil
}

type icapInfo struct {
	Code        proto.Address `json:"code"`
	Resolved    bool          `json:"resolved"`
	Institution proto.Address `json:"institution"`
	Symbol      proto.Symbol  `json:"symbol"`
}

func (a *App) ResolveICAP(code proto.Address) (icapInfo, error) {
	if !proto.IsICAP(code) {
		return icapInfo{}, apiErrs.InvalidICAP
	}
	info := icapInfo{Code: code}
	if a.registry == nil {
		return info, nil
	}
	addr, symbol, ok, err := a.registry.Parse(code)
	if err != nil {
		return icapInfo{}, err
	}
	if ok {
		info.Resolved = true
		info.Institution = addr
		info.Symbol = symbol
	}
	return info, nil
}

type eventInfo struct {
	Seq       uint64      `json:"seq"`
	Name      events.Name `json:"name"`
	Emitter   string      `json:"emitter"`
	Symbol    string      `json:"symbol,omitempty"`
	From      string      `json:"from,omitempty"`
	To        string      `json:"to,omitempty"`
	Spender   string      `json:"spender,omitempty"`
	ICAP      string      `json:"icap,omitempty"`
	Value     string      `json:"value,omitempty"`
	Reference string      `json:"reference,omitempty"`
	Version   string      `json:"version,omitempty"`
	Code      errs.Code   `json:"code,omitempty"`
}

func addressText(a proto.Address) string {
	if a.IsZero() {
		return ""
	}
	return a.String()
}

func newEventInfo(seq uint64, e events.Event) eventInfo {
	info := eventInfo{
		Seq:       seq,
		Name:      e.Name,
		Emitter:   e.Emitter.String(),
		From:      addressText(e.From),
		To:        addressText(e.To),
		Spender:   addressText(e.Spender),
		ICAP:      addressText(e.ICAP),
		Reference: e.Reference,
		Version:   addressText(e.Version),
		Code:      e.Code,
	}
	if !e.Symbol.IsZero() {
		info.Symbol = e.Symbol.String()
	}
	if e.Value != nil {
		info.Value = e.Value.Dec()
	}
	return info
}

type eventsLength struct {
	Length uint64 `json:"length"`
}

func (a *App) EventsLength() eventsLength {
	if a.log == nil {
		return eventsLength{}
	}
	return eventsLength{Length: a.log.Len()}
}

// Events returns the logged events with sequence numbers in [from, to).
func (a *App) Events(from, to uint64) ([]eventInfo, error) {
	if a.log == nil || from >= to {
		return []eventInfo{}, nil
	}
	n, err := safecast.ToInt(to - from)
	if err != nil || n > a.settings.EventsRequestLimit {
		return nil, apiErrs.NewEventsRangeTooBigError(a.settings.EventsRequestLimit)
	}
	evs, err := a.log.Range(from, to)
	if err != nil {
		return nil, err
	}
	res := make([]eventInfo, len(evs))
	for i, e := range evs {
		res[i] = newEventInfo(from+uint64(i), e)
	}
	return res, nil
}

type callRequest struct {
	From      proto.Address `json:"from"`
	To        proto.Address `json:"to"`
	Value     string        `json:"value"`
	Reference string        `json:"reference"`
}

func (r *callRequest) amount() (*uint256.Int, error) {
	v, err := proto.ParseAmount(r.Value)
	if err != nil {
		return nil, apiErrs.InvalidAmount
	}
	return v, nil
}

type outcomeInfo struct {
	Accepted bool      `json:"accepted"`
	Code     errs.Code `json:"code,omitempty"`
}

// Call performs a mutating gateway operation on behalf of the configured sender.
func (a *App) Call(ctx context.Context, symbol proto.Symbol, method string, req callRequest) (outcomeInfo, error) {
	g, err := a.gateway(symbol)
	if err != nil {
		return outcomeInfo{}, err
	}
	if a.sender.IsZero() {
		return outcomeInfo{}, apiErrs.ErrAPIKeyDisabled
	}
	var o errs.Outcome
	switch method {
	case "optOut":
		o, err = g.OptOut(ctx, a.sender)
	case "optIn":
		o, err = g.OptIn(ctx, a.sender)
	case "commitUpgrade":
		o, err = g.CommitUpgrade(ctx, a.sender)
	case "purgeUpgrade":
		o, err = g.PurgeUpgrade(ctx, a.sender)
	case "proposeUpgrade":
		o, err = g.ProposeUpgrade(ctx, a.sender, req.To)
	default:
		o, err = a.transfer(ctx, g, method, req)
	}
	metricCalls.WithLabelValues(symbol.String(), method, callResult(o, err)).Inc()
	if err != nil {
		return outcomeInfo{}, err
	}
	return outcomeInfo{Accepted: o.Accepted, Code: o.Code}, nil
}

func (a *App) transfer(ctx context.Context, g *gateway.Gateway, method string, req callRequest) (errs.Outcome, error) {
	value, err := req.amount()
	if err != nil {
		return errs.Outcome{}, err
	}
	switch gateway.Method(method) {
	case gateway.MethodTransfer:
		return g.TransferWithReference(ctx, a.sender, req.To, value, req.Reference)
	case gateway.MethodTransferFrom:
		return g.TransferFromWithReference(ctx, a.sender, req.From, req.To, value, req.Reference)
	case gateway.MethodTransferToICAP:
		return g.TransferToICAP(ctx, a.sender, req.To, value, req.Reference)
	case gateway.MethodTransferFromToICAP:
		return g.TransferFromToICAP(ctx, a.sender, req.From, req.To, value, req.Reference)
	case gateway.MethodApprove:
		return g.Approve(ctx, a.sender, req.To, value)
	default:
		return g.Invoke(ctx, a.sender, gateway.Call{
			Method:    gateway.Method(method),
			From:      req.From,
			To:        req.To,
			Value:     value,
			Reference: req.Reference,
		})
	}
}
