package node

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/wavesplatform/etoken/pkg/api"
	"github.com/wavesplatform/etoken/pkg/asset"
	"github.com/wavesplatform/etoken/pkg/compliance"
	"github.com/wavesplatform/etoken/pkg/errs"
	"github.com/wavesplatform/etoken/pkg/events"
	"github.com/wavesplatform/etoken/pkg/gateway"
	"github.com/wavesplatform/etoken/pkg/icap"
	"github.com/wavesplatform/etoken/pkg/keyvalue"
	"github.com/wavesplatform/etoken/pkg/ledger"
	"github.com/wavesplatform/etoken/pkg/metrics"
	"github.com/wavesplatform/etoken/pkg/proto"
	"github.com/wavesplatform/etoken/pkg/roles"
	"github.com/wavesplatform/etoken/pkg/settings"
	"github.com/wavesplatform/etoken/pkg/types"
)

// Storage namespaces. Per-component namespaces are followed by the component address.
const (
	ledgerNamespace byte = iota
	icapNamespace
	rolesNamespace
	historyNamespace
	logNamespace
	blocklistNamespace
	gatewayNamespace
	complianceNamespace
)

const initialChangelog = "initial"

// Node holds all the components of a running token service.
type Node struct {
	Ledger   *ledger.Ledger
	Registry *icap.Registry
	Roles    *roles.Registry
	History  *events.History
	Log      *events.Log
	Bus      *events.Bus
	Oracles  *compliance.Oracles
	Gateways api.GatewayMap

	impls  *gateway.Implementations
	cfg    *settings.Settings
	logger *zap.SugaredLogger
}

func namespace(kv keyvalue.IterableKeyVal, ns byte, addr proto.Address) *keyvalue.Prefixed {
	return keyvalue.NewPrefixed(kv, append([]byte{ns}, addr[:]...)...)
}

// New builds the components over kv and brings their persistent state in line with cfg.
// It is safe to call on an already bootstrapped store.
func New(ctx context.Context, kv keyvalue.IterableKeyVal, cfg *settings.Settings, clock types.Time) (*Node, error) {
	freeze, err := cfg.FreezeDuration()
	if err != nil {
		return nil, err
	}
	n := &Node{
		Roles:    roles.NewRegistry(keyvalue.NewPrefixed(kv, rolesNamespace)),
		Bus:      events.NewBus(),
		Oracles:  compliance.NewOracles(),
		Gateways: make(api.GatewayMap, len(cfg.Assets)),
		impls:    gateway.NewImplementations(),
		cfg:      cfg,
		logger:   zap.S().Named("node"),
	}
	n.Log, err = events.NewLog(keyvalue.NewPrefixed(kv, logNamespace))
	if err != nil {
		return nil, err
	}
	if err := n.Bus.SubscribeAll(metrics.Event); err != nil {
		return nil, errors.Wrap(err, "failed to subscribe metrics")
	}
	n.History = events.NewHistory(keyvalue.NewPrefixed(kv, historyNamespace), cfg.ContractOwner, events.Multi(n.Log, n.Bus))
	n.Ledger = ledger.New(keyvalue.NewPrefixed(kv, ledgerNamespace), cfg.LedgerAddress, cfg.ContractOwner, n.History)
	n.Registry = icap.NewRegistry(keyvalue.NewPrefixed(kv, icapNamespace), cfg.ContractOwner)
	if err := n.setupLedger(ctx); err != nil {
		return nil, err
	}
	for _, o := range cfg.Oracles {
		if err := n.registerOracle(kv, o); err != nil {
			return nil, err
		}
	}
	for _, a := range cfg.Assets {
		if err := n.setupAsset(ctx, kv, a, freeze, clock); err != nil {
			return nil, errors.Wrapf(err, "asset %s", a.Symbol)
		}
	}
	return n, nil
}

// ensure turns a rejection into an error unless its code is one of the tolerated ones.
func ensure(op string, o errs.Outcome, err error, tolerated ...errs.Code) error {
	if err != nil {
		return errors.Wrap(err, op)
	}
	if o.Accepted {
		return nil
	}
	for _, c := range tolerated {
		if o.Code == c {
			return nil
		}
	}
	return errors.Errorf("%s: %s", op, o)
}

func (n *Node) addVersion(ctx context.Context, emitter proto.Address, name string) error {
	o, err := n.History.AddVersion(ctx, n.cfg.ContractOwner, emitter, name, initialChangelog)
	return ensure("add version of "+name, o, err, errs.CodeAlreadyRegistered)
}

func (n *Node) setupLedger(ctx context.Context) error {
	owner := n.cfg.ContractOwner
	if err := n.addVersion(ctx, n.Ledger.Address(), "ledger"); err != nil {
		return err
	}
	o, err := n.Ledger.SetupRegistryICAP(ctx, owner, n.Registry)
	if err := ensure("setup ICAP registry", o, err); err != nil {
		return err
	}
	for alias, symbol := range n.cfg.ICAP.Aliases {
		o, err := n.Registry.RegisterAsset(ctx, owner, alias, symbol)
		if err := ensure("register ICAP alias "+alias, o, err, errs.CodeAlreadyRegistered); err != nil {
			return err
		}
	}
	for _, i := range n.cfg.ICAP.Institutions {
		o, err := n.Registry.RegisterInstitution(ctx, owner, i.Code, i.Address)
		if err := ensure("register institution "+i.Code, o, err, errs.CodeAlreadyRegistered); err != nil {
			return err
		}
		for _, alias := range i.Aliases {
			o, err := n.Registry.RegisterInstitutionAsset(ctx, i.Address, alias, i.Code, i.Address)
			if err := ensure("bind institution "+i.Code, o, err); err != nil {
				return err
			}
		}
	}
	return nil
}

func (n *Node) registerOracle(kv keyvalue.IterableKeyVal, s settings.OracleSettings) error {
	if s.URL == "" {
		n.Oracles.Register(s.Address, compliance.NewBlocklist(namespace(kv, blocklistNamespace, s.Address)))
		n.logger.Infof("Oracle %s is a local blocklist", s.Address)
		return nil
	}
	c, err := compliance.NewClient(compliance.Options{BaseUrl: s.URL, ApiKey: s.ApiKey})
	if err != nil {
		return errors.Wrapf(err, "oracle %s", s.Address)
	}
	n.Oracles.Register(s.Address, c)
	n.logger.Infof("Oracle %s is served by %s", s.Address, s.URL)
	return nil
}

func (n *Node) issue(ctx context.Context, a settings.AssetSettings) error {
	created, err := n.Ledger.IsCreated(a.Symbol)
	if err != nil || created {
		return err
	}
	supply := proto.NewAmount(0)
	if a.Supply != "" {
		if supply, err = proto.ParseAmount(a.Supply); err != nil {
			return err
		}
	}
	o, err := n.Ledger.Issue(ctx, a.Owner, ledger.IssueRequest{
		Symbol:      a.Symbol,
		Value:       supply,
		Name:        a.Name,
		Description: a.Description,
		BaseUnit:    a.BaseUnit,
		Reissuable:  a.Reissuable,
	})
	if err := ensure("issue", o, err); err != nil {
		return err
	}
	n.logger.Infof("Asset %s issued to %s", a.Symbol, a.Owner)
	return nil
}

func (n *Node) setupAsset(ctx context.Context, kv keyvalue.IterableKeyVal, a settings.AssetSettings,
	freeze time.Duration, clock types.Time) error {
	if err := n.addVersion(ctx, a.Gateway, "gateway "+a.Symbol.String()); err != nil {
		return err
	}
	if err := n.addVersion(ctx, a.Implementation, "asset "+a.Symbol.String()); err != nil {
		return err
	}
	if err := n.issue(ctx, a); err != nil {
		return err
	}
	proxy, err := n.Ledger.Proxy(a.Symbol)
	if err != nil {
		return err
	}
	if proxy != a.Gateway {
		o, err := n.Ledger.SetProxy(ctx, n.cfg.ContractOwner, a.Symbol, a.Gateway)
		if err := ensure("set proxy", o, err); err != nil {
			return err
		}
	}
	g, err := gateway.New(namespace(kv, gatewayNamespace, a.Gateway), gateway.Params{
		Address:      a.Gateway,
		FreezePeriod: freeze,
		Ledger:       n.Ledger,
		Directory:    n.impls,
		Authority:    n.Roles,
		Sink:         n.History,
		Clock:        clock,
	})
	if err != nil {
		return err
	}
	o, err := g.Init(ctx, a.Symbol, a.Name)
	if err := ensure("init gateway", o, err, errs.CodeAlreadyInitialized); err != nil {
		return err
	}
	impl, err := asset.New(asset.Params{
		Address:   a.Implementation,
		Gateway:   g,
		Resolver:  n.Registry,
		Authority: n.Roles,
		Sink:      n.History,
	})
	if err != nil {
		return err
	}
	if a.Compliant {
		c, err := n.setupCompliance(ctx, kv, impl, a)
		if err != nil {
			return err
		}
		n.impls.Register(c)
	} else {
		n.impls.Register(impl)
	}
	if g.Phase() == gateway.Uninitialized {
		o, err := g.ProposeUpgrade(ctx, a.Owner, a.Implementation)
		if err := ensure("set first version", o, err); err != nil {
			return err
		}
	}
	n.Gateways[a.Symbol] = g
	n.logger.Infof("Asset %s served by gateway %s", a.Symbol, a.Gateway)
	return nil
}

func (n *Node) setupCompliance(ctx context.Context, kv keyvalue.IterableKeyVal, impl *asset.Asset,
	a settings.AssetSettings) (*asset.Compliant, error) {
	c, err := asset.WithCompliance(impl, namespace(kv, complianceNamespace, a.Implementation), n.Oracles)
	if err != nil {
		return nil, err
	}
	if _, err := c.Claim(ctx, a.Owner); err != nil {
		return nil, errors.Wrap(err, "claim")
	}
	if c.ComplianceConfiguration() != a.Oracle {
		o, err := c.SetupComplianceConfiguration(ctx, a.Owner, a.Oracle)
		if err := ensure("setup compliance", o, err); err != nil {
			return nil, err
		}
	}
	return c, nil
}
