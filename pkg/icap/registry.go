package icap

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/wavesplatform/etoken/pkg/errs"
	"github.com/wavesplatform/etoken/pkg/keyvalue"
	"github.com/wavesplatform/etoken/pkg/proto"
)

const (
	assetKeyPrefix byte = iota
	institutionKeyPrefix
	bindingKeyPrefix
)

func assetKey(alias string) []byte {
	return append([]byte{assetKeyPrefix}, alias...)
}

func institutionKey(code string) []byte {
	return append([]byte{institutionKeyPrefix}, code...)
}

func bindingKey(alias, code string, addr proto.Address) []byte {
	key := make([]byte, 0, 1+proto.AliasSize+proto.InstitutionSize+proto.AddressSize)
	key = append(key, bindingKeyPrefix)
	key = append(key, alias...)
	key = append(key, code...)
	return append(key, addr[:]...)
}

// Registry maps ICAP asset aliases to ledger symbols and institution codes to addresses.
// An institution must confirm every alias it accepts before codes with the pair resolve.
type Registry struct {
	mu    sync.Mutex
	kv    keyvalue.KeyValue
	owner proto.Address
}

func NewRegistry(kv keyvalue.KeyValue, owner proto.Address) *Registry {
	return &Registry{kv: kv, owner: owner}
}

func (r *Registry) Owner() proto.Address {
	return r.owner
}

func (r *Registry) get(key []byte) ([]byte, bool, error) {
	val, err := r.kv.Get(key)
	if errors.Is(err, keyvalue.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errs.Extend(errs.NewStorageError(err.Error()), "icap")
	}
	return val, true, nil
}

func (r *Registry) RegisterAsset(_ context.Context, caller proto.Address, alias string, symbol proto.Symbol) (errs.Outcome, error) {
	if caller != r.owner {
		return errs.Rejected(errs.CodeOnlyOwner), nil
	}
	if !proto.ValidAlias(alias) || symbol.IsZero() {
		return errs.Rejected(errs.CodeInvalidArgument), nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok, err := r.get(assetKey(alias))
	if err != nil {
		return errs.Outcome{}, err
	}
	if ok {
		return errs.Rejected(errs.CodeAlreadyRegistered), nil
	}
	if err := r.kv.Put(assetKey(alias), symbol[:]); err != nil {
		return errs.Outcome{}, errors.Wrap(err, "failed to register asset")
	}
	zap.S().Named("icap").Debugf("Alias %s registered for %s", alias, symbol)
	return errs.Accepted(), nil
}

func (r *Registry) RegisterInstitution(_ context.Context, caller proto.Address, code string, addr proto.Address) (errs.Outcome, error) {
	if caller != r.owner {
		return errs.Rejected(errs.CodeOnlyOwner), nil
	}
	if !proto.ValidInstitution(code) || addr.IsZero() {
		return errs.Rejected(errs.CodeInvalidArgument), nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok, err := r.get(institutionKey(code))
	if err != nil {
		return errs.Outcome{}, err
	}
	if ok {
		return errs.Rejected(errs.CodeAlreadyRegistered), nil
	}
	if err := r.kv.Put(institutionKey(code), addr[:]); err != nil {
		return errs.Outcome{}, errors.Wrap(err, "failed to register institution")
	}
	zap.S().Named("icap").Debugf("Institution %s registered at %s", code, addr)
	return errs.Accepted(), nil
}

// RegisterInstitutionAsset confirms that institution code accepts alias. It must be called by the
// institution address itself.
func (r *Registry) RegisterInstitutionAsset(_ context.Context, caller proto.Address, alias, code string, addr proto.Address) (errs.Outcome, error) {
	if caller != addr {
		return errs.Rejected(errs.CodeAccessDenied), nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok, err := r.get(assetKey(alias))
	if err != nil {
		return errs.Outcome{}, err
	}
	if !ok {
		return errs.Rejected(errs.CodeNotRegistered), nil
	}
	registered, ok, err := r.institution(code)
	if err != nil {
		return errs.Outcome{}, err
	}
	if !ok {
		return errs.Rejected(errs.CodeNotRegistered), nil
	}
	if registered != addr {
		return errs.Rejected(errs.CodeAccessDenied), nil
	}
	if err := r.kv.Put(bindingKey(alias, code, addr), []byte{1}); err != nil {
		return errs.Outcome{}, errors.Wrap(err, "failed to register institution asset")
	}
	return errs.Accepted(), nil
}

func (r *Registry) institution(code string) (proto.Address, bool, error) {
	val, ok, err := r.get(institutionKey(code))
	if err != nil || !ok {
		return proto.Address{}, false, err
	}
	addr, err := proto.NewAddressFromBytes(val)
	if err != nil {
		return proto.Address{}, false, errors.Wrapf(err, "corrupted institution %s", code)
	}
	return addr, true, nil
}

func (r *Registry) symbol(alias string) (proto.Symbol, bool, error) {
	val, ok, err := r.get(assetKey(alias))
	if err != nil || !ok {
		return proto.Symbol{}, false, err
	}
	if len(val) != proto.SymbolSize {
		return proto.Symbol{}, false, errors.Errorf("corrupted alias %s", alias)
	}
	var s proto.Symbol
	copy(s[:], val)
	return s, true, nil
}

func (r *Registry) Institution(code string) (proto.Address, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.institution(code)
}

func (r *Registry) Symbol(alias string) (proto.Symbol, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.symbol(alias)
}

// Parse decodes the code and returns the institution address and the asset symbol it routes to.
// The last result is false if the code is not a valid ICAP or any registration is missing.
func (r *Registry) Parse(code proto.Address) (proto.Address, proto.Symbol, bool, error) {
	icap, err := proto.ParseICAP(code)
	if err != nil {
		return proto.Address{}, proto.Symbol{}, false, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	sym, ok, err := r.symbol(icap.Alias)
	if err != nil || !ok {
		return proto.Address{}, proto.Symbol{}, false, err
	}
	addr, ok, err := r.institution(icap.Institution)
	if err != nil || !ok {
		return proto.Address{}, proto.Symbol{}, false, err
	}
	_, ok, err = r.get(bindingKey(icap.Alias, icap.Institution, addr))
	if err != nil || !ok {
		return proto.Address{}, proto.Symbol{}, false, err
	}
	return addr, sym, true, nil
}

// Resolve returns the institution address the code routes to.
func (r *Registry) Resolve(code proto.Address) (proto.Address, bool, error) {
	addr, _, ok, err := r.Parse(code)
	return addr, ok, err
}
