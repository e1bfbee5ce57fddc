package roles

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/wavesplatform/etoken/pkg/errs"
	"github.com/wavesplatform/etoken/pkg/keyvalue"
	"github.com/wavesplatform/etoken/pkg/proto"
)

//go:generate mockgen -destination=../mock/authority.go -package=mock github.com/wavesplatform/etoken/pkg/roles Authority

type Role string

const (
	Admin    Role = "admin"
	Legal    Role = "legal"
	Upgrader Role = "upgrader"
)

// Authority answers whether an account holds a role on a target component.
type Authority interface {
	HasRole(ctx context.Context, target proto.Address, role Role, account proto.Address) (bool, error)
	ClaimFor(ctx context.Context, target, account proto.Address) (bool, error)
}

const (
	claimKeyPrefix byte = iota
	roleKeyPrefix
)

func claimKey(target proto.Address) []byte {
	return append([]byte{claimKeyPrefix}, target[:]...)
}

func roleKey(target proto.Address, role Role, account proto.Address) []byte {
	key := make([]byte, 0, 1+2*proto.AddressSize+len(role))
	key = append(key, roleKeyPrefix)
	key = append(key, target[:]...)
	key = append(key, account[:]...)
	return append(key, role...)
}

// Registry is a persistent Authority. The first account claiming a target becomes its admin
// and may grant and revoke roles on it.
type Registry struct {
	mu sync.Mutex
	kv keyvalue.KeyValue
}

func NewRegistry(kv keyvalue.KeyValue) *Registry {
	return &Registry{kv: kv}
}

func (r *Registry) has(key []byte) (bool, error) {
	ok, err := r.kv.Has(key)
	if err != nil {
		return false, errs.Extend(errs.NewStorageError(err.Error()), "roles")
	}
	return ok, nil
}

func (r *Registry) HasRole(_ context.Context, target proto.Address, role Role, account proto.Address) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.has(roleKey(target, role, account))
}

// ClaimFor makes account the admin of target. It succeeds only once per target.
func (r *Registry) ClaimFor(_ context.Context, target, account proto.Address) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	claimed, err := r.has(claimKey(target))
	if err != nil {
		return false, err
	}
	if claimed {
		return false, nil
	}
	batch, err := r.kv.NewBatch()
	if err != nil {
		return false, err
	}
	batch.Put(claimKey(target), account[:])
	batch.Put(roleKey(target, Admin, account), []byte{1})
	if err := r.kv.Flush(batch); err != nil {
		return false, errors.Wrap(err, "failed to store claim")
	}
	zap.S().Named("roles").Infof("Target %s claimed by %s", target, account)
	return true, nil
}

func (r *Registry) Grant(ctx context.Context, caller, target proto.Address, role Role, account proto.Address) (errs.Outcome, error) {
	return r.update(ctx, caller, target, role, account, true)
}

func (r *Registry) Revoke(ctx context.Context, caller, target proto.Address, role Role, account proto.Address) (errs.Outcome, error) {
	return r.update(ctx, caller, target, role, account, false)
}

func (r *Registry) update(_ context.Context, caller, target proto.Address, role Role, account proto.Address, grant bool) (errs.Outcome, error) {
	if role == "" || account.IsZero() {
		return errs.Rejected(errs.CodeInvalidArgument), nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	admin, err := r.has(roleKey(target, Admin, caller))
	if err != nil {
		return errs.Outcome{}, err
	}
	if !admin {
		return errs.Rejected(errs.CodeAccessDenied), nil
	}
	key := roleKey(target, role, account)
	if grant {
		err = r.kv.Put(key, []byte{1})
	} else {
		err = r.kv.Delete(key)
	}
	if err != nil {
		return errs.Outcome{}, errors.Wrap(err, "failed to update role")
	}
	return errs.Accepted(), nil
}
