// Package services holds the per-session application services that sit
// between the HTTP layer and the gateway.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"carteira/internal/core"
	"carteira/internal/gateway"
	"carteira/internal/log"
)

var (
	ErrDefaultAccountDelete = errors.New("the default account cannot be deleted")
	ErrAccountNotFound      = errors.New("account not found")
)

// Registry caches the owner's accounts and tracks which one is selected.
// Every mutation reloads the cache from the gateway so reads always
// reflect stored state.
type Registry struct {
	store  gateway.AccountStore
	owner  core.Identity
	logger *log.Logger

	mu       sync.Mutex
	accounts []core.Account
	current  string
}

func NewRegistry(store gateway.AccountStore, owner core.Identity, logger *log.Logger) *Registry {
	return &Registry{
		store:  store,
		owner:  owner,
		logger: logger.WithComponent(log.ComponentAccounts),
	}
}

// Refresh reloads the account cache and repairs the selection: a
// vanished selection falls back to the default account, then to the
// first loaded account, then to none.
func (r *Registry) Refresh(ctx context.Context) error {
	accounts, err := r.store.ListAccounts(ctx, r.owner.ID)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts = accounts
	if r.findLocked(r.current) == nil {
		switch {
		case r.defaultLocked() != nil:
			r.current = r.defaultLocked().ID
		case len(r.accounts) > 0:
			r.current = r.accounts[0].ID
		default:
			r.current = ""
		}
	}
	return nil
}

func (r *Registry) findLocked(id string) *core.Account {
	for i := range r.accounts {
		if r.accounts[i].ID == id {
			return &r.accounts[i]
		}
	}
	return nil
}

func (r *Registry) defaultLocked() *core.Account {
	for i := range r.accounts {
		if r.accounts[i].IsDefault {
			return &r.accounts[i]
		}
	}
	return nil
}

// List returns a copy of the cached accounts.
func (r *Registry) List() []core.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.Account, len(r.accounts))
	copy(out, r.accounts)
	return out
}

// Current returns the selected account, or nil when none is selected.
func (r *Registry) Current() *core.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.findLocked(r.current)
	if a == nil {
		return nil
	}
	copied := *a
	return &copied
}

// Select switches the current account to one of the cached accounts.
func (r *Registry) Select(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findLocked(id) == nil {
		return ErrAccountNotFound
	}
	r.current = id
	return nil
}

// Create stores a new account and reloads the cache. The owner's first
// account becomes the default.
func (r *Registry) Create(ctx context.Context, name string) (core.Account, error) {
	a := core.Account{
		OwnerID: r.owner.ID,
		Name:    name,
	}
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}

	r.mu.Lock()
	a.IsDefault = len(r.accounts) == 0
	r.mu.Unlock()

	created, err := r.store.CreateAccount(ctx, a)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	r.logger.InfoContext(ctx, "account created", log.FieldAccountID, created.ID)

	if err := r.Refresh(ctx); err != nil {
		return core.Account{}, err
	}

	r.mu.Lock()
	if r.current == "" {
		r.current = created.ID
	}
	r.mu.Unlock()
	return created, nil
}

// Rename updates the account name and reloads the cache.
func (r *Registry) Rename(ctx context.Context, id, name string) error {
	probe := core.Account{Name: name}
	if err := probe.Validate(); err != nil {
		return err
	}
	if err := r.store.UpdateAccountName(ctx, id, r.owner.ID, name); err != nil {
		if gateway.IsNotFound(err) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("rename account: %w", err)
	}
	return r.Refresh(ctx)
}

// Delete removes an account. The default account is protected; deleting
// the selected account moves the selection back to the default.
func (r *Registry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	a := r.findLocked(id)
	if a == nil {
		r.mu.Unlock()
		return ErrAccountNotFound
	}
	if a.IsDefault {
		r.mu.Unlock()
		return ErrDefaultAccountDelete
	}
	r.mu.Unlock()

	if err := r.store.DeleteAccount(ctx, id, r.owner.ID); err != nil {
		if gateway.IsNotFound(err) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("delete account: %w", err)
	}
	r.logger.InfoContext(ctx, "account deleted", log.FieldAccountID, id)
	return r.Refresh(ctx)
}

// CurrentID returns the selected account id, or the empty string.
func (r *Registry) CurrentID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}
