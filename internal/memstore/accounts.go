package memstore

import (
	"context"
	"sort"
	"strings"

	"github.com/go-petr/pet-wallet/internal/domain"
)

// Accounts serves account reads and provisioning.
type Accounts struct {
	s *Store
}

// Create provisions the account.
func (r *Accounts) Create(_ context.Context, arg domain.CreateAccountParams) (domain.Account, error) {
	if arg.Balance.IsNegative() {
		return domain.Account{}, domain.ErrInvalidAmount
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	email := normalizeEmail(arg.Email)

	if _, ok := r.s.accounts[arg.ID]; ok {
		return domain.Account{}, domain.ErrAccountAlreadyExists
	}

	if _, ok := r.s.emails[email]; ok {
		return domain.Account{}, domain.ErrAccountAlreadyExists
	}

	a := domain.Account{
		ID:          arg.ID,
		DisplayName: arg.DisplayName,
		Email:       arg.Email,
		Balance:     arg.Balance,
		CreatedAt:   now(),
	}

	r.s.accounts[a.ID] = a
	r.s.emails[email] = a.ID

	return a, nil
}

// Get returns the account with the given id.
func (r *Accounts) Get(_ context.Context, id string) (domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	return a, nil
}

// GetByEmail returns the account registered with the email, ignoring case.
func (r *Accounts) GetByEmail(_ context.Context, email string) (domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.emails[normalizeEmail(email)]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	return r.s.accounts[id], nil
}

// SearchByDisplayName returns at most limit accounts whose display name
// contains query, ignoring case.
func (r *Accounts) SearchByDisplayName(_ context.Context, query string, limit int32) ([]domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	query = strings.ToLower(query)
	items := []domain.Account{}

	for _, a := range r.s.accounts {
		if strings.Contains(strings.ToLower(a.DisplayName), query) {
			items = append(items, a)
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	if limit > 0 && len(items) > int(limit) {
		items = items[:limit]
	}

	return items, nil
}
