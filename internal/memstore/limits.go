package memstore

import (
	"context"
	"sort"

	"github.com/go-petr/pet-wallet/internal/domain"
)

// Limits serves limit windows and per-account caps.
type Limits struct {
	s *Store
}

// List returns the committed windows of the account for the operation kind.
func (r *Limits) List(_ context.Context, accountID string, op domain.Kind) ([]domain.LimitWindow, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	items := []domain.LimitWindow{}

	for k, w := range r.s.windows {
		if k.accountID == accountID && k.op == op {
			items = append(items, w)
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Window < items[j].Window })

	return items, nil
}

// GetCaps returns the caps configured for the account, reporting false when
// the account uses the defaults.
func (r *Limits) GetCaps(_ context.Context, accountID string, op domain.Kind) (domain.Caps, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.caps[capsKey{accountID, op}]

	return c, ok, nil
}

// SetCaps overrides the default caps of the account for the operation kind.
func (r *Limits) SetCaps(_ context.Context, accountID string, op domain.Kind, c domain.Caps) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.accounts[accountID]; !ok {
		return domain.ErrAccountNotFound
	}

	r.s.caps[capsKey{accountID, op}] = c

	return nil
}
