package memstore

import (
	"context"
	"time"

	"github.com/go-petr/pet-wallet/internal/domain"
)

var now = time.Now

// Activities serves the security activity log.
type Activities struct {
	s *Store
}

// Create stores the activity record and then returns it.
func (r *Activities) Create(_ context.Context, a domain.Activity) (domain.Activity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.activity = append(r.s.activity, a)

	return a, nil
}

// List returns the latest activity records of the account, newest first.
func (r *Activities) List(_ context.Context, accountID string, limit int32) ([]domain.Activity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	items := []domain.Activity{}

	for i := len(r.s.activity) - 1; i >= 0; i-- {
		if limit > 0 && len(items) == int(limit) {
			break
		}

		if r.s.activity[i].AccountID == accountID {
			items = append(items, r.s.activity[i])
		}
	}

	return items, nil
}
