package memstore

import (
	"context"

	"github.com/go-petr/pet-wallet/internal/domain"
)

// Entries serves reads of the append-only ledger log.
type Entries struct {
	s *Store
}

// Get returns the entry with the given id.
func (r *Entries) Get(_ context.Context, id string) (domain.LedgerEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	i, ok := r.s.entryByID[id]
	if !ok {
		return domain.LedgerEntry{}, domain.ErrEntryNotFound
	}

	return r.s.entries[i], nil
}

// GetByKey returns the entry committed with the idempotency key.
func (r *Entries) GetByKey(_ context.Context, key string) (domain.LedgerEntry, error) {
	if key == "" {
		return domain.LedgerEntry{}, domain.ErrEntryNotFound
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	i, ok := r.s.entryByKey[key]
	if !ok {
		return domain.LedgerEntry{}, domain.ErrEntryNotFound
	}

	return r.s.entries[i], nil
}

// List returns the entries touching the account, newest first.
func (r *Entries) List(_ context.Context, arg domain.ListEntriesParams) ([]domain.LedgerEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	start := len(r.s.entries) - 1

	if arg.BeforeID != "" {
		i, ok := r.s.entryByID[arg.BeforeID]
		if !ok {
			return []domain.LedgerEntry{}, nil
		}

		start = i - 1
	}

	items := []domain.LedgerEntry{}

	for i := start; i >= 0; i-- {
		if arg.Limit > 0 && len(items) == int(arg.Limit) {
			break
		}

		e := r.s.entries[i]
		if !e.Touches(arg.AccountID) || e.CreatedAt.Before(arg.Since) {
			continue
		}

		items = append(items, e)
	}

	return items, nil
}
