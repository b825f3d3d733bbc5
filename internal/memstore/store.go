// Package memstore is the in-memory storage backend of the wallet.
//
// It implements the same contracts as the Postgres repositories and is used
// by tests and by the server when DB_DRIVER is "memory". Atomic units lock
// accounts one by one in id order, stage their writes and apply them under
// the store mutex on commit, so readers never observe a half-applied unit.
package memstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/ledger"
)

type windowKey struct {
	accountID string
	op        domain.Kind
	window    domain.WindowKind
}

type capsKey struct {
	accountID string
	op        domain.Kind
}

// Store keeps accounts, ledger entries, limit windows and activity in memory.
type Store struct {
	mu sync.RWMutex

	accounts map[string]domain.Account
	emails   map[string]string

	entries      []domain.LedgerEntry
	entryByID    map[string]int
	entryByKey   map[string]int
	windows      map[windowKey]domain.LimitWindow
	caps         map[capsKey]domain.Caps
	activity     []domain.Activity
	locks        *accountLocks
	beforeCommit func() error
}

// Option configures the Store.
type Option func(*Store)

// WithCommitHook runs hook right before a unit commits. A non-nil error
// aborts the commit as a persistence failure.
func WithCommitHook(hook func() error) Option {
	return func(s *Store) {
		s.beforeCommit = hook
	}
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		accounts:   make(map[string]domain.Account),
		emails:     make(map[string]string),
		entryByID:  make(map[string]int),
		entryByKey: make(map[string]int),
		windows:    make(map[windowKey]domain.LimitWindow),
		caps:       make(map[capsKey]domain.Caps),
		locks:      newAccountLocks(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Accounts returns the account repository view of the store.
func (s *Store) Accounts() *Accounts { return &Accounts{s: s} }

// Entries returns the ledger log view of the store.
func (s *Store) Entries() *Entries { return &Entries{s: s} }

// Limits returns the limit window and caps view of the store.
func (s *Store) Limits() *Limits { return &Limits{s: s} }

// Activities returns the security activity view of the store.
func (s *Store) Activities() *Activities { return &Activities{s: s} }

// Atomic executes fn as one unit. Staged writes are applied only when fn
// returns nil and the commit succeeds.
func (s *Store) Atomic(ctx context.Context, fn func(tx ledger.Tx) error) error {
	tx := newTx(s)
	defer tx.release()

	if err := fn(tx); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return s.commit(tx)
}

func (s *Store) commit(tx *memTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.beforeCommit != nil {
		if err := s.beforeCommit(); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
		}
	}

	// A unit on other accounts may have committed the same key meanwhile.
	// Retrying lets the unit find the committed entry.
	for _, e := range tx.entries {
		if e.IdempotencyKey == "" {
			continue
		}

		if _, ok := s.entryByKey[e.IdempotencyKey]; ok {
			return domain.ErrConcurrentModification
		}
	}

	for id, balance := range tx.balances {
		a := s.accounts[id]
		a.Balance = balance
		s.accounts[id] = a
	}

	for _, e := range tx.entries {
		s.appendEntryLocked(e)
	}

	for k, w := range tx.windows {
		s.windows[k] = w
	}

	return nil
}

func (s *Store) appendEntryLocked(e domain.LedgerEntry) {
	s.entries = append(s.entries, e)
	s.entryByID[e.ID] = len(s.entries) - 1

	if e.IdempotencyKey != "" {
		s.entryByKey[e.IdempotencyKey] = len(s.entries) - 1
	}
}

// TotalBalance returns the sum of all balances. The ledger conserves it
// across transfers.
func (s *Store) TotalBalance() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, a := range s.accounts {
		total = total.Add(a.Balance)
	}

	return total
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
