package memstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-wallet/internal/domain"
)

var (
	errAlreadyLocked = errors.New("accounts are already locked in this unit")
	errNotLocked     = errors.New("account is not locked in this unit")
)

// memTx stages the writes of one atomic unit.
type memTx struct {
	s        *Store
	locked   []string
	balances map[string]decimal.Decimal
	entries  []domain.LedgerEntry
	windows  map[windowKey]domain.LimitWindow
}

func newTx(s *Store) *memTx {
	return &memTx{
		s:        s,
		balances: make(map[string]decimal.Decimal),
		windows:  make(map[windowKey]domain.LimitWindow),
	}
}

func (t *memTx) release() {
	t.s.locks.release(t.locked)
	t.locked = nil
}

func (t *memTx) LockAccounts(ctx context.Context, ids ...string) (map[string]domain.Account, error) {
	if t.locked != nil {
		return nil, errAlreadyLocked
	}

	locked, err := t.s.locks.acquire(ctx, ids)
	if err != nil {
		return nil, err
	}

	t.locked = locked

	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	accounts := make(map[string]domain.Account, len(locked))

	for _, id := range locked {
		if a, ok := t.s.accounts[id]; ok {
			accounts[id] = a
			t.balances[id] = a.Balance
		}
	}

	return accounts, nil
}

func (t *memTx) account(id string) (domain.Account, error) {
	balance, ok := t.balances[id]
	if !ok {
		for _, lockedID := range t.locked {
			if lockedID == id {
				return domain.Account{}, domain.ErrAccountNotFound
			}
		}

		return domain.Account{}, errNotLocked
	}

	t.s.mu.RLock()
	a := t.s.accounts[id]
	t.s.mu.RUnlock()

	a.Balance = balance

	return a, nil
}

func (t *memTx) Debit(_ context.Context, accountID string, amount decimal.Decimal) (domain.Account, error) {
	a, err := t.account(accountID)
	if err != nil {
		return a, err
	}

	if a.Balance.LessThan(amount) {
		return domain.Account{}, domain.ErrInsufficientFunds
	}

	a.Balance = a.Balance.Sub(amount)
	t.balances[accountID] = a.Balance

	return a, nil
}

func (t *memTx) Credit(_ context.Context, accountID string, amount decimal.Decimal) (domain.Account, error) {
	a, err := t.account(accountID)
	if err != nil {
		return a, err
	}

	a.Balance = a.Balance.Add(amount)
	t.balances[accountID] = a.Balance

	return a, nil
}

func (t *memTx) EntryByKey(ctx context.Context, key string) (domain.LedgerEntry, error) {
	return t.s.Entries().GetByKey(ctx, key)
}

func (t *memTx) AppendEntry(ctx context.Context, e domain.LedgerEntry) (domain.LedgerEntry, error) {
	if e.IdempotencyKey != "" {
		for _, staged := range t.entries {
			if staged.IdempotencyKey == e.IdempotencyKey {
				return staged, domain.ErrDuplicateIdempotencyKey
			}
		}

		if existing, err := t.s.Entries().GetByKey(ctx, e.IdempotencyKey); err == nil {
			return existing, domain.ErrDuplicateIdempotencyKey
		}
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	t.entries = append(t.entries, e)

	return e, nil
}

func (t *memTx) Windows(ctx context.Context, accountID string, op domain.Kind) ([]domain.LimitWindow, error) {
	stored, err := t.s.Limits().List(ctx, accountID, op)
	if err != nil {
		return nil, err
	}

	for i, w := range stored {
		if staged, ok := t.windows[windowKey{accountID, op, w.Window}]; ok {
			stored[i] = staged
		}
	}

	for k, w := range t.windows {
		if k.accountID != accountID || k.op != op {
			continue
		}

		found := false

		for _, s := range stored {
			if s.Window == w.Window {
				found = true
				break
			}
		}

		if !found {
			stored = append(stored, w)
		}
	}

	return stored, nil
}

func (t *memTx) SaveWindow(_ context.Context, w domain.LimitWindow) error {
	if _, err := t.account(w.AccountID); err != nil {
		return err
	}

	t.windows[windowKey{w.AccountID, w.Operation, w.Window}] = w

	return nil
}

func (t *memTx) Caps(ctx context.Context, accountID string, op domain.Kind) (domain.Caps, bool, error) {
	return t.s.Limits().GetCaps(ctx, accountID, op)
}
