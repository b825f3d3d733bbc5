// Package ledger defines the atomic unit shared by balance, ledger entry and
// limit window writes.
//
// A unit begins with Store.Atomic. Inside it the engine locks the accounts it
// touches, validates, and stages its writes through Tx. Returning an error
// from the unit function rolls every staged write back; returning nil commits
// them together.
package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-wallet/internal/domain"
)

// Tx exposes the operations allowed inside an atomic unit.
type Tx interface {
	// LockAccounts locks the accounts in lexicographic id order and returns
	// the ones that exist. It is the only blocking point before the commit
	// and may be called once per unit.
	LockAccounts(ctx context.Context, ids ...string) (map[string]domain.Account, error)

	// Debit subtracts amount from a locked account. It fails with
	// domain.ErrInsufficientFunds when the balance would become negative.
	Debit(ctx context.Context, accountID string, amount decimal.Decimal) (domain.Account, error)

	// Credit adds amount to a locked account.
	Credit(ctx context.Context, accountID string, amount decimal.Decimal) (domain.Account, error)

	// EntryByKey returns the committed entry with the idempotency key or domain.ErrEntryNotFound.
	EntryByKey(ctx context.Context, key string) (domain.LedgerEntry, error)

	// AppendEntry appends e to the log. When the idempotency key is already
	// stored it returns the stored entry with domain.ErrDuplicateIdempotencyKey.
	AppendEntry(ctx context.Context, e domain.LedgerEntry) (domain.LedgerEntry, error)

	// Windows returns the stored limit windows of the account for op.
	Windows(ctx context.Context, accountID string, op domain.Kind) ([]domain.LimitWindow, error)

	// SaveWindow stores w, replacing the window of the same kind.
	SaveWindow(ctx context.Context, w domain.LimitWindow) error

	// Caps returns the caps configured for the account, reporting false when
	// the account has no override.
	Caps(ctx context.Context, accountID string, op domain.Kind) (domain.Caps, bool, error)
}

// Store runs atomic units.
type Store interface {
	Atomic(ctx context.Context, fn func(tx Tx) error) error
}
