// Package ledgerrepo runs atomic ledger units inside Postgres transactions.
package ledgerrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-wallet/internal/accountrepo"
	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/entryrepo"
	"github.com/go-petr/pet-wallet/internal/ledger"
	"github.com/go-petr/pet-wallet/internal/limitrepo"
	"github.com/go-petr/pet-wallet/pkg/dbpkg"
)

// RepoPGS opens a database transaction per atomic unit.
type RepoPGS struct {
	conn *sql.DB
}

// NewRepoPGS returns ledger RepoPGS.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		conn: db,
	}
}

// Atomic executes fn within a single database transaction.
//
// Every statement issued through the ledger.Tx joins the transaction. It is
// committed when fn returns nil and rolled back otherwise.
func (r *RepoPGS) Atomic(ctx context.Context, fn func(tx ledger.Tx) error) error {
	l := zerolog.Ctx(ctx)

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return dbpkg.Classify(err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			l.Error().Err(err).Send()
		}
	}()

	unit := &pgsTx{
		accounts: accountrepo.NewRepoPGS(tx),
		entries:  entryrepo.NewRepoPGS(tx),
		limits:   limitrepo.NewRepoPGS(tx),
	}

	if err := fn(unit); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return dbpkg.Classify(err)
	}

	return nil
}

type pgsTx struct {
	accounts *accountrepo.RepoPGS
	entries  *entryrepo.RepoPGS
	limits   *limitrepo.RepoPGS
	locked   bool
}

var errAlreadyLocked = errors.New("accounts are already locked in this unit")

func (t *pgsTx) LockAccounts(ctx context.Context, ids ...string) (map[string]domain.Account, error) {
	if t.locked {
		return nil, errAlreadyLocked
	}

	t.locked = true

	accounts, err := t.accounts.LockForUpdate(ctx, ids)
	if err != nil && ctx.Err() != nil {
		// The lock wait was abandoned by the caller and nothing was written.
		return nil, ctx.Err()
	}

	return accounts, err
}

func (t *pgsTx) Debit(ctx context.Context, accountID string, amount decimal.Decimal) (domain.Account, error) {
	return t.accounts.Debit(ctx, accountID, amount)
}

func (t *pgsTx) Credit(ctx context.Context, accountID string, amount decimal.Decimal) (domain.Account, error) {
	return t.accounts.Credit(ctx, accountID, amount)
}

func (t *pgsTx) EntryByKey(ctx context.Context, key string) (domain.LedgerEntry, error) {
	return t.entries.GetByKey(ctx, key)
}

func (t *pgsTx) AppendEntry(ctx context.Context, e domain.LedgerEntry) (domain.LedgerEntry, error) {
	return t.entries.Append(ctx, e)
}

func (t *pgsTx) Windows(ctx context.Context, accountID string, op domain.Kind) ([]domain.LimitWindow, error) {
	return t.limits.List(ctx, accountID, op)
}

func (t *pgsTx) SaveWindow(ctx context.Context, w domain.LimitWindow) error {
	return t.limits.Save(ctx, w)
}

func (t *pgsTx) Caps(ctx context.Context, accountID string, op domain.Kind) (domain.Caps, bool, error) {
	return t.limits.GetCaps(ctx, accountID, op)
}
