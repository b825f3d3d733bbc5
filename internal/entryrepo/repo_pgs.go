// Package entryrepo manages repository layer of the append-only ledger log.
package entryrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/pkg/dbpkg"
)

// RepoPGS facilitates ledger entry repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns entry RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const entryColumns = `id, sender_account_id, receiver_account_id, amount, kind, created_at, COALESCE(idempotency_key, '')`

func scanEntry(row interface{ Scan(...any) error }) (domain.LedgerEntry, error) {
	var e domain.LedgerEntry

	err := row.Scan(
		&e.ID,
		&e.SenderAccountID,
		&e.ReceiverAccountID,
		&e.Amount,
		&e.Kind,
		&e.CreatedAt,
		&e.IdempotencyKey,
	)

	return e, err
}

const appendQuery = `
INSERT INTO
    ledger_entries (id, sender_account_id, receiver_account_id, amount, kind, created_at, idempotency_key)
VALUES
    ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
ON CONFLICT (idempotency_key) DO NOTHING
RETURNING ` + entryColumns

// Append stores e at the end of the log.
//
// When an entry with the same idempotency key is already stored, the stored
// entry is returned unchanged together with domain.ErrDuplicateIdempotencyKey.
func (r *RepoPGS) Append(ctx context.Context, e domain.LedgerEntry) (domain.LedgerEntry, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, appendQuery,
		e.ID, e.SenderAccountID, e.ReceiverAccountID, e.Amount, e.Kind, e.CreatedAt, e.IdempotencyKey)

	stored, err := scanEntry(row)
	if err == nil {
		return stored, nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		existing, err := r.GetByKey(ctx, e.IdempotencyKey)
		if err != nil {
			return domain.LedgerEntry{}, err
		}

		return existing, domain.ErrDuplicateIdempotencyKey
	}

	l.Error().Err(err).Msgf("Append(ctx, %+v)", e)

	switch dbpkg.Constraint(err) {
	case "ledger_entries_sender_account_id_fkey", "ledger_entries_receiver_account_id_fkey":
		return domain.LedgerEntry{}, domain.ErrAccountNotFound
	case "ledger_entries_amount_check":
		return domain.LedgerEntry{}, domain.ErrInvalidAmount
	case "ledger_entries_kind_check":
		return domain.LedgerEntry{}, domain.ErrSelfTransfer
	}

	return domain.LedgerEntry{}, dbpkg.Classify(err)
}

const getQuery = `
SELECT ` + entryColumns + `
FROM ledger_entries
WHERE id = $1
`

// Get returns the entry with the given id.
func (r *RepoPGS) Get(ctx context.Context, id string) (domain.LedgerEntry, error) {
	l := zerolog.Ctx(ctx)

	e, err := scanEntry(r.db.QueryRowContext(ctx, getQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, domain.ErrEntryNotFound
		}

		l.Error().Err(err).Send()

		return e, dbpkg.Classify(err)
	}

	return e, nil
}

const getByKeyQuery = `
SELECT ` + entryColumns + `
FROM ledger_entries
WHERE idempotency_key = $1
`

// GetByKey returns the entry committed with the idempotency key.
func (r *RepoPGS) GetByKey(ctx context.Context, key string) (domain.LedgerEntry, error) {
	l := zerolog.Ctx(ctx)

	if key == "" {
		return domain.LedgerEntry{}, domain.ErrEntryNotFound
	}

	e, err := scanEntry(r.db.QueryRowContext(ctx, getByKeyQuery, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, domain.ErrEntryNotFound
		}

		l.Error().Err(err).Send()

		return e, dbpkg.Classify(err)
	}

	return e, nil
}

const listQuery = `
SELECT ` + entryColumns + `
FROM ledger_entries
WHERE (sender_account_id = $1 OR receiver_account_id = $1)
    AND created_at >= $2
    AND ($3::varchar = '' OR seq < (SELECT seq FROM ledger_entries WHERE id = $3::varchar))
ORDER BY seq DESC
LIMIT $4
`

// List returns the entries touching the account, newest first.
func (r *RepoPGS) List(ctx context.Context, arg domain.ListEntriesParams) ([]domain.LedgerEntry, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery, arg.AccountID, arg.Since, arg.BeforeID, arg.Limit)
	if err != nil {
		l.Error().Err(err).Msgf("List(ctx, %+v)", arg)
		return nil, dbpkg.Classify(err)
	}
	defer rows.Close()

	items := []domain.LedgerEntry{}

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, dbpkg.Classify(err)
		}

		items = append(items, e)
	}

	if err := rows.Close(); err != nil {
		l.Error().Err(err).Send()
		return nil, dbpkg.Classify(err)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, dbpkg.Classify(err)
	}

	return items, nil
}
