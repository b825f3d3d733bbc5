// Package accountrepo manages repository layer of accounts.
package accountrepo

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/pkg/dbpkg"
)

// RepoPGS facilitates account repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns account RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const accountColumns = `id, display_name, email, balance, created_at`

func scanAccount(row interface{ Scan(...any) error }) (domain.Account, error) {
	var a domain.Account

	err := row.Scan(
		&a.ID,
		&a.DisplayName,
		&a.Email,
		&a.Balance,
		&a.CreatedAt,
	)

	return a, err
}

const createQuery = `
INSERT INTO
    accounts (id, display_name, email, balance)
VALUES
    ($1, $2, $3, $4)
RETURNING ` + accountColumns

// Create provisions the account and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery, arg.ID, arg.DisplayName, arg.Email, arg.Balance)

	a, err := scanAccount(row)
	if err != nil {
		l.Error().Err(err).Msgf("Create(ctx, %+v)", arg)

		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == dbpkg.UniqueViolation {
			return domain.Account{}, domain.ErrAccountAlreadyExists
		}

		if dbpkg.Constraint(err) == "accounts_balance_check" {
			return domain.Account{}, domain.ErrInvalidAmount
		}

		return domain.Account{}, dbpkg.Classify(err)
	}

	return a, nil
}

const getQuery = `
SELECT ` + accountColumns + `
FROM accounts
WHERE id = $1
`

// Get returns the account with the given id.
func (r *RepoPGS) Get(ctx context.Context, id string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, getQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return a, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Send()

		return a, dbpkg.Classify(err)
	}

	return a, nil
}

const getByEmailQuery = `
SELECT ` + accountColumns + `
FROM accounts
WHERE lower(email) = lower($1)
`

// GetByEmail returns the account registered with the email. The match is case-insensitive.
func (r *RepoPGS) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, getByEmailQuery, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return a, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Send()

		return a, dbpkg.Classify(err)
	}

	return a, nil
}

const searchByDisplayNameQuery = `
SELECT ` + accountColumns + `
FROM accounts
WHERE display_name ILIKE '%' || $1 || '%' ESCAPE '\'
ORDER BY id
LIMIT $2
`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchByDisplayName returns at most limit accounts whose display name
// contains query, ignoring case.
func (r *RepoPGS) SearchByDisplayName(ctx context.Context, query string, limit int32) ([]domain.Account, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, searchByDisplayNameQuery, likeEscaper.Replace(query), limit)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, dbpkg.Classify(err)
	}
	defer rows.Close()

	return scanAccounts(ctx, rows)
}

const lockForUpdateQuery = `
SELECT ` + accountColumns + `
FROM accounts
WHERE id = ANY($1)
ORDER BY id
FOR UPDATE
`

// LockForUpdate locks the rows of the given accounts in id order until the
// surrounding transaction ends. Missing accounts are absent from the result.
func (r *RepoPGS) LockForUpdate(ctx context.Context, ids []string) (map[string]domain.Account, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, lockForUpdateQuery, pq.Array(ids))
	if err != nil {
		l.Error().Err(err).Strs("ids", ids).Send()
		return nil, dbpkg.Classify(err)
	}
	defer rows.Close()

	items, err := scanAccounts(ctx, rows)
	if err != nil {
		return nil, err
	}

	locked := make(map[string]domain.Account, len(items))
	for _, a := range items {
		locked[a.ID] = a
	}

	return locked, nil
}

const addBalanceQuery = `
UPDATE accounts
SET balance = balance + $1
WHERE id = $2
RETURNING ` + accountColumns

func (r *RepoPGS) addBalance(ctx context.Context, id string, delta decimal.Decimal) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, addBalanceQuery, delta, id))
	if err != nil {
		l.Error().Err(err).Str("account_id", id).Str("delta", delta.String()).Send()

		if errors.Is(err, sql.ErrNoRows) {
			return a, domain.ErrAccountNotFound
		}

		if dbpkg.Constraint(err) == "accounts_balance_check" {
			return a, domain.ErrInsufficientFunds
		}

		return a, dbpkg.Classify(err)
	}

	return a, nil
}

// Debit subtracts amount from the account balance and returns the changed account.
func (r *RepoPGS) Debit(ctx context.Context, id string, amount decimal.Decimal) (domain.Account, error) {
	return r.addBalance(ctx, id, amount.Neg())
}

// Credit adds amount to the account balance and returns the changed account.
func (r *RepoPGS) Credit(ctx context.Context, id string, amount decimal.Decimal) (domain.Account, error) {
	return r.addBalance(ctx, id, amount)
}

func scanAccounts(ctx context.Context, rows *sql.Rows) ([]domain.Account, error) {
	l := zerolog.Ctx(ctx)

	items := []domain.Account{}

	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, dbpkg.Classify(err)
		}

		items = append(items, a)
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
