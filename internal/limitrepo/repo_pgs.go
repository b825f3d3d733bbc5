// Package limitrepo manages repository layer of limit windows and caps.
package limitrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/pkg/dbpkg"
)

// RepoPGS facilitates limit repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns limit RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const listQuery = `
SELECT account_id, operation, window_kind, window_start, cumulative_amount
FROM limit_windows
WHERE account_id = $1 AND operation = $2
ORDER BY window_kind
`

// List returns the stored windows of the account for the operation kind.
func (r *RepoPGS) List(ctx context.Context, accountID string, op domain.Kind) ([]domain.LimitWindow, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery, accountID, op)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, dbpkg.Classify(err)
	}
	defer rows.Close()

	items := []domain.LimitWindow{}

	for rows.Next() {
		var w domain.LimitWindow
		if err := rows.Scan(&w.AccountID, &w.Operation, &w.Window, &w.WindowStart, &w.CumulativeAmount); err != nil {
			l.Error().Err(err).Send()
			return nil, dbpkg.Classify(err)
		}

		items = append(items, w)
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

const saveQuery = `
INSERT INTO
    limit_windows (account_id, operation, window_kind, window_start, cumulative_amount)
VALUES
    ($1, $2, $3, $4, $5)
ON CONFLICT (account_id, operation, window_kind) DO UPDATE
SET window_start = EXCLUDED.window_start, cumulative_amount = EXCLUDED.cumulative_amount
`

// Save stores the window, replacing the previous window of the same kind.
func (r *RepoPGS) Save(ctx context.Context, w domain.LimitWindow) error {
	l := zerolog.Ctx(ctx)

	_, err := r.db.ExecContext(ctx, saveQuery, w.AccountID, w.Operation, w.Window, w.WindowStart, w.CumulativeAmount)
	if err != nil {
		l.Error().Err(err).Msgf("Save(ctx, %+v)", w)

		if dbpkg.Constraint(err) == "limit_windows_account_id_fkey" {
			return domain.ErrAccountNotFound
		}

		return dbpkg.Classify(err)
	}

	return nil
}

const getCapsQuery = `
SELECT transaction_cap, daily_cap, monthly_cap
FROM account_caps
WHERE account_id = $1 AND operation = $2
`

// GetCaps returns the caps configured for the account, reporting false when
// the account uses the defaults.
func (r *RepoPGS) GetCaps(ctx context.Context, accountID string, op domain.Kind) (domain.Caps, bool, error) {
	l := zerolog.Ctx(ctx)

	var c domain.Caps

	err := r.db.QueryRowContext(ctx, getCapsQuery, accountID, op).Scan(&c.Transaction, &c.Daily, &c.Monthly)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c, false, nil
		}

		l.Error().Err(err).Send()

		return c, false, dbpkg.Classify(err)
	}

	return c, true, nil
}

const setCapsQuery = `
INSERT INTO
    account_caps (account_id, operation, transaction_cap, daily_cap, monthly_cap)
VALUES
    ($1, $2, $3, $4, $5)
ON CONFLICT (account_id, operation) DO UPDATE
SET transaction_cap = EXCLUDED.transaction_cap,
    daily_cap = EXCLUDED.daily_cap,
    monthly_cap = EXCLUDED.monthly_cap
`

// SetCaps overrides the default caps of the account for the operation kind.
func (r *RepoPGS) SetCaps(ctx context.Context, accountID string, op domain.Kind, c domain.Caps) error {
	l := zerolog.Ctx(ctx)

	_, err := r.db.ExecContext(ctx, setCapsQuery, accountID, op, c.Transaction, c.Daily, c.Monthly)
	if err != nil {
		l.Error().Err(err).Send()

		if dbpkg.Constraint(err) == "account_caps_account_id_fkey" {
			return domain.ErrAccountNotFound
		}

		return dbpkg.Classify(err)
	}

	return nil
}
