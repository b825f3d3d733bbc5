// Package activityrepo manages repository layer of the security activity log.
package activityrepo

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/pkg/dbpkg"
)

// RepoPGS facilitates activity repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns activity RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const createQuery = `
INSERT INTO
    security_activity (id, account_id, action, status, detail, device, created_at)
VALUES
    ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, account_id, action, status, detail, device, created_at
`

// Create stores the activity record and then returns it.
func (r *RepoPGS) Create(ctx context.Context, a domain.Activity) (domain.Activity, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery, a.ID, a.AccountID, a.Action, a.Status, a.Detail, a.Device, a.CreatedAt)

	var stored domain.Activity

	err := row.Scan(
		&stored.ID,
		&stored.AccountID,
		&stored.Action,
		&stored.Status,
		&stored.Detail,
		&stored.Device,
		&stored.CreatedAt,
	)
	if err != nil {
		l.Error().Err(err).Msgf("Create(ctx, %+v)", a)
		return stored, dbpkg.Classify(err)
	}

	return stored, nil
}

const listQuery = `
SELECT id, account_id, action, status, detail, device, created_at
FROM security_activity
WHERE account_id = $1
ORDER BY seq DESC
LIMIT $2
`

// List returns the latest activity records of the account, newest first.
func (r *RepoPGS) List(ctx context.Context, accountID string, limit int32) ([]domain.Activity, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery, accountID, limit)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, dbpkg.Classify(err)
	}
	defer rows.Close()

	items := []domain.Activity{}

	for rows.Next() {
		var a domain.Activity
		if err := rows.Scan(&a.ID, &a.AccountID, &a.Action, &a.Status, &a.Detail, &a.Device, &a.CreatedAt); err != nil {
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
