// Package historyservice serves the read-only account history.
package historyservice

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-wallet/internal/domain"
)

// Repo provides data access layer interface needed by history service layer.
type Repo interface {
	List(ctx context.Context, arg domain.ListEntriesParams) ([]domain.LedgerEntry, error)
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
	statsPageSize   = 500
	defaultMonths   = 6
	maxMonths       = 24
)

// Service facilitates history service layer logic.
type Service struct {
	repo Repo
	loc  *time.Location
	now  func() time.Time
}

// New returns history service struct. Months are split in loc.
func New(r Repo, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}

	return &Service{repo: r, loc: loc, now: time.Now}
}

// List returns one page of the account entries, newest first. The id of the
// last entry of a page restarts the listing after it.
func (s *Service) List(ctx context.Context, arg domain.ListEntriesParams) ([]domain.LedgerEntry, error) {
	if arg.Limit <= 0 {
		arg.Limit = defaultPageSize
	}

	if arg.Limit > maxPageSize {
		arg.Limit = maxPageSize
	}

	return s.repo.List(ctx, arg)
}

// Statistics sums the income and expenses of the account for the last months
// calendar months, the current one included. Received transfers and
// recharges are income, sent transfers are expenses.
func (s *Service) Statistics(ctx context.Context, accountID string, months int) (domain.Statistics, error) {
	l := zerolog.Ctx(ctx)

	if months <= 0 {
		months = defaultMonths
	}

	if months > maxMonths {
		months = maxMonths
	}

	now := s.now().In(s.loc)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc).AddDate(0, -(months - 1), 0)

	stats := domain.Statistics{
		Months:        make([]domain.MonthSummary, months),
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
	}

	index := make(map[string]int, months)

	for i := range stats.Months {
		key := first.AddDate(0, i, 0).Format("2006-01")
		stats.Months[i] = domain.MonthSummary{Month: key, Income: decimal.Zero, Expenses: decimal.Zero}
		index[key] = i
	}

	arg := domain.ListEntriesParams{AccountID: accountID, Since: first, Limit: statsPageSize}

	for {
		page, err := s.repo.List(ctx, arg)
		if err != nil {
			l.Error().Err(err).Send()
			return domain.Statistics{}, err
		}

		for _, e := range page {
			i, ok := index[e.CreatedAt.In(s.loc).Format("2006-01")]
			if !ok {
				continue
			}

			delta := e.SignedAmount(accountID)
			m := &stats.Months[i]

			if delta.IsNegative() {
				m.Expenses = m.Expenses.Add(delta.Neg())
				stats.TotalExpenses = stats.TotalExpenses.Add(delta.Neg())
			} else {
				m.Income = m.Income.Add(delta)
				stats.TotalIncome = stats.TotalIncome.Add(delta)
			}
		}

		if len(page) < int(arg.Limit) {
			break
		}

		arg.BeforeID = page[len(page)-1].ID
	}

	return stats, nil
}
