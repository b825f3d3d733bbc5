// Package limitservice enforces per-account transaction, daily and monthly caps.
//
// Daily windows start at local midnight and monthly windows on the first day
// of the month, both in the configured time zone. A window whose start lies
// in the past period is stale and counts as empty. The transaction window has
// no state: it compares the single amount with its cap.
package limitservice

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-wallet/internal/domain"
)

// Reader provides the windows and caps needed to evaluate an operation.
type Reader interface {
	Windows(ctx context.Context, accountID string, op domain.Kind) ([]domain.LimitWindow, error)
	Caps(ctx context.Context, accountID string, op domain.Kind) (domain.Caps, bool, error)
}

// ReadWriter additionally stores the updated windows.
type ReadWriter interface {
	Reader
	SaveWindow(ctx context.Context, w domain.LimitWindow) error
}

// Policy facilitates limit evaluation logic.
type Policy struct {
	loc      *time.Location
	defaults map[domain.Kind]domain.Caps
}

// New returns a Policy with the default caps per operation kind.
func New(loc *time.Location, defaults map[domain.Kind]domain.Caps) *Policy {
	if loc == nil {
		loc = time.UTC
	}

	return &Policy{
		loc:      loc,
		defaults: defaults,
	}
}

// Location returns the time zone of the calendar windows.
func (p *Policy) Location() *time.Location {
	return p.loc
}

func (p *Policy) caps(ctx context.Context, r Reader, accountID string, op domain.Kind) (domain.Caps, error) {
	c, ok, err := r.Caps(ctx, accountID, op)
	if err != nil {
		return domain.Caps{}, err
	}

	if !ok {
		c = p.defaults[op]
	}

	return c, nil
}

// Evaluate decides whether amount may be spent by the account in op at now.
// It never writes.
func (p *Policy) Evaluate(ctx context.Context, r Reader, accountID string, op domain.Kind,
	amount decimal.Decimal, now time.Time) (domain.Decision, error) {
	l := zerolog.Ctx(ctx)

	c, err := p.caps(ctx, r, accountID, op)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Decision{}, err
	}

	windows, err := r.Windows(ctx, accountID, op)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Decision{}, err
	}

	d := p.Decide(c, windows, amount, now)
	if !d.Allowed {
		l.Info().Str("account_id", accountID).Str("op", string(op)).Str("window", string(d.Window)).
			Str("amount", amount.String()).Msg("limit denied")
	}

	return d, nil
}

// Record adds amount to the daily and monthly windows of the account,
// rolling stale windows over first.
func (p *Policy) Record(ctx context.Context, rw ReadWriter, accountID string, op domain.Kind,
	amount decimal.Decimal, now time.Time) error {
	windows, err := rw.Windows(ctx, accountID, op)
	if err != nil {
		return err
	}

	for _, w := range p.Advance(windows, accountID, op, amount, now) {
		if err := rw.SaveWindow(ctx, w); err != nil {
			return err
		}
	}

	return nil
}

// Decide is the pure limit decision. When several windows would be exceeded
// the most granular one is reported: transaction, then daily, then monthly.
func (p *Policy) Decide(c domain.Caps, windows []domain.LimitWindow, amount decimal.Decimal, now time.Time) domain.Decision {
	if capped(c.Transaction) && amount.GreaterThan(c.Transaction) {
		return domain.Deny(domain.WindowTransaction)
	}

	for _, kind := range []domain.WindowKind{domain.WindowDaily, domain.WindowMonthly} {
		limit := c.Of(kind)
		if !capped(limit) {
			continue
		}

		if p.current(windows, kind, now).Add(amount).GreaterThan(limit) {
			return domain.Deny(kind)
		}
	}

	return domain.Allow
}

// Advance returns the daily and monthly windows after spending amount at now.
func (p *Policy) Advance(windows []domain.LimitWindow, accountID string, op domain.Kind,
	amount decimal.Decimal, now time.Time) []domain.LimitWindow {
	next := make([]domain.LimitWindow, 0, 2)

	for _, kind := range []domain.WindowKind{domain.WindowDaily, domain.WindowMonthly} {
		w, ok := find(windows, kind)
		if !ok || !p.Fresh(w, now) {
			w = domain.LimitWindow{
				AccountID:        accountID,
				Operation:        op,
				Window:           kind,
				WindowStart:      p.WindowStart(kind, now),
				CumulativeAmount: decimal.Zero,
			}
		}

		w.CumulativeAmount = w.CumulativeAmount.Add(amount)
		next = append(next, w)
	}

	return next
}

// WindowStart returns the start of the calendar window containing now.
func (p *Policy) WindowStart(kind domain.WindowKind, now time.Time) time.Time {
	t := now.In(p.loc)

	switch kind {
	case domain.WindowDaily:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, p.loc)
	case domain.WindowMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, p.loc)
	}

	return t
}

// windowEnd returns the exclusive end of the window starting at start.
func (p *Policy) windowEnd(kind domain.WindowKind, start time.Time) time.Time {
	start = start.In(p.loc)

	switch kind {
	case domain.WindowDaily:
		return start.AddDate(0, 0, 1)
	case domain.WindowMonthly:
		return start.AddDate(0, 1, 0)
	}

	return start
}

// Fresh reports whether now lies within [start, end) of the window.
func (p *Policy) Fresh(w domain.LimitWindow, now time.Time) bool {
	return !now.Before(w.WindowStart) && now.Before(p.windowEnd(w.Window, w.WindowStart))
}

func (p *Policy) current(windows []domain.LimitWindow, kind domain.WindowKind, now time.Time) decimal.Decimal {
	w, ok := find(windows, kind)
	if !ok || !p.Fresh(w, now) {
		return decimal.Zero
	}

	return w.CumulativeAmount
}

func find(windows []domain.LimitWindow, kind domain.WindowKind) (domain.LimitWindow, bool) {
	for _, w := range windows {
		if w.Window == kind {
			return w, true
		}
	}

	return domain.LimitWindow{}, false
}

func capped(limit decimal.Decimal) bool {
	return limit.IsPositive()
}
