package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WindowKind names a limit window, ordered from the most granular.
type WindowKind string

// Limit windows.
const (
	WindowTransaction WindowKind = "transaction"
	WindowDaily       WindowKind = "daily"
	WindowMonthly     WindowKind = "monthly"
)

// LimitWindow holds the cumulative spend of an account within one window.
type LimitWindow struct {
	AccountID        string          `json:"account_id"`
	Operation        Kind            `json:"operation"`
	Window           WindowKind      `json:"window"`
	WindowStart      time.Time       `json:"window_start"`
	CumulativeAmount decimal.Decimal `json:"cumulative_amount"`
}

// Caps are the configured ceilings of an account for one operation kind.
// A zero cap means the window is not capped.
type Caps struct {
	Transaction decimal.Decimal `json:"transaction"`
	Daily       decimal.Decimal `json:"daily"`
	Monthly     decimal.Decimal `json:"monthly"`
}

// Of returns the cap configured for the window.
func (c Caps) Of(w WindowKind) decimal.Decimal {
	switch w {
	case WindowTransaction:
		return c.Transaction
	case WindowDaily:
		return c.Daily
	case WindowMonthly:
		return c.Monthly
	}

	return decimal.Zero
}

// Decision is the outcome of a limit evaluation.
type Decision struct {
	Allowed bool
	Window  WindowKind
}

// Allow is the positive limit decision.
var Allow = Decision{Allowed: true}

// Deny returns a negative decision for the violated window.
func Deny(w WindowKind) Decision {
	return Decision{Window: w}
}
