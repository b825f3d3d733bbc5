package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Activity statuses.
const (
	ActivitySuccess = "success"
	ActivityFailed  = "failed"
)

// Activity is a security log record of an attempted wallet operation.
type Activity struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Action    Kind      `json:"action"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
	// Device is the user agent of the client that attempted the operation.
	Device    string    `json:"device,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MonthSummary aggregates the income and expenses of one calendar month.
type MonthSummary struct {
	// Month is formatted as YYYY-MM.
	Month    string          `json:"month"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

// Statistics is the income/expenses overview of an account.
type Statistics struct {
	Months        []MonthSummary  `json:"months"`
	TotalIncome   decimal.Decimal `json:"total_income"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
}
