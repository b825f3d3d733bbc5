// Package domain provides defenitions of all wallet entities.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds the wallet balance of a registered user.
//
// Accounts are provisioned externally at registration and are only mutated
// by the transfer and recharge engines.
type Account struct {
	ID          string          `json:"id"`
	DisplayName string          `json:"display_name"`
	Email       string          `json:"email"`
	Balance     decimal.Decimal `json:"balance"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CreateAccountParams is the input data to provision an account.
type CreateAccountParams struct {
	ID          string
	DisplayName string
	Email       string
	Balance     decimal.Decimal
}

// Recipient is the public projection of a resolved account.
type Recipient struct {
	AccountID   string `json:"account_id"`
	DisplayName string `json:"display_name"`
}
