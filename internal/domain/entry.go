package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind tags every balance-affecting operation.
type Kind string

// Supported operation kinds.
const (
	KindTransfer Kind = "transfer"
	KindRecharge Kind = "recharge"
)

// Valid reports whether k is a known operation kind.
func (k Kind) Valid() bool {
	return k == KindTransfer || k == KindRecharge
}

// LedgerEntry is an immutable record of one committed operation.
//
// For recharges SenderAccountID equals ReceiverAccountID.
type LedgerEntry struct {
	ID                string          `json:"id"`
	SenderAccountID   string          `json:"sender_account_id"`
	ReceiverAccountID string          `json:"receiver_account_id"`
	Amount            decimal.Decimal `json:"amount"`
	Kind              Kind            `json:"kind"`
	CreatedAt         time.Time       `json:"created_at"`
	IdempotencyKey    string          `json:"idempotency_key,omitempty"`
}

// Touches reports whether the entry affects the given account.
func (e LedgerEntry) Touches(accountID string) bool {
	return e.SenderAccountID == accountID || e.ReceiverAccountID == accountID
}

// SignedAmount returns the balance delta the entry applied to accountID.
func (e LedgerEntry) SignedAmount(accountID string) decimal.Decimal {
	switch {
	case e.Kind == KindRecharge && e.ReceiverAccountID == accountID:
		return e.Amount
	case e.Kind == KindTransfer && e.SenderAccountID == accountID:
		return e.Amount.Neg()
	case e.Kind == KindTransfer && e.ReceiverAccountID == accountID:
		return e.Amount
	}

	return decimal.Zero
}

// SameTransfer reports whether o describes the same transfer as e, so that a
// replay with the idempotency key of e may return e.
func (e LedgerEntry) SameTransfer(o LedgerEntry) bool {
	return e.Kind == KindTransfer && o.Kind == KindTransfer &&
		e.SenderAccountID == o.SenderAccountID &&
		e.ReceiverAccountID == o.ReceiverAccountID &&
		e.Amount.Equal(o.Amount)
}

// TransferParams is the input data for the transfer engine.
type TransferParams struct {
	SenderID       string
	Recipient      string
	Amount         decimal.Decimal
	IdempotencyKey string
}

// RechargeParams is the input data for the recharge engine.
type RechargeParams struct {
	AccountID      string
	Amount         decimal.Decimal
	IdempotencyKey string
}

// ListEntriesParams is the input data to page through an account history.
//
// Entries are returned newest first. BeforeID restarts the listing right
// after the entry with that id.
type ListEntriesParams struct {
	AccountID string
	Since     time.Time
	BeforeID  string
	Limit     int32
}
