package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidAmount indicates a non-positive or malformed amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrSelfTransfer indicates that sender and receiver are the same account.
	ErrSelfTransfer = errors.New("self transfer is not allowed")
	// ErrInvalidRecipient indicates an empty recipient identifier.
	ErrInvalidRecipient = errors.New("invalid recipient")
	// ErrIdempotencyKeyReused indicates that the key was committed for another operation.
	ErrIdempotencyKeyReused = errors.New("idempotency key already used for another operation")
	// ErrAccountNotFound indicates that the account is not found.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountAlreadyExists indicates that the account id or email is taken.
	ErrAccountAlreadyExists = errors.New("account already exists")
	// ErrRecipientNotFound indicates that no account matches the recipient identifier.
	ErrRecipientNotFound = errors.New("recipient not found")
	// ErrEntryNotFound indicates that the ledger entry is not found.
	ErrEntryNotFound = errors.New("ledger entry not found")
	// ErrAmbiguousRecipient indicates that more than one account matches the display name.
	ErrAmbiguousRecipient = errors.New("ambiguous recipient, use the recipient email")
	// ErrInsufficientFunds indicates that the account balance does not cover the amount.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrLimitExceeded indicates that a spending cap would be exceeded.
	ErrLimitExceeded = errors.New("limit exceeded")
	// ErrConcurrentModification indicates a conflicting concurrent commit. It is retryable.
	ErrConcurrentModification = errors.New("concurrent modification, retry later")
	// ErrDuplicateIdempotencyKey indicates that an entry with the key is already stored.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
	// ErrPersistence indicates a storage failure. The operation must not be assumed committed.
	ErrPersistence = errors.New("persistence failure")
)

// LimitExceededError reports which window denied the operation.
type LimitExceededError struct {
	Window WindowKind
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("%s limit exceeded", e.Window)
}

// Is makes errors.Is(err, ErrLimitExceeded) hold, and matches another
// LimitExceededError of the same window.
func (e *LimitExceededError) Is(target error) bool {
	if t, ok := target.(*LimitExceededError); ok {
		return t.Window == e.Window
	}

	return target == ErrLimitExceeded
}

// ErrorKind is the machine readable category of an error.
type ErrorKind string

// Error kinds surfaced to callers.
const (
	KindValidation             ErrorKind = "validation_error"
	KindNotFound               ErrorKind = "not_found"
	KindAmbiguousRecipient     ErrorKind = "ambiguous_recipient"
	KindInsufficientFunds      ErrorKind = "insufficient_funds"
	KindLimitExceeded          ErrorKind = "limit_exceeded"
	KindConcurrentModification ErrorKind = "concurrent_modification"
	KindCanceled               ErrorKind = "canceled"
	KindPersistence            ErrorKind = "persistence_failure"
)

// KindOf categorizes err. Unknown errors are treated as persistence failures.
// Context errors are only reported by units that gave up before committing.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrSelfTransfer),
		errors.Is(err, ErrInvalidRecipient),
		errors.Is(err, ErrIdempotencyKeyReused),
		errors.Is(err, ErrAccountAlreadyExists):
		return KindValidation
	case errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrRecipientNotFound),
		errors.Is(err, ErrEntryNotFound):
		return KindNotFound
	case errors.Is(err, ErrAmbiguousRecipient):
		return KindAmbiguousRecipient
	case errors.Is(err, ErrInsufficientFunds):
		return KindInsufficientFunds
	case errors.Is(err, ErrLimitExceeded):
		return KindLimitExceeded
	case errors.Is(err, ErrConcurrentModification):
		return KindConcurrentModification
	case errors.Is(err, ErrPersistence):
		return KindPersistence
	case isCanceled(err):
		return KindCanceled
	}

	return KindPersistence
}

// IsRetryable reports whether the caller may safely resubmit the operation.
// A unit abandoned by its caller context never reached the commit.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification) ||
		(!errors.Is(err, ErrPersistence) && isCanceled(err))
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
