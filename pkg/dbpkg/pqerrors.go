package dbpkg

import (
	"errors"

	"github.com/lib/pq"

	"github.com/go-petr/pet-wallet/internal/domain"
)

// Postgres error codes the repositories react to.
const (
	UniqueViolation      pq.ErrorCode = "23505"
	CheckViolation       pq.ErrorCode = "23514"
	SerializationFailure pq.ErrorCode = "40001"
	DeadlockDetected     pq.ErrorCode = "40P01"
	LockNotAvailable     pq.ErrorCode = "55P03"
)

// Constraint returns the name of the violated constraint, if any.
func Constraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}

	return ""
}

// IsConflict reports whether err was caused by a concurrent transaction and
// the whole transaction may be retried.
func IsConflict(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}

	switch pqErr.Code {
	case SerializationFailure, DeadlockDetected, LockNotAvailable:
		return true
	}

	return false
}

// Classify maps a driver error that no repository handled explicitly to the
// wallet error kinds.
func Classify(err error) error {
	if IsConflict(err) {
		return domain.ErrConcurrentModification
	}

	return domain.ErrPersistence
}
