package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/ledger"
)

// scriptedStore fails the first len(errs) units with the scripted errors and
// runs the unit afterwards.
type scriptedStore struct {
	errs     []error
	attempts int
}

func (s *scriptedStore) Atomic(_ context.Context, fn func(tx ledger.Tx) error) error {
	s.attempts++

	if s.attempts <= len(s.errs) {
		return s.errs[s.attempts-1]
	}

	return fn(nil)
}

func conflicts(n int) []error {
	errs := make([]error, n)
	for i := range errs {
		errs[i] = domain.ErrConcurrentModification
	}

	return errs
}

func TestRun(t *testing.T) {
	policy := ledger.RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond}
	errDisk := errors.New("disk full")

	testCases := []struct {
		name         string
		errs         []error
		wantErr      error
		wantAttempts int
		wantCalled   bool
	}{
		{
			name:         "FirstAttempt",
			wantAttempts: 1,
			wantCalled:   true,
		},
		{
			name:         "RecoversAfterConflicts",
			errs:         conflicts(3),
			wantAttempts: 4,
			wantCalled:   true,
		},
		{
			name:         "RetriesExhausted",
			errs:         conflicts(10),
			wantErr:      domain.ErrConcurrentModification,
			wantAttempts: 4,
		},
		{
			name:         "OtherErrorNotRetried",
			errs:         []error{errDisk},
			wantErr:      errDisk,
			wantAttempts: 1,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			store := &scriptedStore{errs: tc.errs}
			called := false

			err := ledger.Run(context.Background(), store, policy, func(tx ledger.Tx) error {
				called = true
				return nil
			})

			require.Equal(t, tc.wantAttempts, store.attempts)
			require.Equal(t, tc.wantCalled, called)

			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestRunExhaustedIsRetryable(t *testing.T) {
	store := &scriptedStore{errs: conflicts(10)}

	err := ledger.Run(context.Background(), store, ledger.RetryPolicy{MaxRetries: 2}, func(ledger.Tx) error {
		return nil
	})

	require.Equal(t, 3, store.attempts)
	require.True(t, domain.IsRetryable(err))
	require.Equal(t, domain.KindConcurrentModification, domain.KindOf(err))
}

func TestRunCanceledDuringBackoff(t *testing.T) {
	store := &scriptedStore{errs: conflicts(10)}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := ledger.Run(ctx, store, ledger.RetryPolicy{MaxRetries: 5, BaseDelay: time.Hour}, func(ledger.Tx) error {
		return nil
	})

	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, 1, store.attempts)
	require.Equal(t, domain.KindCanceled, domain.KindOf(err))
}
