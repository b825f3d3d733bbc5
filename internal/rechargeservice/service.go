// Package rechargeservice credits top-ups to a wallet account.
package rechargeservice

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/ledger"
	"github.com/go-petr/pet-wallet/internal/limitservice"
)

// LimitPolicy evaluates and records top-ups against the account caps.
type LimitPolicy interface {
	Evaluate(ctx context.Context, r limitservice.Reader, accountID string, op domain.Kind,
		amount decimal.Decimal, now time.Time) (domain.Decision, error)
	Record(ctx context.Context, rw limitservice.ReadWriter, accountID string, op domain.Kind,
		amount decimal.Decimal, now time.Time) error
}

// ActivityRecorder keeps the security log of attempted operations.
type ActivityRecorder interface {
	Record(ctx context.Context, accountID string, action domain.Kind, opErr error)
}

// Service facilitates recharge service layer logic.
type Service struct {
	store    ledger.Store
	limits   LimitPolicy
	activity ActivityRecorder
	retry    ledger.RetryPolicy
	now      func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithClock replaces time.Now as the source of entry and window timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithActivity records the outcome of every recharge.
func WithActivity(a ActivityRecorder) Option {
	return func(s *Service) {
		s.activity = a
	}
}

// New returns recharge service struct to manage recharge bussines logic.
func New(store ledger.Store, limits LimitPolicy, retry ledger.RetryPolicy, opts ...Option) *Service {
	s := &Service{
		store:  store,
		limits: limits,
		retry:  retry,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Recharge credits p.Amount to the account and returns the committed entry.
//
// If p.IdempotencyKey was already committed for the account, the prior entry
// is returned unchanged and nothing is credited. An empty key is replaced by
// a generated one, so such a request is never deduplicated.
func (s *Service) Recharge(ctx context.Context, p domain.RechargeParams) (domain.LedgerEntry, error) {
	entry, err := s.recharge(ctx, p)

	if s.activity != nil && domain.KindOf(err) != domain.KindCanceled {
		s.activity.Record(ctx, p.AccountID, domain.KindRecharge, err)
	}

	return entry, err
}

func (s *Service) recharge(ctx context.Context, p domain.RechargeParams) (domain.LedgerEntry, error) {
	l := zerolog.Ctx(ctx)

	if p.IdempotencyKey == "" {
		if err := domain.ValidateAmount(p.Amount); err != nil {
			return domain.LedgerEntry{}, err
		}

		p.IdempotencyKey = uuid.NewString()
	}

	if err := ctx.Err(); err != nil {
		return domain.LedgerEntry{}, err
	}

	var entry domain.LedgerEntry

	err := ledger.Run(ctx, s.store, s.retry, func(tx ledger.Tx) error {
		var err error

		entry, err = s.commit(ctx, tx, p)
		if errors.Is(err, domain.ErrDuplicateIdempotencyKey) {
			return domain.ErrConcurrentModification
		}

		return err
	})
	if err != nil {
		l.Info().Err(err).Str("account_id", p.AccountID).Str("amount", p.Amount.String()).Msg("recharge failed")
		return domain.LedgerEntry{}, err
	}

	l.Info().Str("entry_id", entry.ID).Str("account_id", entry.ReceiverAccountID).
		Str("amount", entry.Amount.String()).Msg("recharge committed")

	return entry, nil
}

func (s *Service) commit(ctx context.Context, tx ledger.Tx, p domain.RechargeParams) (domain.LedgerEntry, error) {
	prior, err := tx.EntryByKey(ctx, p.IdempotencyKey)

	switch {
	case err == nil:
		if prior.Kind != domain.KindRecharge || prior.ReceiverAccountID != p.AccountID {
			return domain.LedgerEntry{}, domain.ErrIdempotencyKeyReused
		}

		return prior, nil
	case !errors.Is(err, domain.ErrEntryNotFound):
		return domain.LedgerEntry{}, err
	}

	if err := domain.ValidateAmount(p.Amount); err != nil {
		return domain.LedgerEntry{}, err
	}

	accounts, err := tx.LockAccounts(ctx, p.AccountID)
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	if _, ok := accounts[p.AccountID]; !ok {
		return domain.LedgerEntry{}, domain.ErrAccountNotFound
	}

	now := s.now()

	decision, err := s.limits.Evaluate(ctx, tx, p.AccountID, domain.KindRecharge, p.Amount, now)
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	if !decision.Allowed {
		return domain.LedgerEntry{}, &domain.LimitExceededError{Window: decision.Window}
	}

	if _, err := tx.Credit(ctx, p.AccountID, p.Amount); err != nil {
		return domain.LedgerEntry{}, err
	}

	entry, err := tx.AppendEntry(ctx, domain.LedgerEntry{
		ID:                uuid.NewString(),
		SenderAccountID:   p.AccountID,
		ReceiverAccountID: p.AccountID,
		Amount:            p.Amount,
		Kind:              domain.KindRecharge,
		CreatedAt:         now.UTC(),
		IdempotencyKey:    p.IdempotencyKey,
	})
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	if err := s.limits.Record(ctx, tx, p.AccountID, domain.KindRecharge, p.Amount, now); err != nil {
		return domain.LedgerEntry{}, err
	}

	return entry, nil
}
