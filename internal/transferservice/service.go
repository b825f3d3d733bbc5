// Package transferservice moves funds between two wallet accounts.
//
// A transfer resolves its recipient outside any lock and then runs as one
// atomic unit: both accounts are locked in id order, balance and limits are
// re-checked under the lock, and the debit, credit, ledger entry and limit
// window update commit together.
package transferservice

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

// Resolver maps a recipient identifier to an account id.
type Resolver interface {
	Resolve(ctx context.Context, input string) (string, error)
}

// LimitPolicy evaluates and records spending against the account caps.
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

// Service facilitates transfer service layer logic.
type Service struct {
	store    ledger.Store
	resolver Resolver
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

// WithActivity records the outcome of every transfer.
func WithActivity(a ActivityRecorder) Option {
	return func(s *Service) {
		s.activity = a
	}
}

// New returns transfer service struct to manage transfer bussines logic.
func New(store ledger.Store, r Resolver, limits LimitPolicy, retry ledger.RetryPolicy, opts ...Option) *Service {
	s := &Service{
		store:    store,
		resolver: r,
		limits:   limits,
		retry:    retry,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Transfer moves p.Amount from the sender to the resolved recipient and
// returns the committed ledger entry.
//
// A transfer submitted again with the idempotency key of a committed transfer
// returns the committed entry without moving funds again, even when the
// recipient input no longer resolves uniquely.
func (s *Service) Transfer(ctx context.Context, p domain.TransferParams) (domain.LedgerEntry, error) {
	entry, err := s.transfer(ctx, p)

	if s.activity != nil && domain.KindOf(err) != domain.KindCanceled {
		s.activity.Record(ctx, p.SenderID, domain.KindTransfer, err)
	}

	return entry, err
}

func (s *Service) transfer(ctx context.Context, p domain.TransferParams) (domain.LedgerEntry, error) {
	l := zerolog.Ctx(ctx)

	if err := domain.ValidateAmount(p.Amount); err != nil {
		return domain.LedgerEntry{}, err
	}

	if p.IdempotencyKey != "" {
		prior, err := s.committed(ctx, p.IdempotencyKey)

		switch {
		case err == nil:
			return s.replay(ctx, prior, p)
		case !errors.Is(err, domain.ErrEntryNotFound):
			return domain.LedgerEntry{}, err
		}
	}

	receiverID, err := s.resolver.Resolve(ctx, p.Recipient)
	if err != nil {
		l.Info().Err(err).Str("recipient", p.Recipient).Msg("cannot resolve recipient")
		return domain.LedgerEntry{}, err
	}

	if receiverID == p.SenderID {
		return domain.LedgerEntry{}, domain.ErrSelfTransfer
	}

	if err := ctx.Err(); err != nil {
		return domain.LedgerEntry{}, err
	}

	want := domain.LedgerEntry{
		SenderAccountID:   p.SenderID,
		ReceiverAccountID: receiverID,
		Amount:            p.Amount,
		Kind:              domain.KindTransfer,
		IdempotencyKey:    p.IdempotencyKey,
	}

	var entry domain.LedgerEntry

	err = ledger.Run(ctx, s.store, s.retry, func(tx ledger.Tx) error {
		var err error

		entry, err = s.commit(ctx, tx, want)
		if errors.Is(err, domain.ErrDuplicateIdempotencyKey) {
			// Committed by a concurrent unit. The retry replays it.
			return domain.ErrConcurrentModification
		}

		return err
	})
	if err != nil {
		l.Info().Err(err).Str("sender_id", p.SenderID).Str("receiver_id", receiverID).
			Str("amount", p.Amount.String()).Msg("transfer failed")

		return domain.LedgerEntry{}, err
	}

	l.Info().Str("entry_id", entry.ID).Str("sender_id", entry.SenderAccountID).
		Str("receiver_id", entry.ReceiverAccountID).Str("amount", entry.Amount.String()).Msg("transfer committed")

	return entry, nil
}

// committed returns the entry stored with the idempotency key or domain.ErrEntryNotFound.
func (s *Service) committed(ctx context.Context, key string) (domain.LedgerEntry, error) {
	var prior domain.LedgerEntry

	err := s.store.Atomic(ctx, func(tx ledger.Tx) error {
		var err error

		prior, err = tx.EntryByKey(ctx, key)

		return err
	})

	return prior, err
}

// replay returns prior for a resubmitted transfer. The recipient is compared
// only while it still resolves: accounts created after the commit may make
// the original input ambiguous.
func (s *Service) replay(ctx context.Context, prior domain.LedgerEntry, p domain.TransferParams) (domain.LedgerEntry, error) {
	l := zerolog.Ctx(ctx)

	if prior.Kind != domain.KindTransfer || prior.SenderAccountID != p.SenderID || !prior.Amount.Equal(p.Amount) {
		return domain.LedgerEntry{}, domain.ErrIdempotencyKeyReused
	}

	receiverID, err := s.resolver.Resolve(ctx, p.Recipient)
	if err == nil && receiverID != prior.ReceiverAccountID {
		return domain.LedgerEntry{}, domain.ErrIdempotencyKeyReused
	}

	l.Info().Str("entry_id", prior.ID).Str("idempotency_key", p.IdempotencyKey).Msg("transfer replayed")

	return prior, nil
}

func (s *Service) commit(ctx context.Context, tx ledger.Tx, want domain.LedgerEntry) (domain.LedgerEntry, error) {
	if want.IdempotencyKey != "" {
		prior, err := tx.EntryByKey(ctx, want.IdempotencyKey)

		switch {
		case err == nil:
			if !prior.SameTransfer(want) {
				return domain.LedgerEntry{}, domain.ErrIdempotencyKeyReused
			}

			return prior, nil
		case !errors.Is(err, domain.ErrEntryNotFound):
			return domain.LedgerEntry{}, err
		}
	}

	accounts, err := tx.LockAccounts(ctx, want.SenderAccountID, want.ReceiverAccountID)
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	sender, ok := accounts[want.SenderAccountID]
	if !ok {
		return domain.LedgerEntry{}, domain.ErrAccountNotFound
	}

	if _, ok := accounts[want.ReceiverAccountID]; !ok {
		return domain.LedgerEntry{}, domain.ErrRecipientNotFound
	}

	if sender.Balance.LessThan(want.Amount) {
		return domain.LedgerEntry{}, domain.ErrInsufficientFunds
	}

	now := s.now()

	decision, err := s.limits.Evaluate(ctx, tx, want.SenderAccountID, domain.KindTransfer, want.Amount, now)
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	if !decision.Allowed {
		return domain.LedgerEntry{}, &domain.LimitExceededError{Window: decision.Window}
	}

	if _, err := tx.Debit(ctx, want.SenderAccountID, want.Amount); err != nil {
		return domain.LedgerEntry{}, err
	}

	if _, err := tx.Credit(ctx, want.ReceiverAccountID, want.Amount); err != nil {
		return domain.LedgerEntry{}, err
	}

	want.ID = uuid.NewString()
	want.CreatedAt = now.UTC()

	entry, err := tx.AppendEntry(ctx, want)
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	if err := s.limits.Record(ctx, tx, want.SenderAccountID, domain.KindTransfer, want.Amount, now); err != nil {
		return domain.LedgerEntry{}, err
	}

	return entry, nil
}
