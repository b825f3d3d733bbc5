// Package accountservice manages business logic layer of accounts.
package accountservice

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-wallet/internal/domain"
)

// Repo provides data access layer interface needed by account service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package accountservice
type Repo interface {
	Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error)
	Get(ctx context.Context, id string) (domain.Account, error)
}

// Service facilitates account service layer logic.
type Service struct {
	repo Repo
}

// New returns account service struct to manage account bussines logic.
func New(ar Repo) *Service {
	return &Service{repo: ar}
}

// Provision creates the wallet account of a newly registered user.
func (s *Service) Provision(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	arg.Email = strings.TrimSpace(arg.Email)
	arg.DisplayName = strings.TrimSpace(arg.DisplayName)

	if arg.ID == "" || arg.Email == "" || arg.DisplayName == "" {
		return domain.Account{}, domain.ErrInvalidRecipient
	}

	if arg.Balance.IsNegative() || !arg.Balance.Equal(arg.Balance.Truncate(domain.AmountScale)) {
		return domain.Account{}, domain.ErrInvalidAmount
	}

	account, err := s.repo.Create(ctx, arg)
	if err != nil {
		l.Error().Err(err).Send()
		return account, err
	}

	return account, nil
}

// Get returns account for the given account ID.
func (s *Service) Get(ctx context.Context, id string) (domain.Account, error) {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return account, err
	}

	return account, nil
}

// GetBalance returns the current balance of the account.
func (s *Service) GetBalance(ctx context.Context, id string) (decimal.Decimal, error) {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}

	return account.Balance, nil
}
