// Package identityservice resolves a recipient identifier to an account.
//
// An identifier that parses as an email address is matched exactly, ignoring
// case. Anything else is matched as a case-insensitive substring of the
// display name and must identify a single account.
package identityservice

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-wallet/internal/domain"
)

// Repo provides data access layer interface needed by identity service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package identityservice
type Repo interface {
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	SearchByDisplayName(ctx context.Context, query string, limit int32) ([]domain.Account, error)
}

// Two matches are enough to report ambiguity.
const searchLimit = 2

// Service facilitates recipient resolution logic.
type Service struct {
	repo     Repo
	validate *validator.Validate
}

// New returns identity service struct to manage recipient resolution.
func New(r Repo) *Service {
	return &Service{
		repo:     r,
		validate: validator.New(),
	}
}

// Resolve returns the id of the account identified by input.
func (s *Service) Resolve(ctx context.Context, input string) (string, error) {
	r, err := s.Recipient(ctx, input)
	if err != nil {
		return "", err
	}

	return r.AccountID, nil
}

// Recipient returns the public projection of the account identified by input.
func (s *Service) Recipient(ctx context.Context, input string) (domain.Recipient, error) {
	l := zerolog.Ctx(ctx)

	input = strings.TrimSpace(input)
	if input == "" {
		return domain.Recipient{}, domain.ErrInvalidRecipient
	}

	if s.validate.Var(input, "email") == nil {
		a, err := s.repo.GetByEmail(ctx, input)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				return domain.Recipient{}, domain.ErrRecipientNotFound
			}

			l.Error().Err(err).Send()

			return domain.Recipient{}, err
		}

		return recipientOf(a), nil
	}

	matches, err := s.repo.SearchByDisplayName(ctx, input, searchLimit)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Recipient{}, err
	}

	switch len(matches) {
	case 0:
		return domain.Recipient{}, domain.ErrRecipientNotFound
	case 1:
		return recipientOf(matches[0]), nil
	}

	l.Info().Str("query", input).Msg("ambiguous recipient")

	return domain.Recipient{}, domain.ErrAmbiguousRecipient
}

func recipientOf(a domain.Account) domain.Recipient {
	return domain.Recipient{AccountID: a.ID, DisplayName: a.DisplayName}
}
