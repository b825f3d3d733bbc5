// Package activityservice keeps the security log of attempted wallet operations.
package activityservice

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-wallet/internal/domain"
)

// Repo provides data access layer interface needed by activity service layer.
type Repo interface {
	Create(ctx context.Context, a domain.Activity) (domain.Activity, error)
	List(ctx context.Context, accountID string, limit int32) ([]domain.Activity, error)
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
	maxDeviceLength  = 255
)

type deviceKey struct{}

// WithDevice returns a copy of ctx that carries the client device description
// recorded with every activity.
func WithDevice(ctx context.Context, device string) context.Context {
	if len(device) > maxDeviceLength {
		device = device[:maxDeviceLength]
	}

	return context.WithValue(ctx, deviceKey{}, device)
}

// DeviceFrom returns the device stored by WithDevice or an empty string.
func DeviceFrom(ctx context.Context) string {
	device, _ := ctx.Value(deviceKey{}).(string)
	return device
}

// Service facilitates activity log logic.
type Service struct {
	repo Repo
	now  func() time.Time
}

// New returns activity service struct.
func New(r Repo) *Service {
	return &Service{repo: r, now: time.Now}
}

// Record appends the outcome of an operation to the account activity.
// Failing to record never fails the operation itself.
func (s *Service) Record(ctx context.Context, accountID string, action domain.Kind, opErr error) {
	l := zerolog.Ctx(ctx)

	a := domain.Activity{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Action:    action,
		Status:    domain.ActivitySuccess,
		Device:    DeviceFrom(ctx),
		CreatedAt: s.now().UTC(),
	}

	if opErr != nil {
		a.Status = domain.ActivityFailed
		a.Detail = string(domain.KindOf(opErr))
	}

	if _, err := s.repo.Create(ctx, a); err != nil {
		l.Error().Err(err).Str("account_id", accountID).Msg("cannot record activity")
	}
}

// List returns the latest activity of the account, newest first.
func (s *Service) List(ctx context.Context, accountID string, limit int32) ([]domain.Activity, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	if limit > maxListLimit {
		limit = maxListLimit
	}

	return s.repo.List(ctx, accountID, limit)
}
