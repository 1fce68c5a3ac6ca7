package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andresouza-dev/pratoexpress-backend/pkg/db/models"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/enums"
	pkgerrors "github.com/andresouza-dev/pratoexpress-backend/pkg/errors"
)

// PlatformStats is the admin dashboard snapshot.
type PlatformStats struct {
	Customers          int64 `json:"customers"`
	Couriers           int64 `json:"couriers"`
	Restaurants        int64 `json:"restaurants"`
	PendingRestaurants int64 `json:"pending_restaurants"`
	Orders             int64 `json:"orders"`
	SettledVolumeCents int64 `json:"settled_volume_cents"`
}

// Broadcaster fans a notification out to many device tokens.
type Broadcaster interface {
	Broadcast(ctx context.Context, tokens []string, title, body string) error
}

// BroadcastResult reports how many devices an announcement targeted.
type BroadcastResult struct {
	Recipients int `json:"recipients"`
}

// Service covers profile side-channel writes and the admin surface.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdatePixKey(ctx context.Context, userID uuid.UUID, key, keyType string) error
	UpdatePushToken(ctx context.Context, userID uuid.UUID, token string) error
	List(ctx context.Context) ([]models.User, error)
	ApproveCourier(ctx context.Context, courierID uuid.UUID) error
	Stats(ctx context.Context) (*PlatformStats, error)
	NotifyCustomers(ctx context.Context, title, body string) (*BroadcastResult, error)
}

type service struct {
	repo        Repository
	broadcaster Broadcaster
}

// NewService builds the users service. The broadcaster is optional; without
// one, customer announcements report a dependency error.
func NewService(repo Repository, broadcaster Broadcaster) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo, broadcaster: broadcaster}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load user")
	}
	return user, nil
}

func (s *service) UpdatePixKey(ctx context.Context, userID uuid.UUID, key, keyType string) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "pix key required")
	}
	parsed, err := enums.ParsePixKeyType(keyType)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown pix key type")
	}
	rows, err := s.repo.UpdatePixKey(ctx, userID, key, parsed)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to store pix key")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return nil
}

func (s *service) UpdatePushToken(ctx context.Context, userID uuid.UUID, token string) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "push token required")
	}
	rows, err := s.repo.UpdatePushToken(ctx, userID, token)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to store push token")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return nil
}

func (s *service) List(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list users")
	}
	return users, nil
}

func (s *service) ApproveCourier(ctx context.Context, courierID uuid.UUID) error {
	if courierID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "courier id required")
	}
	user, err := s.repo.FindByID(ctx, courierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load user")
	}
	if user.Role != enums.UserRoleCourier {
		return pkgerrors.New(pkgerrors.CodeValidation, "only couriers require approval here")
	}
	if _, err := s.repo.SetApproved(ctx, courierID, true); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to approve courier")
	}
	return nil
}

func (s *service) Stats(ctx context.Context) (*PlatformStats, error) {
	stats := &PlatformStats{}
	var err error
	if stats.Customers, err = s.repo.CountByRole(ctx, enums.UserRoleCustomer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to count customers")
	}
	if stats.Couriers, err = s.repo.CountByRole(ctx, enums.UserRoleCourier); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to count couriers")
	}
	if stats.Restaurants, err = s.repo.CountRestaurants(ctx, true); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to count restaurants")
	}
	total, err := s.repo.CountRestaurants(ctx, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to count restaurants")
	}
	stats.PendingRestaurants = total - stats.Restaurants
	if stats.Orders, err = s.repo.CountOrders(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to count orders")
	}
	if stats.SettledVolumeCents, err = s.repo.SettledVolumeCents(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to sum settled volume")
	}
	return stats, nil
}

func (s *service) NotifyCustomers(ctx context.Context, title, body string) (*BroadcastResult, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" || body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification title and body required")
	}
	if s.broadcaster == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "push notifications not configured")
	}
	tokens, err := s.repo.ListCustomerPushTokens(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list customer tokens")
	}
	if len(tokens) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no customer has a registered device")
	}
	if err := s.broadcaster.Broadcast(ctx, tokens, title, body); err != nil {
		// Partial delivery failures are reported but the announcement is
		// not retried; tokens go stale all the time.
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to deliver announcement")
	}
	return &BroadcastResult{Recipients: len(tokens)}, nil
}
