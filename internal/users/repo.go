package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andresouza-dev/pratoexpress-backend/pkg/db/models"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/enums"
)

// Repository exposes profile reads/writes and the admin-facing queries.
// Profile writes never touch balance columns; those belong to the ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdatePixKey(ctx context.Context, userID uuid.UUID, key string, keyType enums.PixKeyType) (int64, error)
	UpdatePushToken(ctx context.Context, userID uuid.UUID, token string) (int64, error)
	SetApproved(ctx context.Context, userID uuid.UUID, approved bool) (int64, error)
	CountByRole(ctx context.Context, role enums.UserRole) (int64, error)
	CountRestaurants(ctx context.Context, approvedOnly bool) (int64, error)
	CountOrders(ctx context.Context) (int64, error)
	SettledVolumeCents(ctx context.Context) (int64, error)
	ListCustomerPushTokens(ctx context.Context) ([]string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a users repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *repository) UpdatePixKey(ctx context.Context, userID uuid.UUID, key string, keyType enums.PixKeyType) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"pix_key":      key,
			"pix_key_type": keyType,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) UpdatePushToken(ctx context.Context, userID uuid.UUID, token string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("push_token", token)
	return res.RowsAffected, res.Error
}

func (r *repository) SetApproved(ctx context.Context, userID uuid.UUID, approved bool) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("approved", approved)
	return res.RowsAffected, res.Error
}

func (r *repository) CountByRole(ctx context.Context, role enums.UserRole) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ?", role).
		Count(&count).Error
	return count, err
}

func (r *repository) CountRestaurants(ctx context.Context, approvedOnly bool) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Restaurant{})
	if approvedOnly {
		query = query.Where("approved = ?", true)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *repository) CountOrders(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Count(&count).Error
	return count, err
}

// SettledVolumeCents sums the totals of every order that has settled, i.e.
// reached paid or any later non-cancelled status.
func (r *repository) SettledVolumeCents(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(SUM(total_cents), 0)").
		Where("status IN ?", []enums.OrderStatus{
			enums.OrderStatusPaid,
			enums.OrderStatusPreparing,
			enums.OrderStatusReadyForDelivery,
			enums.OrderStatusInTransit,
			enums.OrderStatusDelivered,
		}).
		Scan(&total).Error
	return total, err
}

// ListCustomerPushTokens returns the device tokens of every customer who
// registered one.
func (r *repository) ListCustomerPushTokens(ctx context.Context) ([]string, error) {
	var tokens []string
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ? AND push_token IS NOT NULL AND push_token <> ''", enums.UserRoleCustomer).
		Pluck("push_token", &tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}
