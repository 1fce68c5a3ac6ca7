package cashouts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andresouza-dev/pratoexpress-backend/pkg/db/models"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/enums"
)

// Repository covers the persistence side of withdrawal processing.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindRestaurantByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Restaurant, error)
	CreateCashout(ctx context.Context, cashout *models.Cashout) error
	SumCompletedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error)
	MarkCompleted(ctx context.Context, cashoutID uuid.UUID) (int64, error)
	MarkFailed(ctx context.Context, cashoutID uuid.UUID, detail string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cashouts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindRestaurantByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		First(&restaurant).Error
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func (r *repository) CreateCashout(ctx context.Context, cashout *models.Cashout) error {
	return r.db.WithContext(ctx).Create(cashout).Error
}

func (r *repository) SumCompletedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Cashout{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Where("user_id = ? AND status = ? AND created_at >= ?", userID, enums.CashoutStatusCompleted, since).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// MarkCompleted and MarkFailed both guard on the pending status so a cashout
// row settles into exactly one terminal state.
func (r *repository) MarkCompleted(ctx context.Context, cashoutID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Cashout{}).
		Where("id = ? AND status = ?", cashoutID, enums.CashoutStatusPending).
		Update("status", enums.CashoutStatusCompleted)
	return res.RowsAffected, res.Error
}

func (r *repository) MarkFailed(ctx context.Context, cashoutID uuid.UUID, detail string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Cashout{}).
		Where("id = ? AND status = ?", cashoutID, enums.CashoutStatusPending).
		Updates(map[string]any{
			"status":       enums.CashoutStatusFailed,
			"error_detail": detail,
		})
	return res.RowsAffected, res.Error
}
