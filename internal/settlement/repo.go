package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andresouza-dev/pratoexpress-backend/pkg/db/models"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/enums"
)

// Repository covers the order and lookup queries settlement performs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	MarkPaid(ctx context.Context, orderID uuid.UUID, distanceKm float64, feeCents int64) (int64, error)
	FindRestaurantOwner(ctx context.Context, restaurantID uuid.UUID) (*models.User, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a settlement repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkPaid settles an order exactly once. The status guard makes webhook
// replays a zero-row no-op, and the distance and fee are written in the same
// statement so a settled order never lacks them.
func (r *repository) MarkPaid(ctx context.Context, orderID uuid.UUID, distanceKm float64, feeCents int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, enums.OrderStatusCreated).
		Updates(map[string]any{
			"status":               enums.OrderStatusPaid,
			"paid_at":              time.Now().UTC(),
			"delivery_distance_km": distanceKm,
			"delivery_fee_cents":   feeCents,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) FindRestaurantOwner(ctx context.Context, restaurantID uuid.UUID) (*models.User, error) {
	var owner models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN restaurants ON restaurants.owner_id = users.id").
		Where("restaurants.id = ?", restaurantID).
		First(&owner).Error
	if err != nil {
		return nil, err
	}
	return &owner, nil
}
