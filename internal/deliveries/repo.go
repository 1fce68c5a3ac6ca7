package deliveries

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andresouza-dev/pratoexpress-backend/pkg/db/models"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/enums"
)

// Repository covers courier-facing order queries and the two conditional
// writes the claim race and delivery credit depend on.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListAvailable(ctx context.Context, limit int) ([]models.Order, error)
	FindOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Claim(ctx context.Context, orderID, courierID uuid.UUID) (int64, error)
	MarkDelivered(ctx context.Context, orderID, courierID uuid.UUID) (int64, error)
	UpdateStatusByCourier(ctx context.Context, orderID, courierID uuid.UUID, from, to enums.OrderStatus) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a deliveries repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListAvailable(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND courier_id IS NULL", enums.OrderStatusReadyForDelivery).
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
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

// Claim assigns the courier and moves the order to in_transit in one
// conditional write. Two couriers racing on the same order: exactly one
// update matches the unassigned precondition.
func (r *repository) Claim(ctx context.Context, orderID, courierID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND courier_id IS NULL AND status = ?", orderID, enums.OrderStatusReadyForDelivery).
		Updates(map[string]any{
			"courier_id": courierID,
			"status":     enums.OrderStatusInTransit,
		})
	return res.RowsAffected, res.Error
}

// MarkDelivered finishes the order for its assigned courier. The status
// guard makes the courier credit that follows it exactly-once even when the
// confirmation-code path and the generic status path both fire.
func (r *repository) MarkDelivered(ctx context.Context, orderID, courierID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND courier_id = ? AND status = ?", orderID, courierID, enums.OrderStatusInTransit).
		Updates(map[string]any{
			"status":       enums.OrderStatusDelivered,
			"delivered_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *repository) UpdateStatusByCourier(ctx context.Context, orderID, courierID uuid.UUID, from, to enums.OrderStatus) (int64, error) {
	updates := map[string]any{"status": to}
	if to == enums.OrderStatusCancelled {
		updates["cancelled_at"] = time.Now().UTC()
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND courier_id = ? AND status = ?", orderID, courierID, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}
