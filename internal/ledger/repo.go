package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andresouza-dev/pratoexpress-backend/pkg/db/models"
)

// Repository applies balance adjustments as atomic relative updates. Debits
// are conditional on sufficiency and report the rows they touched so callers
// can tell a no-op from a success without a read-modify-write pair.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	IncrementRestaurantBalance(ctx context.Context, restaurantID uuid.UUID, amountCents int64) (int64, error)
	IncrementUserBalance(ctx context.Context, userID uuid.UUID, amountCents int64) (int64, error)
	DecrementRestaurantBalance(ctx context.Context, restaurantID uuid.UUID, amountCents int64) (int64, error)
	DecrementUserBalance(ctx context.Context, userID uuid.UUID, amountCents int64) (int64, error)
	CreateEvent(ctx context.Context, event *models.LedgerEvent) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a ledger repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) IncrementRestaurantBalance(ctx context.Context, restaurantID uuid.UUID, amountCents int64) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE restaurants
		SET balance_cents = balance_cents + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, amountCents, restaurantID)
	return res.RowsAffected, res.Error
}

func (r *repository) IncrementUserBalance(ctx context.Context, userID uuid.UUID, amountCents int64) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE users
		SET balance_cents = balance_cents + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, amountCents, userID)
	return res.RowsAffected, res.Error
}

func (r *repository) DecrementRestaurantBalance(ctx context.Context, restaurantID uuid.UUID, amountCents int64) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE restaurants
		SET balance_cents = balance_cents - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND balance_cents >= ?
	`, amountCents, restaurantID, amountCents)
	return res.RowsAffected, res.Error
}

func (r *repository) DecrementUserBalance(ctx context.Context, userID uuid.UUID, amountCents int64) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE users
		SET balance_cents = balance_cents - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND balance_cents >= ?
	`, amountCents, userID, amountCents)
	return res.RowsAffected, res.Error
}

func (r *repository) CreateEvent(ctx context.Context, event *models.LedgerEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}
