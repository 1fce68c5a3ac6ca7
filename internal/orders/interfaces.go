package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andresouza-dev/pratoexpress-backend/pkg/db/models"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/enums"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/payment"
)

// Repository exposes the persistence operations the order service needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindDishes(ctx context.Context, ids []uuid.UUID) ([]models.Dish, error)
	ListActiveByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (int64, error)
	SetPaymentRef(ctx context.Context, orderID uuid.UUID, ref string) error
}

// RestaurantDirectory resolves restaurants without coupling this package to
// the restaurants repository.
type RestaurantDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Restaurant, error)
}

// PixCharger creates the gateway charge for a freshly placed order.
type PixCharger interface {
	CreatePixCharge(ctx context.Context, input payment.CreateChargeInput) (*payment.PixCharge, error)
}
