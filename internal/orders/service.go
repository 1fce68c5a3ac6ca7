package orders

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andresouza-dev/pratoexpress-backend/pkg/db"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/db/models"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/enums"
	pkgerrors "github.com/andresouza-dev/pratoexpress-backend/pkg/errors"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/payment"
)

// Service defines the order operations exposed to the API layer.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error)
	Get(ctx context.Context, orderID, actorID uuid.UUID, role enums.UserRole) (*models.Order, error)
	ListActiveForRestaurant(ctx context.Context, ownerID uuid.UUID) ([]models.Order, error)
	UpdateStatusByRestaurant(ctx context.Context, ownerID, orderID uuid.UUID, next enums.OrderStatus) error
}

type service struct {
	repo        Repository
	restaurants RestaurantDirectory
	charger     PixCharger
}

// OrderItemInput is one requested line. Prices are never accepted from the
// client; the catalog price is captured at creation time.
type OrderItemInput struct {
	DishID uuid.UUID
	Qty    int
}

// CreateOrderInput carries everything needed to place an order.
type CreateOrderInput struct {
	CustomerID      uuid.UUID
	RestaurantID    uuid.UUID
	DeliveryAddress string
	PayerEmail      string
	Items           []OrderItemInput
}

// CreateOrderResult returns the persisted order together with the PIX charge
// the customer pays.
type CreateOrderResult struct {
	Order  *models.Order
	Charge *payment.PixCharge
}

// NewService builds the order service with the required dependencies.
func NewService(repo Repository, restaurants RestaurantDirectory, charger PixCharger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if restaurants == nil {
		return nil, fmt.Errorf("restaurant directory required")
	}
	if charger == nil {
		return nil, fmt.Errorf("pix charger required")
	}
	return &service{repo: repo, restaurants: restaurants, charger: charger}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.RestaurantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant id required")
	}
	if input.DeliveryAddress == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for _, item := range input.Items {
		if item.DishID == uuid.Nil || item.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "each item needs a dish id and a positive quantity")
		}
	}

	restaurant, err := s.restaurants.FindByID(ctx, input.RestaurantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load restaurant")
	}
	if !restaurant.Approved {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
	}

	dishIDs := make([]uuid.UUID, 0, len(input.Items))
	for _, item := range input.Items {
		dishIDs = append(dishIDs, item.DishID)
	}
	dishes, err := s.repo.FindDishes(ctx, dishIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load dishes")
	}
	byID := make(map[uuid.UUID]models.Dish, len(dishes))
	for _, dish := range dishes {
		byID[dish.ID] = dish
	}

	var totalCents int64
	items := make([]models.OrderItem, 0, len(input.Items))
	chargeItems := make([]payment.ChargeItem, 0, len(input.Items))
	for _, item := range input.Items {
		dish, ok := byID[item.DishID]
		if !ok || dish.RestaurantID != restaurant.ID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "dish does not belong to this restaurant")
		}
		if !dish.Available {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("dish %q is not available", dish.Name))
		}
		totalCents += dish.PriceCents * int64(item.Qty)
		items = append(items, models.OrderItem{
			DishID:         dish.ID,
			Qty:            item.Qty,
			UnitPriceCents: dish.PriceCents,
		})
		chargeItems = append(chargeItems, payment.ChargeItem{
			Description: dish.Name,
			Quantity:    item.Qty,
			AmountCents: dish.PriceCents,
		})
	}

	code, err := generateConfirmationCode()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to generate confirmation code")
	}

	order := &models.Order{
		CustomerID:       input.CustomerID,
		RestaurantID:     restaurant.ID,
		Status:           enums.OrderStatusCreated,
		TotalCents:       totalCents,
		DeliveryAddress:  input.DeliveryAddress,
		ConfirmationCode: code,
		Items:            items,
	}
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to persist order")
	}

	// The order survives a gateway outage in "created"; the customer can
	// retry payment without losing the cart.
	charge, err := s.charger.CreatePixCharge(ctx, payment.CreateChargeInput{
		OrderID:    order.ID,
		Items:      chargeItems,
		PayerEmail: input.PayerEmail,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment gateway rejected the charge")
	}
	if err := s.repo.SetPaymentRef(ctx, order.ID, charge.PaymentID); err != nil {
		if db.IsUniqueViolation(err, "idx_orders_payment_ref") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "payment reference already attached to another order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to store payment reference")
	}
	order.PaymentRef = &charge.PaymentID

	return &CreateOrderResult{Order: order, Charge: charge}, nil
}

func (s *service) Get(ctx context.Context, orderID, actorID uuid.UUID, role enums.UserRole) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load order")
	}

	switch {
	case role == enums.UserRoleAdmin:
	case order.CustomerID == actorID:
	case order.CourierID != nil && *order.CourierID == actorID:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListActiveForRestaurant(ctx context.Context, ownerID uuid.UUID) ([]models.Order, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	restaurant, err := s.restaurants.FindByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load restaurant")
	}
	orders, err := s.repo.ListActiveByRestaurant(ctx, restaurant.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list orders")
	}
	return orders, nil
}

// restaurantTargets are the only statuses a restaurant may set directly.
// Payment and delivery transitions belong to settlement and couriers.
var restaurantTargets = map[enums.OrderStatus]struct{}{
	enums.OrderStatusPreparing:        {},
	enums.OrderStatusReadyForDelivery: {},
	enums.OrderStatusCancelled:        {},
}

func (s *service) UpdateStatusByRestaurant(ctx context.Context, ownerID, orderID uuid.UUID, next enums.OrderStatus) error {
	if ownerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !next.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	if _, ok := restaurantTargets[next]; !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "restaurants cannot set this status")
	}

	restaurant, err := s.restaurants.FindByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load restaurant")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load order")
	}
	if order.RestaurantID != restaurant.ID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	if !CanTransition(order.Status, next) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, next))
	}

	rows, err := s.repo.UpdateStatus(ctx, orderID, order.Status, next)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update order status")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
	}
	return nil
}

func generateConfirmationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}
