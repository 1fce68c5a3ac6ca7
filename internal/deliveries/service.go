package deliveries

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andresouza-dev/pratoexpress-backend/internal/ledger"
	"github.com/andresouza-dev/pratoexpress-backend/internal/orders"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/db/models"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/enums"
	pkgerrors "github.com/andresouza-dev/pratoexpress-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the courier-facing delivery operations.
type Service interface {
	ListAvailable(ctx context.Context, limit int) ([]models.Order, error)
	Accept(ctx context.Context, orderID, courierID uuid.UUID) error
	ConfirmDelivery(ctx context.Context, orderID, courierID uuid.UUID, code string) error
	UpdateStatus(ctx context.Context, orderID, courierID uuid.UUID, next enums.OrderStatus) error
}

type service struct {
	repo   Repository
	tx     txRunner
	ledger ledger.Service
}

// NewService builds the deliveries service.
func NewService(repo Repository, tx txRunner, ledgerSvc ledger.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("deliveries repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	return &service{repo: repo, tx: tx, ledger: ledgerSvc}, nil
}

func (s *service) ListAvailable(ctx context.Context, limit int) ([]models.Order, error) {
	available, err := s.repo.ListAvailable(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list available orders")
	}
	return available, nil
}

func (s *service) Accept(ctx context.Context, orderID, courierID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if courierID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	rows, err := s.repo.Claim(ctx, orderID, courierID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to claim order")
	}
	if rows > 0 {
		return nil
	}

	// The claim missed; tell the courier whether the order is gone or taken.
	if _, err := s.repo.FindOrderByID(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load order")
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "order already claimed")
}

func (s *service) ConfirmDelivery(ctx context.Context, orderID, courierID uuid.UUID, code string) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if courierID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if code == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "confirmation code required")
	}

	order, err := s.loadAssignedOrder(ctx, orderID, courierID)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(order.ConfirmationCode), []byte(code)) != 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "confirmation code does not match")
	}
	return s.deliverAndCredit(ctx, order, courierID)
}

func (s *service) UpdateStatus(ctx context.Context, orderID, courierID uuid.UUID, next enums.OrderStatus) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if courierID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !next.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	order, err := s.loadAssignedOrder(ctx, orderID, courierID)
	if err != nil {
		return err
	}

	// Delivered always goes through the credit path so the fee is paid
	// exactly once no matter which endpoint finished the order.
	if next == enums.OrderStatusDelivered {
		return s.deliverAndCredit(ctx, order, courierID)
	}

	if !orders.CanTransition(order.Status, next) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, next))
	}
	rows, err := s.repo.UpdateStatusByCourier(ctx, orderID, courierID, order.Status, next)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update order status")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
	}
	return nil
}

func (s *service) loadAssignedOrder(ctx context.Context, orderID, courierID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load order")
	}
	if order.CourierID == nil || *order.CourierID != courierID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) deliverAndCredit(ctx context.Context, order *models.Order, courierID uuid.UUID) error {
	if order.Status != enums.OrderStatusInTransit {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot deliver an order in status %s", order.Status))
	}
	if order.DeliveryFeeCents == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "order has no delivery fee recorded")
	}
	fee := *order.DeliveryFeeCents

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.repo.WithTx(tx).MarkDelivered(ctx, order.ID, courierID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to mark order delivered")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order already delivered")
		}
		return s.ledger.CreditCourier(ctx, tx, courierID, fee, order.ID)
	})
}
