package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andresouza-dev/pratoexpress-backend/pkg/db/models"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/enums"
	pkgerrors "github.com/andresouza-dev/pratoexpress-backend/pkg/errors"
)

// Service is the only path allowed to mutate a balance. Settlement holds it
// for restaurant credits, delivery confirmation for courier credits, and the
// cashout flow for debits; nothing else gets a reference.
type Service interface {
	CreditRestaurant(ctx context.Context, tx *gorm.DB, restaurantID uuid.UUID, amountCents int64, orderID uuid.UUID) error
	CreditCourier(ctx context.Context, tx *gorm.DB, courierID uuid.UUID, amountCents int64, orderID uuid.UUID) error
	DebitRestaurant(ctx context.Context, tx *gorm.DB, restaurantID uuid.UUID, amountCents int64, cashoutID uuid.UUID) error
	DebitUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amountCents int64, cashoutID uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreditRestaurant(ctx context.Context, tx *gorm.DB, restaurantID uuid.UUID, amountCents int64, orderID uuid.UUID) error {
	if err := validateAdjustment(tx, restaurantID, amountCents); err != nil {
		return err
	}
	repo := s.repo.WithTx(tx)
	rows, err := repo.IncrementRestaurantBalance(ctx, restaurantID, amountCents)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit restaurant balance")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
	}
	return s.appendEvent(ctx, repo, &models.LedgerEvent{
		AccountType: enums.LedgerAccountRestaurant,
		AccountID:   restaurantID,
		OrderID:     &orderID,
		Type:        enums.LedgerEventTypeSettlementCredit,
		AmountCents: amountCents,
	})
}

func (s *service) CreditCourier(ctx context.Context, tx *gorm.DB, courierID uuid.UUID, amountCents int64, orderID uuid.UUID) error {
	if err := validateAdjustment(tx, courierID, amountCents); err != nil {
		return err
	}
	repo := s.repo.WithTx(tx)
	rows, err := repo.IncrementUserBalance(ctx, courierID, amountCents)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit courier balance")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "courier not found")
	}
	return s.appendEvent(ctx, repo, &models.LedgerEvent{
		AccountType: enums.LedgerAccountCourier,
		AccountID:   courierID,
		OrderID:     &orderID,
		Type:        enums.LedgerEventTypeDeliveryFeeCredit,
		AmountCents: amountCents,
	})
}

func (s *service) DebitRestaurant(ctx context.Context, tx *gorm.DB, restaurantID uuid.UUID, amountCents int64, cashoutID uuid.UUID) error {
	if err := validateAdjustment(tx, restaurantID, amountCents); err != nil {
		return err
	}
	repo := s.repo.WithTx(tx)
	rows, err := repo.DecrementRestaurantBalance(ctx, restaurantID, amountCents)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit restaurant balance")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientBalance, "balance below requested amount")
	}
	return s.appendEvent(ctx, repo, &models.LedgerEvent{
		AccountType: enums.LedgerAccountRestaurant,
		AccountID:   restaurantID,
		CashoutID:   &cashoutID,
		Type:        enums.LedgerEventTypeCashoutDebit,
		AmountCents: -amountCents,
	})
}

func (s *service) DebitUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amountCents int64, cashoutID uuid.UUID) error {
	if err := validateAdjustment(tx, userID, amountCents); err != nil {
		return err
	}
	repo := s.repo.WithTx(tx)
	rows, err := repo.DecrementUserBalance(ctx, userID, amountCents)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit user balance")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientBalance, "balance below requested amount")
	}
	return s.appendEvent(ctx, repo, &models.LedgerEvent{
		AccountType: enums.LedgerAccountCourier,
		AccountID:   userID,
		CashoutID:   &cashoutID,
		Type:        enums.LedgerEventTypeCashoutDebit,
		AmountCents: -amountCents,
	})
}

func (s *service) appendEvent(ctx context.Context, repo Repository, event *models.LedgerEvent) error {
	if err := repo.CreateEvent(ctx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append ledger event")
	}
	return nil
}

func validateAdjustment(tx *gorm.DB, accountID uuid.UUID, amountCents int64) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required for balance mutation")
	}
	if accountID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	if amountCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	return nil
}
