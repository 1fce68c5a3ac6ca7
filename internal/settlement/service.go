package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andresouza-dev/pratoexpress-backend/internal/ledger"
	pkgerrors "github.com/andresouza-dev/pratoexpress-backend/pkg/errors"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/logger"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/metrics"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/payment"
)

// TopicPayment is the only notification topic that triggers settlement.
const TopicPayment = "payment"

const pushTimeout = 5 * time.Second

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PaymentFetcher re-reads the payment from the gateway. Notification bodies
// are never trusted.
type PaymentFetcher interface {
	GetPayment(ctx context.Context, paymentID string) (*payment.Payment, error)
}

// Notifier delivers a push message without blocking the caller.
type Notifier interface {
	DispatchAsync(token, title, body string)
}

// PaymentNotification is the parsed webhook payload.
type PaymentNotification struct {
	Topic     string
	PaymentID string
}

// Outcome tells the caller what a notification did. Only terminal
// outcomes (settled, replayed) may stay deduplicated; anything else must be
// retryable because the gateway reuses the same payment id across the
// pending-to-approved lifecycle.
type Outcome string

const (
	OutcomeSettled  Outcome = "settled"
	OutcomeReplayed Outcome = "replayed"
	OutcomeIgnored  Outcome = "ignored"
)

// Terminal reports whether the notification finished the payment's
// settlement story and redeliveries can be dropped.
func (o Outcome) Terminal() bool {
	return o == OutcomeSettled || o == OutcomeReplayed
}

// Service settles orders when the gateway confirms payment.
type Service interface {
	HandleNotification(ctx context.Context, notification PaymentNotification) (Outcome, error)
}

type service struct {
	repo       Repository
	tx         txRunner
	gateway    PaymentFetcher
	ledger     ledger.Service
	estimator  DistanceEstimator
	calculator *Calculator
	notifier   Notifier
	flows      *metrics.MoneyFlowMetrics
	logger     *logger.Logger
}

// NewService builds the settlement service. Notifier and metrics may be nil.
func NewService(
	repo Repository,
	tx txRunner,
	gateway PaymentFetcher,
	ledgerSvc ledger.Service,
	estimator DistanceEstimator,
	calculator *Calculator,
	notifier Notifier,
	flows *metrics.MoneyFlowMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settlement repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment fetcher required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if estimator == nil {
		return nil, fmt.Errorf("distance estimator required")
	}
	if calculator == nil {
		return nil, fmt.Errorf("settlement calculator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:       repo,
		tx:         tx,
		gateway:    gateway,
		ledger:     ledgerSvc,
		estimator:  estimator,
		calculator: calculator,
		notifier:   notifier,
		flows:      flows,
		logger:     logg,
	}, nil
}

func (s *service) HandleNotification(ctx context.Context, notification PaymentNotification) (Outcome, error) {
	if notification.Topic != TopicPayment {
		s.flows.IncWebhook("ignored_topic")
		return OutcomeIgnored, nil
	}
	if notification.PaymentID == "" {
		s.flows.IncWebhook("missing_payment_id")
		return OutcomeIgnored, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}

	pay, err := s.gateway.GetPayment(ctx, notification.PaymentID)
	if err != nil {
		s.flows.IncWebhook("gateway_error")
		return OutcomeIgnored, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to fetch payment")
	}
	if !pay.Status.IsApproved() {
		// The gateway notifies on every status change; the approval for
		// this same payment id is still to come.
		s.flows.IncWebhook("not_approved")
		return OutcomeIgnored, nil
	}

	orderID, err := uuid.Parse(pay.ExternalReference)
	if err != nil {
		s.flows.IncWebhook("bad_reference")
		return OutcomeIgnored, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("payment %s carries no usable order reference", pay.ID))
	}

	order, err := s.repo.FindOrderByID(ctx, orderID)
	if err != nil {
		s.flows.IncWebhook("order_missing")
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OutcomeIgnored, pkgerrors.New(pkgerrors.CodeNotFound, "order not found for payment")
		}
		return OutcomeIgnored, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load order")
	}

	distanceKm := s.estimator.EstimateKm(order.DeliveryAddress)
	breakdown, err := s.calculator.Compute(order.TotalCents, distanceKm)
	if err != nil {
		s.flows.IncSettlement("underflow")
		return OutcomeIgnored, err
	}

	settled := false
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.repo.WithTx(tx).MarkPaid(ctx, order.ID, distanceKm, breakdown.DeliveryFeeCents)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to mark order paid")
		}
		if rows == 0 {
			// Replay or concurrent settlement; nothing to credit.
			return nil
		}
		settled = true
		return s.ledger.CreditRestaurant(ctx, tx, order.RestaurantID, breakdown.RestaurantNetCents, order.ID)
	})
	if err != nil {
		s.flows.IncSettlement("error")
		return OutcomeIgnored, err
	}
	if !settled {
		s.flows.IncSettlement("replayed")
		return OutcomeReplayed, nil
	}
	s.flows.IncSettlement("settled")

	s.notifyRestaurant(ctx, order.RestaurantID, order.ID)
	return OutcomeSettled, nil
}

// notifyRestaurant is best effort; a push failure never unsettles an order.
func (s *service) notifyRestaurant(ctx context.Context, restaurantID, orderID uuid.UUID) {
	if s.notifier == nil {
		return
	}
	lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
	defer cancel()

	owner, err := s.repo.FindRestaurantOwner(lookupCtx, restaurantID)
	if err != nil {
		s.logger.Error(lookupCtx, "failed to resolve restaurant owner for push", err)
		return
	}
	if owner.PushToken == nil || *owner.PushToken == "" {
		return
	}
	s.notifier.DispatchAsync(*owner.PushToken, "Novo pedido pago",
		fmt.Sprintf("Pedido %s foi pago e aguarda preparo.", orderID))
}
