package cashouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andresouza-dev/pratoexpress-backend/internal/ledger"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/config"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/db/models"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/enums"
	pkgerrors "github.com/andresouza-dev/pratoexpress-backend/pkg/errors"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/logger"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PayoutGateway sends money to a pix key. Failures leave the balance alone.
type PayoutGateway interface {
	CreatePayout(ctx context.Context, pixKey string, amountCents int64) error
}

// Service exposes balance reads and withdrawal processing.
type Service interface {
	GetBalance(ctx context.Context, userID uuid.UUID, role enums.UserRole) (int64, error)
	RequestCashout(ctx context.Context, userID uuid.UUID, role enums.UserRole, amountCents int64) (*models.Cashout, error)
}

type service struct {
	repo            Repository
	tx              txRunner
	ledger          ledger.Service
	payouts         PayoutGateway
	minCents        int64
	maxCents        int64
	dailyLimitCents int64
	location        *time.Location
	flows           *metrics.MoneyFlowMetrics
	logger          *logger.Logger
	now             func() time.Time
}

// NewService builds the cashout service. Metrics may be nil.
func NewService(
	repo Repository,
	tx txRunner,
	ledgerSvc ledger.Service,
	payouts PayoutGateway,
	cfg config.CashoutConfig,
	flows *metrics.MoneyFlowMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cashouts repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if payouts == nil {
		return nil, fmt.Errorf("payout gateway required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.MinCents <= 0 || cfg.MaxCents < cfg.MinCents {
		return nil, fmt.Errorf("cashout bounds misconfigured: min %d max %d", cfg.MinCents, cfg.MaxCents)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return &service{
		repo:            repo,
		tx:              tx,
		ledger:          ledgerSvc,
		payouts:         payouts,
		minCents:        cfg.MinCents,
		maxCents:        cfg.MaxCents,
		dailyLimitCents: cfg.DailyLimitCents,
		location:        loc,
		flows:           flows,
		logger:          logg,
		now:             time.Now,
	}, nil
}

func (s *service) GetBalance(ctx context.Context, userID uuid.UUID, role enums.UserRole) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if role == enums.UserRoleRestaurantOwner {
		restaurant, err := s.repo.FindRestaurantByOwner(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
			}
			return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load restaurant")
		}
		return restaurant.BalanceCents, nil
	}
	user, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load user")
	}
	return user.BalanceCents, nil
}

func (s *service) RequestCashout(ctx context.Context, userID uuid.UUID, role enums.UserRole, amountCents int64) (*models.Cashout, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	user, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load user")
	}

	var restaurant *models.Restaurant
	if role == enums.UserRoleRestaurantOwner {
		restaurant, err = s.repo.FindRestaurantByOwner(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load restaurant")
		}
	}

	if err := s.validateRequest(ctx, user, restaurant, amountCents); err != nil {
		s.flows.IncCashout("rejected")
		return nil, err
	}

	cashout := &models.Cashout{
		UserID:      userID,
		AmountCents: amountCents,
		Status:      enums.CashoutStatusPending,
		PixKey:      *user.PixKey,
	}
	if err := s.repo.CreateCashout(ctx, cashout); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create cashout")
	}

	if err := s.payouts.CreatePayout(ctx, cashout.PixKey, amountCents); err != nil {
		s.failCashout(ctx, cashout, err)
		s.flows.IncCashout("payout_failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payout failed, try again later")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if restaurant != nil {
			if err := s.ledger.DebitRestaurant(ctx, tx, restaurant.ID, amountCents, cashout.ID); err != nil {
				return err
			}
		} else {
			if err := s.ledger.DebitUser(ctx, tx, userID, amountCents, cashout.ID); err != nil {
				return err
			}
		}
		rows, err := s.repo.WithTx(tx).MarkCompleted(ctx, cashout.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to complete cashout")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cashout already settled")
		}
		return nil
	})
	if err != nil {
		s.failCashout(ctx, cashout, err)
		s.flows.IncCashout("debit_failed")
		return nil, err
	}

	s.flows.IncCashout("completed")
	cashout.Status = enums.CashoutStatusCompleted
	return cashout, nil
}

// validateRequest runs the terminal checks in their fixed order so a request
// that trips several rules always reports the same one.
func (s *service) validateRequest(ctx context.Context, user *models.User, restaurant *models.Restaurant, amountCents int64) error {
	if user.PixKey == nil || *user.PixKey == "" {
		return pkgerrors.New(pkgerrors.CodeMissingPayoutKey, "register a pix key before withdrawing")
	}
	if amountCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if amountCents < s.minCents || amountCents > s.maxCents {
		return pkgerrors.New(pkgerrors.CodeAmountOutOfRange,
			fmt.Sprintf("amount must be between %d and %d cents", s.minCents, s.maxCents))
	}

	balance := user.BalanceCents
	if restaurant != nil {
		balance = restaurant.BalanceCents
	}
	if amountCents > balance {
		return pkgerrors.New(pkgerrors.CodeInsufficientBalance, "amount exceeds available balance")
	}

	withdrawnToday, err := s.repo.SumCompletedSince(ctx, user.ID, s.windowStart())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to compute daily withdrawals")
	}
	if withdrawnToday+amountCents > s.dailyLimitCents {
		return pkgerrors.New(pkgerrors.CodeDailyLimitExceeded, "daily withdrawal limit reached")
	}
	return nil
}

// windowStart is local midnight in the configured timezone.
func (s *service) windowStart() time.Time {
	now := s.now().In(s.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
}

func (s *service) failCashout(ctx context.Context, cashout *models.Cashout, cause error) {
	if _, err := s.repo.MarkFailed(ctx, cashout.ID, cause.Error()); err != nil {
		s.logger.Error(ctx, "failed to record cashout failure", err)
	}
	cashout.Status = enums.CashoutStatusFailed
}
