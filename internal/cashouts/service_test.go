package cashouts

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andresouza-dev/pratoexpress-backend/pkg/config"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/db/models"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/enums"
	pkgerrors "github.com/andresouza-dev/pratoexpress-backend/pkg/errors"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/logger"
)

type fakeRepository struct {
	user             *models.User
	restaurant       *models.Restaurant
	completedToday   int64
	created          []*models.Cashout
	completedIDs     []uuid.UUID
	failedIDs        []uuid.UUID
	failedDetails    []string
	markCompletedFn  func(ctx context.Context, cashoutID uuid.UUID) (int64, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if f.user == nil || f.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return f.user, nil
}

func (f *fakeRepository) FindRestaurantByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Restaurant, error) {
	if f.restaurant == nil || f.restaurant.OwnerID != ownerID {
		return nil, gorm.ErrRecordNotFound
	}
	return f.restaurant, nil
}

func (f *fakeRepository) CreateCashout(ctx context.Context, cashout *models.Cashout) error {
	cashout.ID = uuid.New()
	f.created = append(f.created, cashout)
	return nil
}

func (f *fakeRepository) SumCompletedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	return f.completedToday, nil
}

func (f *fakeRepository) MarkCompleted(ctx context.Context, cashoutID uuid.UUID) (int64, error) {
	if f.markCompletedFn != nil {
		return f.markCompletedFn(ctx, cashoutID)
	}
	f.completedIDs = append(f.completedIDs, cashoutID)
	return 1, nil
}

func (f *fakeRepository) MarkFailed(ctx context.Context, cashoutID uuid.UUID, detail string) (int64, error) {
	f.failedIDs = append(f.failedIDs, cashoutID)
	f.failedDetails = append(f.failedDetails, detail)
	return 1, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeLedger struct {
	userDebits       []int64
	restaurantDebits []int64
	debitErr         error
}

func (f *fakeLedger) CreditRestaurant(ctx context.Context, tx *gorm.DB, restaurantID uuid.UUID, amountCents int64, orderID uuid.UUID) error {
	return nil
}

func (f *fakeLedger) CreditCourier(ctx context.Context, tx *gorm.DB, courierID uuid.UUID, amountCents int64, orderID uuid.UUID) error {
	return nil
}

func (f *fakeLedger) DebitRestaurant(ctx context.Context, tx *gorm.DB, restaurantID uuid.UUID, amountCents int64, cashoutID uuid.UUID) error {
	if f.debitErr != nil {
		return f.debitErr
	}
	f.restaurantDebits = append(f.restaurantDebits, amountCents)
	return nil
}

func (f *fakeLedger) DebitUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amountCents int64, cashoutID uuid.UUID) error {
	if f.debitErr != nil {
		return f.debitErr
	}
	f.userDebits = append(f.userDebits, amountCents)
	return nil
}

type fakePayouts struct {
	err   error
	calls int
	keys  []string
}

func (f *fakePayouts) CreatePayout(ctx context.Context, pixKey string, amountCents int64) error {
	f.calls++
	f.keys = append(f.keys, pixKey)
	return f.err
}

func testConfig() config.CashoutConfig {
	return config.CashoutConfig{
		MinCents:        1000,
		MaxCents:        500000,
		DailyLimitCents: 1000000,
		Timezone:        "America/Sao_Paulo",
	}
}

func newTestService(t *testing.T, repo *fakeRepository, led *fakeLedger, payouts *fakePayouts) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(repo, fakeTxRunner{}, led, payouts, testConfig(), nil, logg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func courierUser(balanceCents int64) *models.User {
	key := "courier@example.com"
	return &models.User{
		ID:           uuid.New(),
		Role:         enums.UserRoleCourier,
		Approved:     true,
		BalanceCents: balanceCents,
		PixKey:       &key,
	}
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected code %s, got %v", code, err)
	}
}

func TestRequestCashoutHappyPath(t *testing.T) {
	user := courierUser(50000)
	repo := &fakeRepository{user: user}
	led := &fakeLedger{}
	payouts := &fakePayouts{}
	svc := newTestService(t, repo, led, payouts)

	cashout, err := svc.RequestCashout(context.Background(), user.ID, enums.UserRoleCourier, 20000)
	if err != nil {
		t.Fatalf("RequestCashout: %v", err)
	}
	if cashout.Status != enums.CashoutStatusCompleted {
		t.Fatalf("expected completed cashout, got %s", cashout.Status)
	}
	if payouts.calls != 1 || payouts.keys[0] != *user.PixKey {
		t.Fatalf("expected one payout to the user's pix key, got %+v", payouts)
	}
	if len(led.userDebits) != 1 || led.userDebits[0] != 20000 {
		t.Fatalf("expected one debit of 20000, got %v", led.userDebits)
	}
	if len(repo.completedIDs) != 1 {
		t.Fatal("expected the pending row to be completed")
	}
}

func TestRequestCashoutInsufficientBalance(t *testing.T) {
	// Balance R$100.00, request R$150.00.
	user := courierUser(10000)
	repo := &fakeRepository{user: user}
	led := &fakeLedger{}
	payouts := &fakePayouts{}
	svc := newTestService(t, repo, led, payouts)

	_, err := svc.RequestCashout(context.Background(), user.ID, enums.UserRoleCourier, 15000)
	expectCode(t, err, pkgerrors.CodeInsufficientBalance)
	if len(repo.created) != 0 || payouts.calls != 0 || len(led.userDebits) != 0 {
		t.Fatal("rejected cashout must leave no side effects")
	}
}

func TestRequestCashoutValidationOrder(t *testing.T) {
	user := courierUser(10000)
	user.PixKey = nil
	repo := &fakeRepository{user: user}
	svc := newTestService(t, repo, &fakeLedger{}, &fakePayouts{})

	// Missing pix key wins over every other problem with the request.
	_, err := svc.RequestCashout(context.Background(), user.ID, enums.UserRoleCourier, -5)
	expectCode(t, err, pkgerrors.CodeMissingPayoutKey)

	key := "key"
	user.PixKey = &key
	_, err = svc.RequestCashout(context.Background(), user.ID, enums.UserRoleCourier, 0)
	expectCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.RequestCashout(context.Background(), user.ID, enums.UserRoleCourier, 500)
	expectCode(t, err, pkgerrors.CodeAmountOutOfRange)

	_, err = svc.RequestCashout(context.Background(), user.ID, enums.UserRoleCourier, 600000)
	expectCode(t, err, pkgerrors.CodeAmountOutOfRange)
}

func TestRequestCashoutDailyLimit(t *testing.T) {
	user := courierUser(2000000)
	repo := &fakeRepository{user: user, completedToday: 995000}
	svc := newTestService(t, repo, &fakeLedger{}, &fakePayouts{})

	_, err := svc.RequestCashout(context.Background(), user.ID, enums.UserRoleCourier, 10000)
	expectCode(t, err, pkgerrors.CodeDailyLimitExceeded)

	// Exactly hitting the limit is still allowed.
	if _, err := svc.RequestCashout(context.Background(), user.ID, enums.UserRoleCourier, 5000); err != nil {
		t.Fatalf("expected cashout at the limit to pass, got %v", err)
	}
}

func TestRequestCashoutPayoutFailure(t *testing.T) {
	user := courierUser(50000)
	repo := &fakeRepository{user: user}
	led := &fakeLedger{}
	payouts := &fakePayouts{err: pkgerrors.New(pkgerrors.CodeDependency, "pix rail down")}
	svc := newTestService(t, repo, led, payouts)

	_, err := svc.RequestCashout(context.Background(), user.ID, enums.UserRoleCourier, 20000)
	expectCode(t, err, pkgerrors.CodeDependency)
	if len(led.userDebits) != 0 {
		t.Fatal("failed payout must not touch the balance")
	}
	if len(repo.failedIDs) != 1 {
		t.Fatal("expected the pending row to be marked failed")
	}
	if len(repo.failedDetails) != 1 || repo.failedDetails[0] == "" {
		t.Fatal("expected the failure detail to be recorded")
	}
}

func TestRequestCashoutDebitFailureMarksFailed(t *testing.T) {
	user := courierUser(50000)
	repo := &fakeRepository{user: user}
	led := &fakeLedger{debitErr: pkgerrors.New(pkgerrors.CodeInsufficientBalance, "drained concurrently")}
	svc := newTestService(t, repo, led, &fakePayouts{})

	_, err := svc.RequestCashout(context.Background(), user.ID, enums.UserRoleCourier, 20000)
	expectCode(t, err, pkgerrors.CodeInsufficientBalance)
	if len(repo.failedIDs) != 1 {
		t.Fatal("expected the pending row to be marked failed")
	}
	if len(repo.completedIDs) != 0 {
		t.Fatal("a failed debit must not complete the cashout")
	}
}

func TestRequestCashoutRestaurantDebitsRestaurant(t *testing.T) {
	owner := courierUser(0)
	owner.Role = enums.UserRoleRestaurantOwner
	restaurant := &models.Restaurant{ID: uuid.New(), OwnerID: owner.ID, BalanceCents: 80000}
	repo := &fakeRepository{user: owner, restaurant: restaurant}
	led := &fakeLedger{}
	svc := newTestService(t, repo, led, &fakePayouts{})

	if _, err := svc.RequestCashout(context.Background(), owner.ID, enums.UserRoleRestaurantOwner, 30000); err != nil {
		t.Fatalf("RequestCashout: %v", err)
	}
	if len(led.restaurantDebits) != 1 || led.restaurantDebits[0] != 30000 {
		t.Fatalf("expected restaurant debit of 30000, got %v", led.restaurantDebits)
	}
	if len(led.userDebits) != 0 {
		t.Fatal("restaurant cashouts must not debit the user balance")
	}
}

func TestGetBalanceByRole(t *testing.T) {
	owner := courierUser(1234)
	owner.Role = enums.UserRoleRestaurantOwner
	restaurant := &models.Restaurant{ID: uuid.New(), OwnerID: owner.ID, BalanceCents: 98765}
	repo := &fakeRepository{user: owner, restaurant: restaurant}
	svc := newTestService(t, repo, &fakeLedger{}, &fakePayouts{})

	balance, err := svc.GetBalance(context.Background(), owner.ID, enums.UserRoleRestaurantOwner)
	if err != nil {
		t.Fatalf("GetBalance restaurant: %v", err)
	}
	if balance != 98765 {
		t.Fatalf("expected restaurant balance, got %d", balance)
	}

	balance, err = svc.GetBalance(context.Background(), owner.ID, enums.UserRoleCourier)
	if err != nil {
		t.Fatalf("GetBalance user: %v", err)
	}
	if balance != 1234 {
		t.Fatalf("expected user balance, got %d", balance)
	}
}

func TestWindowStartIsLocalMidnight(t *testing.T) {
	user := courierUser(50000)
	repo := &fakeRepository{user: user}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svcIface, err := NewService(repo, fakeTxRunner{}, &fakeLedger{}, &fakePayouts{}, testConfig(), nil, logg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	svc := svcIface.(*service)

	// 01:30 UTC is still the previous day in São Paulo (UTC-3).
	svc.now = func() time.Time {
		return time.Date(2026, 3, 10, 1, 30, 0, 0, time.UTC)
	}
	start := svc.windowStart()
	if start.Day() != 9 {
		t.Fatalf("expected window anchored on March 9 local time, got %v", start)
	}
	if start.Hour() != 0 || start.Minute() != 0 {
		t.Fatalf("expected local midnight, got %v", start)
	}
}
