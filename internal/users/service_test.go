package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andresouza-dev/pratoexpress-backend/pkg/db/models"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/enums"
	pkgerrors "github.com/andresouza-dev/pratoexpress-backend/pkg/errors"
)

type fakeRepository struct {
	user           *models.User
	pixUpdates     []string
	pixTypes       []enums.PixKeyType
	tokenUpdates   []string
	approved       []uuid.UUID
	customerTokens []string
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if f.user == nil || f.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return f.user, nil
}

func (f *fakeRepository) List(ctx context.Context) ([]models.User, error) {
	if f.user == nil {
		return nil, nil
	}
	return []models.User{*f.user}, nil
}

func (f *fakeRepository) UpdatePixKey(ctx context.Context, userID uuid.UUID, key string, keyType enums.PixKeyType) (int64, error) {
	if f.user == nil || f.user.ID != userID {
		return 0, nil
	}
	f.pixUpdates = append(f.pixUpdates, key)
	f.pixTypes = append(f.pixTypes, keyType)
	return 1, nil
}

func (f *fakeRepository) UpdatePushToken(ctx context.Context, userID uuid.UUID, token string) (int64, error) {
	if f.user == nil || f.user.ID != userID {
		return 0, nil
	}
	f.tokenUpdates = append(f.tokenUpdates, token)
	return 1, nil
}

func (f *fakeRepository) SetApproved(ctx context.Context, userID uuid.UUID, approved bool) (int64, error) {
	f.approved = append(f.approved, userID)
	return 1, nil
}

func (f *fakeRepository) CountByRole(ctx context.Context, role enums.UserRole) (int64, error) {
	return 3, nil
}

func (f *fakeRepository) CountRestaurants(ctx context.Context, approvedOnly bool) (int64, error) {
	if approvedOnly {
		return 4, nil
	}
	return 6, nil
}

func (f *fakeRepository) CountOrders(ctx context.Context) (int64, error) { return 42, nil }

func (f *fakeRepository) SettledVolumeCents(ctx context.Context) (int64, error) { return 123400, nil }

func (f *fakeRepository) ListCustomerPushTokens(ctx context.Context) ([]string, error) {
	return f.customerTokens, nil
}

type fakeBroadcaster struct {
	tokens []string
	title  string
	body   string
	err    error
}

func (f *fakeBroadcaster) Broadcast(ctx context.Context, tokens []string, title, body string) error {
	f.tokens = append(f.tokens, tokens...)
	f.title, f.body = title, body
	return f.err
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected code %s, got %v", code, err)
	}
}

func TestUpdatePixKeyValidatesType(t *testing.T) {
	user := &models.User{ID: uuid.New(), Role: enums.UserRoleCourier}
	repo := &fakeRepository{user: user}
	svc, err := NewService(repo, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if err := svc.UpdatePixKey(context.Background(), user.ID, "ana@example.com", "EMAIL"); err != nil {
		t.Fatalf("UpdatePixKey: %v", err)
	}
	if len(repo.pixUpdates) != 1 || repo.pixTypes[0] != enums.PixKeyTypeEmail {
		t.Fatalf("expected stored EMAIL key, got %v %v", repo.pixUpdates, repo.pixTypes)
	}

	err = svc.UpdatePixKey(context.Background(), user.ID, "abc", "IBAN")
	expectCode(t, err, pkgerrors.CodeValidation)

	err = svc.UpdatePixKey(context.Background(), user.ID, "   ", "EMAIL")
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestUpdatePushToken(t *testing.T) {
	user := &models.User{ID: uuid.New()}
	repo := &fakeRepository{user: user}
	svc, _ := NewService(repo, nil)

	if err := svc.UpdatePushToken(context.Background(), user.ID, "tok-1"); err != nil {
		t.Fatalf("UpdatePushToken: %v", err)
	}
	err := svc.UpdatePushToken(context.Background(), uuid.New(), "tok-2")
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestApproveCourierChecksRole(t *testing.T) {
	customer := &models.User{ID: uuid.New(), Role: enums.UserRoleCustomer}
	repo := &fakeRepository{user: customer}
	svc, _ := NewService(repo, nil)

	err := svc.ApproveCourier(context.Background(), customer.ID)
	expectCode(t, err, pkgerrors.CodeValidation)

	courier := &models.User{ID: uuid.New(), Role: enums.UserRoleCourier}
	repo.user = courier
	if err := svc.ApproveCourier(context.Background(), courier.ID); err != nil {
		t.Fatalf("ApproveCourier: %v", err)
	}
	if len(repo.approved) != 1 || repo.approved[0] != courier.ID {
		t.Fatalf("expected approval write for the courier, got %v", repo.approved)
	}
}

func TestStats(t *testing.T) {
	repo := &fakeRepository{}
	svc, _ := NewService(repo, nil)

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Restaurants != 4 || stats.PendingRestaurants != 2 {
		t.Fatalf("unexpected restaurant counts: %+v", stats)
	}
	if stats.Orders != 42 || stats.SettledVolumeCents != 123400 {
		t.Fatalf("unexpected order stats: %+v", stats)
	}
}

func TestNotifyCustomers(t *testing.T) {
	repo := &fakeRepository{customerTokens: []string{"tok-a", "tok-b"}}
	sender := &fakeBroadcaster{}
	svc, _ := NewService(repo, sender)

	result, err := svc.NotifyCustomers(context.Background(), "Promo", "Frete gratis hoje")
	if err != nil {
		t.Fatalf("NotifyCustomers: %v", err)
	}
	if result.Recipients != 2 {
		t.Fatalf("expected 2 recipients, got %d", result.Recipients)
	}
	if len(sender.tokens) != 2 || sender.title != "Promo" {
		t.Fatalf("broadcast did not receive the announcement: %+v", sender)
	}

	_, err = svc.NotifyCustomers(context.Background(), "  ", "body")
	expectCode(t, err, pkgerrors.CodeValidation)

	repo.customerTokens = nil
	_, err = svc.NotifyCustomers(context.Background(), "Promo", "body")
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestNotifyCustomersWithoutBroadcaster(t *testing.T) {
	repo := &fakeRepository{customerTokens: []string{"tok-a"}}
	svc, _ := NewService(repo, nil)

	_, err := svc.NotifyCustomers(context.Background(), "Promo", "body")
	expectCode(t, err, pkgerrors.CodeDependency)
}
