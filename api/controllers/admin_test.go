package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	usersvc "github.com/andresouza-dev/pratoexpress-backend/internal/users"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/db/models"
	pkgerrors "github.com/andresouza-dev/pratoexpress-backend/pkg/errors"
)

type fakeUserService struct {
	notifyFn func(ctx context.Context, title, body string) (*usersvc.BroadcastResult, error)
}

func (f *fakeUserService) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return nil, nil
}

func (f *fakeUserService) UpdatePixKey(ctx context.Context, userID uuid.UUID, key, keyType string) error {
	return nil
}

func (f *fakeUserService) UpdatePushToken(ctx context.Context, userID uuid.UUID, token string) error {
	return nil
}

func (f *fakeUserService) List(ctx context.Context) ([]models.User, error) { return nil, nil }

func (f *fakeUserService) ApproveCourier(ctx context.Context, courierID uuid.UUID) error { return nil }

func (f *fakeUserService) Stats(ctx context.Context) (*usersvc.PlatformStats, error) {
	return nil, nil
}

func (f *fakeUserService) NotifyCustomers(ctx context.Context, title, body string) (*usersvc.BroadcastResult, error) {
	return f.notifyFn(ctx, title, body)
}

func TestAdminBroadcastForwardsAnnouncement(t *testing.T) {
	var gotTitle, gotBody string
	svc := &fakeUserService{
		notifyFn: func(_ context.Context, title, body string) (*usersvc.BroadcastResult, error) {
			gotTitle, gotBody = title, body
			return &usersvc.BroadcastResult{Recipients: 7}, nil
		},
	}
	handler := AdminBroadcast(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/notifications/broadcast",
		strings.NewReader(`{"title":"Promo","body":"Frete gratis hoje"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if gotTitle != "Promo" || gotBody != "Frete gratis hoje" {
		t.Fatalf("unexpected announcement: %q %q", gotTitle, gotBody)
	}
	if !strings.Contains(rec.Body.String(), `"recipients":7`) {
		t.Fatalf("response must report recipients, got %s", rec.Body.String())
	}
}

func TestAdminBroadcastRejectsMissingFields(t *testing.T) {
	svc := &fakeUserService{
		notifyFn: func(_ context.Context, _, _ string) (*usersvc.BroadcastResult, error) {
			t.Fatal("invalid payload must not reach the service")
			return nil, nil
		},
	}
	handler := AdminBroadcast(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/notifications/broadcast",
		strings.NewReader(`{"title":"Promo"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAdminBroadcastWithoutRegisteredDevices(t *testing.T) {
	svc := &fakeUserService{
		notifyFn: func(_ context.Context, _, _ string) (*usersvc.BroadcastResult, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no customer has a registered device")
		},
	}
	handler := AdminBroadcast(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/notifications/broadcast",
		strings.NewReader(`{"title":"Promo","body":"corpo"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
