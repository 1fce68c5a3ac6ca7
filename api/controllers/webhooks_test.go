package controllers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/andresouza-dev/pratoexpress-backend/internal/settlement"
)

type fakeSettlementService struct {
	mu       sync.Mutex
	calls    []settlement.PaymentNotification
	outcomes []settlement.Outcome
	err      error
}

func (f *fakeSettlementService) HandleNotification(_ context.Context, n settlement.PaymentNotification) (settlement.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, n)
	if len(f.outcomes) > len(f.calls)-1 {
		return f.outcomes[len(f.calls)-1], f.err
	}
	return settlement.OutcomeSettled, f.err
}

type memoryGuard struct {
	mu      sync.Mutex
	seen    map[string]bool
	deleted []string
	err     error
}

func newMemoryGuard() *memoryGuard {
	return &memoryGuard{seen: map[string]bool{}}
}

func (g *memoryGuard) CheckAndMark(_ context.Context, eventID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return false, g.err
	}
	if g.seen[eventID] {
		return true, nil
	}
	g.seen[eventID] = true
	return false, nil
}

func (g *memoryGuard) Delete(_ context.Context, eventID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.seen, eventID)
	g.deleted = append(g.deleted, eventID)
	return nil
}

func TestPaymentWebhookQueryParams(t *testing.T) {
	svc := &fakeSettlementService{}
	handler := PaymentWebhook(svc, newMemoryGuard(), nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment?topic=payment&id=pay_123", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(svc.calls) != 1 {
		t.Fatalf("expected one handler call, got %d", len(svc.calls))
	}
	if svc.calls[0].Topic != "payment" || svc.calls[0].PaymentID != "pay_123" {
		t.Fatalf("unexpected notification: %+v", svc.calls[0])
	}
}

func TestPaymentWebhookJSONBody(t *testing.T) {
	svc := &fakeSettlementService{}
	handler := PaymentWebhook(svc, newMemoryGuard(), nil, nil)

	body := []byte(`{"topic":"payment","data":{"id":"pay_456"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(svc.calls) != 1 || svc.calls[0].PaymentID != "pay_456" {
		t.Fatalf("expected notification for pay_456, got %+v", svc.calls)
	}
}

func TestPaymentWebhookDuplicateSkipsHandler(t *testing.T) {
	svc := &fakeSettlementService{}
	guard := newMemoryGuard()
	handler := PaymentWebhook(svc, guard, nil, nil)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment?topic=payment&id=pay_dup", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("delivery %d: expected 200, got %d", i, rec.Code)
		}
	}
	if len(svc.calls) != 1 {
		t.Fatalf("duplicate delivery should not reach the handler, got %d calls", len(svc.calls))
	}
}

func TestPaymentWebhookHandlerFailureStillAcks(t *testing.T) {
	svc := &fakeSettlementService{err: errors.New("gateway down")}
	guard := newMemoryGuard()
	handler := PaymentWebhook(svc, guard, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment?topic=payment&id=pay_err", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("gateway must always see 200, got %d", rec.Code)
	}
	if len(guard.deleted) != 1 || guard.deleted[0] != "pay_err" {
		t.Fatalf("failed notification should release the idempotency mark, deleted=%v", guard.deleted)
	}

	// A redelivery after the failure gets processed again.
	svc.err = nil
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment?topic=payment&id=pay_err", nil))
	if len(svc.calls) != 2 {
		t.Fatalf("redelivery should retry, got %d calls", len(svc.calls))
	}
}

func TestPaymentWebhookMissingIDAcksWithoutProcessing(t *testing.T) {
	svc := &fakeSettlementService{}
	handler := PaymentWebhook(svc, newMemoryGuard(), nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment?topic=payment", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(svc.calls) != 0 {
		t.Fatalf("notification without id should not be processed")
	}
}

func TestPaymentWebhookGuardOutageProcessesAnyway(t *testing.T) {
	svc := &fakeSettlementService{}
	guard := newMemoryGuard()
	guard.err = errors.New("redis unavailable")
	handler := PaymentWebhook(svc, guard, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment?topic=payment&id=pay_789", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(svc.calls) != 1 {
		t.Fatalf("guard outage must not drop notifications, got %d calls", len(svc.calls))
	}
}

func TestPaymentWebhookPendingThenApprovedSettles(t *testing.T) {
	svc := &fakeSettlementService{outcomes: []settlement.Outcome{settlement.OutcomeIgnored, settlement.OutcomeSettled}}
	guard := newMemoryGuard()
	handler := PaymentWebhook(svc, guard, nil, nil)

	// The gateway sends the pending notification first, then the approval
	// for the same payment id.
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment?topic=payment&id=pay_life", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("delivery %d: expected 200, got %d", i, rec.Code)
		}
	}

	if len(svc.calls) != 2 {
		t.Fatalf("approval after pending must reach the handler, service saw %d call(s), want 2", len(svc.calls))
	}
	if len(guard.deleted) != 1 || guard.deleted[0] != "pay_life" {
		t.Fatalf("pending notification should release the idempotency mark, deleted=%v", guard.deleted)
	}
	guard.mu.Lock()
	defer guard.mu.Unlock()
	if !guard.seen["pay_life"] {
		t.Fatal("settled notification should keep the idempotency mark")
	}
}
