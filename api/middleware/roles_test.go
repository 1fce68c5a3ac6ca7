package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequireAnyRole(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		allowed []string
		status  int
	}{
		{name: "exact match", role: "courier", allowed: []string{"courier"}, status: http.StatusOK},
		{name: "one of several", role: "restaurant_owner", allowed: []string{"courier", "restaurant_owner"}, status: http.StatusOK},
		{name: "wrong role", role: "customer", allowed: []string{"courier"}, status: http.StatusForbidden},
		{name: "no role in context", role: "", allowed: []string{"admin"}, status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireAnyRole(nil, tt.allowed...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.role != "" {
				req = req.WithContext(WithRole(req.Context(), tt.role))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}
