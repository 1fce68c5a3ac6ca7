package controllers

import (
	"net/http"

	"github.com/andresouza-dev/pratoexpress-backend/api/middleware"
	"github.com/andresouza-dev/pratoexpress-backend/api/responses"
	"github.com/andresouza-dev/pratoexpress-backend/api/validators"
	cashoutsvc "github.com/andresouza-dev/pratoexpress-backend/internal/cashouts"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/enums"
	pkgerrors "github.com/andresouza-dev/pratoexpress-backend/pkg/errors"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/logger"
)

// BalanceGet returns the caller's available balance in cents. Restaurant
// owners see their restaurant's balance, couriers their own.
func BalanceGet(svc cashoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cashout service unavailable"))
			return
		}
		userID, err := principalID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role := enums.UserRole(middleware.RoleFromContext(r.Context()))
		balance, err := svc.GetBalance(r.Context(), userID, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"balance_cents": balance})
	}
}

type cashoutRequest struct {
	AmountCents int64 `json:"amount_cents" validate:"required,gt=0"`
}

// CashoutCreate withdraws part of the caller's balance to their PIX key.
func CashoutCreate(svc cashoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cashout service unavailable"))
			return
		}
		userID, err := principalID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload cashoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role := enums.UserRole(middleware.RoleFromContext(r.Context()))
		cashout, err := svc.RequestCashout(r.Context(), userID, role, payload.AmountCents)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, cashout)
	}
}
