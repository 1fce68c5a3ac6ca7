package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/andresouza-dev/pratoexpress-backend/api/middleware"
	"github.com/andresouza-dev/pratoexpress-backend/api/responses"
	"github.com/andresouza-dev/pratoexpress-backend/api/validators"
	ordersvc "github.com/andresouza-dev/pratoexpress-backend/internal/orders"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/db/models"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/enums"
	pkgerrors "github.com/andresouza-dev/pratoexpress-backend/pkg/errors"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/logger"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/payment"
)

type createOrderRequest struct {
	RestaurantID    uuid.UUID              `json:"restaurant_id" validate:"required"`
	DeliveryAddress string                 `json:"delivery_address" validate:"required"`
	PayerEmail      string                 `json:"payer_email" validate:"omitempty,email"`
	Items           []createOrderItemInput `json:"items" validate:"required,min=1,dive"`
}

type createOrderItemInput struct {
	DishID uuid.UUID `json:"dish_id" validate:"required"`
	Qty    int       `json:"qty" validate:"required,min=1"`
}

type createOrderResponse struct {
	Order  *models.Order      `json:"order"`
	Charge *payment.PixCharge `json:"charge"`
}

// OrderCreate places an order for the authenticated customer.
func OrderCreate(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		customerID, err := principalID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]ordersvc.OrderItemInput, 0, len(payload.Items))
		for _, item := range payload.Items {
			items = append(items, ordersvc.OrderItemInput{DishID: item.DishID, Qty: item.Qty})
		}

		result, err := svc.Create(r.Context(), ordersvc.CreateOrderInput{
			CustomerID:      customerID,
			RestaurantID:    payload.RestaurantID,
			DeliveryAddress: payload.DeliveryAddress,
			PayerEmail:      payload.PayerEmail,
			Items:           items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, createOrderResponse{
			Order:  result.Order,
			Charge: result.Charge,
		})
	}
}

// OrderGet returns one order to its customer, assigned courier, or an admin.
func OrderGet(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		actorID, err := principalID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		role := enums.UserRole(middleware.RoleFromContext(r.Context()))
		order, err := svc.Get(r.Context(), orderID, actorID, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// principalID reads the authenticated user id seeded by the auth middleware.
func principalID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user identity")
	}
	return id, nil
}
