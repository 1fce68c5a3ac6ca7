package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/andresouza-dev/pratoexpress-backend/api/responses"
	"github.com/andresouza-dev/pratoexpress-backend/internal/settlement"
	pkgerrors "github.com/andresouza-dev/pratoexpress-backend/pkg/errors"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/logger"
	"github.com/andresouza-dev/pratoexpress-backend/pkg/metrics"
)

type paymentWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type paymentWebhookBody struct {
	Topic string `json:"topic"`
	ID    string `json:"id"`
	Data  struct {
		ID string `json:"id"`
	} `json:"data"`
}

// PaymentWebhook receives payment status notifications from the PSP. The
// gateway retries on non-2xx, so once a notification has been read the
// handler acknowledges it regardless of processing outcome; failed
// notifications are logged and the redis mark is released so a redelivery
// can retry.
func PaymentWebhook(svc settlement.Service, guard paymentWebhookGuard, flow *metrics.MoneyFlowMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		notification := parsePaymentNotification(r)
		if notification.PaymentID == "" {
			flow.IncWebhook("malformed")
			if logg != nil {
				logg.Warn(ctx, "payment notification without payment id")
			}
			responses.WriteSuccess(w, nil)
			return
		}

		alreadySeen, err := guard.CheckAndMark(ctx, notification.PaymentID)
		if err != nil {
			// Redis being down must not drop notifications; the settlement
			// conditional update still makes replays harmless.
			if logg != nil {
				logg.Warn(ctx, "idempotency guard unavailable, processing anyway")
			}
		} else if alreadySeen {
			flow.IncWebhook("duplicate")
			responses.WriteSuccess(w, nil)
			return
		}

		outcome, err := svc.HandleNotification(ctx, notification)
		if err != nil {
			_ = guard.Delete(ctx, notification.PaymentID)
			if logg != nil {
				logg.Error(ctx, "payment notification processing failed", err)
			}
		} else if !outcome.Terminal() {
			// The PSP reuses one payment id across the whole lifecycle, so
			// a pending notification must not block the approval that
			// follows it.
			_ = guard.Delete(ctx, notification.PaymentID)
		}
		responses.WriteSuccess(w, nil)
	}
}

// parsePaymentNotification accepts both delivery styles the PSP uses:
// query parameters (?topic=payment&id=...) and a JSON body.
func parsePaymentNotification(r *http.Request) settlement.PaymentNotification {
	notification := settlement.PaymentNotification{
		Topic:     strings.TrimSpace(r.URL.Query().Get("topic")),
		PaymentID: strings.TrimSpace(r.URL.Query().Get("id")),
	}
	if notification.PaymentID != "" {
		return notification
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil || len(payload) == 0 {
		return notification
	}
	var body paymentWebhookBody
	if err := json.Unmarshal(payload, &body); err != nil {
		return notification
	}
	if notification.Topic == "" {
		notification.Topic = strings.TrimSpace(body.Topic)
	}
	notification.PaymentID = strings.TrimSpace(body.ID)
	if notification.PaymentID == "" {
		notification.PaymentID = strings.TrimSpace(body.Data.ID)
	}
	return notification
}
