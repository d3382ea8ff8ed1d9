package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gtclicks/settlement-service/api/responses"
	"github.com/gtclicks/settlement-service/internal/settlement"
	"github.com/gtclicks/settlement-service/internal/webhooks/mercadopago"
	"github.com/gtclicks/settlement-service/pkg/config"
	"github.com/gtclicks/settlement-service/pkg/enums"
	pkgerrors "github.com/gtclicks/settlement-service/pkg/errors"
	"github.com/gtclicks/settlement-service/pkg/logger"
	"github.com/gtclicks/settlement-service/pkg/metrics"
)

type MercadoPagoWebhookService interface {
	HandleNotification(ctx context.Context, notification *mercadopago.Notification) (*settlement.Result, error)
	EventProcessed(ctx context.Context, eventID string) (bool, error)
}

// MercadoPagoWebhook verifies and processes Mercado Pago payment notifications.
func MercadoPagoWebhook(svc MercadoPagoWebhookService, cfg config.MercadoPago, guard webhookGuard, sm *metrics.SettlementMetrics, logg *logger.Logger) http.HandlerFunc {
	provider := string(enums.PaymentProviderMercadoPago)
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		started := time.Now()
		defer func() { sm.ObserveWebhookDuration(provider, time.Since(started)) }()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		var notification mercadopago.Notification
		if err := json.Unmarshal(payload, &notification); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode notification"))
			return
		}

		// The signed manifest uses the data.id query parameter; older
		// notification formats only carry it in the body.
		dataID := r.URL.Query().Get("data.id")
		if dataID == "" {
			dataID = notification.Data.ID
		}
		if err := mercadopago.VerifySignature(
			cfg.WebhookSecret,
			r.Header.Get("x-signature"),
			r.Header.Get("x-request-id"),
			dataID,
		); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "verify signature"))
			return
		}

		dedupKey := mercadopago.EventKey(&notification)
		alreadyProcessed, err := guard.CheckAndMark(ctx, dedupKey)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			// Guard keys are set before the settlement transaction commits;
			// confirm a committed row exists before acking as duplicate.
			committed, err := svc.EventProcessed(ctx, dedupKey)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm processed event"))
				return
			}
			if committed {
				sm.IncDuplicate(provider)
				responses.WriteSuccess(w, ackResponse{Received: true, Status: string(settlement.ResultDuplicate)})
				return
			}
		}

		result, err := svc.HandleNotification(ctx, &notification)
		if err != nil {
			_ = guard.Delete(ctx, dedupKey)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		recordResult(sm, provider, result)
		if logg != nil && result != nil {
			logg.Info(logg.WithProvider(ctx, provider), fmt.Sprintf("mercado pago notification %s: %s", dedupKey, result.Status))
		}
		responses.WriteSuccess(w, toAckResponse(result))
	}
}
