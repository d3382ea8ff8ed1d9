package webhooks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/gtclicks/settlement-service/api/responses"
	"github.com/gtclicks/settlement-service/internal/settlement"
	"github.com/gtclicks/settlement-service/pkg/enums"
	pkgerrors "github.com/gtclicks/settlement-service/pkg/errors"
	"github.com/gtclicks/settlement-service/pkg/logger"
	"github.com/gtclicks/settlement-service/pkg/metrics"
)

type StripeWebhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) (*settlement.Result, error)
	EventProcessed(ctx context.Context, eventID string) (bool, error)
}

type webhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type stripeClient interface {
	SigningSecret() string
}

// StripeWebhook verifies and processes Stripe payment intent events.
func StripeWebhook(svc StripeWebhookService, client stripeClient, guard webhookGuard, sm *metrics.SettlementMetrics, logg *logger.Logger) http.HandlerFunc {
	provider := string(enums.PaymentProviderStripe)
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		started := time.Now()
		defer func() { sm.ObserveWebhookDuration(provider, time.Since(started)) }()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stripe client unavailable"))
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

		sigHeader := r.Header.Get("Stripe-Signature")
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "stripe signature missing"))
			return
		}

		event, err := webhook.ConstructEvent(payload, sigHeader, client.SigningSecret())
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "verify signature"))
			return
		}

		alreadyProcessed, err := guard.CheckAndMark(ctx, event.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			// The guard marks before the settlement transaction commits. A
			// crash in between leaves the key set with no committed row, so
			// a guard hit must be confirmed against the database before the
			// delivery is acked as duplicate.
			committed, err := svc.EventProcessed(ctx, event.ID)
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

		result, err := svc.HandleEvent(ctx, &event)
		if err != nil {
			_ = guard.Delete(ctx, event.ID)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		recordResult(sm, provider, result)
		if logg != nil && result != nil {
			logg.Info(logg.WithProvider(ctx, provider), fmt.Sprintf("stripe event %s: %s", event.ID, result.Status))
		}
		responses.WriteSuccess(w, toAckResponse(result))
	}
}

type ackResponse struct {
	Received bool   `json:"received"`
	Status   string `json:"status,omitempty"`
	OrderID  string `json:"order_id,omitempty"`
}

func toAckResponse(result *settlement.Result) ackResponse {
	ack := ackResponse{Received: true}
	if result == nil {
		return ack
	}
	ack.Status = string(result.Status)
	ack.OrderID = result.OrderID.String()
	return ack
}

func recordResult(sm *metrics.SettlementMetrics, provider string, result *settlement.Result) {
	if result == nil {
		return
	}
	if result.Status == settlement.ResultDuplicate {
		sm.IncDuplicate(provider)
		return
	}
	sm.IncSettlement(provider, string(result.Status))
}
