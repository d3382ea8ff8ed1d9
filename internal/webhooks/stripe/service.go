package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/gtclicks/settlement-service/internal/settlement"
	"github.com/gtclicks/settlement-service/pkg/enums"
	pkgerrors "github.com/gtclicks/settlement-service/pkg/errors"
)

// orderIDMetadataKey is the payment intent metadata key the checkout flow sets
// when it creates the intent.
const orderIDMetadataKey = "order_id"

type settlementProcessor interface {
	HandleEvent(ctx context.Context, input settlement.EventInput) (*settlement.Result, error)
	EventProcessed(ctx context.Context, provider enums.PaymentProvider, eventID string) (bool, error)
}

// Service translates Stripe payment intent events into settlement processing.
type Service struct {
	settlements settlementProcessor
}

func NewService(settlements settlementProcessor) (*Service, error) {
	if settlements == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "settlement processor required")
	}
	return &Service{settlements: settlements}, nil
}

// HandleEvent maps a verified Stripe event onto the ledger. Event types that
// do not affect settlement return a nil result and are acknowledged as-is.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) (*settlement.Result, error) {
	if event == nil || event.Data == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	var outcome enums.PaymentOutcome
	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		outcome = enums.PaymentOutcomePaid
	case stripe.EventTypePaymentIntentPaymentFailed:
		outcome = enums.PaymentOutcomeFailed
	case stripe.EventTypePaymentIntentCanceled:
		outcome = enums.PaymentOutcomeCancelled
	default:
		return nil, nil
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent")
	}

	input := settlement.EventInput{
		Provider:          enums.PaymentProviderStripe,
		EventID:           event.ID,
		ExternalPaymentID: intent.ID,
		Outcome:           outcome,
	}
	if raw, ok := intent.Metadata[orderIDMetadataKey]; ok {
		orderID, err := uuid.Parse(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse order id metadata")
		}
		input.OrderID = orderID
	}

	return s.settlements.HandleEvent(ctx, input)
}

// EventProcessed reports whether the Stripe event already has a committed
// dedup row.
func (s *Service) EventProcessed(ctx context.Context, eventID string) (bool, error) {
	return s.settlements.EventProcessed(ctx, enums.PaymentProviderStripe, eventID)
}
