package mercadopago

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/gtclicks/settlement-service/internal/settlement"
	"github.com/gtclicks/settlement-service/pkg/enums"
	pkgerrors "github.com/gtclicks/settlement-service/pkg/errors"
)

type settlementProcessor interface {
	HandleEvent(ctx context.Context, input settlement.EventInput) (*settlement.Result, error)
	EventProcessed(ctx context.Context, provider enums.PaymentProvider, eventID string) (bool, error)
}

type paymentFetcher interface {
	GetPayment(ctx context.Context, paymentID string) (*Payment, error)
}

// Notification is the webhook body Mercado Pago posts. Only payment
// notifications matter here; other topics are acknowledged and dropped.
type Notification struct {
	ID     int64  `json:"id"`
	Action string `json:"action"`
	Type   string `json:"type"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Service resolves Mercado Pago notifications into settlement processing. The
// notification only names a payment id, so the service fetches the payment
// and maps its status onto an outcome.
type Service struct {
	settlements settlementProcessor
	payments    paymentFetcher
}

func NewService(settlements settlementProcessor, payments paymentFetcher) (*Service, error) {
	if settlements == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "settlement processor required")
	}
	if payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment client required")
	}
	return &Service{settlements: settlements, payments: payments}, nil
}

func (s *Service) HandleNotification(ctx context.Context, notification *Notification) (*settlement.Result, error) {
	if notification == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification required")
	}
	if notification.Type != "payment" {
		return nil, nil
	}
	if notification.Data.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id missing")
	}

	payment, err := s.payments.GetPayment(ctx, notification.Data.ID)
	if err != nil {
		return nil, err
	}

	outcome, terminal := mapStatus(payment.Status)
	if !terminal {
		return nil, nil
	}

	input := settlement.EventInput{
		Provider:          enums.PaymentProviderMercadoPago,
		EventID:           EventKey(notification),
		ExternalPaymentID: strconv.FormatInt(payment.ID, 10),
		Outcome:           outcome,
	}
	if payment.ExternalReference != "" {
		orderID, err := uuid.Parse(payment.ExternalReference)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse external reference")
		}
		input.OrderID = orderID
	}

	return s.settlements.HandleEvent(ctx, input)
}

// EventProcessed reports whether the notification's dedup key already has a
// committed payment event row.
func (s *Service) EventProcessed(ctx context.Context, eventID string) (bool, error) {
	return s.settlements.EventProcessed(ctx, enums.PaymentProviderMercadoPago, eventID)
}

// EventKey keys dedup on the notification id when present, falling back to
// the payment id plus action for older notification formats.
func EventKey(notification *Notification) string {
	if notification.ID != 0 {
		return strconv.FormatInt(notification.ID, 10)
	}
	return fmt.Sprintf("%s:%s", notification.Data.ID, notification.Action)
}

// mapStatus reduces Mercado Pago payment statuses to settlement outcomes.
// Pending and in-process statuses are not terminal and produce no event.
func mapStatus(status string) (enums.PaymentOutcome, bool) {
	switch status {
	case "approved":
		return enums.PaymentOutcomePaid, true
	case "rejected":
		return enums.PaymentOutcomeFailed, true
	case "cancelled":
		return enums.PaymentOutcomeCancelled, true
	}
	return "", false
}
