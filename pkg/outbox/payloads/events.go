package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/gtclicks/settlement-service/pkg/enums"
)

// LineCredit is the per-photographer breakdown inside a settled order.
type LineCredit struct {
	PhotographerID    uuid.UUID `json:"photographer_id"`
	PhotoID           uuid.UUID `json:"photo_id"`
	GrossCents        int64     `json:"gross_cents"`
	PlatformFeeCents  int64     `json:"platform_fee_cents"`
	PhotographerCents int64     `json:"photographer_cents"`
	FeePercentApplied float64   `json:"fee_percent_applied"`
}

// OrderSettledEvent is emitted when a payment confirmation credits the order's
// photographers.
type OrderSettledEvent struct {
	OrderID         uuid.UUID             `json:"order_id"`
	BuyerID         uuid.UUID             `json:"buyer_id"`
	Provider        enums.PaymentProvider `json:"provider"`
	ProviderEventID string                `json:"provider_event_id"`
	TotalCents      int64                 `json:"total_cents"`
	Credits         []LineCredit          `json:"credits"`
	SettledAt       time.Time             `json:"settled_at"`
}

// OrderFailedEvent is emitted when the provider reports a failed payment.
type OrderFailedEvent struct {
	OrderID         uuid.UUID             `json:"order_id"`
	Provider        enums.PaymentProvider `json:"provider"`
	ProviderEventID string                `json:"provider_event_id"`
}

// OrderCancelledEvent is emitted when the provider reports a cancelled payment.
type OrderCancelledEvent struct {
	OrderID         uuid.UUID             `json:"order_id"`
	Provider        enums.PaymentProvider `json:"provider"`
	ProviderEventID string                `json:"provider_event_id"`
}

// WithdrawalRequestedEvent is emitted when a photographer asks to cash out and
// the amount moves from available to held.
type WithdrawalRequestedEvent struct {
	WithdrawalID   uuid.UUID `json:"withdrawal_id"`
	PhotographerID uuid.UUID `json:"photographer_id"`
	AmountCents    int64     `json:"amount_cents"`
	RequestedAt    time.Time `json:"requested_at"`
}

// WithdrawalApprovedEvent is emitted when an admin approves a pending request.
type WithdrawalApprovedEvent struct {
	WithdrawalID   uuid.UUID `json:"withdrawal_id"`
	PhotographerID uuid.UUID `json:"photographer_id"`
	AmountCents    int64     `json:"amount_cents"`
}

// WithdrawalPaidEvent is emitted when the payout is executed and held funds
// are settled out of the ledger.
type WithdrawalPaidEvent struct {
	WithdrawalID   uuid.UUID `json:"withdrawal_id"`
	PhotographerID uuid.UUID `json:"photographer_id"`
	AmountCents    int64     `json:"amount_cents"`
	PaidAt         time.Time `json:"paid_at"`
}

// WithdrawalRejectedEvent is emitted when a request is rejected and held funds
// return to available.
type WithdrawalRejectedEvent struct {
	WithdrawalID   uuid.UUID `json:"withdrawal_id"`
	PhotographerID uuid.UUID `json:"photographer_id"`
	AmountCents    int64     `json:"amount_cents"`
	Reason         string    `json:"reason,omitempty"`
}
