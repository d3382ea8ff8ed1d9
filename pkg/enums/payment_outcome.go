package enums

import "fmt"

// PaymentOutcome is the normalized result a provider reported for an order.
type PaymentOutcome string

const (
	PaymentOutcomePaid      PaymentOutcome = "PAID"
	PaymentOutcomeFailed    PaymentOutcome = "FAILED"
	PaymentOutcomeCancelled PaymentOutcome = "CANCELLED"
)

var validPaymentOutcomes = []PaymentOutcome{
	PaymentOutcomePaid,
	PaymentOutcomeFailed,
	PaymentOutcomeCancelled,
}

// IsValid reports whether the value is a known PaymentOutcome.
func (o PaymentOutcome) IsValid() bool {
	for _, candidate := range validPaymentOutcomes {
		if candidate == o {
			return true
		}
	}
	return false
}

// OrderStatus maps the outcome to the order status it drives.
func (o PaymentOutcome) OrderStatus() OrderStatus {
	switch o {
	case PaymentOutcomePaid:
		return OrderStatusPaid
	case PaymentOutcomeFailed:
		return OrderStatusFailed
	case PaymentOutcomeCancelled:
		return OrderStatusCancelled
	}
	return ""
}

// ParsePaymentOutcome converts raw input into a PaymentOutcome.
func ParsePaymentOutcome(value string) (PaymentOutcome, error) {
	for _, candidate := range validPaymentOutcomes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment outcome %q", value)
}
