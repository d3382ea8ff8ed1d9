package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateOrder      OutboxAggregateType = "order"
	AggregateWithdrawal OutboxAggregateType = "withdrawal_request"
	AggregateBalance    OutboxAggregateType = "balance"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateWithdrawal,
	AggregateBalance,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOrderSettled        OutboxEventType = "order_settled"
	EventOrderFailed         OutboxEventType = "order_failed"
	EventOrderCancelled      OutboxEventType = "order_cancelled"
	EventWithdrawalRequested OutboxEventType = "withdrawal_requested"
	EventWithdrawalApproved  OutboxEventType = "withdrawal_approved"
	EventWithdrawalPaid      OutboxEventType = "withdrawal_paid"
	EventWithdrawalRejected  OutboxEventType = "withdrawal_rejected"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderSettled,
	EventOrderFailed,
	EventOrderCancelled,
	EventWithdrawalRequested,
	EventWithdrawalApproved,
	EventWithdrawalPaid,
	EventWithdrawalRejected,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
