package enums

import "fmt"

// WithdrawalStatus tracks a payout request through its lifecycle. The wire
// values keep the pt-BR names the rest of the GTClicks platform uses.
type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "PENDENTE"
	WithdrawalStatusApproved WithdrawalStatus = "APROVADO"
	WithdrawalStatusPaid     WithdrawalStatus = "PAGO"
	WithdrawalStatusRejected WithdrawalStatus = "REJEITADO"
)

var validWithdrawalStatuses = []WithdrawalStatus{
	WithdrawalStatusPending,
	WithdrawalStatusApproved,
	WithdrawalStatusPaid,
	WithdrawalStatusRejected,
}

// String implements fmt.Stringer.
func (s WithdrawalStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known WithdrawalStatus.
func (s WithdrawalStatus) IsValid() bool {
	for _, candidate := range validWithdrawalStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s WithdrawalStatus) IsTerminal() bool {
	return s == WithdrawalStatusPaid || s == WithdrawalStatusRejected
}

// CanTransitionTo reports whether the state machine allows moving to next.
// Legal moves: PENDENTE→APROVADO, PENDENTE→REJEITADO, APROVADO→PAGO,
// APROVADO→REJEITADO.
func (s WithdrawalStatus) CanTransitionTo(next WithdrawalStatus) bool {
	switch s {
	case WithdrawalStatusPending:
		return next == WithdrawalStatusApproved || next == WithdrawalStatusRejected
	case WithdrawalStatusApproved:
		return next == WithdrawalStatusPaid || next == WithdrawalStatusRejected
	}
	return false
}

// ParseWithdrawalStatus converts raw input into a WithdrawalStatus.
func ParseWithdrawalStatus(value string) (WithdrawalStatus, error) {
	for _, candidate := range validWithdrawalStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid withdrawal status %q", value)
}
