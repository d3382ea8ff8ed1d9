package enums

import "fmt"

// LedgerEntryKind classifies an append-only ledger entry.
type LedgerEntryKind string

const (
	LedgerEntryKindCreditSale      LedgerEntryKind = "CREDIT_SALE"
	LedgerEntryKindDebitWithdrawal LedgerEntryKind = "DEBIT_WITHDRAWAL"
	LedgerEntryKindReversal        LedgerEntryKind = "REVERSAL"
	LedgerEntryKindReserveHold     LedgerEntryKind = "RESERVE_HOLD"
	LedgerEntryKindReleaseHold     LedgerEntryKind = "RELEASE_HOLD"
)

var validLedgerEntryKinds = []LedgerEntryKind{
	LedgerEntryKindCreditSale,
	LedgerEntryKindDebitWithdrawal,
	LedgerEntryKindReversal,
	LedgerEntryKindReserveHold,
	LedgerEntryKindReleaseHold,
}

// String implements fmt.Stringer.
func (k LedgerEntryKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known LedgerEntryKind.
func (k LedgerEntryKind) IsValid() bool {
	for _, candidate := range validLedgerEntryKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// AffectsTotal reports whether the entry changes the photographer's total
// funds. Hold movements shuffle money between available and held only.
func (k LedgerEntryKind) AffectsTotal() bool {
	return k == LedgerEntryKindCreditSale || k == LedgerEntryKindDebitWithdrawal || k == LedgerEntryKindReversal
}

// ParseLedgerEntryKind converts raw input into a LedgerEntryKind.
func ParseLedgerEntryKind(value string) (LedgerEntryKind, error) {
	for _, candidate := range validLedgerEntryKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entry kind %q", value)
}
