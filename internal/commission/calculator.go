package commission

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultFeePercent is the platform commission applied when no override is
// configured.
var DefaultFeePercent = decimal.NewFromInt(15)

var (
	hundred  = decimal.NewFromInt(100)
	centUnit = decimal.New(1, -2)
)

// Breakdown is the result of splitting a sale between the platform and the
// photographer. Fee plus photographer share always reconstructs the rounded
// gross amount exactly.
type Breakdown struct {
	Gross        decimal.Decimal
	PlatformFee  decimal.Decimal
	Photographer decimal.Decimal
	FeePercent   decimal.Decimal
}

// Split divides amount between platform fee and photographer share.
//
// The fee is rounded to two decimal places with banker's rounding and the
// photographer receives the remainder, so no cent is ever created or lost by
// the split.
func Split(amount, feePercent decimal.Decimal) (Breakdown, error) {
	if amount.IsNegative() {
		return Breakdown{}, fmt.Errorf("amount must not be negative: %s", amount)
	}
	if feePercent.IsNegative() || feePercent.GreaterThan(hundred) {
		return Breakdown{}, fmt.Errorf("fee percent out of range: %s", feePercent)
	}

	gross := round2(amount)
	fee := round2(gross.Mul(feePercent).Div(hundred))
	photographer := gross.Sub(fee)

	return Breakdown{
		Gross:        gross,
		PlatformFee:  fee,
		Photographer: photographer,
		FeePercent:   feePercent,
	}, nil
}

// SplitDefault applies the default platform commission.
func SplitDefault(amount decimal.Decimal) (Breakdown, error) {
	return Split(amount, DefaultFeePercent)
}

// SplitCents splits an amount expressed in integer cents, returning integer
// cents. This is the form the ledger persists.
func SplitCents(grossCents int64, feePercent decimal.Decimal) (feeCents, photographerCents int64, err error) {
	if grossCents < 0 {
		return 0, 0, fmt.Errorf("gross cents must not be negative: %d", grossCents)
	}
	breakdown, err := Split(decimal.New(grossCents, -2), feePercent)
	if err != nil {
		return 0, 0, err
	}
	feeCents = breakdown.PlatformFee.Div(centUnit).IntPart()
	photographerCents = grossCents - feeCents
	return feeCents, photographerCents, nil
}

func round2(value decimal.Decimal) decimal.Decimal {
	return value.RoundBank(2)
}
