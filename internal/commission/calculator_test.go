package commission

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return d
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name             string
		amount           string
		feePercent       string
		wantFee          string
		wantPhotographer string
	}{
		{"whole amount", "100.00", "15", "15.00", "85.00"},
		{"reference sale price", "29.90", "15", "4.48", "25.42"},
		{"half cent fee rounds to even", "0.30", "15", "0.04", "0.26"},
		{"tiny amount", "0.01", "15", "0.00", "0.01"},
		{"zero amount", "0", "15", "0.00", "0.00"},
		{"zero fee", "50.00", "0", "0.00", "50.00"},
		{"full fee", "50.00", "100", "50.00", "0.00"},
		{"custom fee", "200.00", "20", "40.00", "160.00"},
		{"unrounded input", "10.005", "15", "1.50", "8.50"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Split(dec(t, tc.amount), dec(t, tc.feePercent))
			if err != nil {
				t.Fatalf("Split error: %v", err)
			}
			if !got.PlatformFee.Equal(dec(t, tc.wantFee)) {
				t.Fatalf("fee = %s, want %s", got.PlatformFee, tc.wantFee)
			}
			if !got.Photographer.Equal(dec(t, tc.wantPhotographer)) {
				t.Fatalf("photographer = %s, want %s", got.Photographer, tc.wantPhotographer)
			}
			if !got.PlatformFee.Add(got.Photographer).Equal(got.Gross) {
				t.Fatalf("split does not reconstruct gross: %s + %s != %s",
					got.PlatformFee, got.Photographer, got.Gross)
			}
		})
	}
}

func TestSplitRejectsInvalidInput(t *testing.T) {
	if _, err := Split(dec(t, "-1"), dec(t, "15")); err == nil {
		t.Fatal("expected error for negative amount")
	}
	if _, err := Split(dec(t, "10"), dec(t, "-1")); err == nil {
		t.Fatal("expected error for negative fee percent")
	}
	if _, err := Split(dec(t, "10"), dec(t, "101")); err == nil {
		t.Fatal("expected error for fee percent above 100")
	}
}

func TestSplitDefault(t *testing.T) {
	got, err := SplitDefault(dec(t, "29.90"))
	if err != nil {
		t.Fatalf("SplitDefault error: %v", err)
	}
	if !got.PlatformFee.Equal(dec(t, "4.48")) {
		t.Fatalf("fee = %s, want 4.48", got.PlatformFee)
	}
	if !got.Photographer.Equal(dec(t, "25.42")) {
		t.Fatalf("photographer = %s, want 25.42", got.Photographer)
	}
}

func TestSplitCents(t *testing.T) {
	tests := []struct {
		name             string
		grossCents       int64
		wantFee          int64
		wantPhotographer int64
	}{
		{"reference sale price", 2990, 448, 2542},
		{"whole amount", 10000, 1500, 8500},
		{"one cent", 1, 0, 1},
		{"zero", 0, 0, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fee, photographer, err := SplitCents(tc.grossCents, DefaultFeePercent)
			if err != nil {
				t.Fatalf("SplitCents error: %v", err)
			}
			if fee != tc.wantFee {
				t.Fatalf("fee = %d, want %d", fee, tc.wantFee)
			}
			if photographer != tc.wantPhotographer {
				t.Fatalf("photographer = %d, want %d", photographer, tc.wantPhotographer)
			}
			if fee+photographer != tc.grossCents {
				t.Fatalf("split does not reconstruct gross cents")
			}
		})
	}

	if _, _, err := SplitCents(-1, DefaultFeePercent); err == nil {
		t.Fatal("expected error for negative cents")
	}
}

func TestSplitCentsConservesEveryAmount(t *testing.T) {
	percents := []string{"0", "15", "33", "100", "12.5", "7.25"}
	for _, percent := range percents {
		feePercent := dec(t, percent)
		t.Run(percent, func(t *testing.T) {
			for cents := int64(0); cents <= 10000; cents++ {
				fee, photographer, err := SplitCents(cents, feePercent)
				if err != nil {
					t.Fatalf("SplitCents(%d, %s): %v", cents, percent, err)
				}
				if fee+photographer != cents {
					t.Fatalf("SplitCents(%d, %s) lost money: fee=%d photographer=%d", cents, percent, fee, photographer)
				}
				if fee < 0 || photographer < 0 {
					t.Fatalf("SplitCents(%d, %s) produced negative share", cents, percent)
				}
			}
		})
	}
}
