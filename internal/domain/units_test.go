package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestUnitThreshold(t *testing.T) {
	tests := []struct {
		name    string
		product Product
		want    string
	}{
		{
			name:    "count product needs one piece",
			product: Product{DimensionType: DimensionCount, UnitValue: decimal.NewFromInt(6)},
			want:    "1",
		},
		{
			name:    "weight in grams converts to kilograms",
			product: Product{DimensionType: DimensionWeight, UnitValue: decimal.NewFromInt(350), UnitCode: "g"},
			want:    "0.35",
		},
		{
			name:    "weight already in kilograms",
			product: Product{DimensionType: DimensionWeight, UnitValue: decimal.NewFromFloat(1.5), UnitCode: "kg"},
			want:    "1.5",
		},
		{
			name:    "unknown mass unit taken as canonical",
			product: Product{DimensionType: DimensionWeight, UnitValue: decimal.NewFromInt(2), UnitCode: "crate"},
			want:    "2",
		},
		{
			name:    "missing unit declaration falls back to one",
			product: Product{DimensionType: DimensionWeight},
			want:    "1",
		},
		{
			name:    "missing dimension treated as count",
			product: Product{},
			want:    "1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.product.UnitThreshold()
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("UnitThreshold() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestLocationEligible(t *testing.T) {
	tests := []struct {
		name string
		loc  Location
		want bool
	}{
		{"active sellable store", Location{Tier: TierStore, Active: true, Sellable: true}, true},
		{"inactive store", Location{Tier: TierStore, Active: false, Sellable: true}, false},
		{"non-sellable store", Location{Tier: TierStore, Active: true, Sellable: false}, false},
		{"internal store", Location{Tier: TierStore, Active: true, Sellable: true, Internal: true}, false},
		{"hub never counts", Location{Tier: TierHub, Active: true, Sellable: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.loc.Eligible(); got != tt.want {
				t.Errorf("Eligible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTier(t *testing.T) {
	tests := []struct {
		label  string
		want   Tier
		wantOK bool
	}{
		{"hub", TierHub, true},
		{"Storage", TierHub, true},
		{"store", TierStore, true},
		{"TRADE_POINT", TierStore, true},
		{"warehouse", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := ParseTier(tt.label)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseTier(%q) = (%q, %v), want (%q, %v)", tt.label, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestRunStatus(t *testing.T) {
	if RunStatusProcessing.Terminal() {
		t.Error("processing must not be terminal")
	}
	if !RunStatusFailed.Terminal() || !RunStatusCompleted.Terminal() {
		t.Error("completed and failed must be terminal")
	}
	if got := RunStatusPending.Label(); got != "Pending" {
		t.Errorf("Label() = %q, want Pending", got)
	}
	if got := RunStatus("bogus").Label(); got != "Unknown" {
		t.Errorf("Label() for unknown status = %q, want Unknown", got)
	}
}
