package domain

import "github.com/shopspring/decimal"

// Product dimension types. Count products sell in whole pieces, weight
// products in multiples of the declared unit weight.
const (
	DimensionCount  = "count"
	DimensionWeight = "weight"
)

// Factors to the canonical mass unit (kilograms). Stock quantities for
// weight products are stored in kilograms.
var massFactors = map[string]decimal.Decimal{
	"g":  decimal.NewFromFloat(0.001),
	"kg": decimal.NewFromInt(1),
}

// UnitThreshold derives the deficiency threshold for a product: the
// quantity below which a location cannot serve a single selling unit.
// Count products need one piece; weight products need one declared unit
// converted to kilograms. Unknown mass units are taken as already
// canonical, and a missing unit declaration falls back to 1.
func (p Product) UnitThreshold() decimal.Decimal {
	if p.DimensionType != DimensionWeight {
		return decimal.NewFromInt(1)
	}
	if p.UnitValue.IsZero() {
		return decimal.NewFromInt(1)
	}
	factor, ok := massFactors[p.UnitCode]
	if !ok {
		factor = decimal.NewFromInt(1)
	}

	return p.UnitValue.Mul(factor)
}

// Eligible reports whether a store location counts toward availability:
// it must be active, sellable and customer-facing.
func (l Location) Eligible() bool {
	return l.Tier == TierStore && l.Active && l.Sellable && !l.Internal
}
