// internal/correction/calculator.go
package correction

import (
	"fmt"
	"math"
	"strconv"

	"github.com/velstore/stockpulse/internal/domain"
)

// UnboundedShelfLifeDays stands in for products whose shelf life is
// unknown or declared in an unrecognized unit. It lands in the widest
// cap tier, so such products are never capped tighter than necessary.
const UnboundedShelfLifeDays = 9999

// Fraction of the declared shelf life that is actually usable once
// transport and receiving are accounted for.
const usableShelfFraction = 0.8

// Calculator turns the joined per-product signals into the bounded
// procurement correction coefficient.
type Calculator struct{}

func NewCalculator() *Calculator {
	return &Calculator{}
}

// Coefficient applies the correction rules to already-defaulted inputs.
func (c *Calculator) Coefficient(in domain.CorrectionInputs) float64 {
	// 1. Estimated availability relative to fulfilled supply. With no
	//    supply or no measured availability the estimate pins to 100,
	//    which neutralizes the element below.
	estimated := 100.0
	if in.SupplyPct != 0 && in.PSB != 0 {
		estimated = 100 * in.PSB / in.SupplyPct
	}

	// 2. The raw element corrects only products that sell broadly
	//    enough: few weeks on offer, or moderately few with a high
	//    sales rate. Everything else stays neutral. The element can
	//    drop below 1 when estimated exceeds 100.
	element := 1.0
	if in.PWO <= 10 || (in.PWO <= 15 && in.RPR >= 200) {
		element = 100 / estimated
	}

	// 3. Perishables cannot absorb large order increases, so the
	//    effective shelf life bounds the element.
	return math.Min(element, ShelfLifeCap(in.ShelfLifeDays))
}

// Compute runs the full rule chain and pairs the coefficient with its
// update directive.
func (c *Calculator) Compute(in domain.CorrectionInputs) domain.CorrectionCoefficient {
	k := c.Coefficient(in)

	return domain.CorrectionCoefficient{
		ProductID: in.ProductID,
		K:         k,
		Directive: Directive(in.ProductID, k),
	}
}

// ShelfLifeCap maps the effective shelf life in days to the maximum
// allowed coefficient.
func ShelfLifeCap(days float64) float64 {
	switch {
	case days < 3:
		return 2
	case days < 15:
		return 2.5
	case days < 30:
		return 3
	default:
		return 3.5
	}
}

// Factors from declared shelf-life units to days. Week declarations
// historically slipped through unconverted and downstream planning
// calibrated against that, so the factor stays 1.
var shelfLifeDayFactors = map[string]float64{
	"year":  365,
	"month": 365.0 / 12,
	"week":  1,
	"day":   1,
	"hour":  1.0 / 24,
}

// EffectiveShelfLifeDays converts a declared shelf life to usable days.
// Missing records and unrecognized units map to the unbounded sentinel.
func EffectiveShelfLifeDays(life *domain.ShelfLife) float64 {
	if life == nil {
		return UnboundedShelfLifeDays
	}
	factor, ok := shelfLifeDayFactors[life.UnitCode]
	if !ok {
		return UnboundedShelfLifeDays
	}

	return life.Value * usableShelfFraction * factor
}

// Directive renders the update instruction the planning system
// executes for one product.
func Directive(productID int64, k float64) string {
	return fmt.Sprintf("set correction coefficient of product %d to %s",
		productID, strconv.FormatFloat(k, 'g', -1, 64))
}

// InputsFor joins the raw per-product signals into calculator inputs,
// applying the documented defaults. It returns ok=false with a reason
// when a required signal is missing; the product is then skipped and
// the run keeps going.
func InputsFor(productID int64, psb *float64, signals *domain.ProductSignals, life *domain.ShelfLife) (domain.CorrectionInputs, string, bool) {
	if psb == nil {
		return domain.CorrectionInputs{}, "no availability score", false
	}
	if signals == nil || signals.PWO == nil {
		return domain.CorrectionInputs{}, "no weeks-on-sale signal", false
	}

	in := domain.CorrectionInputs{
		ProductID:     productID,
		PSB:           *psb,
		PWO:           *signals.PWO,
		SupplyPct:     100,
		ShelfLifeDays: EffectiveShelfLifeDays(life),
	}
	if signals.RPR != nil {
		in.RPR = *signals.RPR
	}
	if signals.SupplyPct != nil {
		in.SupplyPct = *signals.SupplyPct
	}

	return in, "", true
}
