// internal/availability/calculator.go
package availability

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/velstore/stockpulse/internal/domain"
)

// Calculator computes per-product availability scores from stock
// readings. The eligible-location count is snapshotted once per run and
// shared by every product, so scores across a run use the same
// denominator.
type Calculator struct {
	window          domain.Window
	activeLocations int
}

func NewCalculator(window domain.Window, activeLocations int) *Calculator {
	return &Calculator{
		window:          window,
		activeLocations: activeLocations,
	}
}

// IntervalsForKey runs the reconstruction and deficiency stages for one
// (product, location, tier) stream.
func (c *Calculator) IntervalsForKey(key Key, events []domain.StockEvent, threshold decimal.Decimal) []domain.DeficientInterval {
	spans := Normalize(events, c.window)

	return DeficientIntervals(key, spans, threshold, c.window)
}

// ScoreProduct computes the availability score for one product from its
// hub interval set and the interval sets of its measured stores.
func (c *Calculator) ScoreProduct(productID int64, hub []domain.DeficientInterval, storeByLocation map[int64][]domain.DeficientInterval) (float64, []domain.OverlapRecord) {
	// 1. A product with no eligible locations is fully available.
	if c.activeLocations == 0 {
		return 100, nil
	}

	windowSeconds := c.window.Seconds()
	records := make([]domain.OverlapRecord, 0, len(storeByLocation))

	// 2. Per store, sum the seconds the store and the hub were
	//    deficient at the same time.
	for locationID, store := range storeByLocation {
		overlap := IntersectSets(hub, store)
		if overlap == 0 {
			continue
		}
		records = append(records, domain.OverlapRecord{
			ProductID:      productID,
			LocationID:     locationID,
			OverlapSeconds: overlap,
			LocationCount:  c.activeLocations,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].LocationID < records[j].LocationID
	})

	// 3. Each store's deficiency fraction is its overlap share of the
	//    window, scaled down by the location count. Stores without
	//    readings contribute nothing and count as available.
	var deficiency float64
	for _, r := range records {
		deficiency += r.OverlapSeconds / windowSeconds / float64(r.LocationCount)
	}

	// 4. Score is the complement, bounded to [0, 100].
	score := (1 - deficiency) * 100
	score = math.Max(0, math.Min(100, score))

	return score, records
}
