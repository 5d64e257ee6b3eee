// internal/availability/intervals.go
package availability

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/velstore/stockpulse/internal/domain"
)

// DeficientIntervals extracts the periods where the held quantity stayed
// below the product's unit threshold, clipped to the analysis window.
// Consecutive deficient spans share boundaries by construction and are
// coalesced, so the returned set is pairwise disjoint and ordered.
func DeficientIntervals(key Key, spans []Span, threshold decimal.Decimal, window domain.Window) []domain.DeficientInterval {
	var out []domain.DeficientInterval
	for _, sp := range spans {
		if !sp.Quantity.LessThan(threshold) {
			continue
		}
		start, end, ok := window.Clamp(sp.ValidFrom, sp.ValidTo)
		if !ok {
			continue
		}
		if n := len(out); n > 0 && out[n-1].End.Equal(start) {
			out[n-1].End = end
			continue
		}
		out = append(out, domain.DeficientInterval{
			ProductID:  key.ProductID,
			LocationID: key.LocationID,
			Tier:       key.Tier,
			Start:      start,
			End:        end,
		})
	}

	return out
}

// Merge unions interval sets that may overlap, e.g. when several hub
// locations feed the same product. The result is disjoint and ordered
// by start time; tier and location identity of the first contributor
// are kept on merged intervals.
func Merge(intervals []domain.DeficientInterval) []domain.DeficientInterval {
	if len(intervals) <= 1 {
		return intervals
	}

	sorted := make([]domain.DeficientInterval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := sorted[:1]
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}

	return merged
}
