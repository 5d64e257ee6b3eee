// internal/availability/overlap.go
package availability

import (
	"time"

	"github.com/velstore/stockpulse/internal/domain"
)

// OverlapSeconds returns the length of the intersection of two
// intervals in seconds, zero when they do not overlap. Intervals are
// half-open, so touching endpoints carry no overlap.
func OverlapSeconds(a, b domain.DeficientInterval) float64 {
	start := maxTime(a.Start, b.Start)
	end := minTime(a.End, b.End)
	if !end.After(start) {
		return 0
	}

	return end.Sub(start).Seconds()
}

// IntersectSets sums the pairwise overlap between a hub interval set
// and a store interval set. Both sets are disjoint within themselves,
// so the sum never counts the same second twice.
func IntersectSets(hub, store []domain.DeficientInterval) float64 {
	var total float64
	for _, h := range hub {
		for _, s := range store {
			total += OverlapSeconds(h, s)
		}
	}

	return total
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
