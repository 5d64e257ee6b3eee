// internal/gap/calculator.go
package gap

import (
	"math"
	"time"

	"github.com/velstore/stockpulse/internal/domain"
)

// Calculator derives the probe-based availability-gap percentages. Two
// independent signals exist per store: the fine-grained AB-assortment
// probe and the coarser total-assortment probe, both sampled on a fixed
// bucket cadence. A bucket only counts while the product was actually
// on sale at that store, so delisted periods never read as gaps.
type Calculator struct {
	window          domain.Window
	activeLocations int
	bucket          time.Duration
}

// DefaultBucket is the probe sampling cadence.
const DefaultBucket = 15 * time.Minute

func NewCalculator(window domain.Window, activeLocations int, bucket time.Duration) *Calculator {
	if bucket <= 0 {
		bucket = DefaultBucket
	}

	return &Calculator{
		window:          window,
		activeLocations: activeLocations,
		bucket:          bucket,
	}
}

// ProductInputs bundles the per-product gap signals across all
// eligible store locations.
type ProductInputs struct {
	SaleWindows []domain.SaleWindow
	Probes      []domain.ProbeSample
}

// Metrics computes the gap pair for one product. With no sale-interval
// data nothing is countable and both values stay at zero.
func (c *Calculator) Metrics(productID int64, in ProductInputs) domain.GapMetrics {
	metrics := domain.GapMetrics{ProductID: productID}
	if c.activeLocations == 0 || c.window.Seconds() == 0 {
		return metrics
	}

	coverage := c.saleCoverage(in.SaleWindows)
	if len(coverage) == 0 {
		return metrics
	}

	ab := c.outPercent(in.Probes, domain.ProbeLevelAB, coverage)
	total := c.outPercent(in.Probes, domain.ProbeLevelTotal, coverage)

	metrics.PVAB = round2(ab)
	metrics.PV = round2(math.Max(metrics.PVAB-round2(total), 0))

	return metrics
}

// saleCoverage clips each location's sale windows to the analysis
// window. Open-ended windows run to the window end.
func (c *Calculator) saleCoverage(saleWindows []domain.SaleWindow) map[int64][]domain.Window {
	coverage := make(map[int64][]domain.Window)
	for _, sw := range saleWindows {
		end := c.window.To
		if sw.EndedAt != nil {
			end = *sw.EndedAt
		}
		start, clipped, ok := c.window.Clamp(sw.StartedAt, end)
		if !ok {
			continue
		}
		coverage[sw.LocationID] = append(coverage[sw.LocationID], domain.Window{From: start, To: clipped})
	}

	return coverage
}

// outPercent sums the out-flagged probe buckets of one level that fall
// inside sale coverage, as a percent of the window averaged over the
// active locations.
func (c *Calculator) outPercent(probes []domain.ProbeSample, level domain.ProbeLevel, coverage map[int64][]domain.Window) float64 {
	bucketSeconds := c.bucket.Seconds()

	var outSeconds float64
	for _, p := range probes {
		if p.Level != level || !p.Out {
			continue
		}
		if !c.window.Contains(p.BucketStart) {
			continue
		}
		if !onSale(coverage[p.LocationID], p.BucketStart) {
			continue
		}
		outSeconds += bucketSeconds
	}

	return outSeconds / c.window.Seconds() * 100 / float64(c.activeLocations)
}

func onSale(coverage []domain.Window, at time.Time) bool {
	for _, w := range coverage {
		if w.Contains(at) {
			return true
		}
	}

	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
