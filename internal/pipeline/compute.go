package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/velstore/stockpulse/internal/availability"
	"github.com/velstore/stockpulse/internal/correction"
	"github.com/velstore/stockpulse/internal/domain"
	"github.com/velstore/stockpulse/internal/gap"
)

const stageCorrections = "corrections"

// computation runs the enabled stages for single products against one
// snapshot. It is free of shared mutable state, so the worker pool can
// call product() from many goroutines.
type computation struct {
	stages Stages
	snap   *Snapshot
	scores *availability.Calculator
	gaps   *gap.Calculator
	corr   *correction.Calculator
	runID  uuid.UUID
	now    time.Time
}

func newComputation(stages Stages, snap *Snapshot, cfg Config, runID uuid.UUID, now time.Time) *computation {
	return &computation{
		stages: stages,
		snap:   snap,
		scores: availability.NewCalculator(snap.Window, snap.ActiveLocations),
		gaps:   gap.NewCalculator(snap.Window, snap.ActiveLocations, cfg.ProbeBucket),
		corr:   correction.NewCalculator(),
		runID:  runID,
		now:    now,
	}
}

// product computes every enabled metric family for one product.
func (c *computation) product(p domain.Product) ProductResult {
	result := ProductResult{ProductID: p.ID}

	var psb *float64
	if c.stages.Availability {
		score := c.availabilityScore(p)
		result.Score = &domain.AvailabilityScore{
			ProductID:  p.ID,
			Score:      score,
			RunID:      c.runID,
			ComputedAt: c.now,
		}
		psb = &score
	} else if stored, ok := c.snap.StoredScores[p.ID]; ok {
		s := stored
		psb = &s
	}

	if c.stages.Gaps {
		metrics := c.gaps.Metrics(p.ID, gap.ProductInputs{
			SaleWindows: c.snap.Sales[p.ID],
			Probes:      c.snap.Probes[p.ID],
		})
		metrics.RunID = c.runID
		metrics.ComputedAt = c.now
		result.Gap = &metrics
	}

	if c.stages.Corrections {
		inputs, reason, ok := correction.InputsFor(p.ID, psb, c.snap.Signals[p.ID], c.snap.Shelf[p.ID])
		if !ok {
			result.Skips = append(result.Skips, domain.RunSkip{
				RunID:     c.runID,
				ProductID: p.ID,
				Stage:     stageCorrections,
				Reason:    reason,
			})
		} else {
			coefficient := c.corr.Compute(inputs)
			coefficient.RunID = c.runID
			coefficient.ComputedAt = c.now
			result.Coefficient = &coefficient
		}
	}

	return result
}

// availabilityScore runs the interval stages for one product: interval
// sets per hub location merged into one hub set, interval sets per
// eligible store, then the overlap aggregation.
func (c *computation) availabilityScore(p domain.Product) float64 {
	threshold := p.UnitThreshold()

	var hub []domain.DeficientInterval
	for locationID, events := range c.snap.HubEvents[p.ID] {
		key := availability.Key{ProductID: p.ID, LocationID: locationID, Tier: domain.TierHub}
		hub = append(hub, c.scores.IntervalsForKey(key, events, threshold)...)
	}
	hub = availability.Merge(hub)

	stores := make(map[int64][]domain.DeficientInterval)
	for locationID, events := range c.snap.StoreEvents[p.ID] {
		key := availability.Key{ProductID: p.ID, LocationID: locationID, Tier: domain.TierStore}
		if intervals := c.scores.IntervalsForKey(key, events, threshold); len(intervals) > 0 {
			stores[locationID] = intervals
		}
	}

	score, _ := c.scores.ScoreProduct(p.ID, hub, stores)

	return score
}
