package pipeline

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/velstore/stockpulse/internal/domain"
)

func ts(hour, min int) time.Time {
	return time.Date(2024, 3, 1, hour, min, 0, 0, time.UTC)
}

func event(productID, locationID int64, tier domain.Tier, at time.Time, qty int64) domain.StockEvent {
	return domain.StockEvent{
		ProductID:  productID,
		LocationID: locationID,
		Tier:       tier,
		Timestamp:  at,
		Quantity:   decimal.NewFromInt(qty),
	}
}

func floatPtr(v float64) *float64 { return &v }

// testSnapshot builds a 09:00-18:00 world with one eligible store.
// Product 1 has a hub gap 10:00-14:00 and a store gap 12:00-16:00, so
// their intersection covers 2 of the 9 window hours. Product 2 has no
// data at all.
func testSnapshot(t *testing.T) *Snapshot {
	t.Helper()

	window, err := domain.NewWindow(ts(9, 0), ts(18, 0))
	if err != nil {
		t.Fatal(err)
	}

	products := []domain.Product{
		{ID: 1, Code: "P-1", Name: "Milk 1L", DimensionType: domain.DimensionCount},
		{ID: 2, Code: "P-2", Name: "Rye bread", DimensionType: domain.DimensionCount},
	}

	return &Snapshot{
		Window:          window,
		Products:        products,
		ProductsByID:    map[int64]domain.Product{1: products[0], 2: products[1]},
		ActiveLocations: 1,
		StoreEvents: map[int64]map[int64][]domain.StockEvent{
			1: {10: {
				event(1, 10, domain.TierStore, ts(9, 0), 3),
				event(1, 10, domain.TierStore, ts(12, 0), 0),
				event(1, 10, domain.TierStore, ts(16, 0), 2),
			}},
		},
		HubEvents: map[int64]map[int64][]domain.StockEvent{
			1: {900: {
				event(1, 900, domain.TierHub, ts(9, 0), 5),
				event(1, 900, domain.TierHub, ts(10, 0), 0),
				event(1, 900, domain.TierHub, ts(14, 0), 5),
			}},
		},
		Sales: map[int64][]domain.SaleWindow{
			1: {{ProductID: 1, LocationID: 10, StartedAt: ts(9, 0)}},
		},
		Probes: map[int64][]domain.ProbeSample{
			1: {
				{ProductID: 1, LocationID: 10, BucketStart: ts(10, 0), Level: domain.ProbeLevelAB, Out: true},
				{ProductID: 1, LocationID: 10, BucketStart: ts(10, 15), Level: domain.ProbeLevelAB, Out: true},
				{ProductID: 1, LocationID: 10, BucketStart: ts(10, 0), Level: domain.ProbeLevelTotal, Out: true},
			},
		},
		Signals: map[int64]*domain.ProductSignals{
			1: {ProductID: 1, PWO: floatPtr(5), SupplyPct: floatPtr(50)},
		},
		Shelf: map[int64]*domain.ShelfLife{
			1: {ProductID: 1, Value: 10, UnitCode: "day"},
		},
	}
}

func TestComputationAllStages(t *testing.T) {
	snap := testSnapshot(t)
	runID := uuid.New()
	now := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	comp := newComputation(AllStages(), snap, DefaultConfig(), runID, now)
	result := comp.product(snap.ProductsByID[1])

	if result.Score == nil {
		t.Fatal("expected availability score")
	}
	// 7200s overlap out of a 32400s window across one location
	if math.Abs(result.Score.Score-77.7778) > 0.001 {
		t.Errorf("score = %v, want ~77.7778", result.Score.Score)
	}
	if result.Score.RunID != runID || !result.Score.ComputedAt.Equal(now) {
		t.Errorf("score missing run metadata: %+v", result.Score)
	}

	if result.Gap == nil {
		t.Fatal("expected gap metrics")
	}
	if result.Gap.PVAB != 5.56 {
		t.Errorf("pv_ab = %v, want 5.56", result.Gap.PVAB)
	}
	if result.Gap.PV != 2.78 {
		t.Errorf("pv = %v, want 2.78", result.Gap.PV)
	}
	if result.Gap.RunID != runID {
		t.Errorf("gap missing run metadata: %+v", result.Gap)
	}

	if result.Coefficient == nil {
		t.Fatalf("expected coefficient, skips: %v", result.Skips)
	}
	// The score (700/9 %) exceeds the 50% fulfilled supply, so the
	// element shrinks the order: k = 50 / (700/9) = 9/14.
	if want := 9.0 / 14.0; math.Abs(result.Coefficient.K-want) > 0.0001 {
		t.Errorf("k = %v, want %v", result.Coefficient.K, want)
	}
	if len(result.Skips) != 0 {
		t.Errorf("unexpected skips: %v", result.Skips)
	}
}

func TestComputationProductWithoutData(t *testing.T) {
	snap := testSnapshot(t)
	runID := uuid.New()

	comp := newComputation(AllStages(), snap, DefaultConfig(), runID, time.Now())
	result := comp.product(snap.ProductsByID[2])

	if result.Score == nil || result.Score.Score != 100 {
		t.Fatalf("score = %+v, want 100 without any deficiency", result.Score)
	}
	if result.Gap == nil || result.Gap.PVAB != 0 || result.Gap.PV != 0 {
		t.Fatalf("gap = %+v, want zeros without sale history", result.Gap)
	}
	if result.Coefficient != nil {
		t.Fatalf("coefficient = %+v, want skip", result.Coefficient)
	}
	if len(result.Skips) != 1 {
		t.Fatalf("skips = %v, want one", result.Skips)
	}

	skip := result.Skips[0]
	if skip.Stage != "corrections" || skip.ProductID != 2 || skip.RunID != runID {
		t.Errorf("unexpected skip record: %+v", skip)
	}
	if skip.Reason != "no weeks-on-sale signal" {
		t.Errorf("reason = %q", skip.Reason)
	}
}

func TestComputationCorrectionsOnly(t *testing.T) {
	snap := testSnapshot(t)
	snap.StoredScores = map[int64]float64{1: 50}

	comp := newComputation(Stages{Corrections: true}, snap, DefaultConfig(), uuid.New(), time.Now())
	result := comp.product(snap.ProductsByID[1])

	if result.Score != nil {
		t.Errorf("score = %+v, want none when stage disabled", result.Score)
	}
	if result.Gap != nil {
		t.Errorf("gap = %+v, want none when stage disabled", result.Gap)
	}
	if result.Coefficient == nil {
		t.Fatalf("expected coefficient from stored score, skips: %v", result.Skips)
	}
	// Stored score 50 against 50% supply: estimate matches, k stays 1.
	if result.Coefficient.K != 1 {
		t.Errorf("k = %v, want 1", result.Coefficient.K)
	}
}

func TestComputationCorrectionsOnlyMissingScore(t *testing.T) {
	snap := testSnapshot(t)

	comp := newComputation(Stages{Corrections: true}, snap, DefaultConfig(), uuid.New(), time.Now())
	result := comp.product(snap.ProductsByID[1])

	if result.Coefficient != nil {
		t.Fatalf("coefficient = %+v, want skip without a stored score", result.Coefficient)
	}
	if len(result.Skips) != 1 || result.Skips[0].Reason != "no availability score" {
		t.Fatalf("skips = %v", result.Skips)
	}
}

func TestComputationMergesHubLocations(t *testing.T) {
	snap := testSnapshot(t)
	// Split the 10:00-14:00 hub gap across two hubs with overlapping
	// halves; the merged set must behave like the single-hub case.
	snap.HubEvents[1] = map[int64][]domain.StockEvent{
		900: {
			event(1, 900, domain.TierHub, ts(9, 0), 5),
			event(1, 900, domain.TierHub, ts(10, 0), 0),
			event(1, 900, domain.TierHub, ts(12, 0), 5),
		},
		901: {
			event(1, 901, domain.TierHub, ts(9, 0), 4),
			event(1, 901, domain.TierHub, ts(11, 0), 0),
			event(1, 901, domain.TierHub, ts(14, 0), 6),
		},
	}

	comp := newComputation(Stages{Availability: true}, snap, DefaultConfig(), uuid.New(), time.Now())
	result := comp.product(snap.ProductsByID[1])

	if result.Score == nil {
		t.Fatal("expected availability score")
	}
	if math.Abs(result.Score.Score-77.7778) > 0.001 {
		t.Errorf("score = %v, want ~77.7778 with hub intervals merged", result.Score.Score)
	}
}
