// internal/domain/models.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a sellable product with its measurement unit.
// Weight-dimension products declare the size of one selling unit
// (e.g. 350 g); count-dimension products sell in whole pieces.
type Product struct {
	ID            int64           `json:"id" db:"id"`
	Code          string          `json:"code" db:"code"`
	Name          string          `json:"name" db:"name"`
	DimensionType string          `json:"dimension_type" db:"dimension_type"`
	UnitValue     decimal.Decimal `json:"unit_value" db:"unit_value"`
	UnitCode      string          `json:"unit_code" db:"unit_code"`
}

// Location is a node of the distribution network: a provider hub or a
// retail store. Store locations count toward availability only when
// active, sellable and not internal.
type Location struct {
	ID       int64  `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Tier     Tier   `json:"tier" db:"tier"`
	Active   bool   `json:"active" db:"active"`
	Internal bool   `json:"internal" db:"internal"`
	Sellable bool   `json:"sellable" db:"sellable"`
}

// ShelfLife is the declared shelf life of a product, e.g. {14, "day"}.
type ShelfLife struct {
	ProductID int64   `json:"product_id" db:"product_id"`
	Value     float64 `json:"value" db:"value"`
	UnitCode  string  `json:"unit_code" db:"unit_code"`
}

// ProductSignals carries the externally sourced planning inputs for one
// product. Nil fields mean the upstream system has no value recorded.
type ProductSignals struct {
	ProductID int64    `json:"product_id" db:"product_id"`
	RPR       *float64 `json:"rpr" db:"rpr"`
	PWO       *float64 `json:"pwo" db:"pwo"`
	SupplyPct *float64 `json:"supply_pct" db:"supply_pct"`
}

// StockEvent is one stock-level reading: the quantity on hand at a
// location from its timestamp until the next reading for the same
// (product, location, tier) key.
type StockEvent struct {
	ID         int64           `json:"id" db:"id"`
	ProductID  int64           `json:"product_id" db:"product_id"`
	LocationID int64           `json:"location_id" db:"location_id"`
	Tier       Tier            `json:"tier" db:"tier"`
	Timestamp  time.Time       `json:"timestamp" db:"timestamp"`
	Quantity   decimal.Decimal `json:"quantity" db:"quantity"`
	Type       string          `json:"type" db:"type"`
}

// SaleWindow is a period during which a product was offered for sale at
// a store. A nil EndedAt means the window is still open.
type SaleWindow struct {
	ProductID  int64      `json:"product_id" db:"product_id"`
	LocationID int64      `json:"location_id" db:"location_id"`
	StartedAt  time.Time  `json:"started_at" db:"started_at"`
	EndedAt    *time.Time `json:"ended_at" db:"ended_at"`
}

// ProbeSample is one bucket of the sampled out-of-stock probe signal.
// Samples arrive on a fixed cadence (15 minutes by default) per
// (product, location) and probe level.
type ProbeSample struct {
	ProductID   int64      `json:"product_id" db:"product_id"`
	LocationID  int64      `json:"location_id" db:"location_id"`
	BucketStart time.Time  `json:"bucket_start" db:"bucket_start"`
	Level       ProbeLevel `json:"level" db:"level"`
	Out         bool       `json:"out" db:"is_out"`
}

// DeficientInterval is a maximal period during which the on-hand
// quantity at one location stayed below the product's unit threshold,
// clipped to the analysis window.
type DeficientInterval struct {
	ProductID  int64     `json:"product_id"`
	LocationID int64     `json:"location_id"`
	Tier       Tier      `json:"tier"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

// Duration returns the interval length.
func (d DeficientInterval) Duration() time.Duration {
	return d.End.Sub(d.Start)
}

// OverlapRecord sums, for one (product, store) pair, the seconds during
// which the store and its hub were deficient simultaneously.
type OverlapRecord struct {
	ProductID      int64   `json:"product_id"`
	LocationID     int64   `json:"location_id"`
	OverlapSeconds float64 `json:"overlap_seconds"`
	LocationCount  int     `json:"location_count"`
}

// AvailabilityScore is the per-product PSB score in [0, 100].
type AvailabilityScore struct {
	ProductID  int64     `json:"product_id" db:"product_id"`
	Score      float64   `json:"score" db:"score"`
	RunID      uuid.UUID `json:"run_id" db:"run_id"`
	ComputedAt time.Time `json:"computed_at" db:"computed_at"`
}

// GapMetrics carries the probe-based availability-gap percentages.
// Both default to zero when no sale-interval data exists.
type GapMetrics struct {
	ProductID  int64     `json:"product_id" db:"product_id"`
	PVAB       float64   `json:"pv_ab" db:"pv_ab"`
	PV         float64   `json:"pv" db:"pv"`
	RunID      uuid.UUID `json:"run_id" db:"run_id"`
	ComputedAt time.Time `json:"computed_at" db:"computed_at"`
}

// CorrectionInputs joins everything the coefficient calculation needs
// for one product, defaults already applied.
type CorrectionInputs struct {
	ProductID     int64   `json:"product_id"`
	RPR           float64 `json:"rpr"`
	PSB           float64 `json:"psb"`
	PWO           float64 `json:"pwo"`
	SupplyPct     float64 `json:"supply_pct"`
	ShelfLifeDays float64 `json:"shelf_life_days"`
}

// CorrectionCoefficient is the bounded multiplier handed to the
// planning system, with the update directive it should execute.
type CorrectionCoefficient struct {
	ProductID  int64     `json:"product_id" db:"product_id"`
	K          float64   `json:"k" db:"k"`
	Directive  string    `json:"directive" db:"directive"`
	RunID      uuid.UUID `json:"run_id" db:"run_id"`
	ComputedAt time.Time `json:"computed_at" db:"computed_at"`
}

// MetricRun tracks one end-to-end computation over a window.
type MetricRun struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	WindowFrom        time.Time  `json:"window_from" db:"window_from"`
	WindowTo          time.Time  `json:"window_to" db:"window_to"`
	Status            RunStatus  `json:"status" db:"status"`
	TotalProducts     int        `json:"total_products" db:"total_products"`
	ProcessedProducts int        `json:"processed_products" db:"processed_products"`
	SkippedProducts   int        `json:"skipped_products" db:"skipped_products"`
	StartedAt         time.Time  `json:"started_at" db:"started_at"`
	CompletedAt       *time.Time `json:"completed_at" db:"completed_at"`
	ErrorMessage      *string    `json:"error_message,omitempty" db:"error_message"`
}

// RunSkip records a product excluded from one stage of a run and why,
// so partial coverage is visible instead of silent.
type RunSkip struct {
	RunID     uuid.UUID `json:"run_id" db:"run_id"`
	ProductID int64     `json:"product_id" db:"product_id"`
	Stage     string    `json:"stage" db:"stage"`
	Reason    string    `json:"reason" db:"reason"`
}

// MetricsFilter represents filters for metric queries.
type MetricsFilter struct {
	ProductIDs []int64  `json:"product_ids"`
	MinScore   *float64 `json:"min_score"`
	MaxScore   *float64 `json:"max_score"`
	RunID      string   `json:"run_id"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
}
