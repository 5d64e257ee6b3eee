package pipeline

import (
	"time"

	"github.com/velstore/stockpulse/internal/domain"
)

// Stages selects which metric families a run computes. Corrections
// depend on availability scores: when both run together the fresh
// scores feed the coefficients directly, otherwise the stored scores
// from the last scoring run are used.
type Stages struct {
	Availability bool
	Gaps         bool
	Corrections  bool
}

// AllStages enables the full computation.
func AllStages() Stages {
	return Stages{Availability: true, Gaps: true, Corrections: true}
}

// Any reports whether at least one stage is enabled.
func (s Stages) Any() bool {
	return s.Availability || s.Gaps || s.Corrections
}

// Config holds configuration for the run pipeline.
type Config struct {
	WorkerCount int           // Number of concurrent product workers
	ProbeBucket time.Duration // Probe sampling cadence
	Export      bool          // Upload run artifacts after a successful run
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		WorkerCount: 4,
		ProbeBucket: 15 * time.Minute,
		Export:      false,
	}
}

// ProductResult is the outcome of computing one product. Unset metric
// pointers mean the stage was disabled or the product was skipped.
type ProductResult struct {
	ProductID   int64
	Score       *domain.AvailabilityScore
	Gap         *domain.GapMetrics
	Coefficient *domain.CorrectionCoefficient
	Skips       []domain.RunSkip
}

// Summary reports what a finished run produced.
type Summary struct {
	Run          *domain.MetricRun
	Scores       int
	Gaps         int
	Coefficients int
	Skipped      int
	Duration     time.Duration
}
