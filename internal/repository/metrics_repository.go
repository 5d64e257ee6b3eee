// internal/repository/metrics_repository.go
package repository

import (
	"context"

	"github.com/velstore/stockpulse/internal/domain"
)

// MetricsRepository persists computed metrics and serves the read API.
// Writes are keyed by product and overwrite the previous run's values,
// which keeps re-runs over identical inputs idempotent.
type MetricsRepository interface {
	UpsertScores(ctx context.Context, scores []domain.AvailabilityScore) error
	UpsertGapMetrics(ctx context.Context, metrics []domain.GapMetrics) error
	UpsertCoefficients(ctx context.Context, coefficients []domain.CorrectionCoefficient) error

	Scores(ctx context.Context, filter domain.MetricsFilter) (*domain.ScorePage, error)
	Gaps(ctx context.Context, filter domain.MetricsFilter) (*domain.GapPage, error)
	Coefficients(ctx context.Context, filter domain.MetricsFilter) (*domain.CoefficientPage, error)
	Overview(ctx context.Context) (*domain.MetricsOverview, error)

	// LatestScores returns the stored availability score per product, so
	// correction-only runs can reuse scores from an earlier scoring run.
	LatestScores(ctx context.Context) (map[int64]float64, error)
}
