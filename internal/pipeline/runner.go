package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/velstore/stockpulse/internal/domain"
	"github.com/velstore/stockpulse/internal/repository"
	"github.com/velstore/stockpulse/internal/storage"
	"github.com/velstore/stockpulse/pkg/logger"
)

// Runner coordinates one metric run end to end: snapshot load, the
// per-product worker pool, persistence and the artifact export.
type Runner struct {
	cfg       Config
	snapshots repository.SnapshotRepository
	metrics   repository.MetricsRepository
	runs      RunStore
	artifacts storage.ObjectStorage
	log       zerolog.Logger
}

// NewRunner creates a runner. A nil artifacts store disables the
// coefficient export.
func NewRunner(cfg Config, snapshots repository.SnapshotRepository, metrics repository.MetricsRepository, runs RunStore, artifacts storage.ObjectStorage) *Runner {
	return &Runner{
		cfg:       cfg,
		snapshots: snapshots,
		metrics:   metrics,
		runs:      runs,
		artifacts: artifacts,
		log:       logger.Component("pipeline"),
	}
}

// Run executes the requested stages over the window and returns the run
// summary. Cancellation fails the run as a whole; partial results are
// discarded, never persisted.
func (r *Runner) Run(ctx context.Context, window domain.Window, stages Stages) (*Summary, error) {
	if !stages.Any() {
		return nil, fmt.Errorf("no stages requested")
	}

	started := time.Now().UTC()
	run := &domain.MetricRun{
		ID:         uuid.New(),
		WindowFrom: window.From,
		WindowTo:   window.To,
		Status:     domain.RunStatusPending,
		StartedAt:  started,
	}
	if err := r.runs.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	r.log.Info().
		Str("run_id", run.ID.String()).
		Time("window_from", window.From).
		Time("window_to", window.To).
		Bool("availability", stages.Availability).
		Bool("gaps", stages.Gaps).
		Bool("corrections", stages.Corrections).
		Msg("metric run started")

	snap, err := LoadSnapshot(ctx, r.snapshots, window)
	if err != nil {
		return nil, r.fail(run, fmt.Errorf("failed to load snapshot: %w", err))
	}

	// A correction-only run has no in-run scores to consume, so it
	// reuses whatever the last scoring run stored.
	if stages.Corrections && !stages.Availability {
		stored, err := r.metrics.LatestScores(ctx)
		if err != nil {
			return nil, r.fail(run, fmt.Errorf("failed to load stored scores: %w", err))
		}
		snap.StoredScores = stored
	}

	run.Status = domain.RunStatusProcessing
	run.TotalProducts = len(snap.Products)
	if err := r.runs.UpdateRun(ctx, run); err != nil {
		return nil, r.fail(run, fmt.Errorf("failed to mark run processing: %w", err))
	}

	comp := newComputation(stages, snap, r.cfg, run.ID, time.Now().UTC())
	results, err := runParallel(ctx, r.cfg.WorkerCount, snap.Products, comp.product)
	if err != nil {
		return nil, r.fail(run, err)
	}

	out := collect(results)
	if err := r.persist(ctx, stages, out); err != nil {
		return nil, r.fail(run, err)
	}

	r.export(ctx, run.ID, out.Coefficients)

	skipped := make(map[int64]struct{}, len(out.Skips))
	for _, s := range out.Skips {
		skipped[s.ProductID] = struct{}{}
	}

	completed := time.Now().UTC()
	run.Status = domain.RunStatusCompleted
	run.ProcessedProducts = len(results)
	run.SkippedProducts = len(skipped)
	run.CompletedAt = &completed
	if err := r.runs.UpdateRun(ctx, run); err != nil {
		return nil, r.fail(run, fmt.Errorf("failed to mark run completed: %w", err))
	}

	duration := completed.Sub(started)
	r.log.Info().
		Str("run_id", run.ID.String()).
		Int("products", run.TotalProducts).
		Int("scores", len(out.Scores)).
		Int("gaps", len(out.Gaps)).
		Int("coefficients", len(out.Coefficients)).
		Int("skipped", run.SkippedProducts).
		Dur("duration", duration).
		Msg("metric run completed")

	return &Summary{
		Run:          run,
		Scores:       len(out.Scores),
		Gaps:         len(out.Gaps),
		Coefficients: len(out.Coefficients),
		Skipped:      run.SkippedProducts,
		Duration:     duration,
	}, nil
}

// persist stores the computed metrics and skip records. Stage-disabled
// outputs are always empty, the stage checks just make that explicit.
func (r *Runner) persist(ctx context.Context, stages Stages, out runOutput) error {
	if stages.Availability && len(out.Scores) > 0 {
		if err := r.metrics.UpsertScores(ctx, out.Scores); err != nil {
			return fmt.Errorf("failed to store scores: %w", err)
		}
	}
	if stages.Gaps && len(out.Gaps) > 0 {
		if err := r.metrics.UpsertGapMetrics(ctx, out.Gaps); err != nil {
			return fmt.Errorf("failed to store gap metrics: %w", err)
		}
	}
	if stages.Corrections && len(out.Coefficients) > 0 {
		if err := r.metrics.UpsertCoefficients(ctx, out.Coefficients); err != nil {
			return fmt.Errorf("failed to store coefficients: %w", err)
		}
	}
	if err := r.runs.AddSkips(ctx, out.Skips); err != nil {
		return fmt.Errorf("failed to store skips: %w", err)
	}

	return nil
}

// export uploads the coefficient CSV for the run. Export problems are
// logged and swallowed: the metrics are already persisted and a missing
// artifact must not fail the run.
func (r *Runner) export(ctx context.Context, runID uuid.UUID, coefficients []domain.CorrectionCoefficient) {
	if !r.cfg.Export || r.artifacts == nil || len(coefficients) == 0 {
		return
	}

	data, err := coefficientsCSV(coefficients)
	if err != nil {
		r.log.Warn().Err(err).Str("run_id", runID.String()).Msg("failed to render coefficient export")
		return
	}

	object := fmt.Sprintf("runs/%s/coefficients.csv", runID)
	if err := r.artifacts.UploadObject(ctx, object, data, "text/csv"); err != nil {
		r.log.Warn().Err(err).Str("run_id", runID.String()).Msg("failed to upload coefficient export")
		return
	}

	r.log.Info().
		Str("run_id", runID.String()).
		Str("object", object).
		Int("products", len(coefficients)).
		Msg("coefficient export uploaded")
}

// fail marks the run failed and returns the cause. The status update
// runs on a fresh short-lived context: the run context may already be
// canceled and the record must not stay stuck in processing.
func (r *Runner) fail(run *domain.MetricRun, cause error) error {
	now := time.Now().UTC()
	msg := cause.Error()
	run.Status = domain.RunStatusFailed
	run.CompletedAt = &now
	run.ErrorMessage = &msg

	updateCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.runs.UpdateRun(updateCtx, run); err != nil {
		r.log.Error().Err(err).Str("run_id", run.ID.String()).Msg("failed to record run failure")
	}

	r.log.Error().Err(cause).Str("run_id", run.ID.String()).Msg("metric run failed")
	return cause
}
