package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/velstore/stockpulse/internal/cache"
	"github.com/velstore/stockpulse/internal/config"
	"github.com/velstore/stockpulse/internal/domain"
	"github.com/velstore/stockpulse/internal/pipeline"
)

// ErrRunInProgress rejects a trigger while another run is executing.
// Runs upsert by product, two writers at once would interleave.
var ErrRunInProgress = errors.New("a metric run is already in progress")

type metricRunner interface {
	Run(ctx context.Context, window domain.Window, stages pipeline.Stages) (*pipeline.Summary, error)
}

type RunService struct {
	cfg     config.MetricsConfig
	runner  metricRunner
	runs    pipeline.RunStore
	cache   cache.MetricsCache
	running atomic.Bool
}

func NewRunService(cfg config.MetricsConfig, runner metricRunner, runs pipeline.RunStore, metricsCache cache.MetricsCache) *RunService {
	if metricsCache == nil {
		metricsCache = cache.NewNoopMetricsCache()
	}
	return &RunService{
		cfg:    cfg,
		runner: runner,
		runs:   runs,
		cache:  metricsCache,
	}
}

// Execute runs the requested stages synchronously and invalidates the
// metric caches afterwards, so readers see the new values immediately.
// A service built without a runner serves the read paths only.
func (s *RunService) Execute(ctx context.Context, window domain.Window, stages pipeline.Stages) (*pipeline.Summary, error) {
	if s.runner == nil {
		return nil, errors.New("run execution is not configured")
	}
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer s.running.Store(false)

	summary, err := s.runner.Run(ctx, window, stages)
	if err != nil {
		return nil, err
	}

	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("runs: cache invalidation failed")
	}

	return summary, nil
}

// Trigger starts a run in the background. The caller gets control back
// right away and follows progress through the run endpoints.
func (s *RunService) Trigger(window domain.Window, stages pipeline.Stages) error {
	if s.running.Load() {
		return ErrRunInProgress
	}

	go func() {
		// Detached from the request context: the trigger call has
		// already returned by the time the run executes.
		if _, err := s.Execute(context.Background(), window, stages); err != nil && !errors.Is(err, ErrRunInProgress) {
			log.Error().Err(err).Msg("runs: triggered run failed")
		}
	}()

	return nil
}

// ResolveWindow parses optional RFC3339 bounds. With both empty it
// falls back to the configured trailing window.
func (s *RunService) ResolveWindow(fromStr, toStr string) (domain.Window, error) {
	if fromStr == "" && toStr == "" {
		lag := time.Duration(s.cfg.WindowLagHours) * time.Hour
		return domain.DefaultWindow(time.Now().UTC(), s.cfg.WindowDays, lag), nil
	}
	if fromStr == "" || toStr == "" {
		return domain.Window{}, errors.New("window bounds must be set together")
	}

	from, err := time.Parse(time.RFC3339, fromStr)
	if err != nil {
		return domain.Window{}, errors.New("invalid from timestamp, want RFC3339")
	}
	to, err := time.Parse(time.RFC3339, toStr)
	if err != nil {
		return domain.Window{}, errors.New("invalid to timestamp, want RFC3339")
	}

	return domain.NewWindow(from, to)
}

// Get returns one run with its skip records, or nil when unknown.
func (s *RunService) Get(ctx context.Context, id uuid.UUID) (*domain.MetricRun, []domain.RunSkip, error) {
	run, err := s.runs.GetRun(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if run == nil {
		return nil, nil, nil
	}

	skips, err := s.runs.SkipsForRun(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return run, skips, nil
}

// List returns the most recent runs, newest first.
func (s *RunService) List(ctx context.Context, limit int) ([]domain.MetricRun, error) {
	return s.runs.ListRuns(ctx, limit)
}
