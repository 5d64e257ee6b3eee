package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/velstore/stockpulse/internal/config"
	"github.com/velstore/stockpulse/internal/domain"
	"github.com/velstore/stockpulse/internal/pipeline"
)

type stubRunner struct {
	summary *pipeline.Summary
	err     error
	calls   int
}

func (r *stubRunner) Run(context.Context, domain.Window, pipeline.Stages) (*pipeline.Summary, error) {
	r.calls++
	return r.summary, r.err
}

type blockingRunner struct {
	started chan struct{}
	release chan struct{}
}

func (r *blockingRunner) Run(context.Context, domain.Window, pipeline.Stages) (*pipeline.Summary, error) {
	r.started <- struct{}{}
	<-r.release
	return &pipeline.Summary{}, nil
}

type stubRunStore struct {
	run   *domain.MetricRun
	runs  []domain.MetricRun
	skips []domain.RunSkip
}

func (s *stubRunStore) CreateRun(context.Context, *domain.MetricRun) error { return nil }
func (s *stubRunStore) UpdateRun(context.Context, *domain.MetricRun) error { return nil }

func (s *stubRunStore) GetRun(context.Context, uuid.UUID) (*domain.MetricRun, error) {
	return s.run, nil
}

func (s *stubRunStore) ListRuns(context.Context, int) ([]domain.MetricRun, error) {
	return s.runs, nil
}

func (s *stubRunStore) AddSkips(context.Context, []domain.RunSkip) error { return nil }

func (s *stubRunStore) SkipsForRun(context.Context, uuid.UUID) ([]domain.RunSkip, error) {
	return s.skips, nil
}

func mustWindow(t *testing.T) domain.Window {
	t.Helper()
	window, err := domain.NewWindow(
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatal(err)
	}
	return window
}

func TestExecuteInvalidatesCaches(t *testing.T) {
	runner := &stubRunner{summary: &pipeline.Summary{}}
	spy := &spyMetricsCache{}

	svc := NewRunService(config.MetricsConfig{}, runner, &stubRunStore{}, spy)

	if _, err := svc.Execute(context.Background(), mustWindow(t), pipeline.AllStages()); err != nil {
		t.Fatal(err)
	}
	if spy.invalidated != 1 {
		t.Errorf("invalidations = %d, want 1", spy.invalidated)
	}
	if runner.calls != 1 {
		t.Errorf("runner calls = %d", runner.calls)
	}
}

func TestExecuteFailedRunKeepsCache(t *testing.T) {
	runner := &stubRunner{err: errors.New("boom")}
	spy := &spyMetricsCache{}

	svc := NewRunService(config.MetricsConfig{}, runner, &stubRunStore{}, spy)

	if _, err := svc.Execute(context.Background(), mustWindow(t), pipeline.AllStages()); err == nil {
		t.Fatal("expected error")
	}
	if spy.invalidated != 0 {
		t.Errorf("invalidations = %d, want 0 for a failed run", spy.invalidated)
	}
}

func TestExecuteRejectsConcurrentRuns(t *testing.T) {
	runner := &blockingRunner{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := NewRunService(config.MetricsConfig{}, runner, &stubRunStore{}, nil)

	window := mustWindow(t)
	done := make(chan error, 1)
	go func() {
		_, err := svc.Execute(context.Background(), window, pipeline.AllStages())
		done <- err
	}()

	<-runner.started
	if _, err := svc.Execute(context.Background(), window, pipeline.AllStages()); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("err = %v, want ErrRunInProgress", err)
	}

	close(runner.release)
	if err := <-done; err != nil {
		t.Fatalf("first run: %v", err)
	}
}

func TestResolveWindowDefault(t *testing.T) {
	svc := NewRunService(config.MetricsConfig{WindowDays: 7, WindowLagHours: 3}, &stubRunner{}, &stubRunStore{}, nil)

	window, err := svc.ResolveWindow("", "")
	if err != nil {
		t.Fatal(err)
	}

	if got := window.To.Sub(window.From); got != 7*24*time.Hour {
		t.Errorf("window length = %v, want 168h", got)
	}

	wantTo := time.Now().UTC().Add(-3 * time.Hour)
	if diff := wantTo.Sub(window.To); diff < -time.Minute || diff > time.Minute {
		t.Errorf("window.To = %v, want about %v", window.To, wantTo)
	}
}

func TestResolveWindowExplicit(t *testing.T) {
	svc := NewRunService(config.MetricsConfig{}, &stubRunner{}, &stubRunStore{}, nil)

	window, err := svc.ResolveWindow("2024-03-01T00:00:00Z", "2024-03-08T00:00:00Z")
	if err != nil {
		t.Fatal(err)
	}

	if !window.From.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("window.From = %v", window.From)
	}
	if !window.To.Equal(time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("window.To = %v", window.To)
	}
}

func TestResolveWindowPartialBounds(t *testing.T) {
	svc := NewRunService(config.MetricsConfig{}, &stubRunner{}, &stubRunStore{}, nil)

	if _, err := svc.ResolveWindow("2024-03-01T00:00:00Z", ""); err == nil {
		t.Error("expected error for one-sided bounds")
	}
	if _, err := svc.ResolveWindow("", "2024-03-08T00:00:00Z"); err == nil {
		t.Error("expected error for one-sided bounds")
	}
}

func TestResolveWindowBackwards(t *testing.T) {
	svc := NewRunService(config.MetricsConfig{}, &stubRunner{}, &stubRunStore{}, nil)

	_, err := svc.ResolveWindow("2024-03-08T00:00:00Z", "2024-03-01T00:00:00Z")
	if !errors.Is(err, domain.ErrInvalidWindow) {
		t.Errorf("err = %v, want ErrInvalidWindow", err)
	}
}

func TestGetUnknownRun(t *testing.T) {
	svc := NewRunService(config.MetricsConfig{}, &stubRunner{}, &stubRunStore{}, nil)

	run, skips, err := svc.Get(context.Background(), uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if run != nil || skips != nil {
		t.Errorf("got %+v %+v for an unknown run", run, skips)
	}
}

func TestGetRunWithSkips(t *testing.T) {
	id := uuid.New()
	store := &stubRunStore{
		run: &domain.MetricRun{ID: id, Status: domain.RunStatusCompleted},
		skips: []domain.RunSkip{
			{RunID: id, ProductID: 4, Stage: "corrections", Reason: "no availability score"},
		},
	}
	svc := NewRunService(config.MetricsConfig{}, &stubRunner{}, store, nil)

	run, skips, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if run == nil || run.ID != id {
		t.Fatalf("run = %+v", run)
	}
	if len(skips) != 1 || skips[0].ProductID != 4 {
		t.Errorf("skips = %+v", skips)
	}
}
