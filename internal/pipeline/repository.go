package pipeline

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/velstore/stockpulse/internal/domain"
)

// RunStore persists run lifecycle state and per-product skips.
type RunStore interface {
	CreateRun(ctx context.Context, run *domain.MetricRun) error
	UpdateRun(ctx context.Context, run *domain.MetricRun) error
	GetRun(ctx context.Context, id uuid.UUID) (*domain.MetricRun, error)
	ListRuns(ctx context.Context, limit int) ([]domain.MetricRun, error)
	AddSkips(ctx context.Context, skips []domain.RunSkip) error
	SkipsForRun(ctx context.Context, runID uuid.UUID) ([]domain.RunSkip, error)
}

// Repository handles database operations for run tracking
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new run repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateRun inserts a new metric run record
func (r *Repository) CreateRun(ctx context.Context, run *domain.MetricRun) error {
	query := `
		INSERT INTO metric_runs (
			id, window_from, window_to, status, total_products,
			processed_products, skipped_products, started_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(
		ctx, query,
		run.ID, run.WindowFrom, run.WindowTo, run.Status, run.TotalProducts,
		run.ProcessedProducts, run.SkippedProducts, run.StartedAt,
	)

	return err
}

// UpdateRun updates an existing metric run
func (r *Repository) UpdateRun(ctx context.Context, run *domain.MetricRun) error {
	query := `
		UPDATE metric_runs
		SET status = $1, total_products = $2, processed_products = $3,
		    skipped_products = $4, completed_at = $5, error_message = $6
		WHERE id = $7
	`

	_, err := r.db.ExecContext(
		ctx, query,
		run.Status, run.TotalProducts, run.ProcessedProducts,
		run.SkippedProducts, run.CompletedAt, run.ErrorMessage, run.ID,
	)

	return err
}

// GetRun retrieves a metric run by ID. Returns nil without error when
// no run with that ID exists.
func (r *Repository) GetRun(ctx context.Context, id uuid.UUID) (*domain.MetricRun, error) {
	query := `
		SELECT id, window_from, window_to, status, total_products,
		       processed_products, skipped_products, started_at, completed_at, error_message
		FROM metric_runs
		WHERE id = $1
	`

	run := &domain.MetricRun{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID, &run.WindowFrom, &run.WindowTo, &run.Status,
		&run.TotalProducts, &run.ProcessedProducts, &run.SkippedProducts,
		&run.StartedAt, &run.CompletedAt, &run.ErrorMessage,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return run, nil
}

// ListRuns retrieves the most recent metric runs, newest first
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]domain.MetricRun, error) {
	if limit < 1 {
		limit = 20
	}

	query := `
		SELECT id, window_from, window_to, status, total_products,
		       processed_products, skipped_products, started_at, completed_at, error_message
		FROM metric_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.MetricRun
	for rows.Next() {
		var run domain.MetricRun
		err := rows.Scan(
			&run.ID, &run.WindowFrom, &run.WindowTo, &run.Status,
			&run.TotalProducts, &run.ProcessedProducts, &run.SkippedProducts,
			&run.StartedAt, &run.CompletedAt, &run.ErrorMessage,
		)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// AddSkips records the products excluded from stages of a run
func (r *Repository) AddSkips(ctx context.Context, skips []domain.RunSkip) error {
	if len(skips) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_skips (run_id, product_id, stage, reason)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (run_id, product_id, stage) DO UPDATE SET reason = EXCLUDED.reason
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range skips {
		if _, err := stmt.ExecContext(ctx, s.RunID, s.ProductID, s.Stage, s.Reason); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SkipsForRun retrieves all skip records for a run
func (r *Repository) SkipsForRun(ctx context.Context, runID uuid.UUID) ([]domain.RunSkip, error) {
	query := `
		SELECT run_id, product_id, stage, reason
		FROM run_skips
		WHERE run_id = $1
		ORDER BY product_id, stage
	`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var skips []domain.RunSkip
	for rows.Next() {
		var s domain.RunSkip
		if err := rows.Scan(&s.RunID, &s.ProductID, &s.Stage, &s.Reason); err != nil {
			return nil, err
		}
		skips = append(skips, s)
	}

	return skips, rows.Err()
}
