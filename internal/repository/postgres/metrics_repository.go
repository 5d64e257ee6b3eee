// internal/repository/postgres/metrics_repository.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/velstore/stockpulse/internal/domain"
	"github.com/velstore/stockpulse/internal/repository"
)

type metricsRepository struct {
	db *DB
}

func NewMetricsRepository(db *DB) repository.MetricsRepository {
	return &metricsRepository{db: db}
}

func (r *metricsRepository) UpsertScores(ctx context.Context, scores []domain.AvailabilityScore) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO availability_scores (product_id, score, run_id, computed_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (product_id)
			DO UPDATE SET
				score = EXCLUDED.score,
				run_id = EXCLUDED.run_id,
				computed_at = EXCLUDED.computed_at
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare score upsert: %w", err)
		}
		defer stmt.Close()

		for _, s := range scores {
			if _, err := stmt.ExecContext(ctx, s.ProductID, s.Score, s.RunID, s.ComputedAt); err != nil {
				return fmt.Errorf("failed to upsert score for product %d: %w", s.ProductID, err)
			}
		}

		return nil
	})
}

func (r *metricsRepository) UpsertGapMetrics(ctx context.Context, metrics []domain.GapMetrics) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO gap_metrics (product_id, pv_ab, pv, run_id, computed_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (product_id)
			DO UPDATE SET
				pv_ab = EXCLUDED.pv_ab,
				pv = EXCLUDED.pv,
				run_id = EXCLUDED.run_id,
				computed_at = EXCLUDED.computed_at
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare gap upsert: %w", err)
		}
		defer stmt.Close()

		for _, m := range metrics {
			if _, err := stmt.ExecContext(ctx, m.ProductID, m.PVAB, m.PV, m.RunID, m.ComputedAt); err != nil {
				return fmt.Errorf("failed to upsert gap metrics for product %d: %w", m.ProductID, err)
			}
		}

		return nil
	})
}

func (r *metricsRepository) UpsertCoefficients(ctx context.Context, coefficients []domain.CorrectionCoefficient) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO correction_coefficients (product_id, k, directive, run_id, computed_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (product_id)
			DO UPDATE SET
				k = EXCLUDED.k,
				directive = EXCLUDED.directive,
				run_id = EXCLUDED.run_id,
				computed_at = EXCLUDED.computed_at
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare coefficient upsert: %w", err)
		}
		defer stmt.Close()

		for _, c := range coefficients {
			if _, err := stmt.ExecContext(ctx, c.ProductID, c.K, c.Directive, c.RunID, c.ComputedAt); err != nil {
				return fmt.Errorf("failed to upsert coefficient for product %d: %w", c.ProductID, err)
			}
		}

		return nil
	})
}

func (r *metricsRepository) Scores(ctx context.Context, filter domain.MetricsFilter) (*domain.ScorePage, error) {
	clause, args := buildMetricsFilterClause(&filter, "score", 1)

	countQuery := `SELECT COUNT(*) FROM availability_scores WHERE 1=1` + clause

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, fmt.Errorf("error counting scores: %w", err)
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf(`
		SELECT product_id, score, run_id, computed_at
		FROM availability_scores
		WHERE 1=1%s
		ORDER BY product_id
		LIMIT $%d OFFSET $%d
	`, clause, len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	items := []domain.AvailabilityScore{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("error getting scores: %w", err)
	}

	return &domain.ScorePage{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func (r *metricsRepository) Gaps(ctx context.Context, filter domain.MetricsFilter) (*domain.GapPage, error) {
	clause, args := buildMetricsFilterClause(&filter, "pv", 1)

	countQuery := `SELECT COUNT(*) FROM gap_metrics WHERE 1=1` + clause

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, fmt.Errorf("error counting gap metrics: %w", err)
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf(`
		SELECT product_id, pv_ab, pv, run_id, computed_at
		FROM gap_metrics
		WHERE 1=1%s
		ORDER BY product_id
		LIMIT $%d OFFSET $%d
	`, clause, len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	items := []domain.GapMetrics{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("error getting gap metrics: %w", err)
	}

	return &domain.GapPage{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func (r *metricsRepository) Coefficients(ctx context.Context, filter domain.MetricsFilter) (*domain.CoefficientPage, error) {
	clause, args := buildMetricsFilterClause(&filter, "k", 1)

	countQuery := `SELECT COUNT(*) FROM correction_coefficients WHERE 1=1` + clause

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, fmt.Errorf("error counting coefficients: %w", err)
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf(`
		SELECT product_id, k, directive, run_id, computed_at
		FROM correction_coefficients
		WHERE 1=1%s
		ORDER BY product_id
		LIMIT $%d OFFSET $%d
	`, clause, len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	items := []domain.CorrectionCoefficient{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("error getting coefficients: %w", err)
	}

	return &domain.CoefficientPage{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func (r *metricsRepository) Overview(ctx context.Context) (*domain.MetricsOverview, error) {
	overview := &domain.MetricsOverview{}

	var run domain.MetricRun
	runQuery := `
		SELECT id, window_from, window_to, status, total_products,
			processed_products, skipped_products, started_at, completed_at, error_message
		FROM metric_runs
		WHERE status = 'completed'
		ORDER BY started_at DESC
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &run, runQuery)
	switch {
	case err == nil:
		overview.Run = &run
	case errors.Is(err, sql.ErrNoRows):
		// No completed run yet, the rest of the overview stays empty.
		return overview, nil
	default:
		return nil, fmt.Errorf("error getting latest run: %w", err)
	}

	avgQuery := `SELECT COALESCE(AVG(score), 0) FROM availability_scores`
	if err := r.db.GetContext(ctx, &overview.AverageScore, avgQuery); err != nil {
		return nil, fmt.Errorf("error getting average score: %w", err)
	}

	distQuery := `
		SELECT
			CASE
				WHEN score < 25 THEN '0-25'
				WHEN score < 50 THEN '25-50'
				WHEN score < 75 THEN '50-75'
				WHEN score < 90 THEN '75-90'
				ELSE '90-100'
			END AS label,
			COUNT(*) AS count
		FROM availability_scores
		GROUP BY 1
		ORDER BY 1
	`
	if err := r.db.SelectContext(ctx, &overview.ScoreDistribution, distQuery); err != nil {
		return nil, fmt.Errorf("error getting score distribution: %w", err)
	}

	worstQuery := `
		SELECT s.product_id, p.code AS product_code, p.name AS product_name, s.score
		FROM availability_scores s
		JOIN products p ON p.id = s.product_id
		ORDER BY s.score ASC, s.product_id
		LIMIT 10
	`
	if err := r.db.SelectContext(ctx, &overview.WorstProducts, worstQuery); err != nil {
		return nil, fmt.Errorf("error getting worst products: %w", err)
	}

	pressureQuery := `
		SELECT
			COUNT(*) FILTER (WHERE k <> 1) AS adjusted,
			COALESCE(AVG(k), 0) AS avg_k
		FROM correction_coefficients
	`
	var pressure struct {
		Adjusted int     `db:"adjusted"`
		AvgK     float64 `db:"avg_k"`
	}
	if err := r.db.GetContext(ctx, &pressure, pressureQuery); err != nil {
		return nil, fmt.Errorf("error getting correction pressure: %w", err)
	}
	overview.AdjustedProducts = pressure.Adjusted
	overview.AverageK = pressure.AvgK

	return overview, nil
}

func (r *metricsRepository) LatestScores(ctx context.Context) (map[int64]float64, error) {
	query := `SELECT product_id, score FROM availability_scores`

	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error getting stored scores: %w", err)
	}
	defer rows.Close()

	scores := make(map[int64]float64)
	for rows.Next() {
		var productID int64
		var score float64
		if err := rows.Scan(&productID, &score); err != nil {
			return nil, fmt.Errorf("error scanning stored score: %w", err)
		}
		scores[productID] = score
	}

	return scores, rows.Err()
}

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}

	return page, pageSize
}

func totalPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}

	return (total + pageSize - 1) / pageSize
}
