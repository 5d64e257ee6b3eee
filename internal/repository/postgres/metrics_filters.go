package postgres

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/velstore/stockpulse/internal/domain"
)

// buildMetricsFilterClause constructs SQL filter clauses for metric
// queries. valueColumn is the column the min/max bounds apply to, which
// differs per table (score, pv, k).
func buildMetricsFilterClause(filter *domain.MetricsFilter, valueColumn string, startIndex int) (string, []interface{}) {
	if filter == nil {
		return "", nil
	}

	var (
		clauses []string
		args    []interface{}
	)
	idx := startIndex

	if len(filter.ProductIDs) > 0 {
		clauses = append(clauses, fmt.Sprintf("product_id = ANY($%d::bigint[])", idx))
		args = append(args, pq.Array(filter.ProductIDs))
		idx++
	}

	if filter.MinScore != nil {
		clauses = append(clauses, fmt.Sprintf("%s >= $%d", valueColumn, idx))
		args = append(args, *filter.MinScore)
		idx++
	}

	if filter.MaxScore != nil {
		clauses = append(clauses, fmt.Sprintf("%s <= $%d", valueColumn, idx))
		args = append(args, *filter.MaxScore)
		idx++
	}

	if filter.RunID != "" {
		clauses = append(clauses, fmt.Sprintf("run_id = $%d", idx))
		args = append(args, filter.RunID)
		idx++
	}

	if len(clauses) == 0 {
		return "", nil
	}

	return " AND " + strings.Join(clauses, " AND "), args
}
