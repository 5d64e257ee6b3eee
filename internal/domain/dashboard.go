package domain

// ScoreBucket is one bar of the availability-score distribution.
type ScoreBucket struct {
	Label string `json:"label" db:"label"`
	Count int    `json:"count" db:"count"`
}

// ProductScoreRow pairs a score with product identity for ranking views.
type ProductScoreRow struct {
	ProductID   int64   `json:"product_id" db:"product_id"`
	ProductCode string  `json:"product_code" db:"product_code"`
	ProductName string  `json:"product_name" db:"product_name"`
	Score       float64 `json:"score" db:"score"`
}

// MetricsOverview aggregates the headline numbers for the latest
// completed run: score shape, correction pressure, coverage.
type MetricsOverview struct {
	Run               *MetricRun        `json:"run"`
	AverageScore      float64           `json:"average_score"`
	ScoreDistribution []ScoreBucket     `json:"score_distribution"`
	WorstProducts     []ProductScoreRow `json:"worst_products"`
	AdjustedProducts  int               `json:"adjusted_products"`
	AverageK          float64           `json:"average_k"`
}

// ScorePage is the paginated response for availability-score queries.
type ScorePage struct {
	Items      []AvailabilityScore `json:"items"`
	Total      int                 `json:"total"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	TotalPages int                 `json:"total_pages"`
}

// GapPage is the paginated response for gap-metric queries.
type GapPage struct {
	Items      []GapMetrics `json:"items"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalPages int          `json:"total_pages"`
}

// CoefficientPage is the paginated response for coefficient queries.
type CoefficientPage struct {
	Items      []CorrectionCoefficient `json:"items"`
	Total      int                     `json:"total"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"page_size"`
	TotalPages int                     `json:"total_pages"`
}

// DirectiveRow is the planning-system view of one coefficient: just the
// instruction to execute and the value behind it.
type DirectiveRow struct {
	ProductID int64   `json:"product_id"`
	K         float64 `json:"k"`
	Directive string  `json:"directive"`
}

// DirectivePage is the paginated response for directive queries.
type DirectivePage struct {
	Items      []DirectiveRow `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}
