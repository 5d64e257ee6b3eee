package pipeline

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strconv"

	"github.com/velstore/stockpulse/internal/domain"
)

// runOutput is the reduced, persistable form of one batch of worker
// results.
type runOutput struct {
	Scores       []domain.AvailabilityScore
	Gaps         []domain.GapMetrics
	Coefficients []domain.CorrectionCoefficient
	Skips        []domain.RunSkip
}

// collect flattens worker results into slices ordered by product, so
// persistence and exports come out deterministic regardless of worker
// scheduling.
func collect(results []ProductResult) runOutput {
	sort.Slice(results, func(i, j int) bool {
		return results[i].ProductID < results[j].ProductID
	})

	var out runOutput
	for _, r := range results {
		if r.Score != nil {
			out.Scores = append(out.Scores, *r.Score)
		}
		if r.Gap != nil {
			out.Gaps = append(out.Gaps, *r.Gap)
		}
		if r.Coefficient != nil {
			out.Coefficients = append(out.Coefficients, *r.Coefficient)
		}
		out.Skips = append(out.Skips, r.Skips...)
	}
	return out
}

// coefficientsCSV renders the coefficients of a run as the CSV artifact
// uploaded to object storage.
func coefficientsCSV(coefficients []domain.CorrectionCoefficient) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"product_id", "coefficient", "directive"}); err != nil {
		return nil, err
	}

	for _, c := range coefficients {
		record := []string{
			strconv.FormatInt(c.ProductID, 10),
			strconv.FormatFloat(c.K, 'g', -1, 64),
			c.Directive,
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
