package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/velstore/stockpulse/internal/domain"
)

func TestCollectOrdersAndSplits(t *testing.T) {
	runID := uuid.New()
	results := []ProductResult{
		{ProductID: 3, Score: &domain.AvailabilityScore{ProductID: 3, Score: 90}},
		{
			ProductID:   1,
			Score:       &domain.AvailabilityScore{ProductID: 1, Score: 70},
			Coefficient: &domain.CorrectionCoefficient{ProductID: 1, K: 1.5},
		},
		{ProductID: 2, Skips: []domain.RunSkip{
			{RunID: runID, ProductID: 2, Stage: "corrections", Reason: "no weeks-on-sale signal"},
		}},
	}

	out := collect(results)

	if len(out.Scores) != 2 || out.Scores[0].ProductID != 1 || out.Scores[1].ProductID != 3 {
		t.Fatalf("scores = %+v", out.Scores)
	}
	if len(out.Coefficients) != 1 || out.Coefficients[0].ProductID != 1 {
		t.Fatalf("coefficients = %+v", out.Coefficients)
	}
	if len(out.Skips) != 1 || out.Skips[0].ProductID != 2 {
		t.Fatalf("skips = %+v", out.Skips)
	}
	if len(out.Gaps) != 0 {
		t.Fatalf("gaps = %+v", out.Gaps)
	}
}

func TestCoefficientsCSV(t *testing.T) {
	coefficients := []domain.CorrectionCoefficient{
		{ProductID: 7, K: 1.25, Directive: "set correction coefficient of product 7 to 1.25"},
		{ProductID: 9, K: 2, Directive: "set correction coefficient of product 9 to 2"},
	}

	data, err := coefficientsCSV(coefficients)
	if err != nil {
		t.Fatal(err)
	}

	want := "product_id,coefficient,directive\n" +
		"7,1.25,set correction coefficient of product 7 to 1.25\n" +
		"9,2,set correction coefficient of product 9 to 2\n"
	if string(data) != want {
		t.Errorf("csv:\n%swant:\n%s", data, want)
	}
}

func TestRunParallelComputesAll(t *testing.T) {
	products := make([]domain.Product, 50)
	for i := range products {
		products[i] = domain.Product{ID: int64(i + 1)}
	}

	results, err := runParallel(context.Background(), 8, products, func(p domain.Product) ProductResult {
		return ProductResult{ProductID: p.ID}
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(products) {
		t.Fatalf("got %d results, want %d", len(results), len(products))
	}

	seen := make(map[int64]bool)
	for _, r := range results {
		seen[r.ProductID] = true
	}
	for i := int64(1); i <= int64(len(products)); i++ {
		if !seen[i] {
			t.Errorf("missing result for product %d", i)
		}
	}
}

func TestRunParallelCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := runParallel(ctx, 2, []domain.Product{{ID: 1}}, func(p domain.Product) ProductResult {
		return ProductResult{ProductID: p.ID}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if results != nil {
		t.Errorf("results = %v, want none", results)
	}
}

func TestRunParallelClampsWorkerCount(t *testing.T) {
	results, err := runParallel(context.Background(), 0, []domain.Product{{ID: 7}}, func(p domain.Product) ProductResult {
		return ProductResult{ProductID: p.ID}
	})
	if err != nil || len(results) != 1 {
		t.Fatalf("results = %v, err = %v", results, err)
	}
}
