package pipeline

import (
	"context"
	"sync"

	"github.com/velstore/stockpulse/internal/domain"
)

// runParallel fans products out to a bounded worker pool and collects
// the per-product results. Computation is pure per product, so workers
// share nothing but the channels.
func runParallel(ctx context.Context, workerCount int, products []domain.Product, compute func(domain.Product) ProductResult) ([]ProductResult, error) {
	if workerCount < 1 {
		workerCount = 1
	}

	jobChan := make(chan domain.Product, len(products))
	resultChan := make(chan ProductResult, len(products))
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobChan {
				resultChan <- compute(p)
			}
		}()
	}

	// Enqueue products, bailing out as a whole on cancellation. The job
	// channel is buffered to the full batch, so the send never blocks.
	for _, p := range products {
		if err := ctx.Err(); err != nil {
			close(jobChan)
			wg.Wait()
			return nil, err
		}
		jobChan <- p
	}
	close(jobChan)

	wg.Wait()
	close(resultChan)

	results := make([]ProductResult, 0, len(products))
	for r := range resultChan {
		results = append(results, r)
	}

	return results, nil
}
