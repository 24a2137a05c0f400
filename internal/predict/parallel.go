package predict

import (
	"context"
	"runtime"
	"sync"

	"github.com/inodb/vibe-snv/internal/gene"
)

// WorkItem is one sample queued for prediction.
type WorkItem struct {
	Seq  int
	Path string
}

// WorkResult holds the prediction output for a single sample.
type WorkResult struct {
	Seq    int
	Path   string
	Result *Result
	Err    error
}

// ParallelPredict predicts work items using a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence order).
// Use OrderedCollect to consume results in sequence-number order.
// If workers is 0, runtime.NumCPU() is used.
func (p *Predictor) ParallelPredict(ctx context.Context, g gene.Gene, items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				var (
					res *Result
					err = ctx.Err()
				)
				if err == nil {
					res, err = p.Predict(ctx, g, item.Path)
				}
				results <- WorkResult{Seq: item.Seq, Path: item.Path, Result: res, Err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order.
// Out-of-order results are buffered until the next expected sequence number
// arrives. Blocks until the results channel is closed.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}

// PredictBatch predicts every sample path on a worker pool and calls fn with
// the results in input order. Per-sample failures are reported through
// WorkResult.Err; an error returned by fn stops the batch.
func (p *Predictor) PredictBatch(ctx context.Context, g gene.Gene, paths []string, workers int, fn func(WorkResult) error) error {
	if _, err := p.registry.Lookup(g); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	items := make(chan WorkItem)
	go func() {
		defer close(items)
		for i, path := range paths {
			select {
			case items <- WorkItem{Seq: i, Path: path}:
			case <-ctx.Done():
				return
			}
		}
	}()

	err := OrderedCollect(p.ParallelPredict(ctx, g, items, workers), func(r WorkResult) error {
		if err := fn(r); err != nil {
			cancel()
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	return ctx.Err()
}
