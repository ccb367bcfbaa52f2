// Package batch solves many trades concurrently.
package batch

import (
	"context"
	"log"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"IVSolver/internal/impliedvol"
	"IVSolver/internal/model"
)

// Runner fans trades out over a bounded pool of goroutines.
type Runner struct {
	Engine        *impliedvol.Engine
	Workers       int // <= 0 means runtime.NumCPU()
	ProgressEvery int // <= 0 disables progress logging
	Metrics       *Metrics
}

// NewRunner creates a new Runner.
func NewRunner(engine *impliedvol.Engine, workers, progressEvery int, metrics *Metrics) *Runner {
	return &Runner{Engine: engine, Workers: workers, ProgressEvery: progressEvery, Metrics: metrics}
}

// Run solves every trade and returns the solutions in input order. It stops
// early only when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, trades []model.Trade) ([]model.Solution, model.BatchSummary, error) {
	summary := model.BatchSummary{StartedAt: time.Now()}
	solutions := make([]model.Solution, len(trades))

	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var done atomic.Int64
	for i := range trades {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t := &trades[i]
			if err := t.Validate(); err != nil {
				log.Printf("[WARN] %v", err)
			}
			solutions[i] = r.Engine.Solve(t)
			r.Metrics.Observe(&solutions[i])

			n := done.Add(1)
			if r.ProgressEvery > 0 && n%int64(r.ProgressEvery) == 0 {
				log.Printf("[INFO] solved %d/%d trades", n, len(trades))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, summary, err
	}
	if err := ctx.Err(); err != nil {
		return nil, summary, err
	}

	for i := range solutions {
		summary.Add(&solutions[i])
	}
	summary.Duration = time.Since(summary.StartedAt)
	r.Metrics.ObserveBatch(&summary)
	return solutions, summary, nil
}
