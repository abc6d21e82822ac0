package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// RunBatch runs every item through Run on a bounded pool. Each worker writes
// only its own slot, so result order matches the request. A failing pair never
// stops its siblings; pairs not yet started when ctx is done are reported as
// cancelled.
func (r *Runner) RunBatch(ctx context.Context, req BatchRequest) BatchResult {
	results := make([]Result, len(req.Items))

	workers := r.cfg.WorkerCount
	if workers < 1 {
		workers = 1
	}

	log.Info().Int("items", len(req.Items)).Int("workers", workers).Int("horizon", req.Horizon).Msg("starting batch forecast")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, item := range req.Items {
		g.Go(func() error {
			run := Request{
				ItemID:           item.ItemID,
				StoreID:          item.StoreID,
				Horizon:          req.Horizon,
				CurrentInventory: item.CurrentInventory,
				Params:           req.Params,
			}
			if err := gctx.Err(); err != nil {
				results[i] = failed(Result{RunID: uuid.NewString(), ItemID: item.ItemID, StoreID: item.StoreID, CurrentStock: item.CurrentInventory}, err)
				return nil
			}
			results[i] = r.Run(gctx, run)
			return nil
		})
	}
	_ = g.Wait()

	out := NewBatchResult(results)
	log.Info().Int("total", out.Total).Int("successful", out.Successful).Int("failed", out.Failed).Msg("batch forecast completed")
	return out
}

// NewBatchResult tallies results, keeping their order.
func NewBatchResult(results []Result) BatchResult {
	out := BatchResult{Total: len(results), Results: results}
	for _, res := range results {
		if res.Success {
			out.Successful++
		} else {
			out.Failed++
		}
	}
	return out
}

// Rejected is the failure result of a batch item refused before it reached
// the runner, such as one with an unreadable stock level.
func Rejected(itemID, storeID string, err error) Result {
	return failed(Result{
		RunID:       uuid.NewString(),
		ItemID:      strings.TrimSpace(itemID),
		StoreID:     strings.TrimSpace(storeID),
		GeneratedAt: time.Now().UTC(),
	}, err)
}
