package scheduler

import (
	"context"
	"time"

	"leadscore_backend/platform/logger"
)

const defaultRescoreInterval = 6 * time.Hour

type batchQueue interface {
	enqueueScoreBatch(ctx context.Context, payload ScoreBatchPayload) (string, error)
	enqueueOffMarketBatch(ctx context.Context, payload OffMarketBatchPayload) (string, error)
}

// RescoreEnqueuer periodically queues a full scoring run followed by an
// off-market run.
type RescoreEnqueuer struct {
	queue    batchQueue
	log      *logger.Logger
	interval time.Duration
}

func NewRescoreEnqueuer(client *Client, log *logger.Logger, interval time.Duration) *RescoreEnqueuer {
	return newRescoreEnqueuer(client, log, interval)
}

func newRescoreEnqueuer(queue batchQueue, log *logger.Logger, interval time.Duration) *RescoreEnqueuer {
	if interval <= 0 {
		interval = defaultRescoreInterval
	}
	return &RescoreEnqueuer{queue: queue, log: log, interval: interval}
}

func (r *RescoreEnqueuer) Run(ctx context.Context) {
	if r == nil || r.queue == nil {
		return
	}

	r.enqueue(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.enqueue(ctx)
		}
	}
}

func (r *RescoreEnqueuer) enqueue(ctx context.Context) {
	scoreID, err := r.queue.enqueueScoreBatch(ctx, ScoreBatchPayload{Trigger: TriggerPeriodic})
	if err != nil {
		r.log.Warn("periodic score batch enqueue failed", "error", err)
		return
	}

	offMarketID, err := r.queue.enqueueOffMarketBatch(ctx, OffMarketBatchPayload{Trigger: TriggerPeriodic})
	if err != nil {
		r.log.Warn("periodic off-market batch enqueue failed", "error", err, "scoreTaskId", scoreID)
		return
	}

	r.log.Info("periodic batches enqueued", "scoreTaskId", scoreID, "offMarketTaskId", offMarketID)
}
