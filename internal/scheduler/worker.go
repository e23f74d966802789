package scheduler

import (
	"context"
	"fmt"

	"leadscore_backend/internal/leadscoring/transport"
	"leadscore_backend/platform/config"
	"leadscore_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// BatchRunner executes the batch pipelines. The lead scoring service implements it.
type BatchRunner interface {
	ScoreLeads(ctx context.Context, query transport.ScoreLeadsQuery) (transport.ScoreLeadsResponse, error)
	FindOffMarketLeads(ctx context.Context) (transport.OffMarketResponse, error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	runner BatchRunner
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, runner BatchRunner, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 2
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
		runner: runner,
		log:    log,
	}
	w.mux.HandleFunc(TaskScoreBatch, w.handleScoreBatch)
	w.mux.HandleFunc(TaskOffMarketBatch, w.handleOffMarketBatch)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleScoreBatch(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseScoreBatchPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	ctx = withTaskID(ctx)

	resp, err := w.runner.ScoreLeads(ctx, transport.ScoreLeadsQuery{Zip: payload.Zip})
	if err != nil {
		return err
	}

	w.log.WithContext(ctx).Info("score batch finished",
		"trigger", payload.Trigger,
		"analyzed", resp.TotalPropertiesAnalyzed,
		"highQuality", resp.HighQualityLeads,
		"skipped", resp.SkippedProperties,
		"reportKey", resp.ReportKey,
	)
	return nil
}

func (w *Worker) handleOffMarketBatch(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseOffMarketBatchPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	ctx = withTaskID(ctx)

	resp, err := w.runner.FindOffMarketLeads(ctx)
	if err != nil {
		return err
	}

	w.log.WithContext(ctx).Info("off-market batch finished",
		"trigger", payload.Trigger,
		"analyzed", resp.TotalAnalyzed,
		"leads", resp.OffMarketLeadsFound,
		"reportKey", resp.ReportKey,
	)
	return nil
}

func withTaskID(ctx context.Context) context.Context {
	if id, ok := asynq.GetTaskID(ctx); ok {
		return context.WithValue(ctx, logger.TaskIDKey, id)
	}
	return ctx
}
