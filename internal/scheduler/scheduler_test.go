package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadscore_backend/internal/leadscoring/transport"
	"leadscore_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type fakeRunner struct {
	zip       string
	scored    int
	offMarket int
	err       error
}

func (f *fakeRunner) ScoreLeads(_ context.Context, q transport.ScoreLeadsQuery) (transport.ScoreLeadsResponse, error) {
	f.scored++
	f.zip = q.Zip
	return transport.ScoreLeadsResponse{Success: true}, f.err
}

func (f *fakeRunner) FindOffMarketLeads(context.Context) (transport.OffMarketResponse, error) {
	f.offMarket++
	return transport.OffMarketResponse{Success: true}, f.err
}

type fakeQueue struct {
	scorePayloads     []ScoreBatchPayload
	offMarketPayloads []OffMarketBatchPayload
	scoreErr          error
}

func (q *fakeQueue) enqueueScoreBatch(_ context.Context, p ScoreBatchPayload) (string, error) {
	if q.scoreErr != nil {
		return "", q.scoreErr
	}
	q.scorePayloads = append(q.scorePayloads, p)
	return "score-1", nil
}

func (q *fakeQueue) enqueueOffMarketBatch(_ context.Context, p OffMarketBatchPayload) (string, error) {
	q.offMarketPayloads = append(q.offMarketPayloads, p)
	return "offmarket-1", nil
}

type schedulerConfig struct {
	url   string
	queue string
}

func (c schedulerConfig) GetRedisURL() string               { return c.url }
func (c schedulerConfig) GetRedisTLSInsecure() bool         { return false }
func (c schedulerConfig) GetAsynqQueueName() string         { return c.queue }
func (c schedulerConfig) GetAsynqConcurrency() int          { return 1 }
func (c schedulerConfig) GetRescoreInterval() time.Duration { return time.Hour }

func TestScoreBatchTaskRoundTrip(t *testing.T) {
	task, err := NewScoreBatchTask(ScoreBatchPayload{Zip: "96815", Trigger: TriggerAPI})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Type() != TaskScoreBatch {
		t.Fatalf("expected type %s, got %s", TaskScoreBatch, task.Type())
	}
	payload, err := ParseScoreBatchPayload(task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Zip != "96815" || payload.Trigger != TriggerAPI {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestWorker_HandleScoreBatch(t *testing.T) {
	runner := &fakeRunner{}
	w := &Worker{runner: runner, log: logger.Nop()}

	task, _ := NewScoreBatchTask(ScoreBatchPayload{Zip: "96817", Trigger: TriggerPeriodic})
	if err := w.handleScoreBatch(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runner.scored != 1 || runner.zip != "96817" {
		t.Fatalf("expected one run for 96817, got %d for %q", runner.scored, runner.zip)
	}
}

func TestWorker_MalformedPayloadSkipsRetry(t *testing.T) {
	w := &Worker{runner: &fakeRunner{}, log: logger.Nop()}

	err := w.handleScoreBatch(context.Background(), asynq.NewTask(TaskScoreBatch, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestWorker_HandleOffMarketBatchPropagatesError(t *testing.T) {
	runner := &fakeRunner{err: errors.New("db down")}
	w := &Worker{runner: runner, log: logger.Nop()}

	task, _ := NewOffMarketBatchTask(OffMarketBatchPayload{Trigger: TriggerAPI})
	if err := w.handleOffMarketBatch(context.Background(), task); err == nil {
		t.Fatalf("expected error to be returned for retry")
	}
	if runner.offMarket != 1 {
		t.Fatalf("expected one run, got %d", runner.offMarket)
	}
}

func TestRescoreEnqueuer_EnqueuesBothBatches(t *testing.T) {
	queue := &fakeQueue{}
	r := newRescoreEnqueuer(queue, logger.Nop(), 0)

	r.enqueue(context.Background())

	if r.interval != defaultRescoreInterval {
		t.Fatalf("expected default interval, got %v", r.interval)
	}
	if len(queue.scorePayloads) != 1 || queue.scorePayloads[0].Trigger != TriggerPeriodic {
		t.Fatalf("unexpected score payloads: %+v", queue.scorePayloads)
	}
	if len(queue.offMarketPayloads) != 1 {
		t.Fatalf("expected one off-market payload, got %d", len(queue.offMarketPayloads))
	}
}

func TestRescoreEnqueuer_StopsAfterScoreFailure(t *testing.T) {
	queue := &fakeQueue{scoreErr: errors.New("redis down")}
	r := newRescoreEnqueuer(queue, logger.Nop(), time.Minute)

	r.enqueue(context.Background())

	if len(queue.offMarketPayloads) != 0 {
		t.Fatalf("expected no off-market enqueue after score failure")
	}
}

func TestRescoreEnqueuer_RunReturnsOnCancel(t *testing.T) {
	queue := &fakeQueue{}
	r := newRescoreEnqueuer(queue, logger.Nop(), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Run(ctx)

	if len(queue.scorePayloads) != 1 {
		t.Fatalf("expected the initial enqueue before exit, got %d", len(queue.scorePayloads))
	}
}

func TestNewClient_RequiresRedisURL(t *testing.T) {
	if _, err := NewClient(schedulerConfig{}); err == nil {
		t.Fatalf("expected error without redis url")
	}
}

func TestRedisClientOpt(t *testing.T) {
	opt, err := redisClientOpt("rediss://:secret@cache.internal:6380/2", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opt.Addr != "cache.internal:6380" || opt.Password != "secret" || opt.DB != 2 {
		t.Fatalf("unexpected options: %+v", opt)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Fatalf("expected insecure TLS config")
	}
}

func TestQueueNameDefault(t *testing.T) {
	if got := queueName(schedulerConfig{}); got != "default" {
		t.Fatalf("expected default queue, got %q", got)
	}
	if got := queueName(schedulerConfig{queue: "leadscoring"}); got != "leadscoring" {
		t.Fatalf("expected leadscoring queue, got %q", got)
	}
}
