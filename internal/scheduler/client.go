package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"leadscore_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const (
	batchTaskTimeout  = 15 * time.Minute
	batchTaskMaxRetry = 2
)

type Client struct {
	client *asynq.Client
	queue  string
}

// BatchEnqueuer is implemented by Client. The periodic enqueuer and the HTTP handler
// depend on it.
type BatchEnqueuer interface {
	EnqueueScoreBatch(ctx context.Context, zip string) (string, error)
	EnqueueOffMarketBatch(ctx context.Context) (string, error)
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) QueueName() string {
	return c.queue
}

// EnqueueScoreBatch queues a lead scoring run, optionally restricted to zip.
func (c *Client) EnqueueScoreBatch(ctx context.Context, zip string) (string, error) {
	return c.enqueueScoreBatch(ctx, ScoreBatchPayload{Zip: zip, Trigger: TriggerAPI})
}

// EnqueueOffMarketBatch queues an off-market analysis run.
func (c *Client) EnqueueOffMarketBatch(ctx context.Context) (string, error) {
	return c.enqueueOffMarketBatch(ctx, OffMarketBatchPayload{Trigger: TriggerAPI})
}

func (c *Client) enqueueScoreBatch(ctx context.Context, payload ScoreBatchPayload) (string, error) {
	task, err := NewScoreBatchTask(payload)
	if err != nil {
		return "", err
	}
	return c.enqueue(ctx, task)
}

func (c *Client) enqueueOffMarketBatch(ctx context.Context, payload OffMarketBatchPayload) (string, error) {
	task, err := NewOffMarketBatchTask(payload)
	if err != nil {
		return "", err
	}
	return c.enqueue(ctx, task)
}

func (c *Client) enqueue(ctx context.Context, task *asynq.Task) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("scheduler client not configured")
	}

	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.Timeout(batchTaskTimeout),
		asynq.MaxRetry(batchTaskMaxRetry),
	)
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	return info.ID, nil
}

func queueName(cfg config.SchedulerConfig) string {
	if queue := cfg.GetAsynqQueueName(); queue != "" {
		return queue
	}
	return "default"
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
