package agent

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"leadscore_backend/platform/ai"
	"leadscore_backend/platform/cache"
	"leadscore_backend/platform/config"
	"leadscore_backend/platform/logger"
)

// Limited shares one rate limiter across every caller and gives each call its own
// deadline. A timeout surfaces as an ordinary error.
type Limited struct {
	next    ai.Completer
	limiter *rate.Limiter
	timeout time.Duration
}

func NewLimited(next ai.Completer, perSecond float64, burst int, timeout time.Duration) *Limited {
	return &Limited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		timeout: timeout,
	}
}

func (l *Limited) Complete(ctx context.Context, prompt string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", err
	}

	callCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	return l.next.Complete(callCtx, prompt)
}

// Cached serves repeated prompts from Redis. Cache failures are logged and the call
// goes through to next.
type Cached struct {
	next  ai.Completer
	cache *cache.Cache
	log   *logger.Logger
}

func NewCached(next ai.Completer, c *cache.Cache, log *logger.Logger) *Cached {
	return &Cached{next: next, cache: c, log: log}
}

func (c *Cached) Complete(ctx context.Context, prompt string) (string, error) {
	key := c.cache.Key(prompt)

	hit, err := c.cache.Get(ctx, key)
	if err == nil {
		return hit, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		c.log.WithContext(ctx).Warn("ai cache read failed", "error", err)
	}

	text, err := c.next.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	if err := c.cache.Set(ctx, key, text); err != nil {
		c.log.WithContext(ctx).Warn("ai cache write failed", "error", err)
	}
	return text, nil
}

// NewCompleter assembles the production completer. It returns nil when no API key is
// configured; callers treat a nil completer as "AI unavailable". redisClient may be nil
// to disable caching.
func NewCompleter(cfg config.AIConfig, redisClient redis.UniversalClient, log *logger.Logger) (ai.Completer, error) {
	if !cfg.IsAIEnabled() {
		return nil, nil
	}

	analyst, err := NewAnalyst(cfg)
	if err != nil {
		return nil, err
	}

	var completer ai.Completer = NewLimited(analyst, cfg.GetAIRatePerSecond(), cfg.GetAIBurst(), cfg.GetAICallTimeout())
	if redisClient != nil {
		completer = NewCached(completer, cache.New(redisClient, "ai:completion", cfg.GetAICacheTTL()), log)
	}
	return completer, nil
}
