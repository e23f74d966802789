package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadscore_backend/internal/events"
	"leadscore_backend/internal/leadscoring"
	"leadscore_backend/internal/leadscoring/agent"
	"leadscore_backend/internal/leadscoring/service"
	"leadscore_backend/internal/notification"
	"leadscore_backend/internal/properties/repository"
	"leadscore_backend/internal/scheduler"
	"leadscore_backend/platform/cache"
	"leadscore_backend/platform/config"
	"leadscore_backend/platform/db"
	"leadscore_backend/platform/logger"
	"leadscore_backend/platform/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	notificationModule := notification.New(cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	var redisClient redis.UniversalClient
	if client, err := cache.NewClient(cfg.GetRedisURL()); err != nil {
		log.Warn("AI response cache disabled", "error", err)
	} else {
		redisClient = client
		defer func() { _ = client.Close() }()
	}

	completer, err := agent.NewCompleter(cfg, redisClient, log)
	if err != nil {
		log.Error("failed to initialize AI completer", "error", err)
		panic("failed to initialize AI completer: " + err.Error())
	}

	var reports service.ReportArchive
	if cfg.IsMinIOEnabled() {
		store, err := storage.NewReportStore(cfg)
		if err != nil {
			log.Error("failed to initialize report store", "error", err)
			panic("failed to initialize report store: " + err.Error())
		}
		reports = store
	}

	// Worker-side scoring wiring (no HTTP handlers required).
	leadScoringModule, err := leadscoring.NewModule(leadscoring.Deps{
		Store:     repository.New(pool),
		Bus:       eventBus,
		Completer: completer,
		Reports:   reports,
	}, cfg, log)
	if err != nil {
		log.Error("failed to initialize lead scoring module", "error", err)
		panic("failed to initialize lead scoring module: " + err.Error())
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	rescore := scheduler.NewRescoreEnqueuer(client, log, cfg.GetRescoreInterval())
	go rescore.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, leadScoringModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
