package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"leadscore_backend/internal/leadscoring"
	"leadscore_backend/internal/properties/repository"
	"leadscore_backend/platform/config"
	"leadscore_backend/platform/db"
	"leadscore_backend/platform/logger"
)

func main() {
	pageSize := flag.Int("page-size", 25, "properties scored per page")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting lead rescore backfill", "pageSize", *pageSize)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	// No completer and no bus: backfilled scores use the fallback likelihood and
	// do not send alerts.
	module, err := leadscoring.NewModule(leadscoring.Deps{
		Store: repository.New(pool),
	}, cfg, log)
	if err != nil {
		log.Error("failed to initialize lead scoring module", "error", err)
		panic("failed to initialize lead scoring module: " + err.Error())
	}

	written, err := module.Service().BackfillUnscored(ctx, *pageSize)
	if err != nil {
		log.Error("lead rescore backfill stopped", "error", err, "updated", written)
		os.Exit(1)
	}

	log.Info("lead rescore backfill completed", "updated", written)
}
