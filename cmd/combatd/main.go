// Package main provides combatd, the process that runs the combat engine's
// pulse loop and publishes its messages over NATS.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mudcore/internal/config"
	"github.com/cory-johannsen/mudcore/internal/observability"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "combatd")
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := initApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("initializing combatd", zap.Error(err))
	}
	defer cleanup()

	logger.Info("combatd ready",
		zap.Int("zones", app.World.ZoneCount()),
		zap.Int("active", len(app.Engine.Active())),
		zap.Duration("startup", time.Since(start)),
	)

	if err := app.Lifecycle.Run(ctx); err != nil {
		logger.Error("combatd stopped with error", zap.Error(err))
		cleanup()
		os.Exit(1)
	}
	logger.Info("combatd stopped")
}
