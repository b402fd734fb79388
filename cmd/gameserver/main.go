// Package main provides the game server binary serving the attack dialog
// over HTTP and the fight events over WebSocket.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rolling/internal/config"
	"github.com/cory-johannsen/rolling/internal/observability"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "gameserver")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	lifecycle, cleanup, err := initializeLifecycle(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("initializing game server", zap.Error(err))
	}
	defer cleanup()

	logger.Info("game server ready",
		zap.String("addr", cfg.Server.Addr()),
		zap.Duration("startup", time.Since(start)),
	)
	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("game server stopped", zap.Error(err))
	}
}
