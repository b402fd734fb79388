package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rolling/internal/config"
	"github.com/cory-johannsen/rolling/internal/game/character"
	"github.com/cory-johannsen/rolling/internal/game/combat"
	"github.com/cory-johannsen/rolling/internal/game/dice"
	"github.com/cory-johannsen/rolling/internal/game/stuff"
	"github.com/cory-johannsen/rolling/internal/gameserver"
	"github.com/cory-johannsen/rolling/internal/scripting"
	"github.com/cory-johannsen/rolling/internal/server"
	"github.com/cory-johannsen/rolling/internal/storage/postgres"
)

// providerSet builds the game server from its configuration.
var providerSet = wire.NewSet(
	providePool,
	provideCatalog,
	provideScripts,
	provideModifiers,
	provideSource,
	provideFights,
	provideTransactor,
	provideHealth,
	gameserver.NewHub,
	gameserver.NewServer,
	provideHTTPServer,
	provideLifecycle,
)

func providePool(ctx context.Context, cfg config.Config, logger *zap.Logger) (*postgres.Pool, func(), error) {
	start := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(start)),
	)
	return pool, pool.Close, nil
}

func provideCatalog(cfg config.Config, logger *zap.Logger) (*stuff.Catalog, error) {
	defs, err := stuff.LoadProperties(cfg.Content.StuffDir)
	if err != nil {
		return nil, fmt.Errorf("loading stuff: %w", err)
	}
	catalog, err := stuff.NewCatalog(defs)
	if err != nil {
		return nil, fmt.Errorf("building stuff catalog: %w", err)
	}
	logger.Info("stuff loaded", zap.Int("count", len(defs)))
	return catalog, nil
}

func provideScripts(cfg config.Config, logger *zap.Logger) (*scripting.Manager, func(), error) {
	manager := scripting.NewManager(logger, scripting.DefaultInstructionLimit)
	if cfg.Content.ScriptsDir == "" {
		logger.Info("fight scripts disabled")
		return manager, manager.Close, nil
	}
	if err := manager.Load(cfg.Content.ScriptsDir); err != nil {
		return nil, nil, err
	}
	return manager, manager.Close, nil
}

func provideModifiers(manager *scripting.Manager, catalog *stuff.Catalog) combat.Modifiers {
	return scripting.NewModifiers(manager, catalog, combat.DefaultModifiers{Catalog: catalog})
}

func provideSource(cfg config.Config, logger *zap.Logger) dice.Source {
	if cfg.Content.Seed != 0 {
		logger.Warn("fight randomness is seeded", zap.Int64("seed", cfg.Content.Seed))
		return dice.NewLoggedSource(dice.NewSeededSource(cfg.Content.Seed), logger)
	}
	return dice.NewLoggedSource(dice.NewCryptoSource(), logger)
}

func provideFights(cfg config.Config, catalog *stuff.Catalog, modifiers combat.Modifiers, src dice.Source) *gameserver.Fights {
	return &gameserver.Fights{
		Catalog:   catalog,
		Modifiers: modifiers,
		Rules:     fightRules(cfg.Fight),
		Source:    src,
	}
}

// fightRules converts the fight section of the configuration into round rules.
func fightRules(f config.FightConfig) combat.Rules {
	return combat.Rules{
		Readiness: character.Readiness{
			ActionPointCost:   f.ActionPointCost,
			ExhaustedAbove:    f.ExhaustedAbove,
			MinimumLifePoints: f.MinimumLifePoints,
		},
		TirednessIncrease:       f.TirednessIncrease,
		SkillIncrement:          f.SkillIncrement,
		EvadeSkill:              f.EvadeSkill,
		EvadeStartProbability:   f.EvadeStartProbability,
		EvadeMultiplier:         f.EvadeMultiplier,
		EvadeMaximumProbability: f.EvadeMaximumProbability,
	}
}

func provideTransactor(pool *postgres.Pool) gameserver.Transactor {
	return gameserver.PostgresTransactor{Pool: pool}
}

func provideHealth(pool *postgres.Pool) gameserver.HealthChecker {
	return pool
}

func provideHTTPServer(cfg config.Config, srv *gameserver.Server) *http.Server {
	return &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

// provideLifecycle stops the HTTP server before the hub, whose closing ends
// the event streams that http.Server.Shutdown does not track.
func provideLifecycle(cfg config.Config, logger *zap.Logger, hub *gameserver.Hub, httpServer *http.Server) *server.Lifecycle {
	lifecycle := server.NewLifecycle(logger, cfg.Server.ShutdownTimeout)
	closed := make(chan struct{})
	lifecycle.Add("events", &server.FuncService{
		StartFn: func() error {
			<-closed
			return nil
		},
		StopFn: func(context.Context) error {
			hub.Close()
			close(closed)
			return nil
		},
	})
	lifecycle.Add("http", &server.HTTPService{Server: httpServer})
	return lifecycle
}
