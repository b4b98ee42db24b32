package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/oggyb/matchme/internal/app"
	"github.com/oggyb/matchme/internal/broadcast"
	"github.com/oggyb/matchme/internal/cache"
	"github.com/oggyb/matchme/internal/config"
	"github.com/oggyb/matchme/internal/db"
	"github.com/oggyb/matchme/internal/logger"
	"github.com/oggyb/matchme/internal/presence"
	"github.com/oggyb/matchme/internal/server"
	"github.com/oggyb/matchme/internal/service/chat"
	"github.com/oggyb/matchme/internal/service/connections"
	"github.com/oggyb/matchme/internal/service/discovery"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L() // slog.Logger pointer

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}
	broadcaster := broadcast.NewRedisBroadcaster(redisCache.Client)

	// Inject logger into app context
	appCtx := app.New(database, redisCache, broadcaster, log)

	tracker := presence.NewTracker(cfg, broadcaster, log)
	tracker.Start()
	defer tracker.Stop()

	registrars := []server.Registrar{
		connections.NewRegistrar(appCtx),
		discovery.NewRegistrar(appCtx),
		chat.NewRegistrar(appCtx),
		presence.NewRegistrar(appCtx, tracker),
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := server.StartHTTPServer(ctx, cfg, registrars...); err != nil {
		log.Error("server exited with error", "err", err)
	}
}
