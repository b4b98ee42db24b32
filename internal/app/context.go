package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/matchme/internal/broadcast"
	"github.com/oggyb/matchme/internal/cache"
)

// AppContext holds shared dependencies (DB, Redis, Broadcaster, Logger).
type AppContext struct {
	DB          *gorm.DB
	RedisCache  *cache.RedisCache
	Broadcaster broadcast.Broadcaster
	Logger      *slog.Logger
}

// New creates a new AppContext
func New(db *gorm.DB, rdb *cache.RedisCache, b broadcast.Broadcaster, logger *slog.Logger) *AppContext {
	return &AppContext{
		DB:          db,
		RedisCache:  rdb,
		Broadcaster: b,
		Logger:      logger,
	}
}
