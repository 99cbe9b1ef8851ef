package app

import (
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/connecta/internal/cache"
	"github.com/oggyb/connecta/internal/config"
	"github.com/oggyb/connecta/internal/presence"
	"github.com/oggyb/connecta/internal/realtime"
	"github.com/oggyb/connecta/internal/utils/keylock"
)

// AppContext holds shared dependencies (DB, Redis, Logger, Relay, etc.)
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger

	// Relay owns the live connections of this instance; Publisher is where
	// services send events (the Relay itself, or the Redis bus in front of it).
	Relay     *realtime.Relay
	Publisher realtime.Publisher
	Presence  *presence.Tracker

	// Locks serializes per-conversation appends and per-actor likes.
	Locks *keylock.Locker
	Clock func() time.Time
}

// New creates a new AppContext. The relay publishes locally until
// WithPublisher installs a bus.
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	relay := realtime.New(logger, cfg.Relay.QueueSize)
	return &AppContext{
		Config:     cfg,
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Relay:      relay,
		Publisher:  relay,
		Presence:   presence.NewTracker(rdb, cfg.Typing.TTL),
		Locks:      keylock.New(),
		Clock:      Now,
	}
}

// WithPublisher replaces the event publisher.
func (a *AppContext) WithPublisher(p realtime.Publisher) *AppContext {
	a.Publisher = p
	return a
}

// Now is the store clock: UTC, millisecond precision.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
