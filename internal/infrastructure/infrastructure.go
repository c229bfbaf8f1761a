// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, metrics, cache, database) that domain systems require.
package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JaimeStill/prfaq/internal/config"
	"github.com/JaimeStill/prfaq/internal/connectors"
	"github.com/JaimeStill/prfaq/internal/metrics"
	"github.com/JaimeStill/prfaq/pkg/database"
	"github.com/JaimeStill/prfaq/pkg/lifecycle"
)

// Infrastructure holds the core systems required by all domain modules.
// Database is nil unless the knowledge base is backed by pgvector.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Cache     connectors.Cache
	Database  database.System

	redis   *redis.Client
	logFile io.Closer
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	logger, logFile := NewLogger(&cfg.Logging, os.Stderr)

	infra := &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		Metrics:   metrics.New(),
		logFile:   logFile,
	}

	switch cfg.Cache.Backend {
	case config.CacheRedis:
		infra.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		infra.Cache = connectors.NewRedisCache(infra.redis, cfg.Cache.Prefix, cfg.Cache.TTLDuration(), logger)
	case config.CacheMemory:
		infra.Cache = connectors.NewMemoryCache(cfg.Cache.TTLDuration())
	default:
		infra.Cache = connectors.NopCache{}
	}

	if cfg.Knowledge.Backend == config.KnowledgePgvector {
		db, err := database.New(&cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		infra.Database = db
	}

	return infra, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
// A failed redis ping is logged; the cache degrades to misses until redis recovers.
func (i *Infrastructure) Start() error {
	if i.Database != nil {
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
	}

	if i.redis != nil {
		logger := i.Logger.With("system", "redis")

		i.Lifecycle.OnStartup(func() {
			ctx, cancel := context.WithTimeout(i.Lifecycle.Context(), 5*time.Second)
			defer cancel()

			if err := i.redis.Ping(ctx).Err(); err != nil {
				logger.Warn("redis ping failed", "error", err)
				return
			}
			logger.Info("redis connection established")
		})

		i.Lifecycle.OnShutdown(func() {
			<-i.Lifecycle.Context().Done()
			if err := i.redis.Close(); err != nil {
				logger.Error("redis close failed", "error", err)
			}
		})
	}

	i.Lifecycle.OnShutdown(func() {
		<-i.Lifecycle.Context().Done()
		i.logFile.Close()
	})

	return nil
}
