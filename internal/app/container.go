// Package app wires runtime dependencies into a single container
// handlers can reach through.
package app

import (
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/mockgate/mockgate/internal/config"
	"github.com/mockgate/mockgate/internal/credentials"
	"github.com/mockgate/mockgate/internal/gateway"
	"github.com/mockgate/mockgate/internal/limits"
	"github.com/mockgate/mockgate/internal/mockai"
	"github.com/mockgate/mockgate/internal/observability"
	"github.com/mockgate/mockgate/internal/usage"
)

// Container aggregates runtime dependencies for handlers and services.
type Container struct {
	Config        *config.Config
	DBPool        *pgxpool.Pool
	Redis         *redis.Client
	Logger        *slog.Logger
	Credentials   credentials.Store
	Counter       *limits.WindowCounter
	Recorder      *usage.Recorder
	UsageService  *usage.Service
	Gateway       *gateway.Gateway
	Generator     *mockai.Generator
	Observability *observability.Provider
}

// NewContainer builds a dependency container from the provided primitives.
func NewContainer(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, logger *slog.Logger, obs *observability.Provider) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if pool == nil {
		return nil, fmt.Errorf("db pool is required")
	}
	if redisClient == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	store := credentials.NewPostgresStore(pool)
	sink := usage.NewPostgresSink(pool)
	recorder := usage.NewRecorder(sink, store, logger, cfg.Usage.RecordTimeout)
	counter := limits.NewWindowCounter(redisClient)

	return &Container{
		Config:        cfg,
		DBPool:        pool,
		Redis:         redisClient,
		Logger:        logger,
		Credentials:   store,
		Counter:       counter,
		Recorder:      recorder,
		UsageService:  usage.NewService(pool),
		Gateway:       gateway.New(store, counter, recorder, obs, logger),
		Generator:     mockai.NewGenerator(),
		Observability: obs,
	}, nil
}
