package repository

import (
	"context"
	"fmt"

	"github.com/BloggingApp/feed-service/internal/config"
	"github.com/BloggingApp/feed-service/internal/repository/firestore"
	"github.com/BloggingApp/feed-service/internal/repository/memory"
	"github.com/BloggingApp/feed-service/internal/repository/postgres"
	"github.com/BloggingApp/feed-service/internal/repository/redisrepo"
	"github.com/BloggingApp/feed-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Repository struct {
	Store storage.Storage
	// Redis is nil when no cache is configured.
	Redis *redisrepo.RedisRepository

	rdb *redis.Client
}

func New(store storage.Storage, rdb *redis.Client) *Repository {
	repo := &Repository{
		Store: store,
		rdb:   rdb,
	}
	if rdb != nil {
		repo.Redis = redisrepo.New(rdb)
	}
	return repo
}

// Open connects the store selected by cfg.Driver and, when REDIS_ADDR is set, the cache.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Repository, error) {
	var (
		store storage.Storage
		err   error
	)

	switch cfg.Driver {
	case config.DriverFirestore:
		store, err = firestore.Open(ctx, cfg.Firestore.ProjectID, cfg.Firestore.PostsCollection, cfg.Firestore.MessagesCollection)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to firestore: %w", err)
		}
		logger.Info("Successfully connected to Firestore", zap.String("project", cfg.Firestore.ProjectID))
	case config.DriverPostgres:
		store, err = postgres.Open(ctx, cfg.DB.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		logger.Info("Successfully connected to PostgreSQL")
	case config.DriverMemory:
		store = memory.New()
		logger.Warn("Using in-memory store, data is lost on exit")
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redisrepo.Connect(ctx, cfg.Redis.Addr)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		logger.Info("Successfully connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	return New(store, rdb), nil
}

func (r *Repository) Close() {
	r.Store.Close()
	if r.rdb != nil {
		_ = r.rdb.Close()
	}
}
