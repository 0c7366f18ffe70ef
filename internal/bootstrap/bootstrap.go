// Package bootstrap opens the infrastructure shared by the server and the
// admin CLI from the loaded configuration.
package bootstrap

import (
	"context"
	"fmt"

	"complaints/backend/internal/config"
	"complaints/backend/internal/kv"
	"complaints/backend/internal/storage"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Infra is the opened infrastructure. Redis is nil unless a Redis-backed
// concern is configured.
type Infra struct {
	KV    kv.KV
	Redis *redis.Client
	Store *storage.Store
}

// Open connects the KV backend and prepares the store. The store itself is
// opened lazily on first use.
func Open(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Infra, error) {
	infra := &Infra{}

	switch cfg.KVBackend {
	case "memory":
		infra.KV = kv.NewMemory()
	case "file":
		f, err := kv.NewFile(cfg.KVDir)
		if err != nil {
			return nil, err
		}
		infra.KV = f
	case "redis":
		rdb, err := connectRedis(ctx, cfg)
		if err != nil {
			return nil, err
		}
		infra.Redis = rdb
		infra.KV = kv.NewRedis(rdb, cfg.RedisPrefix)
	default:
		return nil, fmt.Errorf("unsupported KV backend %q", cfg.KVBackend)
	}

	infra.Store = storage.New(infra.KV, storage.Options{
		Driver:      cfg.DBDriver,
		DSN:         cfg.DBDSN,
		WorkDir:     cfg.WorkDir,
		SnapshotKey: cfg.SnapshotKey,
		Logger:      logger,
	})
	return infra, nil
}

// RedisClient returns the shared Redis connection, dialing it when the KV
// backend did not.
func (i *Infra) RedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if i.Redis != nil {
		return i.Redis, nil
	}
	rdb, err := connectRedis(ctx, cfg)
	if err != nil {
		return nil, err
	}
	i.Redis = rdb
	return rdb, nil
}

// Close releases the store and the Redis connection.
func (i *Infra) Close() error {
	var firstErr error
	if i.Store != nil {
		firstErr = i.Store.Close()
	}
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func connectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}
	return rdb, nil
}
