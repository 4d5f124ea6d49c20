package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/acu-erp/acu-erp/internal/access"
	"github.com/acu-erp/acu-erp/internal/backup"
	"github.com/acu-erp/acu-erp/internal/events"
	"github.com/acu-erp/acu-erp/internal/kv"
	"github.com/acu-erp/acu-erp/internal/platform/cache"
	"github.com/acu-erp/acu-erp/internal/platform/db"
	"github.com/acu-erp/acu-erp/internal/usersync"
)

// Connections holds the live clients behind Backends.
type Connections struct {
	Pool  *pgxpool.Pool
	Redis *redis.Client
}

// Close releases every connection.
func (c *Connections) Close(logger *slog.Logger) {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil && logger != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// RedisOpts returns the asynq connection settings for cfg.
func RedisOpts(cfg *Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.RedisAddr}
}

// Connect dials Postgres and Redis and builds the production backends:
// workspace buckets and the bus on Redis, profiles and remote documents on
// Postgres, backups on S3 when a bucket is configured.
func Connect(ctx context.Context, cfg *Config, logger *slog.Logger) (Backends, *Connections, error) {
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return Backends{}, nil, fmt.Errorf("connect postgres: %w", err)
	}
	client, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		pool.Close()
		return Backends{}, nil, fmt.Errorf("connect redis: %w", err)
	}
	conns := &Connections{Pool: pool, Redis: client}

	b := Backends{
		Store:     kv.NewRedisStore(client),
		Bus:       events.NewRedisBus(client, logger),
		Profiles:  access.NewPGProfileRepository(pool),
		Documents: usersync.NewPGDocumentStore(pool, logger),
	}
	if cfg.BackupsEnabled() {
		uploader, err := backup.NewS3Uploader(ctx, backup.S3Config{
			Bucket:    cfg.BackupBucket,
			Endpoint:  cfg.BackupEndpoint,
			Region:    cfg.BackupRegion,
			AccessKey: cfg.BackupAccessKey,
			SecretKey: cfg.BackupSecretKey,
		})
		if err != nil {
			conns.Close(logger)
			return Backends{}, nil, fmt.Errorf("init backups: %w", err)
		}
		b.Uploader = uploader
	}
	return b, conns, nil
}
