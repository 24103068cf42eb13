package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/user-management/internal/api/handler"
	"github.com/99minutos/user-management/internal/core/ports"
	"github.com/99minutos/user-management/internal/infrastructure/db/mongo"
	"github.com/99minutos/user-management/internal/infrastructure/db/redis"
	"github.com/99minutos/user-management/internal/infrastructure/db/sqlite"
	"github.com/99minutos/user-management/internal/pkg/config"
)

// storage bundles the repositories of the selected driver.
type storage struct {
	users  ports.UserRepository
	roles  ports.RoleRepository
	audit  ports.AuditRepository
	tokens ports.TokenStore

	readiness map[string]handler.Check
	close     func(ctx context.Context)
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	switch cfg.StorageDriver {
	case config.DriverMongo:
		return openMongo(ctx, cfg, log)
	default:
		return openSQLite(ctx, cfg, log)
	}
}

func openMongo(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, err
	}
	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo indexes: %w", err)
	}

	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	log.Info().Str("database", cfg.Mongo.Database).Str("redis", cfg.Redis.Addr).Msg("connected to mongodb and redis")

	return &storage{
		users:  mongo.NewUserRepository(db),
		roles:  mongo.NewRoleRepository(db),
		audit:  mongo.NewAuditRepository(db),
		tokens: redis.NewTokenStore(rdb),
		readiness: map[string]handler.Check{
			"mongodb": func(ctx context.Context) error { return mongo.Ping(ctx, db) },
			"redis":   func(ctx context.Context) error { return redis.Ping(ctx, rdb) },
		},
		close: func(ctx context.Context) {
			if err := rdb.Close(); err != nil {
				log.Warn().Err(err).Msg("redis close failed")
			}
			if err := client.Disconnect(ctx); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect failed")
			}
		},
	}, nil
}

func openSQLite(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	db, err := sqlite.Open(ctx, sqlite.Config{Path: cfg.SQLite.Path, LogLevel: cfg.SQLite.LogLevel})
	if err != nil {
		return nil, err
	}

	log.Info().Str("path", cfg.SQLite.Path).Msg("opened sqlite database")

	return &storage{
		users:  sqlite.NewUserRepository(db),
		roles:  sqlite.NewRoleRepository(db),
		audit:  sqlite.NewAuditRepository(db),
		tokens: sqlite.NewTokenStore(db),
		readiness: map[string]handler.Check{
			"sqlite": func(ctx context.Context) error { return sqlite.Ping(ctx, db) },
		},
		close: func(context.Context) {
			if err := sqlite.Close(db); err != nil {
				log.Warn().Err(err).Msg("sqlite close failed")
			}
		},
	}, nil
}
