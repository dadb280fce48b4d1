// Package postgres provides the PostgreSQL platform store, the per-tenant
// schema manager and the goose migration runners.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx driver for database/sql (needed by goose)
	"github.com/pressly/goose/v3"

	"github.com/staffhive/staffhive/internal/config"
)

// migrations holds both migration sets: migrations/platform for the shared
// schema and migrations/tenant for each tenant schema.
//
//go:embed migrations/platform/*.sql migrations/tenant/*.sql
var migrations embed.FS

// NewPool creates a pgxpool connection pool for the platform store.
func NewPool(ctx context.Context, cfg config.Postgres) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = cfg.HealthCheck

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return pool, nil
}

// MigratePlatform applies all pending platform migrations from the embedded
// SQL files. It never touches tenant schemas.
func MigratePlatform(ctx context.Context, dsn string) error {
	return runMigrations(ctx, dsn, "migrations/platform")
}

// runMigrations applies one embedded migration set against the given DSN.
// A goose Provider is used instead of the package-level API because the
// binary carries two independent migration sets.
func runMigrations(ctx context.Context, dsn, dir string) error {
	sub, err := fs.Sub(migrations, dir)
	if err != nil {
		return fmt.Errorf("sub fs %s: %w", dir, err)
	}

	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open db for migrations: %w", err)
	}
	defer func() { _ = db.Close() }()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, sub)
	if err != nil {
		return fmt.Errorf("migration provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
