package postgres

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/singleflight"

	"github.com/staffhive/staffhive/internal/config"
	"github.com/staffhive/staffhive/internal/domain/tenant"
)

// SchemaManager owns the lifecycle of per-tenant schemas and hands out a
// connection pool per tenant. Pools are keyed by slug and created lazily;
// handlers receive the pool for the request's bound tenant through the
// request context, so no shared connection is ever repointed between
// tenants.
type SchemaManager struct {
	platform *pgxpool.Pool
	cfg      config.Postgres

	mu    sync.RWMutex
	pools map[string]*pgxpool.Pool
	group singleflight.Group
}

// NewSchemaManager creates a SchemaManager. The platform pool is used for
// schema DDL and existence checks only; tenant queries go through Pool.
func NewSchemaManager(platform *pgxpool.Pool, cfg config.Postgres) *SchemaManager {
	return &SchemaManager{
		platform: platform,
		cfg:      cfg,
		pools:    make(map[string]*pgxpool.Pool),
	}
}

// SchemaExists reports whether the tenant's schema has been created.
func (m *SchemaManager) SchemaExists(ctx context.Context, t *tenant.Tenant) (bool, error) {
	var exists bool
	err := m.platform.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)`,
		t.SchemaName(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("schema exists %s: %w", t.SchemaName(), err)
	}
	return exists, nil
}

// CreateSchema provisions the tenant's isolated schema. Calling it for an
// already provisioned tenant is a no-op; it never touches existing contents.
func (m *SchemaManager) CreateSchema(ctx context.Context, t *tenant.Tenant) error {
	exists, err := m.SchemaExists(ctx, t)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	name := pgx.Identifier{t.SchemaName()}.Sanitize()
	if _, err := m.platform.Exec(ctx, "CREATE SCHEMA "+name); err != nil {
		return fmt.Errorf("create schema %s: %w", t.SchemaName(), err)
	}
	return nil
}

// MigrateSchema applies the tenant migration set against this tenant's
// schema specifically. Goose tracks its version table inside the schema,
// so each tenant migrates independently.
func (m *SchemaManager) MigrateSchema(ctx context.Context, t *tenant.Tenant) error {
	dsn, err := dsnWithSearchPath(m.cfg.DSN, t.SchemaName())
	if err != nil {
		return err
	}
	if err := runMigrations(ctx, dsn, "migrations/tenant"); err != nil {
		return fmt.Errorf("migrate schema %s: %w", t.SchemaName(), err)
	}
	return nil
}

// DropSchema removes the tenant's schema and everything in it. Only the
// registration flow calls this, to unwind a failed provisioning.
func (m *SchemaManager) DropSchema(ctx context.Context, t *tenant.Tenant) error {
	name := pgx.Identifier{t.SchemaName()}.Sanitize()
	if _, err := m.platform.Exec(ctx, "DROP SCHEMA IF EXISTS "+name+" CASCADE"); err != nil {
		return fmt.Errorf("drop schema %s: %w", t.SchemaName(), err)
	}

	m.mu.Lock()
	if pool, ok := m.pools[t.Slug]; ok {
		pool.Close()
		delete(m.pools, t.Slug)
	}
	m.mu.Unlock()
	return nil
}

// Pool returns the connection pool bound to the tenant's schema, creating
// it on first use. Concurrent first requests for the same tenant are
// deduplicated so only one pool is ever built per slug.
func (m *SchemaManager) Pool(ctx context.Context, t *tenant.Tenant) (*pgxpool.Pool, error) {
	m.mu.RLock()
	pool, ok := m.pools[t.Slug]
	m.mu.RUnlock()
	if ok {
		return pool, nil
	}

	v, err, _ := m.group.Do(t.Slug, func() (any, error) {
		return m.newTenantPool(ctx, t)
	})
	if err != nil {
		return nil, fmt.Errorf("tenant pool %s: %w", t.Slug, err)
	}
	return v.(*pgxpool.Pool), nil
}

func (m *SchemaManager) newTenantPool(ctx context.Context, t *tenant.Tenant) (*pgxpool.Pool, error) {
	m.mu.RLock()
	if pool, ok := m.pools[t.Slug]; ok {
		m.mu.RUnlock()
		return pool, nil
	}
	m.mu.RUnlock()

	poolCfg, err := pgxpool.ParseConfig(m.cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.ConnConfig.RuntimeParams["search_path"] = t.SchemaName()
	poolCfg.MaxConns = m.cfg.TenantMaxConns
	poolCfg.MaxConnLifetime = m.cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = m.cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	m.mu.Lock()
	m.pools[t.Slug] = pool
	m.mu.Unlock()
	return pool, nil
}

// Close closes all tenant pools. The platform pool is owned by the caller.
func (m *SchemaManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for slug, pool := range m.pools {
		pool.Close()
		delete(m.pools, slug)
	}
}

// dsnWithSearchPath returns the DSN with the search_path runtime parameter
// set to the given schema.
func dsnWithSearchPath(dsn, schema string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
