// Package tenantstore defines the port for per-tenant schema lifecycle.
package tenantstore

import (
	"context"

	"github.com/staffhive/staffhive/internal/domain/tenant"
)

// Manager provisions and migrates the isolated schema backing one tenant.
// All operations target the tenant's own schema, never the platform schema.
type Manager interface {
	// CreateSchema provisions the tenant's schema. Safe to call when the
	// schema already exists; it will not touch existing contents.
	CreateSchema(ctx context.Context, t *tenant.Tenant) error
	SchemaExists(ctx context.Context, t *tenant.Tenant) (bool, error)
	// MigrateSchema applies the tenant migration set to this tenant's
	// schema specifically.
	MigrateSchema(ctx context.Context, t *tenant.Tenant) error
	// DropSchema removes a partially provisioned schema so a failed
	// registration never looks complete.
	DropSchema(ctx context.Context, t *tenant.Tenant) error
}
