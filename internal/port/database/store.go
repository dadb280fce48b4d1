// Package database defines the platform store port (interface).
//
// Everything behind this interface lives in the shared platform schema:
// the tenant directory, user accounts, memberships and handoff tokens.
// Per-tenant data is reached through the tenantstore port instead.
package database

import (
	"context"

	"github.com/staffhive/staffhive/internal/domain/handoff"
	"github.com/staffhive/staffhive/internal/domain/tenant"
	"github.com/staffhive/staffhive/internal/domain/user"
)

// Store is the port interface for platform store operations.
type Store interface {
	// Tenant directory
	CreateTenant(ctx context.Context, t *tenant.Tenant) error
	GetTenant(ctx context.Context, id string) (*tenant.Tenant, error)
	GetTenantBySlug(ctx context.Context, slug string) (*tenant.Tenant, error)
	ListTenants(ctx context.Context) ([]tenant.Tenant, error)
	UpdateTenant(ctx context.Context, t *tenant.Tenant) error
	MarkTenantProvisioned(ctx context.Context, id string) error
	// DeleteTenant exists only to unwind a failed registration; provisioned
	// tenants are never hard-deleted.
	DeleteTenant(ctx context.Context, id string) error

	// Users
	CreateUser(ctx context.Context, u *user.User) error
	GetUser(ctx context.Context, id string) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)

	// Memberships
	CreateMembership(ctx context.Context, m *tenant.Membership) error
	GetMembership(ctx context.Context, userID, tenantID string) (*tenant.Membership, error)
	// ListMembershipsByUser returns memberships joined with directory
	// fields, ordered by tenant name.
	ListMembershipsByUser(ctx context.Context, userID string) ([]tenant.UserMembership, error)
	DeleteMembership(ctx context.Context, userID, tenantID string) error

	// Handoff tokens
	CreateHandoffToken(ctx context.Context, t *handoff.Token) error
	GetHandoffToken(ctx context.Context, value string) (*handoff.Token, error)
	DeleteHandoffToken(ctx context.Context, value string) error
	PurgeExpiredHandoffTokens(ctx context.Context) (int64, error)
}
