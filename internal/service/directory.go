package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/staffhive/staffhive/internal/domain"
	"github.com/staffhive/staffhive/internal/domain/tenant"
	"github.com/staffhive/staffhive/internal/port/cache"
	"github.com/staffhive/staffhive/internal/port/database"
	"github.com/staffhive/staffhive/internal/port/tenantstore"
)

// DirectoryService manages the tenant directory and the registration flow
// that provisions each tenant's isolated schema.
type DirectoryService struct {
	store    database.Store
	schemas  tenantstore.Manager
	cache    cache.Cache
	cacheTTL time.Duration
}

// NewDirectoryService creates a DirectoryService. The cache is consulted
// on slug lookups, which sit on the subdomain-resolution hot path.
func NewDirectoryService(store database.Store, schemas tenantstore.Manager, c cache.Cache, cacheTTL time.Duration) *DirectoryService {
	return &DirectoryService{store: store, schemas: schemas, cache: c, cacheTTL: cacheTTL}
}

// Register creates the directory row and provisions the tenant's schema as
// one all-or-nothing flow. The registering user becomes the tenant's first
// administrator. On any provisioning failure the directory row (and any
// partial schema) is removed before the error is returned, so a failed
// registration never looks complete.
func (s *DirectoryService) Register(ctx context.Context, req tenant.CreateRequest, ownerID string) (*tenant.Tenant, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tz := req.Timezone
	if tz == "" {
		tz = tenant.DefaultTimezone
	}

	t := &tenant.Tenant{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Slug:         req.Slug,
		Timezone:     tz,
		BusinessInfo: req.BusinessInfo,
		Branding:     req.Branding,
	}

	if err := s.store.CreateTenant(ctx, t); err != nil {
		return nil, err
	}

	if err := s.schemas.CreateSchema(ctx, t); err != nil {
		s.unwind(ctx, t, false)
		return nil, fmt.Errorf("provision tenant %s: %w", t.Slug, err)
	}

	if err := s.schemas.MigrateSchema(ctx, t); err != nil {
		s.unwind(ctx, t, true)
		return nil, fmt.Errorf("provision tenant %s: %w", t.Slug, err)
	}

	if err := s.store.MarkTenantProvisioned(ctx, t.ID); err != nil {
		s.unwind(ctx, t, true)
		return nil, err
	}
	t.Provisioned = true

	m := &tenant.Membership{
		UserID:     ownerID,
		TenantID:   t.ID,
		Role:       tenant.RoleAdmin,
		InvitedAt:  time.Now().UTC(),
		AcceptedAt: time.Now().UTC(),
	}
	if err := s.store.CreateMembership(ctx, m); err != nil {
		return nil, fmt.Errorf("grant admin membership: %w", err)
	}

	slog.Info("tenant registered", "slug", t.Slug, "schema", t.SchemaName())
	return t, nil
}

// unwind removes the traces of a failed registration.
func (s *DirectoryService) unwind(ctx context.Context, t *tenant.Tenant, dropSchema bool) {
	if dropSchema {
		if err := s.schemas.DropSchema(ctx, t); err != nil {
			slog.Error("failed to drop schema after failed registration", "slug", t.Slug, "error", err)
		}
	}
	if err := s.store.DeleteTenant(ctx, t.ID); err != nil {
		slog.Error("failed to remove tenant row after failed registration", "slug", t.Slug, "error", err)
	}
}

// Get returns a tenant by ID.
func (s *DirectoryService) Get(ctx context.Context, id string) (*tenant.Tenant, error) {
	return s.store.GetTenant(ctx, id)
}

// GetBySlug returns a tenant by slug, consulting the cache first.
func (s *DirectoryService) GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	key := cacheKey(slug)

	if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var t tenant.Tenant
		if err := json.Unmarshal(data, &t); err == nil {
			return &t, nil
		}
	}

	t, err := s.store.GetTenantBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(t); err == nil {
		_ = s.cache.Set(ctx, key, data, s.cacheTTL)
	}
	return t, nil
}

// List returns all tenants, ordered by name.
func (s *DirectoryService) List(ctx context.Context) ([]tenant.Tenant, error) {
	return s.store.ListTenants(ctx)
}

// Update applies the mutable directory fields and invalidates the cached
// slug entry. The slug itself is immutable once provisioned, which is every
// tenant that survived Register.
func (s *DirectoryService) Update(ctx context.Context, id string, req tenant.UpdateRequest) (*tenant.Tenant, error) {
	t, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		t.Name = req.Name
	}
	if req.Timezone != "" {
		t.Timezone = req.Timezone
	}
	if req.BusinessInfo != nil {
		t.BusinessInfo = req.BusinessInfo
	}
	if req.PayrollSettings != nil {
		t.PayrollSettings = req.PayrollSettings
	}
	if req.LeaveDefaults != nil {
		t.LeaveDefaults = req.LeaveDefaults
	}
	if req.Branding != nil {
		t.Branding = *req.Branding
	}

	if err := s.store.UpdateTenant(ctx, t); err != nil {
		return nil, err
	}

	_ = s.cache.Delete(ctx, cacheKey(t.Slug))
	return t, nil
}

// RevokeMembership detaches a user from a tenant. A handoff token issued
// before the revocation will fail its membership re-check on consumption.
func (s *DirectoryService) RevokeMembership(ctx context.Context, userID, tenantID string) error {
	return s.store.DeleteMembership(ctx, userID, tenantID)
}

// Migrate re-applies the tenant migration set, used by operational tooling
// after a schema change ships.
func (s *DirectoryService) Migrate(ctx context.Context, t *tenant.Tenant) error {
	exists, err := s.schemas.SchemaExists(ctx, t)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("tenant %s schema missing: %w", t.Slug, domain.ErrNotFound)
	}
	return s.schemas.MigrateSchema(ctx, t)
}

func cacheKey(slug string) string {
	return "tenant:slug:" + slug
}
