package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/staffhive/staffhive/internal/domain"
	"github.com/staffhive/staffhive/internal/domain/handoff"
	"github.com/staffhive/staffhive/internal/domain/tenant"
	"github.com/staffhive/staffhive/internal/domain/user"
)

// mockStore is an in-memory database.Store for service tests.
type mockStore struct {
	mu          sync.Mutex
	tenants     []tenant.Tenant
	users       []user.User
	memberships []tenant.Membership
	tokens      []handoff.Token

	// Error hooks — set these to inject failures.
	createTenantErr    error
	createMemberErr    error
	createTokenErr     error
	markProvisionedErr error
}

func (m *mockStore) CreateTenant(_ context.Context, t *tenant.Tenant) error {
	if m.createTenantErr != nil {
		return m.createTenantErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tenants {
		if m.tenants[i].Slug == t.Slug {
			return fmt.Errorf("create tenant %s: %w", t.Slug, domain.ErrConflict)
		}
	}
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	m.tenants = append(m.tenants, *t)
	return nil
}

func (m *mockStore) GetTenant(_ context.Context, id string) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tenants {
		if m.tenants[i].ID == id {
			t := m.tenants[i]
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) GetTenantBySlug(_ context.Context, slug string) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tenants {
		if m.tenants[i].Slug == slug {
			t := m.tenants[i]
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListTenants(_ context.Context) ([]tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]tenant.Tenant(nil), m.tenants...), nil
}

func (m *mockStore) UpdateTenant(_ context.Context, t *tenant.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tenants {
		if m.tenants[i].ID == t.ID {
			m.tenants[i] = *t
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) MarkTenantProvisioned(_ context.Context, id string) error {
	if m.markProvisionedErr != nil {
		return m.markProvisionedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tenants {
		if m.tenants[i].ID == id {
			m.tenants[i].Provisioned = true
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) DeleteTenant(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tenants {
		if m.tenants[i].ID == id {
			m.tenants = append(m.tenants[:i], m.tenants[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) CreateUser(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].Email == u.Email {
			return fmt.Errorf("create user: %w", domain.ErrConflict)
		}
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.users = append(m.users, *u)
	return nil
}

func (m *mockStore) GetUser(_ context.Context, id string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == id {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].Email == email {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListUsers(_ context.Context) ([]user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]user.User(nil), m.users...), nil
}

func (m *mockStore) CreateMembership(_ context.Context, mem *tenant.Membership) error {
	if m.createMemberErr != nil {
		return m.createMemberErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.memberships {
		if m.memberships[i].UserID == mem.UserID && m.memberships[i].TenantID == mem.TenantID {
			return fmt.Errorf("create membership: %w", domain.ErrConflict)
		}
	}
	m.memberships = append(m.memberships, *mem)
	return nil
}

func (m *mockStore) GetMembership(_ context.Context, userID, tenantID string) (*tenant.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.memberships {
		if m.memberships[i].UserID == userID && m.memberships[i].TenantID == tenantID {
			mem := m.memberships[i]
			return &mem, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListMembershipsByUser(_ context.Context, userID string) ([]tenant.UserMembership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []tenant.UserMembership
	for i := range m.memberships {
		if m.memberships[i].UserID != userID {
			continue
		}
		um := tenant.UserMembership{Membership: m.memberships[i]}
		for j := range m.tenants {
			if m.tenants[j].ID == um.TenantID {
				um.TenantName = m.tenants[j].Name
				um.TenantSlug = m.tenants[j].Slug
				um.Branding = m.tenants[j].Branding
			}
		}
		out = append(out, um)
	}
	// Ordered by tenant name, mirroring the SQL query.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].TenantName < out[j-1].TenantName; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (m *mockStore) DeleteMembership(_ context.Context, userID, tenantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.memberships {
		if m.memberships[i].UserID == userID && m.memberships[i].TenantID == tenantID {
			m.memberships = append(m.memberships[:i], m.memberships[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) CreateHandoffToken(_ context.Context, t *handoff.Token) error {
	if m.createTokenErr != nil {
		return m.createTokenErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = append(m.tokens, *t)
	return nil
}

func (m *mockStore) GetHandoffToken(_ context.Context, value string) (*handoff.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tokens {
		if m.tokens[i].Value == value {
			t := m.tokens[i]
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) DeleteHandoffToken(_ context.Context, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tokens {
		if m.tokens[i].Value == value {
			m.tokens = append(m.tokens[:i], m.tokens[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) PurgeExpiredHandoffTokens(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	var kept []handoff.Token
	var purged int64
	for i := range m.tokens {
		if m.tokens[i].ExpiresAt.Before(now) {
			purged++
			continue
		}
		kept = append(kept, m.tokens[i])
	}
	m.tokens = kept
	return purged, nil
}

func (m *mockStore) tokenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

// mockSchemas is an in-memory tenantstore.Manager for service tests.
type mockSchemas struct {
	mu       sync.Mutex
	schemas  map[string]bool
	migrated map[string]bool

	createErr  error
	migrateErr error
}

func newMockSchemas() *mockSchemas {
	return &mockSchemas{schemas: map[string]bool{}, migrated: map[string]bool{}}
}

func (m *mockSchemas) CreateSchema(_ context.Context, t *tenant.Tenant) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schemas[t.SchemaName()] = true
	return nil
}

func (m *mockSchemas) SchemaExists(_ context.Context, t *tenant.Tenant) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.schemas[t.SchemaName()], nil
}

func (m *mockSchemas) MigrateSchema(_ context.Context, t *tenant.Tenant) error {
	if m.migrateErr != nil {
		return m.migrateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.migrated[t.SchemaName()] = true
	return nil
}

func (m *mockSchemas) DropSchema(_ context.Context, t *tenant.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.schemas, t.SchemaName())
	delete(m.migrated, t.SchemaName())
	return nil
}

// mockCache is a trivial cache.Cache that ignores TTLs.
type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}}
}

func (c *mockCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mockCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mockCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}
