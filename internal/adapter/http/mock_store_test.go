package http_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/staffhive/staffhive/internal/domain"
	"github.com/staffhive/staffhive/internal/domain/handoff"
	"github.com/staffhive/staffhive/internal/domain/tenant"
	"github.com/staffhive/staffhive/internal/domain/user"
)

// mockStore implements database.Store for handler tests.
type mockStore struct {
	mu          sync.Mutex
	tenants     []tenant.Tenant
	users       []user.User
	memberships []tenant.Membership
	tokens      map[string]handoff.Token
}

func newMockStore() *mockStore {
	return &mockStore{tokens: map[string]handoff.Token{}}
}

func (m *mockStore) CreateTenant(_ context.Context, t *tenant.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tenants {
		if m.tenants[i].Slug == t.Slug {
			return fmt.Errorf("create tenant: %w", domain.ErrConflict)
		}
	}
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
	out := append([]tenant.Tenant(nil), m.tenants...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
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
	m.mu.Lock()
	defer m.mu.Unlock()
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
	for _, mem := range m.memberships {
		if mem.UserID != userID {
			continue
		}
		for _, t := range m.tenants {
			if t.ID == mem.TenantID {
				out = append(out, tenant.UserMembership{
					Membership: mem,
					TenantName: t.Name,
					TenantSlug: t.Slug,
					Branding:   t.Branding,
				})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TenantName < out[j].TenantName })
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
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[t.Value] = *t
	return nil
}

func (m *mockStore) GetHandoffToken(_ context.Context, value string) (*handoff.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[value]; ok {
		return &t, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) DeleteHandoffToken(_ context.Context, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[value]; !ok {
		return domain.ErrNotFound
	}
	delete(m.tokens, value)
	return nil
}

func (m *mockStore) PurgeExpiredHandoffTokens(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	now := time.Now()
	for v, t := range m.tokens {
		if t.Expired(now) {
			delete(m.tokens, v)
			n++
		}
	}
	return n, nil
}

// mockSchemas implements tenantstore.Manager without a database.
type mockSchemas struct {
	mu      sync.Mutex
	schemas map[string]bool
}

func newMockSchemas() *mockSchemas {
	return &mockSchemas{schemas: map[string]bool{}}
}

func (m *mockSchemas) CreateSchema(_ context.Context, t *tenant.Tenant) error {
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

func (m *mockSchemas) MigrateSchema(_ context.Context, _ *tenant.Tenant) error { return nil }

func (m *mockSchemas) DropSchema(_ context.Context, t *tenant.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.schemas, t.SchemaName())
	return nil
}

// mockCache is a pass-through miss cache.
type mockCache struct{}

func (mockCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (mockCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (mockCache) Delete(context.Context, string) error                     { return nil }

// stubPools satisfies the pool provider without a real database; the
// handlers under test never touch the tenant pool.
type stubPools struct{}

func (stubPools) Pool(context.Context, *tenant.Tenant) (*pgxpool.Pool, error) {
	return &pgxpool.Pool{}, nil
}
