package middleware_test

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/staffhive/staffhive/internal/domain"
	"github.com/staffhive/staffhive/internal/domain/handoff"
	"github.com/staffhive/staffhive/internal/domain/tenant"
	"github.com/staffhive/staffhive/internal/domain/user"
	"github.com/staffhive/staffhive/internal/port/database"
)

// stubStore implements the handful of store methods the middleware path
// touches. Everything else panics via the embedded nil interface.
type stubStore struct {
	database.Store

	users       map[string]*user.User
	memberships map[string]*tenant.Membership // userID+"/"+tenantID
	tokens      map[string]*handoff.Token
}

func newStubStore() *stubStore {
	return &stubStore{
		users:       map[string]*user.User{},
		memberships: map[string]*tenant.Membership{},
		tokens:      map[string]*handoff.Token{},
	}
}

func (s *stubStore) GetUser(_ context.Context, id string) (*user.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubStore) GetMembership(_ context.Context, userID, tenantID string) (*tenant.Membership, error) {
	if m, ok := s.memberships[userID+"/"+tenantID]; ok {
		return m, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubStore) CreateHandoffToken(_ context.Context, t *handoff.Token) error {
	s.tokens[t.Value] = t
	return nil
}

func (s *stubStore) GetHandoffToken(_ context.Context, value string) (*handoff.Token, error) {
	if t, ok := s.tokens[value]; ok {
		return t, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubStore) DeleteHandoffToken(_ context.Context, value string) error {
	if _, ok := s.tokens[value]; !ok {
		return domain.ErrNotFound
	}
	delete(s.tokens, value)
	return nil
}

// stubDirectory resolves slugs from a fixed map.
type stubDirectory struct {
	tenants map[string]*tenant.Tenant
}

func (d *stubDirectory) GetBySlug(_ context.Context, slug string) (*tenant.Tenant, error) {
	if t, ok := d.tenants[slug]; ok {
		return t, nil
	}
	return nil, domain.ErrNotFound
}

// failingPools always fails the pool lookup.
type failingPools struct{}

func (failingPools) Pool(context.Context, *tenant.Tenant) (*pgxpool.Pool, error) {
	return nil, errors.New("no database in tests")
}
