package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/staffhive/staffhive/internal/domain"
	"github.com/staffhive/staffhive/internal/domain/tenant"
)

func newTestDirectory(store *mockStore, schemas *mockSchemas) *DirectoryService {
	return NewDirectoryService(store, schemas, newMockCache(), time.Minute)
}

func TestDirectoryRegister(t *testing.T) {
	store := &mockStore{}
	schemas := newMockSchemas()
	svc := newTestDirectory(store, schemas)
	ctx := context.Background()

	tn, err := svc.Register(ctx, tenant.CreateRequest{Name: "Alpha Corp", Slug: "alpha"}, "owner-1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if !tn.Provisioned {
		t.Error("expected tenant to be provisioned")
	}
	if tn.Timezone != tenant.DefaultTimezone {
		t.Errorf("timezone = %q, want default", tn.Timezone)
	}
	if !schemas.schemas["hive_tenant_alpha"] {
		t.Error("expected schema hive_tenant_alpha to exist")
	}
	if !schemas.migrated["hive_tenant_alpha"] {
		t.Error("expected schema hive_tenant_alpha to be migrated")
	}

	// The registering user is the first administrator.
	m, err := store.GetMembership(ctx, "owner-1", tn.ID)
	if err != nil {
		t.Fatalf("owner membership: %v", err)
	}
	if m.Role != tenant.RoleAdmin {
		t.Errorf("owner role = %q, want admin", m.Role)
	}
}

func TestDirectoryRegisterInvalidSlug(t *testing.T) {
	svc := newTestDirectory(&mockStore{}, newMockSchemas())
	ctx := context.Background()

	for _, slug := range []string{"", "-alpha", "alpha-", "Alpha", "has space", "café", "www"} {
		_, err := svc.Register(ctx, tenant.CreateRequest{Name: "X", Slug: slug}, "u1")
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("slug %q: err = %v, want ErrValidation", slug, err)
		}
	}
}

func TestDirectoryRegisterDuplicateSlug(t *testing.T) {
	store := &mockStore{}
	svc := newTestDirectory(store, newMockSchemas())
	ctx := context.Background()

	if _, err := svc.Register(ctx, tenant.CreateRequest{Name: "Alpha", Slug: "alpha"}, "u1"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(ctx, tenant.CreateRequest{Name: "Alpha Two", Slug: "alpha"}, "u2")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestDirectoryRegisterProvisioningFailureUnwinds(t *testing.T) {
	store := &mockStore{}
	schemas := newMockSchemas()
	schemas.migrateErr = errors.New("migration blew up")
	svc := newTestDirectory(store, schemas)
	ctx := context.Background()

	_, err := svc.Register(ctx, tenant.CreateRequest{Name: "Alpha", Slug: "alpha"}, "u1")
	if err == nil {
		t.Fatal("expected registration to fail")
	}

	// Nothing may look complete: no directory row, no schema.
	if _, err := store.GetTenantBySlug(ctx, "alpha"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("tenant row survived failed registration: %v", err)
	}
	if schemas.schemas["hive_tenant_alpha"] {
		t.Error("schema survived failed registration")
	}
}

func TestDirectoryRegisterSchemaCreateFailure(t *testing.T) {
	store := &mockStore{}
	schemas := newMockSchemas()
	schemas.createErr = errors.New("no disk")
	svc := newTestDirectory(store, schemas)

	_, err := svc.Register(context.Background(), tenant.CreateRequest{Name: "Alpha", Slug: "alpha"}, "u1")
	if err == nil {
		t.Fatal("expected registration to fail")
	}
	if _, err := store.GetTenantBySlug(context.Background(), "alpha"); !errors.Is(err, domain.ErrNotFound) {
		t.Error("tenant row survived failed schema creation")
	}
}

func TestDirectoryGetBySlugCaches(t *testing.T) {
	store := &mockStore{}
	cache := newMockCache()
	svc := NewDirectoryService(store, newMockSchemas(), cache, time.Minute)
	ctx := context.Background()

	tn, err := svc.Register(ctx, tenant.CreateRequest{Name: "Alpha", Slug: "alpha"}, "u1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := svc.GetBySlug(ctx, "alpha")
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if got.ID != tn.ID {
		t.Errorf("id = %s, want %s", got.ID, tn.ID)
	}

	// Second lookup is served from cache even if the row vanishes.
	if err := store.DeleteTenant(ctx, tn.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetBySlug(ctx, "alpha"); err != nil {
		t.Fatalf("cached lookup: %v", err)
	}
}

func TestDirectoryUpdateInvalidatesCache(t *testing.T) {
	store := &mockStore{}
	cache := newMockCache()
	svc := NewDirectoryService(store, newMockSchemas(), cache, time.Minute)
	ctx := context.Background()

	tn, err := svc.Register(ctx, tenant.CreateRequest{Name: "Alpha", Slug: "alpha"}, "u1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.GetBySlug(ctx, "alpha"); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Update(ctx, tn.ID, tenant.UpdateRequest{Name: "Alpha Renamed"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := svc.GetBySlug(ctx, "alpha")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Alpha Renamed" {
		t.Errorf("name = %q, want Alpha Renamed (stale cache?)", got.Name)
	}
	if got.Slug != "alpha" {
		t.Errorf("slug changed on update: %q", got.Slug)
	}
}

func TestDirectoryRevokeMembership(t *testing.T) {
	store := &mockStore{}
	svc := newTestDirectory(store, newMockSchemas())
	ctx := context.Background()

	tn, err := svc.Register(ctx, tenant.CreateRequest{Name: "Alpha", Slug: "alpha"}, "u1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.RevokeMembership(ctx, "u1", tn.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := store.GetMembership(ctx, "u1", tn.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Error("membership survived revocation")
	}
}
