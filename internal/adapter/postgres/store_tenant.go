package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/staffhive/staffhive/internal/domain"
	"github.com/staffhive/staffhive/internal/domain/tenant"
)

const tenantColumns = `id, name, slug, timezone, business_info, payroll_settings,
	leave_defaults, logo_path, primary_color, provisioned, created_at, updated_at`

func scanTenant(row scannable) (*tenant.Tenant, error) {
	var t tenant.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Timezone, &t.BusinessInfo,
		&t.PayrollSettings, &t.LeaveDefaults, &t.Branding.LogoPath,
		&t.Branding.PrimaryColor, &t.Provisioned, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) CreateTenant(ctx context.Context, t *tenant.Tenant) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tenants (id, name, slug, timezone, business_info, payroll_settings,
		   leave_defaults, logo_path, primary_color, provisioned)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.Name, t.Slug, t.Timezone, t.BusinessInfo, t.PayrollSettings,
		t.LeaveDefaults, t.Branding.LogoPath, t.Branding.PrimaryColor, t.Provisioned)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create tenant %s: %w", t.Slug, domain.ErrConflict)
		}
		return fmt.Errorf("create tenant %s: %w", t.Slug, err)
	}
	return nil
}

func (s *Store) GetTenant(ctx context.Context, id string) (*tenant.Tenant, error) {
	t, err := scanTenant(s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get tenant %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get tenant %s: %w", id, err)
	}
	return t, nil
}

func (s *Store) GetTenantBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	t, err := scanTenant(s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE slug = $1`, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get tenant by slug %s: %w", slug, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get tenant by slug %s: %w", slug, err)
	}
	return t, nil
}

func (s *Store) ListTenants(ctx context.Context) ([]tenant.Tenant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tenantColumns+` FROM tenants ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []tenant.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, *t)
	}
	return tenants, rows.Err()
}

// UpdateTenant persists the mutable directory fields. The slug is not in
// the SET list: it is immutable once the schema has been provisioned.
func (s *Store) UpdateTenant(ctx context.Context, t *tenant.Tenant) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tenants SET name = $2, timezone = $3, business_info = $4,
		   payroll_settings = $5, leave_defaults = $6, logo_path = $7,
		   primary_color = $8, updated_at = now()
		 WHERE id = $1`,
		t.ID, t.Name, t.Timezone, t.BusinessInfo, t.PayrollSettings,
		t.LeaveDefaults, t.Branding.LogoPath, t.Branding.PrimaryColor)
	if err != nil {
		return fmt.Errorf("update tenant %s: %w", t.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update tenant %s: %w", t.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) MarkTenantProvisioned(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tenants SET provisioned = TRUE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark tenant provisioned %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark tenant provisioned %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteTenant(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tenant %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete tenant %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
