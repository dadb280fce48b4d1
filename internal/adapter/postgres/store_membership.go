package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/staffhive/staffhive/internal/domain"
	"github.com/staffhive/staffhive/internal/domain/tenant"
)

func (s *Store) CreateMembership(ctx context.Context, m *tenant.Membership) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO memberships (user_id, tenant_id, role, invited_at, accepted_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		m.UserID, m.TenantID, m.Role, m.InvitedAt, nullTime(m.AcceptedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create membership: %w", domain.ErrConflict)
		}
		return fmt.Errorf("create membership: %w", err)
	}
	return nil
}

func (s *Store) GetMembership(ctx context.Context, userID, tenantID string) (*tenant.Membership, error) {
	var m tenant.Membership
	var acceptedAt *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, tenant_id, role, invited_at, accepted_at
		 FROM memberships WHERE user_id = $1 AND tenant_id = $2`,
		userID, tenantID,
	).Scan(&m.UserID, &m.TenantID, &m.Role, &m.InvitedAt, &acceptedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get membership: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}
	m.AcceptedAt = timeOrZero(acceptedAt)
	return &m, nil
}

// ListMembershipsByUser returns the user's memberships joined with the
// directory fields the tenant-selection screen renders, ordered by tenant
// name.
func (s *Store) ListMembershipsByUser(ctx context.Context, userID string) ([]tenant.UserMembership, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT m.user_id, m.tenant_id, m.role, m.invited_at, m.accepted_at,
		        t.name, t.slug, t.logo_path, t.primary_color
		 FROM memberships m
		 JOIN tenants t ON t.id = m.tenant_id
		 WHERE m.user_id = $1
		 ORDER BY t.name ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []tenant.UserMembership
	for rows.Next() {
		var um tenant.UserMembership
		var acceptedAt *time.Time
		if err := rows.Scan(&um.UserID, &um.TenantID, &um.Role, &um.InvitedAt,
			&acceptedAt, &um.TenantName, &um.TenantSlug,
			&um.Branding.LogoPath, &um.Branding.PrimaryColor); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		um.AcceptedAt = timeOrZero(acceptedAt)
		memberships = append(memberships, um)
	}
	return memberships, rows.Err()
}

func (s *Store) DeleteMembership(ctx context.Context, userID, tenantID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM memberships WHERE user_id = $1 AND tenant_id = $2`,
		userID, tenantID)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete membership: %w", domain.ErrNotFound)
	}
	return nil
}
