package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/staffhive/staffhive/internal/domain"
	"github.com/staffhive/staffhive/internal/domain/handoff"
)

func (s *Store) CreateHandoffToken(ctx context.Context, t *handoff.Token) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO handoff_tokens (token, user_id, tenant_id, expires_at)
		 VALUES ($1, $2, $3, $4)`,
		t.Value, t.UserID, t.TenantID, t.ExpiresAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create handoff token: %w", domain.ErrConflict)
		}
		return fmt.Errorf("create handoff token: %w", err)
	}
	return nil
}

func (s *Store) GetHandoffToken(ctx context.Context, value string) (*handoff.Token, error) {
	var t handoff.Token
	err := s.pool.QueryRow(ctx,
		`SELECT token, user_id, tenant_id, expires_at
		 FROM handoff_tokens WHERE token = $1`, value,
	).Scan(&t.Value, &t.UserID, &t.TenantID, &t.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get handoff token: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get handoff token: %w", err)
	}
	return &t, nil
}

// DeleteHandoffToken removes the token row. Deleting an already consumed
// token reports ErrNotFound so concurrent consumers cannot both win.
func (s *Store) DeleteHandoffToken(ctx context.Context, value string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM handoff_tokens WHERE token = $1`, value)
	if err != nil {
		return fmt.Errorf("delete handoff token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete handoff token: %w", domain.ErrNotFound)
	}
	return nil
}

func (s *Store) PurgeExpiredHandoffTokens(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM handoff_tokens WHERE expires_at < now()`)
	if err != nil {
		return 0, fmt.Errorf("purge handoff tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
