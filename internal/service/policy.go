package service

import (
	"context"
	"errors"

	"github.com/staffhive/staffhive/internal/domain"
	"github.com/staffhive/staffhive/internal/domain/tenant"
	"github.com/staffhive/staffhive/internal/domain/user"
	"github.com/staffhive/staffhive/internal/port/database"
)

// Decision holds the three access predicates, computed once per request
// from the authenticated user and the bound tenant. Keeping them in one
// place means route guards and handlers never re-derive membership logic.
type Decision struct {
	PlatformOperator bool `json:"platform_operator"`
	TenantAdmin      bool `json:"tenant_admin"`
	TenantMember     bool `json:"tenant_member"`
}

// PolicyService evaluates access predicates against membership rows.
type PolicyService struct {
	store database.Store
}

// NewPolicyService creates a PolicyService.
func NewPolicyService(store database.Store) *PolicyService {
	return &PolicyService{store: store}
}

// Evaluate computes the Decision for (u, t). All predicates are false when
// no tenant is bound: central-domain requests never satisfy tenant-scoped
// policies. With a tenant bound, a platform operator satisfies everything
// with or without a membership row; otherwise the user's membership row
// for that tenant decides.
func (s *PolicyService) Evaluate(ctx context.Context, u *user.User, t *tenant.Tenant) (Decision, error) {
	var d Decision
	if u == nil || t == nil {
		return d, nil
	}

	if u.Operator {
		return Decision{PlatformOperator: true, TenantAdmin: true, TenantMember: true}, nil
	}

	m, err := s.store.GetMembership(ctx, u.ID, t.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return d, nil
		}
		return d, err
	}

	d.TenantMember = true
	d.TenantAdmin = m.IsAdmin()
	return d, nil
}
