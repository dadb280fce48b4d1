package tenant

import "time"

// Role is the authorization grade a user holds within one tenant.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
)

// ValidRoles is the closed set of membership roles.
var ValidRoles = map[Role]bool{
	RoleAdmin:   true,
	RoleManager: true,
	RoleMember:  true,
}

// Membership associates a user with a tenant. A user holds at most one
// role per tenant; absence of a row means "not a member".
type Membership struct {
	UserID     string    `json:"user_id"`
	TenantID   string    `json:"tenant_id"`
	Role       Role      `json:"role"`
	InvitedAt  time.Time `json:"invited_at"`
	AcceptedAt time.Time `json:"accepted_at,omitzero"`
}

// IsAdmin reports whether the membership carries the administrator role.
func (m *Membership) IsAdmin() bool {
	return m.Role == RoleAdmin
}

// UserMembership is a membership joined with the directory fields needed
// by the tenant-selection screen.
type UserMembership struct {
	Membership
	TenantName string   `json:"tenant_name"`
	TenantSlug string   `json:"tenant_slug"`
	Branding   Branding `json:"branding"`
}
