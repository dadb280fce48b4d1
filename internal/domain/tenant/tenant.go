// Package tenant defines the tenant directory model and its invariants.
package tenant

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/staffhive/staffhive/internal/domain"
)

// SchemaPrefix is the fixed prefix for per-tenant PostgreSQL schemas.
// The full schema name is a deterministic function of the slug only, so
// operational tooling can locate a tenant's schema without the directory.
const SchemaPrefix = "hive_tenant_"

// DefaultTimezone applies when a tenant is registered without one.
const DefaultTimezone = "UTC"

// slugRe matches lowercase DNS-label style slugs: letters, digits and
// internal hyphens, 1-63 characters, no leading or trailing hyphen.
var slugRe = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)

// reservedSlugs are subdomain labels that can never identify a tenant.
var reservedSlugs = map[string]bool{
	"www":    true,
	"api":    true,
	"app":    true,
	"admin":  true,
	"assets": true,
	"mail":   true,
}

// Branding holds the per-tenant visual identity shown on its subdomain.
type Branding struct {
	LogoPath     string `json:"logo_path,omitempty" yaml:"logo_path"`
	PrimaryColor string `json:"primary_color,omitempty" yaml:"primary_color"`
}

// Tenant is one customer organization, isolated by subdomain and by its
// own PostgreSQL schema. The business-info, payroll and leave blobs are
// opaque to this core and owned by the HR modules.
type Tenant struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Slug            string          `json:"slug"`
	Timezone        string          `json:"timezone"`
	BusinessInfo    json.RawMessage `json:"business_info,omitempty"`
	PayrollSettings json.RawMessage `json:"payroll_settings,omitempty"`
	LeaveDefaults   json.RawMessage `json:"leave_defaults,omitempty"`
	Branding        Branding        `json:"branding"`
	Provisioned     bool            `json:"provisioned"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// SchemaName returns the tenant's isolated schema name, derived from the
// slug alone. Hyphens map to underscores so the name needs no quoting.
func (t *Tenant) SchemaName() string {
	return SchemaName(t.Slug)
}

// SchemaName derives the isolated schema name for a slug.
func SchemaName(slug string) string {
	return SchemaPrefix + strings.ReplaceAll(slug, "-", "_")
}

// ValidateSlug enforces the slug invariants shared by registration and
// subdomain resolution.
func ValidateSlug(slug string) error {
	if !slugRe.MatchString(slug) {
		return fmt.Errorf("%w: slug %q must be 1-63 lowercase letters, digits or internal hyphens", domain.ErrValidation, slug)
	}
	if reservedSlugs[slug] {
		return fmt.Errorf("%w: slug %q is reserved", domain.ErrValidation, slug)
	}
	return nil
}

// CreateRequest holds the fields required to register a new tenant.
type CreateRequest struct {
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	Timezone     string          `json:"timezone,omitempty"`
	BusinessInfo json.RawMessage `json:"business_info,omitempty"`
	Branding     Branding        `json:"branding"`
}

// Validate checks that the CreateRequest satisfies the directory invariants.
func (r *CreateRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: tenant name is required", domain.ErrValidation)
	}
	return ValidateSlug(r.Slug)
}

// UpdateRequest holds the fields that can change after registration.
// The slug is deliberately absent: it is immutable once the schema has
// been provisioned.
type UpdateRequest struct {
	Name            string          `json:"name,omitempty"`
	Timezone        string          `json:"timezone,omitempty"`
	BusinessInfo    json.RawMessage `json:"business_info,omitempty"`
	PayrollSettings json.RawMessage `json:"payroll_settings,omitempty"`
	LeaveDefaults   json.RawMessage `json:"leave_defaults,omitempty"`
	Branding        *Branding       `json:"branding,omitempty"`
}
