// Package handoff defines the short-lived single-use token that bridges
// authentication from the central domain to a tenant subdomain.
package handoff

import "time"

// DefaultTTL is how long an issued token stays redeemable. Long enough
// for one redirect round-trip, short enough to make interception low-value.
const DefaultTTL = 5 * time.Minute

// Token pairs a user with a target tenant. The value is an opaque random
// string; there is no signature, validity is enforced server-side by
// expiry, tenant match and single-use deletion.
type Token struct {
	Value     string    `json:"-"` // never serialized in API responses
	UserID    string    `json:"user_id"`
	TenantID  string    `json:"tenant_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the token is past its expiry at the given instant.
func (t *Token) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
