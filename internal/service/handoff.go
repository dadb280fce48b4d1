package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/staffhive/staffhive/internal/domain"
	"github.com/staffhive/staffhive/internal/domain/handoff"
	"github.com/staffhive/staffhive/internal/domain/tenant"
	"github.com/staffhive/staffhive/internal/domain/user"
	"github.com/staffhive/staffhive/internal/port/database"
)

// Handoff consumption failures. All of them leave the request
// unauthenticated; they differ only in whether the token was burned.
var (
	// ErrTokenNotFound: unknown token value, treated like an absent token.
	ErrTokenNotFound = errors.New("handoff token not found")
	// ErrTokenExpired: the token stays in storage; expiry makes it
	// self-limiting and the sweeper removes it eventually.
	ErrTokenExpired = errors.New("handoff token expired")
	// ErrWrongTenant: presented on a subdomain other than its target. The
	// token stays in storage because it may still be valid on its own
	// subdomain.
	ErrWrongTenant = errors.New("handoff token targets another tenant")
	// ErrMembershipRevoked: the pairing can never become valid again, so
	// the token was deleted before this error was returned.
	ErrMembershipRevoked = errors.New("handoff token user is no longer a member")
)

// HandoffService issues and consumes the short-lived single-use tokens
// that carry a (user, tenant) pairing from the central domain to a
// tenant subdomain.
type HandoffService struct {
	store      database.Store
	rootDomain string
	scheme     string
	ttl        time.Duration
}

// NewHandoffService creates a HandoffService.
func NewHandoffService(store database.Store, rootDomain, scheme string, ttl time.Duration) *HandoffService {
	if ttl <= 0 {
		ttl = handoff.DefaultTTL
	}
	return &HandoffService{store: store, rootDomain: rootDomain, scheme: scheme, ttl: ttl}
}

// Issue creates a token pairing the user with the target tenant.
func (s *HandoffService) Issue(ctx context.Context, userID, tenantID string) (*handoff.Token, error) {
	value, err := generateToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate handoff token: %w", err)
	}

	t := &handoff.Token{
		Value:     value,
		UserID:    userID,
		TenantID:  tenantID,
		ExpiresAt: time.Now().Add(s.ttl),
	}

	if err := s.store.CreateHandoffToken(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// IssueForMember issues a token only when the user holds a membership for
// the tenant. Selection submissions for non-member tenants are rejected
// with ErrForbidden before any token exists.
func (s *HandoffService) IssueForMember(ctx context.Context, userID, tenantID string) (*handoff.Token, error) {
	if _, err := s.store.GetMembership(ctx, userID, tenantID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("select tenant %s: %w", tenantID, domain.ErrForbidden)
		}
		return nil, err
	}
	return s.Issue(ctx, userID, tenantID)
}

// RedirectURL builds the subdomain URL that carries the token across the
// domain boundary: {scheme}://{slug}.{root-domain}/?token={token}.
func (s *HandoffService) RedirectURL(t *tenant.Tenant, tok *handoff.Token) string {
	u := url.URL{
		Scheme:   s.scheme,
		Host:     t.Slug + "." + s.rootDomain,
		Path:     "/",
		RawQuery: url.Values{"token": {tok.Value}}.Encode(),
	}
	return u.String()
}

// Consume redeems a token presented on the subdomain of boundTenantID.
// The checks run in a fixed order and each failure short-circuits:
//
//  1. unknown value -> ErrTokenNotFound, nothing touched
//  2. expired -> ErrTokenExpired, token kept (sweeper cleans it up)
//  3. tenant mismatch -> ErrWrongTenant, token kept (still redeemable on
//     its own subdomain)
//  4. tenant match -> token deleted NOW, regardless of what follows:
//     once its target subdomain has seen it, it is spent
//  5. membership re-check -> ErrMembershipRevoked if the user was detached
//     after issuance
//
// On success the token's user is returned for session establishment.
func (s *HandoffService) Consume(ctx context.Context, boundTenantID, value string, now time.Time) (*user.User, error) {
	tok, err := s.store.GetHandoffToken(ctx, value)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	if tok.Expired(now) {
		return nil, ErrTokenExpired
	}

	if tok.TenantID != boundTenantID {
		return nil, ErrWrongTenant
	}

	// Tenant identity confirmed: the token is spent from here on,
	// independent of the remaining checks. A concurrent consumer loses
	// the delete race and is treated as presenting an unknown token.
	if err := s.store.DeleteHandoffToken(ctx, value); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	if _, err := s.store.GetMembership(ctx, tok.UserID, tok.TenantID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrMembershipRevoked
		}
		return nil, err
	}

	u, err := s.store.GetUser(ctx, tok.UserID)
	if err != nil {
		return nil, fmt.Errorf("handoff user: %w", err)
	}
	return u, nil
}

// Memberships returns the user's memberships joined with directory fields,
// ordered by tenant name, for the selection screen.
func (s *HandoffService) Memberships(ctx context.Context, userID string) ([]tenant.UserMembership, error) {
	return s.store.ListMembershipsByUser(ctx, userID)
}

// StartSweeper starts a background goroutine that periodically purges
// expired handoff tokens. Request-time consumption never deletes expired
// tokens; this sweep is their only cleanup. It stops when ctx is cancelled.
func (s *HandoffService) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.store.PurgeExpiredHandoffTokens(ctx)
				if err != nil {
					slog.Warn("failed to purge expired handoff tokens", "error", err)
				} else if n > 0 {
					slog.Info("purged expired handoff tokens", "count", n)
				}
			}
		}
	}()
}
