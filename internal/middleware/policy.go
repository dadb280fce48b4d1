package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/staffhive/staffhive/internal/service"
)

type decisionCtxKey struct{}

// Authorize is middleware that evaluates the access policy once per
// request, against the session user and the bound tenant, and stores the
// resulting decision in the context. Guards downstream read the decision
// instead of re-querying memberships.
func Authorize(policy *service.PolicyService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d, err := policy.Evaluate(r.Context(), UserFromContext(r.Context()), TenantFromContext(r.Context()))
			if err != nil {
				slog.Error("policy evaluation failed", "error", err)
				http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
				return
			}
			ctx := context.WithValue(r.Context(), decisionCtxKey{}, d)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DecisionFromContext returns the decision stored by Authorize. The zero
// decision denies everything.
func DecisionFromContext(ctx context.Context) service.Decision {
	d, _ := ctx.Value(decisionCtxKey{}).(service.Decision)
	return d
}

// WithDecision binds a decision to ctx. Exported for tests.
func WithDecision(ctx context.Context, d service.Decision) context.Context {
	return context.WithValue(ctx, decisionCtxKey{}, d)
}

// MembershipGuard rejects non-members on every tenant-subdomain route
// except the handoff landing page itself, which must stay reachable so a
// token in the URL can be redeemed. The rejection is a forbidden
// response, never a redirect. Central-domain requests pass through; the
// central routes carry their own guards.
func MembershipGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if TenantFromContext(r.Context()) == nil || r.URL.Path == "/" {
			next.ServeHTTP(w, r)
			return
		}
		requireDecision(w, r, next, func(d service.Decision) bool { return d.TenantMember })
	})
}

// RequireMember restricts a route to members of the bound tenant.
func RequireMember(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requireDecision(w, r, next, func(d service.Decision) bool { return d.TenantMember })
	})
}

// RequireAdmin restricts a route to administrators of the bound tenant.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requireDecision(w, r, next, func(d service.Decision) bool { return d.TenantAdmin })
	})
}

// RequireOperator restricts a route to platform operators. Unlike the
// tenant guards this one does not depend on a bound tenant.
func RequireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := UserFromContext(r.Context())
		if u == nil {
			http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
			return
		}
		if !u.Operator {
			http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser restricts a route to any authenticated user.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireDecision(w http.ResponseWriter, r *http.Request, next http.Handler, ok func(service.Decision) bool) {
	if UserFromContext(r.Context()) == nil {
		http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
		return
	}
	if !ok(DecisionFromContext(r.Context())) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}
	next.ServeHTTP(w, r)
}
