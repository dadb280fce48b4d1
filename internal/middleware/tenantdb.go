package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/staffhive/staffhive/internal/domain/tenant"
	"github.com/staffhive/staffhive/internal/logger"
)

type tenantPoolCtxKey struct{}

// PoolProvider hands out the connection pool pinned to a tenant's schema.
type PoolProvider interface {
	Pool(ctx context.Context, t *tenant.Tenant) (*pgxpool.Pool, error)
}

// SwitchTenantStore is middleware that injects the bound tenant's
// connection pool into the request context. It runs strictly after
// ResolveTenant; on the central domain (no tenant bound) it is a no-op
// and the platform store stays active. A pool failure is fatal to the
// request — serving tenant routes against the wrong store is never an
// acceptable fallback.
func SwitchTenantStore(pools PoolProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t := TenantFromContext(r.Context())
			if t == nil {
				next.ServeHTTP(w, r)
				return
			}

			pool, err := pools.Pool(r.Context(), t)
			if err != nil {
				slog.Error("tenant store switch failed",
					"request_id", logger.RequestID(r.Context()),
					"tenant", t.Slug, "error", err)
				http.Error(w, `{"error":"tenant store unavailable"}`, http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), tenantPoolCtxKey{}, pool)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TenantPoolFromContext returns the pool injected by SwitchTenantStore,
// or nil on the central domain.
func TenantPoolFromContext(ctx context.Context) *pgxpool.Pool {
	p, _ := ctx.Value(tenantPoolCtxKey{}).(*pgxpool.Pool)
	return p
}
