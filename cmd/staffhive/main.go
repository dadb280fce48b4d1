package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	shttp "github.com/staffhive/staffhive/internal/adapter/http"
	sotel "github.com/staffhive/staffhive/internal/adapter/otel"
	"github.com/staffhive/staffhive/internal/adapter/postgres"
	"github.com/staffhive/staffhive/internal/adapter/ristretto"
	"github.com/staffhive/staffhive/internal/config"
	"github.com/staffhive/staffhive/internal/logger"
	"github.com/staffhive/staffhive/internal/service"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.SetDefault(logger.New(cfg.Logging))
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"root_domain", cfg.Server.RootDomain,
		"log_level", cfg.Logging.Level,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tracing
	shutdownTracer, err := sotel.InitTracer(ctx, cfg.Logging.Service, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			slog.Warn("tracer shutdown failed", "error", err)
		}
	}()

	// Platform store
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.MigratePlatform(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("platform migrations: %w", err)
	}
	slog.Info("platform migrations applied")

	// Per-tenant schema pools
	schemas := postgres.NewSchemaManager(pool, cfg.Postgres)
	defer schemas.Close()

	// Directory cache
	cache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer cache.Close()

	// Services
	store := postgres.NewStore(pool)
	directorySvc := service.NewDirectoryService(store, schemas, cache, cfg.Cache.TenantTTL)
	authSvc := service.NewAuthService(store, &cfg.Auth)
	handoffSvc := service.NewHandoffService(store, cfg.Server.RootDomain, cfg.Server.Scheme, cfg.Handoff.TTL)
	policySvc := service.NewPolicyService(store)

	if err := authSvc.SeedOperator(ctx); err != nil {
		return fmt.Errorf("seed operator: %w", err)
	}

	handoffSvc.StartSweeper(ctx, cfg.Handoff.SweepInterval)

	// HTTP
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	if cfg.Tracing.Enabled {
		r.Use(sotel.HTTPMiddleware(cfg.Logging.Service))
	}

	handlers := shttp.NewHandlers(cfg, authSvc, directorySvc, handoffSvc, policySvc)
	shttp.MountRoutes(r, handlers, schemas)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("starting server", "addr", addr, "root_domain", cfg.Server.RootDomain)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
