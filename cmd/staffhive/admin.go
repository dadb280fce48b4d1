package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/staffhive/staffhive/internal/adapter/postgres"
	"github.com/staffhive/staffhive/internal/config"
	"github.com/staffhive/staffhive/internal/domain/user"
	"github.com/staffhive/staffhive/internal/service"
)

// runAdmin dispatches admin subcommands (create-operator, list-tenants, provision-tenant).
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "create-operator":
		return runAdminCreateOperator(args[1:])
	case "list-tenants":
		return runAdminListTenants(args[1:])
	case "provision-tenant":
		return runAdminProvisionTenant(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: staffhive admin <command> [options]

Commands:
  create-operator    Create a platform operator account
  list-tenants       List all tenants in the directory
  provision-tenant   Re-apply tenant migrations to a tenant's schema
  help               Show this help message

Examples:
  staffhive admin create-operator --email ops@staffhive.example --name "Platform Ops"
  staffhive admin list-tenants
  staffhive admin provision-tenant --slug acme
`)
}

type adminDeps struct {
	auth      *service.AuthService
	directory *service.DirectoryService
	cleanup   func()
}

func loadAdminDeps() (*adminDeps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	store := postgres.NewStore(pool)
	schemas := postgres.NewSchemaManager(pool, cfg.Postgres)

	return &adminDeps{
		auth:      service.NewAuthService(store, &cfg.Auth),
		directory: service.NewDirectoryService(store, schemas, noopCache{}, 0),
		cleanup: func() {
			schemas.Close()
			pool.Close()
		},
	}, nil
}

func runAdminCreateOperator(args []string) error {
	fs := flag.NewFlagSet("create-operator", flag.ContinueOnError)
	email := fs.String("email", "", "operator email address (required)")
	name := fs.String("name", "", "operator display name (required)")
	password := fs.String("password", "", "password (prompted if not provided)") //nolint:gosec // CLI flag
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		return fmt.Errorf("--email is required")
	}
	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	pass := *password
	if pass == "" {
		var err error
		pass, err = promptPassword("Password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		if pass != confirm {
			return fmt.Errorf("passwords do not match")
		}
	}

	deps, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer deps.cleanup()

	u, err := deps.auth.RegisterOperator(context.Background(), &user.CreateRequest{
		Email:    *email,
		Name:     *name,
		Password: pass,
	})
	if err != nil {
		return fmt.Errorf("create operator: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Operator created: %s (id=%s)\n", u.Email, u.ID)
	return nil
}

func runAdminListTenants(args []string) error {
	fs := flag.NewFlagSet("list-tenants", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	deps, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer deps.cleanup()

	tenants, err := deps.directory.List(context.Background())
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}

	if len(tenants) == 0 {
		fmt.Println("No tenants found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tSLUG\tSCHEMA\tPROVISIONED")
	for i := range tenants {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n",
			tenants[i].ID, tenants[i].Name, tenants[i].Slug, tenants[i].SchemaName(), tenants[i].Provisioned)
	}
	return w.Flush()
}

func runAdminProvisionTenant(args []string) error {
	fs := flag.NewFlagSet("provision-tenant", flag.ContinueOnError)
	slug := fs.String("slug", "", "tenant slug (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *slug == "" {
		return fmt.Errorf("--slug is required")
	}

	deps, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer deps.cleanup()

	ctx := context.Background()
	t, err := deps.directory.GetBySlug(ctx, *slug)
	if err != nil {
		return fmt.Errorf("look up tenant: %w", err)
	}

	if err := deps.directory.Migrate(ctx, t); err != nil {
		return fmt.Errorf("migrate tenant schema: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Tenant %s migrated (schema %s)\n", t.Slug, t.SchemaName())
	return nil
}

// noopCache skips caching for one-shot CLI invocations.
type noopCache struct{}

func (noopCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (noopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (noopCache) Delete(context.Context, string) error                     { return nil }

// promptPassword reads a password from the terminal without echoing.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // int conversion needed on some platforms
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
