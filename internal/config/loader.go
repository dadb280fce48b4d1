package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "staffhive.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// The YAML file is optional; a missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "STAFFHIVE_PORT")
	setString(&cfg.Server.RootDomain, "STAFFHIVE_ROOT_DOMAIN")
	setString(&cfg.Server.Scheme, "STAFFHIVE_SCHEME")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "STAFFHIVE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "STAFFHIVE_PG_MIN_CONNS")
	setInt32(&cfg.Postgres.TenantMaxConns, "STAFFHIVE_PG_TENANT_MAX_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "STAFFHIVE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "STAFFHIVE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "STAFFHIVE_PG_HEALTH_CHECK")
	setString(&cfg.Auth.JWTSecret, "STAFFHIVE_JWT_SECRET")
	setDuration(&cfg.Auth.SessionExpiry, "STAFFHIVE_SESSION_EXPIRY")
	setInt(&cfg.Auth.BcryptCost, "STAFFHIVE_BCRYPT_COST")
	setString(&cfg.Auth.OperatorEmail, "STAFFHIVE_OPERATOR_EMAIL")
	setString(&cfg.Auth.OperatorPass, "STAFFHIVE_OPERATOR_PASS")
	setDuration(&cfg.Handoff.TTL, "STAFFHIVE_HANDOFF_TTL")
	setDuration(&cfg.Handoff.SweepInterval, "STAFFHIVE_HANDOFF_SWEEP_INTERVAL")
	setInt64(&cfg.Cache.MaxSizeMB, "STAFFHIVE_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.TenantTTL, "STAFFHIVE_CACHE_TENANT_TTL")
	setString(&cfg.Logging.Level, "STAFFHIVE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "STAFFHIVE_LOG_SERVICE")
	setBool(&cfg.Tracing.Enabled, "STAFFHIVE_TRACING_ENABLED")
	setString(&cfg.Tracing.Endpoint, "STAFFHIVE_TRACING_ENDPOINT")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Server.RootDomain == "" {
		return errors.New("server.root_domain is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Postgres.TenantMaxConns < 1 {
		return errors.New("postgres.tenant_max_conns must be >= 1")
	}
	if cfg.Handoff.TTL <= 0 {
		return errors.New("handoff.ttl must be positive")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
