/*
Copyright (C) 2026 NetFlex ISP

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// DevJWTSigningKey is the development-only fallback signing key. Load
// refuses to start with it outside the development environment.
const DevJWTSigningKey = "netflex-dev-secret"

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int
	DBBackend   DatabaseBackend
	DBDSN       string

	JWTSigningKey string
	TokenTTL      time.Duration

	MetricsBind string

	// Allowed browser origins for the dashboard SPA.
	CORSOrigins []string

	// Artificial round-trip applied by the ONU simulator.
	SimulatedLatency time.Duration

	// Bootstrap admin credentials ensured on first run.
	BootstrapAdminUser     string
	BootstrapAdminPassword string
}

// Load reads environment variables, applies defaults, and validates the
// result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("NETFLEX_ENV", "development"),
		HTTPBind:    getEnv("NETFLEX_HTTP_BIND", "0.0.0.0"),
		HTTPPort:    getEnvInt("NETFLEX_HTTP_PORT", 3000),
		DBBackend:   DatabaseBackend(getEnv("NETFLEX_DB_BACKEND", string(DatabaseSQLite))),
		DBDSN:       getEnv("NETFLEX_DB_DSN", "netflex.db"),

		JWTSigningKey: getEnv("NETFLEX_JWT_SIGNING_KEY", ""),
		TokenTTL:      time.Duration(getEnvInt("NETFLEX_TOKEN_TTL_HOURS", 8)) * time.Hour,

		MetricsBind: getEnv("NETFLEX_METRICS_BIND", "127.0.0.1:9000"),

		CORSOrigins: splitList(getEnv("NETFLEX_CORS_ORIGINS", "http://localhost:5173")),

		SimulatedLatency: time.Duration(getEnvInt("NETFLEX_SIMULATED_LATENCY_MS", 1500)) * time.Millisecond,

		BootstrapAdminUser:     getEnv("NETFLEX_BOOTSTRAP_ADMIN_USER", "admin"),
		BootstrapAdminPassword: getEnv("NETFLEX_BOOTSTRAP_ADMIN_PASSWORD", "admin123"),
	}

	if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("NETFLEX_DB_DSN must be provided")
	}

	// The signing key falls back to a fixed development value, never
	// silently in production.
	if cfg.JWTSigningKey == "" {
		if strings.EqualFold(cfg.Environment, "development") {
			cfg.JWTSigningKey = DevJWTSigningKey
		} else {
			return nil, fmt.Errorf("NETFLEX_JWT_SIGNING_KEY must be provided outside development")
		}
	}
	if !strings.EqualFold(cfg.Environment, "development") && cfg.JWTSigningKey == DevJWTSigningKey {
		return nil, fmt.Errorf("NETFLEX_JWT_SIGNING_KEY must not be the development default outside development")
	}

	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("NETFLEX_TOKEN_TTL_HOURS must be positive")
	}

	return cfg, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}
