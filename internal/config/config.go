// Package config loads process configuration from environment variables,
// following the same bare-env idiom the rest of this codebase uses rather
// than a configuration framework.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration, named after the external
// contract in the specification rather than internal field conventions.
type Config struct {
	Environment string // development | production
	Debug       bool

	DatabaseURL string
	RedisURL    string

	JWTSecret                string
	JWTAccessTokenExpireMin  time.Duration
	JWTRefreshTokenExpireDay time.Duration

	SuperAdminEmail    string
	SuperAdminPassword string

	CORSOrigins []string

	OIDCEnabled      bool
	OIDCIssuerURL    string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURI  string

	CookieSecure   bool
	CookieSameSite string
	CookieDomain   string

	SentryDSN string
}

// Load reads configuration from environment variables. Callers are expected
// to load a .env file (via godotenv) before calling Load.
func Load() (Config, error) {
	cfg := Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Debug:       getEnvAsBool("DEBUG", false),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),

		JWTSecret:                os.Getenv("JWT_SECRET"),
		JWTAccessTokenExpireMin:  time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
		JWTRefreshTokenExpireDay: time.Duration(getEnvAsInt("JWT_REFRESH_TOKEN_EXPIRE_DAYS", 7)) * 24 * time.Hour,

		SuperAdminEmail:    os.Getenv("SUPERADMIN_EMAIL"),
		SuperAdminPassword: os.Getenv("SUPERADMIN_PASSWORD"),

		CORSOrigins: splitCSV(os.Getenv("CORS_ORIGINS")),

		OIDCEnabled:      getEnvAsBool("OIDC_ENABLED", false),
		OIDCIssuerURL:    os.Getenv("OIDC_ISSUER_URL"),
		OIDCClientID:     os.Getenv("OIDC_CLIENT_ID"),
		OIDCClientSecret: os.Getenv("OIDC_CLIENT_SECRET"),
		OIDCRedirectURI:  os.Getenv("OIDC_REDIRECT_URI"),

		CookieSecure:   getEnvAsBool("COOKIE_SECURE", true),
		CookieSameSite: getEnv("COOKIE_SAMESITE", "strict"),
		CookieDomain:   os.Getenv("COOKIE_DOMAIN"),

		SentryDSN: os.Getenv("SENTRY_DSN"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes")
	}
	if c.OIDCEnabled {
		if c.OIDCIssuerURL == "" || c.OIDCClientID == "" || c.OIDCClientSecret == "" || c.OIDCRedirectURI == "" {
			return fmt.Errorf("OIDC_ENABLED requires OIDC_ISSUER_URL, OIDC_CLIENT_ID, OIDC_CLIENT_SECRET and OIDC_REDIRECT_URI")
		}
	}
	return nil
}

func getEnv(name, defaultVal string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valStr := os.Getenv(name)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}

func getEnvAsInt(name string, defaultVal int) int {
	valStr := os.Getenv(name)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
