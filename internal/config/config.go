// Package config provides environment-driven configuration for the fund
// ledger service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Secret is a string that will not print itself. fmt verbs, %#v, and text
// marshalling all see a placeholder instead of the value.
type Secret string

// String implements fmt.Stringer.
func (s Secret) String() string { return "[REDACTED]" }

// GoString keeps %#v output safe.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText keeps JSON and YAML encoders from leaking the value.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value hands back the raw secret for the call sites that really need it.
func (s Secret) Value() string { return string(s) }

// Config is everything the server reads from the environment.
type Config struct {
	DatabaseURL         Secret
	Port                string
	ListenHost          string
	CORSOrigins         []string
	LogLevel            string
	APIKeys             []Secret
	DBMaxConns          int
	ReallocRatio        decimal.Decimal
	ReconcileEpsilon    decimal.Decimal
	MissingBudgetPolicy string
	NotifyDedupe        bool
	ImportWorkers       int
	CASMaxRetries       int
}

// Load builds a Config from environment variables, applies defaults, and
// validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:         Secret(envOrDefault("DATABASE_URL", "")),
		Port:                envOrDefault("PORT", "3040"),
		ListenHost:          envOrDefault("LISTEN_HOST", "127.0.0.1"),
		LogLevel:            envOrDefault("LOG_LEVEL", "info"),
		MissingBudgetPolicy: envOrDefault("MISSING_BUDGET_POLICY", "error"),
		NotifyDedupe:        envOrDefault("NOTIFY_DEDUPE", "false") == "true",
	}

	importWorkers, err := strconv.Atoi(envOrDefault("IMPORT_WORKERS", "4"))
	if err != nil || importWorkers < 1 || importWorkers > 16 {
		return nil, fmt.Errorf("IMPORT_WORKERS must be an integer from 1 to 16")
	}
	cfg.ImportWorkers = importWorkers

	casRetries, err := strconv.Atoi(envOrDefault("CAS_MAX_RETRIES", "5"))
	if err != nil || casRetries < 1 || casRetries > 20 {
		return nil, fmt.Errorf("CAS_MAX_RETRIES must be an integer from 1 to 20")
	}
	cfg.CASMaxRetries = casRetries

	dbMaxConns, err := strconv.Atoi(envOrDefault("DB_MAX_CONNS", "20"))
	if err != nil || dbMaxConns < 2 || dbMaxConns > 200 {
		return nil, fmt.Errorf("DB_MAX_CONNS must be an integer from 2 to 200")
	}
	cfg.DBMaxConns = dbMaxConns

	ratio, err := decimal.NewFromString(envOrDefault("REALLOC_THRESHOLD_RATIO", "0.2"))
	if err != nil || !ratio.IsPositive() || ratio.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("REALLOC_THRESHOLD_RATIO must be a decimal greater than 0 and at most 1")
	}
	cfg.ReallocRatio = ratio

	epsilon, err := decimal.NewFromString(envOrDefault("RECONCILE_EPSILON", "0.01"))
	if err != nil || epsilon.IsNegative() {
		return nil, fmt.Errorf("RECONCILE_EPSILON must be a non-negative decimal")
	}
	cfg.ReconcileEpsilon = epsilon

	for _, k := range strings.Split(envOrDefault("API_KEYS", ""), ",") {
		if k = strings.TrimSpace(k); k != "" {
			cfg.APIKeys = append(cfg.APIKeys, Secret(k))
		}
	}

	origins := envOrDefault("CORS_ORIGINS", "http://localhost:3041")
	cfg.CORSOrigins = strings.Split(origins, ",")

	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr joins host and port into the address the HTTP server binds.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

// APIKeyValues returns the configured API keys as plain strings for the
// auth middleware.
func (c *Config) APIKeyValues() []string {
	keys := make([]string, len(c.APIKeys))
	for i, k := range c.APIKeys {
		keys[i] = k.Value()
	}

	return keys
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
