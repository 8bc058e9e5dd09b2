package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// minAPIKeyLength rejects keys short enough to be typos or leftover test
// values before they ever gate a request.
const minAPIKeyLength = 16

func (c *Config) validate() error {
	checks := []func() error{
		c.validateDatabase,
		c.validateNetwork,
		c.validateAuth,
		c.validateCORS,
		c.validatePolicies,
	}

	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func isLoopback(host string) bool {
	switch host {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

func (c *Config) validateDatabase() error {
	raw := c.DatabaseURL.Value()
	if raw == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	dbURL, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}
	if dbURL.Scheme != "postgres" && dbURL.Scheme != "postgresql" {
		return fmt.Errorf("DATABASE_URL scheme must be postgres:// or postgresql://")
	}

	host := dbURL.Hostname()
	if host == "" {
		return fmt.Errorf("DATABASE_URL must include a host")
	}
	if !isLoopback(host) && dbURL.Query().Get("sslmode") == "disable" {
		return fmt.Errorf("DATABASE_URL sslmode=disable is not allowed for non-local host %q", host)
	}

	return nil
}

func (c *Config) validateNetwork() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil {
		return fmt.Errorf("PORT must be numeric: %w", err)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be in range 1-65535")
	}

	// Loopback for local deployments; 0.0.0.0/:: for containers where the
	// network boundary is enforced outside the process.
	if !isLoopback(c.ListenHost) && c.ListenHost != "0.0.0.0" && c.ListenHost != "::" {
		return fmt.Errorf("LISTEN_HOST must be loopback, 0.0.0.0, or :: (got %q)", c.ListenHost)
	}

	return nil
}

func (c *Config) validateAuth() error {
	if len(c.APIKeys) == 0 {
		return fmt.Errorf("API_KEYS is required (comma-separated list of service keys)")
	}

	for _, k := range c.APIKeys {
		if len(k.Value()) < minAPIKeyLength {
			return fmt.Errorf("each API_KEYS entry needs at least %d characters", minAPIKeyLength)
		}
	}

	return nil
}

func (c *Config) validateCORS() error {
	for _, origin := range c.CORSOrigins {
		if origin == "*" {
			return fmt.Errorf("CORS_ORIGINS cannot include the wildcard origin '*'")
		}
		if strings.ContainsAny(origin, "*?[]") {
			return fmt.Errorf("CORS_ORIGINS must not contain glob characters (*?[]), got %q", origin)
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("CORS_ORIGINS has a malformed origin %q (need scheme and host)", origin)
		}
	}

	return nil
}

func (c *Config) validatePolicies() error {
	switch c.MissingBudgetPolicy {
	case "error", "zero":
	default:
		return fmt.Errorf("MISSING_BUDGET_POLICY must be 'error' or 'zero', got %q", c.MissingBudgetPolicy)
	}

	return nil
}
