// Package api provides the HTTP handlers for the fund ledger service.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/reliefline/fundledger/internal/dbpool"
)

const (
	livenessProbeTimeout = 2 * time.Second
	readyProbeTimeout    = 3 * time.Second
)

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	pool      *dbpool.Pool
	log       *logrus.Logger
	version   string
	startTime time.Time
}

// NewHealthHandler creates a HealthHandler with the given dependencies.
func NewHealthHandler(pool *dbpool.Pool, log *logrus.Logger, version string) *HealthHandler {
	return &HealthHandler{
		pool:      pool,
		log:       log,
		version:   version,
		startTime: time.Now(),
	}
}

// readinessResponse is the JSON payload returned by the readiness endpoint.
type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Pool   string            `json:"pool,omitempty"`
}

// healthResponse is the JSON payload returned by the health/liveness endpoint.
type healthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// dbStatus pings the database, best effort. Liveness never fails on it.
func (h *HealthHandler) dbStatus(ctx context.Context) string {
	if h.pool == nil {
		return "not_configured"
	}

	ctx, cancel := context.WithTimeout(ctx, livenessProbeTimeout)
	defer cancel()

	if err := h.pool.HealthCheck(ctx); err != nil {
		return "disconnected"
	}
	return "connected"
}

// Liveness handles GET /api/v1/health.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:        "ok",
		Version:       h.version,
		Database:      h.dbStatus(c.Request.Context()),
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	})
}

// Readiness handles GET /api/v1/ready, checking DB connectivity and schema.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyProbeTimeout)
	defer cancel()

	resp := readinessResponse{
		Status: "ready",
		Checks: map[string]string{"database": "ok", "schema": "ok"},
	}
	code := http.StatusOK

	fail := func(check string, err error) {
		h.log.WithError(err).Errorf("readiness: %s check failed", check)
		resp.Checks[check] = "error"
		resp.Status = "not_ready"
		code = http.StatusServiceUnavailable
	}

	switch {
	case h.pool == nil:
		fail("database", errors.New("no database pool configured"))
		resp.Checks["database"] = "not_configured"
		resp.Checks["schema"] = "unknown"
	default:
		if err := h.pool.HealthCheck(ctx); err != nil {
			fail("database", err)
			resp.Checks["schema"] = "unknown"
		} else if err := h.checkSchema(ctx); err != nil {
			fail("schema", err)
		}
		if stat := h.pool.Stat(); stat != nil {
			resp.Pool = fmt.Sprintf("%d/%d connections in use", stat.AcquiredConns(), stat.TotalConns())
		}
	}

	c.JSON(code, resp)
}

// checkSchema verifies the migrations ran by querying the budget table.
func (h *HealthHandler) checkSchema(ctx context.Context) error {
	var count int
	err := h.pool.QueryRow(ctx, "SELECT COUNT(*) FROM project_budgets").Scan(&count)
	if err != nil {
		return fmt.Errorf("schema check: %w", err)
	}

	return nil
}
