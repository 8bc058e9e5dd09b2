package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/reliefline/fundledger/internal/middleware"
)

// ginLogger logs one line per request after the handler chain finishes.
// Server failures log at Error so they stand out of the request stream.
func ginLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		fields := logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   status,
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		}

		if rid, ok := c.Get(middleware.RequestIDKey); ok {
			fields["request_id"] = rid
		}

		if cid, ok := c.Get(middleware.ClientRequestIDKey); ok {
			fields["client_request_id"] = cid
		}

		entry := log.WithFields(fields)
		if status >= http.StatusInternalServerError {
			entry.Error("request")

			return
		}

		entry.Info("request")
	}
}

// Pagination caps shared by every list endpoint.
const (
	maxPaginationLimit  = 1000
	maxPaginationOffset = 100000
)

// parseLimit parses a limit query param, applying the fallback on anything
// non-positive or unparseable and capping the result.
func parseLimit(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return fallback
	}

	if v > maxPaginationLimit {
		return maxPaginationLimit
	}

	return v
}

func parseOffset(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0
	}

	if v > maxPaginationOffset {
		return maxPaginationOffset
	}

	return v
}

// maxPathIDLen matches the widest project identifier the source system
// issues.
const maxPathIDLen = 255

// validatePathID rejects empty or oversized path identifiers before they
// reach a query.
func validatePathID(id string) error {
	if id == "" {
		return fmt.Errorf("id must not be empty")
	}

	if len(id) > maxPathIDLen {
		return fmt.Errorf("id exceeds maximum length of %d", maxPathIDLen)
	}

	return nil
}

// parseTimeParam parses a period bound as RFC3339, falling back to a bare
// date. Period bounds are inclusive, so a bare date used as an upper bound
// covers the whole day.
func parseTimeParam(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q", s)
	}

	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}

	return t, nil
}
