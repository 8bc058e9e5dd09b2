package middleware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/reliefline/fundledger/internal/middleware"
)

func authedEngine(t *testing.T, keys []string) *gin.Engine {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	r := gin.New()
	r.Use(middleware.AuthMiddleware(keys, log))
	r.GET("/budgets", func(c *gin.Context) { c.Status(http.StatusOK) })

	return r
}

func hitAuthed(r *gin.Engine, authHeader string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/budgets", http.NoBody)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	r.ServeHTTP(w, req)

	return w.Code
}

func TestAuthMiddleware(t *testing.T) {
	r := authedEngine(t, []string{"ledger-key-1", "auditor-key"})

	tests := []struct {
		name       string
		authHeader string
		wantCode   int
	}{
		{"first configured key", "Bearer ledger-key-1", http.StatusOK},
		{"second configured key", "Bearer auditor-key", http.StatusOK},
		{"no authorization header", "", http.StatusUnauthorized},
		{"unknown key", "Bearer wrong-key", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"missing bearer prefix", "ledger-key-1", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := hitAuthed(r, tt.authHeader); code != tt.wantCode {
				t.Errorf("status = %d, want %d", code, tt.wantCode)
			}
		})
	}
}

func TestAuthMiddleware_NoKeysConfigured(t *testing.T) {
	r := authedEngine(t, nil)

	if code := hitAuthed(r, "Bearer anything"); code != http.StatusUnauthorized {
		t.Fatalf("no configured keys must reject every token, got %d", code)
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"well formed", "Bearer tok-42", "tok-42"},
		{"bare token", "tok-42", ""},
		{"no header", "", ""},
		{"empty after prefix", "Bearer ", ""},
		{"lowercase scheme", "bearer tok-42", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/budgets", http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = req

			if got := middleware.ExtractBearerToken(c); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
