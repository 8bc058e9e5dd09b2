package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// minAuthFailureTime is how long a failed authentication takes at minimum,
// so response timing does not reveal how close a key was.
const minAuthFailureTime = 50 * time.Millisecond

// AuthMiddleware authenticates requests by bearer token against the
// configured static API keys. Per-user identity lives in the subsystem in
// front of this service; these keys gate service-to-service access. With a
// BruteForceGuard attached, failures count against the key and success
// clears it.
func AuthMiddleware(keys []string, log *logrus.Logger, guards ...*BruteForceGuard) gin.HandlerFunc {
	var guard *BruteForceGuard
	if len(guards) > 0 {
		guard = guards[0]
	}

	return func(c *gin.Context) {
		start := time.Now()

		token := ExtractBearerToken(c)
		if token == "" {
			respondError(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			padAuthFailure(start)

			return
		}

		if !keyAllowed(keys, token) {
			logAuthFailure(log, c, token)

			if guard != nil {
				guard.RecordFailure(token)
			}

			respondError(c, http.StatusUnauthorized, "unauthorized", "unknown api key")
			padAuthFailure(start)

			return
		}

		if guard != nil {
			guard.ResetKey(token)
		}

		c.Next()
	}
}

// keyAllowed compares against every configured key without early exit, so
// comparison time is independent of which key matches.
func keyAllowed(keys []string, token string) bool {
	ok := false

	for _, k := range keys {
		if subtle.ConstantTimeCompare([]byte(k), []byte(token)) == 1 {
			ok = true
		}
	}

	return ok
}

// ExtractBearerToken pulls the API key out of the Authorization header,
// returning "" when the header is absent or not a bearer scheme.
func ExtractBearerToken(c *gin.Context) string {
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok {
		return ""
	}

	return token
}

// padAuthFailure sleeps out the remainder of minAuthFailureTime.
func padAuthFailure(start time.Time) {
	if remaining := minAuthFailureTime - time.Since(start); remaining > 0 {
		time.Sleep(remaining)
	}
}

// keyPrefix keeps at most 4 leading characters for logging.
func keyPrefix(key string) string {
	if len(key) <= 4 {
		return key
	}

	return key[:4] + "..."
}

func logAuthFailure(log *logrus.Logger, c *gin.Context, token string) {
	log.WithFields(logrus.Fields{
		"client_ip":  c.ClientIP(),
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"user_agent": c.Request.UserAgent(),
		"request_id": c.GetString(RequestIDKey),
		"key_prefix": keyPrefix(token),
	}).Warn("auth failed: unknown api key")
}
