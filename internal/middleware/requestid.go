package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDKey is the gin context key holding the canonical request ID.
	RequestIDKey = "request_id"

	// ClientRequestIDKey is the gin context key holding a caller-supplied
	// correlation ID, when one arrived.
	ClientRequestIDKey = "client_request_id"

	// RequestIDHeader carries the request ID on responses and, optionally,
	// caller correlation IDs on requests.
	RequestIDHeader = "X-Request-ID"

	// maxClientIDLen bounds how much of a caller-supplied ID is kept.
	maxClientIDLen = 128
)

// RequestID stamps every request with a fresh server-generated UUID and
// echoes it in the response header. A caller-supplied X-Request-ID is kept
// for log correlation only and never becomes the canonical ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()

		if clientID := c.GetHeader(RequestIDHeader); clientID != "" {
			if len(clientID) > maxClientIDLen {
				clientID = clientID[:maxClientIDLen]
			}

			c.Set(ClientRequestIDKey, clientID)
		}

		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
