package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DefaultBodyLimit caps request bodies. Sized for the largest accepted
// payload, a bulk import at the row cap; every other route's body is a few
// hundred bytes.
const DefaultBodyLimit int64 = 8 << 20

// BodyLimit rejects request bodies larger than limit bytes. Oversized bodies
// surface as read errors in the JSON binder instead of being buffered whole.
func BodyLimit(limit int64) gin.HandlerFunc {
	if limit <= 0 {
		limit = DefaultBodyLimit
	}

	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}

		c.Next()
	}
}
