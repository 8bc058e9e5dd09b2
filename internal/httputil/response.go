// Package httputil provides shared HTTP response helpers.
package httputil

import "github.com/gin-gonic/gin"

// RespondError writes a standardized JSON error response and aborts the request.
func RespondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorBody(c, code, message, nil))
}

// RespondErrorDetail is RespondError with a structured detail payload, used
// where the error carries data the caller acts on (a threshold decision).
func RespondErrorDetail(c *gin.Context, status int, code, message string, detail any) {
	c.AbortWithStatusJSON(status, errorBody(c, code, message, detail))
}

func errorBody(c *gin.Context, code, message string, detail any) map[string]any {
	resp := map[string]any{
		"code":    code,
		"message": message,
	}

	if rid, exists := c.Get("request_id"); exists {
		if s, ok := rid.(string); ok && s != "" {
			resp["request_id"] = s
		}
	}

	if detail != nil {
		resp["detail"] = detail
	}

	return resp
}
