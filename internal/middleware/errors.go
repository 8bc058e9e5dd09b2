package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/reliefline/fundledger/internal/httputil"
	"github.com/reliefline/fundledger/internal/metrics"
)

// respondError counts the refusal and writes the standard error body.
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}
