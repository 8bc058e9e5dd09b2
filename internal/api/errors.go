package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reliefline/fundledger/internal/httputil"
	"github.com/reliefline/fundledger/internal/metrics"
	"github.com/reliefline/fundledger/internal/models"
)

// Machine-readable error codes carried in every error body.
const (
	ErrCodeInvalidRequest  = "invalid_request"
	ErrCodeNotFound        = "not_found"
	ErrCodeInternalError   = "internal_error"
	ErrCodeUnauthorized    = "unauthorized"
	ErrCodeRateLimited     = "rate_limited"
	ErrCodeValidationError = "validation_error"
	ErrCodeConflict        = "conflict"
	ErrCodeBudgetRejected  = "budget_rejected"
)

// respondError counts the error and writes the shared JSON error body. The
// request ID lands in the body via the Gin context.
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

// respondRejection writes a 422 for a disbursement the threshold rules
// refused. The full decision rides along so callers can show the remaining
// figures without a second round trip.
func respondRejection(c *gin.Context, decision *models.Decision) {
	metrics.ErrorsTotal.WithLabelValues(ErrCodeBudgetRejected).Inc()
	httputil.RespondErrorDetail(c, http.StatusUnprocessableEntity, ErrCodeBudgetRejected, decision.Message, decision)
}
