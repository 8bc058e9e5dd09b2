package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/reliefline/fundledger/internal/models"
)

// ReconcileHandler serves the ledger/document cross-check endpoint.
type ReconcileHandler struct {
	svc ReconcileService
	log *logrus.Logger
}

// NewReconcileHandler creates a ReconcileHandler with the given service and logger.
func NewReconcileHandler(svc ReconcileService, log *logrus.Logger) *ReconcileHandler {
	return &ReconcileHandler{svc: svc, log: log}
}

// Run handles GET /api/v1/budgets/:project_id/reconciliation.
func (h *ReconcileHandler) Run(c *gin.Context) {
	projectID := c.Param("project_id")
	if err := validatePathID(projectID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	req := models.ReconcileRequest{ProjectID: projectID}

	// Missing bounds fall through to req.Validate for the error message.
	if from := c.Query("from"); from != "" {
		t, err := parseTimeParam(from, false)
		if err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid from format, use RFC3339 or YYYY-MM-DD")

			return
		}
		req.From = t
	}

	if to := c.Query("to"); to != "" {
		t, err := parseTimeParam(to, true)
		if err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid to format, use RFC3339 or YYYY-MM-DD")

			return
		}
		req.To = t
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	result, err := h.svc.Reconcile(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, models.ErrBudgetNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "budget not found")

			return
		}

		h.log.WithError(err).Error("reconciling period")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{
		"action": "reconcile.run", "project_id": projectID,
		"mismatch": result.HasMismatch,
	}).Info("audit")

	c.JSON(http.StatusOK, result)
}
