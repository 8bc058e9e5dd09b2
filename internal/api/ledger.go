package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/reliefline/fundledger/internal/models"
)

// LedgerHandler serves the mutation engine endpoints: stand-alone validation,
// disbursements, and rollbacks. The project always comes from the path; a
// project_id in the body is ignored.
type LedgerHandler struct {
	svc LedgerService
	log *logrus.Logger
}

// NewLedgerHandler creates a LedgerHandler with the given service and logger.
func NewLedgerHandler(svc LedgerService, log *logrus.Logger) *LedgerHandler {
	return &LedgerHandler{svc: svc, log: log}
}

// Validate handles POST /api/v1/budgets/:project_id/validate. A refusal is
// data here, not an HTTP error: the decision comes back 200 either way.
func (h *LedgerHandler) Validate(c *gin.Context) {
	projectID := c.Param("project_id")
	if err := validatePathID(projectID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	var req models.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	decision, err := h.svc.Validate(c.Request.Context(), projectID, req.Amount)
	if err != nil {
		h.respondLedgerError(c, err, "validating disbursement")

		return
	}

	c.JSON(http.StatusOK, decision)
}

// Disburse handles POST /api/v1/budgets/:project_id/disbursements.
func (h *LedgerHandler) Disburse(c *gin.Context) {
	projectID := c.Param("project_id")
	if err := validatePathID(projectID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	var req models.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	req.ProjectID = projectID

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	// Rollbacks and imports have their own entry points with extra
	// bookkeeping; accepting them here would skip it.
	if req.Operation != models.OpManual && req.Operation != models.OpAutomatic {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "operation_type must be manual or automatic")

		return
	}

	result, err := h.svc.ApplyDelta(c.Request.Context(), req)
	if err != nil {
		var rejErr *models.RejectionError
		if errors.As(err, &rejErr) {
			respondRejection(c, &rejErr.Decision)

			return
		}

		h.respondLedgerError(c, err, "applying disbursement")

		return
	}

	h.log.WithFields(logrus.Fields{
		"action": "ledger.disburse", "project_id": projectID,
		"entry_id": result.EntryID, "actor_id": req.ActorID,
	}).Info("audit")

	c.JSON(http.StatusCreated, result)
}

// Rollback handles POST /api/v1/budgets/:project_id/rollbacks.
func (h *LedgerHandler) Rollback(c *gin.Context) {
	projectID := c.Param("project_id")
	if err := validatePathID(projectID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	var req models.RollbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	req.ProjectID = projectID

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	result, err := h.svc.Rollback(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, models.ErrEntryNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "ledger entry not found")

			return
		}

		h.respondLedgerError(c, err, "rolling back entry")

		return
	}

	h.log.WithFields(logrus.Fields{
		"action": "ledger.rollback", "project_id": projectID,
		"entry_id": result.EntryID, "reversed_entry_id": req.EntryID, "actor_id": req.ActorID,
	}).Info("audit")

	c.JSON(http.StatusCreated, result)
}

// respondLedgerError maps the mutation engine's sentinel errors shared by all
// three endpoints.
func (h *LedgerHandler) respondLedgerError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, models.ErrBudgetNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "budget not found")
	case errors.Is(err, models.ErrBudgetArchived):
		respondError(c, http.StatusConflict, ErrCodeConflict, "budget is archived")
	case errors.Is(err, models.ErrVersionConflict):
		respondError(c, http.StatusConflict, ErrCodeConflict, "budget version conflict, retry with fresh state")
	default:
		h.log.WithError(err).Error(logMsg)
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}
