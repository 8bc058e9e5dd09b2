package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/reliefline/fundledger/internal/models"
)

// BudgetHandler serves budget record lifecycle endpoints.
type BudgetHandler struct {
	svc BudgetService
	log *logrus.Logger
}

// NewBudgetHandler creates a BudgetHandler with the given service and logger.
func NewBudgetHandler(svc BudgetService, log *logrus.Logger) *BudgetHandler {
	return &BudgetHandler{svc: svc, log: log}
}

// Create handles POST /api/v1/budgets.
func (h *BudgetHandler) Create(c *gin.Context) {
	var req models.CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	rec, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, models.ErrBudgetExists) {
			respondError(c, http.StatusConflict, ErrCodeConflict, "budget for this project already exists")

			return
		}

		h.log.WithError(err).Error("creating budget")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{"action": "budget.create", "project_id": rec.ProjectID}).Info("audit")

	c.JSON(http.StatusCreated, rec)
}

// Get handles GET /api/v1/budgets/:project_id.
func (h *BudgetHandler) Get(c *gin.Context) {
	projectID := c.Param("project_id")
	if err := validatePathID(projectID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	rec, err := h.svc.Get(c.Request.Context(), projectID)
	if err != nil {
		if errors.Is(err, models.ErrBudgetNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "budget not found")

			return
		}

		h.log.WithError(err).Error("getting budget")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, rec)
}

// List handles GET /api/v1/budgets.
func (h *BudgetHandler) List(c *gin.Context) {
	status := models.BudgetStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "unknown budget status")

		return
	}

	limit := parseLimit(c.DefaultQuery("limit", "50"), 50)
	offset := parseOffset(c.Query("offset"))

	records, hasMore, err := h.svc.List(c.Request.Context(), status, limit, offset)
	if err != nil {
		h.log.WithError(err).Error("listing budgets")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, gin.H{"budgets": records, "has_more": hasMore})
}

// Archive handles POST /api/v1/budgets/:project_id/archive.
func (h *BudgetHandler) Archive(c *gin.Context) {
	projectID := c.Param("project_id")
	if err := validatePathID(projectID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	rec, err := h.svc.Archive(c.Request.Context(), projectID)
	if err != nil {
		if errors.Is(err, models.ErrBudgetNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "budget not found")

			return
		}

		if errors.Is(err, models.ErrBudgetArchived) {
			respondError(c, http.StatusConflict, ErrCodeConflict, "budget is already archived")

			return
		}

		h.log.WithError(err).Error("archiving budget")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{"action": "budget.archive", "project_id": projectID}).Info("audit")

	c.JSON(http.StatusOK, rec)
}
