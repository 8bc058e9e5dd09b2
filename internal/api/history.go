package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/reliefline/fundledger/internal/models"
)

// HistoryHandler serves read access to the append-only ledger.
type HistoryHandler struct {
	svc HistoryService
	log *logrus.Logger
}

// NewHistoryHandler creates a HistoryHandler with the given service and logger.
func NewHistoryHandler(svc HistoryService, log *logrus.Logger) *HistoryHandler {
	return &HistoryHandler{svc: svc, log: log}
}

// List handles GET /api/v1/ledger.
func (h *HistoryHandler) List(c *gin.Context) {
	opts := models.LedgerQueryOpts{
		ProjectID: c.Query("project_id"),
		ActorID:   c.Query("actor_id"),
		Limit:     parseLimit(c.DefaultQuery("limit", "50"), 50),
		Offset:    parseOffset(c.Query("offset")),
	}

	if op := c.Query("operation"); op != "" {
		opts.Operation = models.OperationType(op)
		if !opts.Operation.Valid() {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "unknown operation type")

			return
		}
	}

	switch order := c.DefaultQuery("order", "desc"); order {
	case "asc":
		opts.Ascending = true
	case "desc":
	default:
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "order must be asc or desc")

		return
	}

	if from := c.Query("from"); from != "" {
		t, err := parseTimeParam(from, false)
		if err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid from format, use RFC3339 or YYYY-MM-DD")

			return
		}
		opts.DateFrom = &t
	}

	if to := c.Query("to"); to != "" {
		t, err := parseTimeParam(to, true)
		if err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid to format, use RFC3339 or YYYY-MM-DD")

			return
		}
		opts.DateTo = &t
	}

	entries, hasMore, err := h.svc.List(c.Request.Context(), opts)
	if err != nil {
		h.log.WithError(err).Error("listing ledger entries")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries, "has_more": hasMore})
}

// Batch handles GET /api/v1/ledger/batches/:batch_id.
func (h *HistoryHandler) Batch(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("batch_id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "batch_id must be a UUID")

		return
	}

	limit := parseLimit(c.DefaultQuery("limit", "50"), 50)
	offset := parseOffset(c.Query("offset"))

	entries, hasMore, err := h.svc.Batch(c.Request.Context(), batchID, limit, offset)
	if err != nil {
		h.log.WithError(err).Error("listing batch entries")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries, "has_more": hasMore})
}

// Entry handles GET /api/v1/ledger/entries/:id.
func (h *HistoryHandler) Entry(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "id must be a positive integer")

		return
	}

	entry, err := h.svc.Entry(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrEntryNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "ledger entry not found")

			return
		}

		h.log.WithError(err).Error("getting ledger entry")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, entry)
}
