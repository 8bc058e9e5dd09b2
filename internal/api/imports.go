package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/reliefline/fundledger/internal/models"
)

// ImportHandler serves the bulk import endpoint.
type ImportHandler struct {
	svc ImportService
	log *logrus.Logger
}

// NewImportHandler creates an ImportHandler with the given service and logger.
func NewImportHandler(svc ImportService, log *logrus.Logger) *ImportHandler {
	return &ImportHandler{svc: svc, log: log}
}

// Run handles POST /api/v1/imports. Row-level failures land in the report,
// not in the HTTP status: a batch with rejected rows is still a 200.
func (h *ImportHandler) Run(c *gin.Context) {
	var req models.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	report, err := h.svc.Run(c.Request.Context(), req)
	if err != nil {
		h.log.WithError(err).Error("running import batch")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{
		"action": "import.run", "batch_id": report.BatchID,
		"rows": report.Rows, "updated": report.Updated,
		"skipped": len(report.Skipped), "errors": len(report.Errors),
	}).Info("audit")

	c.JSON(http.StatusOK, report)
}
