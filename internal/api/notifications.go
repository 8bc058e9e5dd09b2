package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/reliefline/fundledger/internal/models"
)

// NotificationHandler serves the funding workflow's notification endpoints.
type NotificationHandler struct {
	svc NotificationService
	log *logrus.Logger
}

// NewNotificationHandler creates a NotificationHandler with the given service and logger.
func NewNotificationHandler(svc NotificationService, log *logrus.Logger) *NotificationHandler {
	return &NotificationHandler{svc: svc, log: log}
}

// List handles GET /api/v1/notifications.
func (h *NotificationHandler) List(c *gin.Context) {
	opts := models.NotificationQueryOpts{
		ProjectID: c.Query("project_id"),
		Limit:     parseLimit(c.DefaultQuery("limit", "50"), 50),
		Offset:    parseOffset(c.Query("offset")),
	}

	if typ := c.Query("type"); typ != "" {
		opts.Type = models.NotificationType(typ)
		if !opts.Type.Valid() {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "unknown notification type")

			return
		}
	}

	switch status := c.Query("status"); models.NotificationStatus(status) {
	case "", models.NotificationPending, models.NotificationResolved:
		opts.Status = models.NotificationStatus(status)
	default:
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "status must be pending or resolved")

		return
	}

	records, hasMore, err := h.svc.List(c.Request.Context(), opts)
	if err != nil {
		h.log.WithError(err).Error("listing notifications")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": records, "has_more": hasMore})
}

// Resolve handles POST /api/v1/notifications/:id/resolve. The funding
// workflow lives outside this service; this is where it records its outcome.
func (h *NotificationHandler) Resolve(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "id must be a positive integer")

		return
	}

	rec, err := h.svc.Resolve(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotificationNotFound) {
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "notification not found")

			return
		}

		h.log.WithError(err).Error("resolving notification")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{
		"action": "notification.resolve", "notification_id": id, "project_id": rec.ProjectID,
	}).Info("audit")

	c.JSON(http.StatusOK, rec)
}

// Purge handles DELETE /api/v1/notifications.
func (h *NotificationHandler) Purge(c *gin.Context) {
	retentionDays := 90
	if rd := c.Query("retention_days"); rd != "" {
		v, err := strconv.Atoi(rd)
		if err != nil || v < 1 {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "retention_days must be a positive integer")

			return
		}
		retentionDays = v
	}

	deleted, err := h.svc.PurgeResolved(c.Request.Context(), retentionDays)
	if err != nil {
		h.log.WithError(err).Error("purging notifications")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	h.log.WithFields(logrus.Fields{
		"action": "notification.purge", "deleted": deleted, "retention_days": retentionDays,
	}).Info("audit")

	c.JSON(http.StatusOK, gin.H{"deleted": deleted, "retention_days": retentionDays})
}
