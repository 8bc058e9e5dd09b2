package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/reliefline/fundledger/internal/api"
	"github.com/reliefline/fundledger/internal/models"
)

func TestNotificationList_PassesFilters(t *testing.T) {
	t.Parallel()

	var gotOpts models.NotificationQueryOpts

	svc := &mockNotificationSvc{
		listFn: func(_ context.Context, opts models.NotificationQueryOpts) ([]models.NotificationRecord, bool, error) {
			gotOpts = opts

			return []models.NotificationRecord{
				{ID: 1, ProjectID: "p-flood-2024", Type: models.NotifyFunding, Status: models.NotificationPending},
			}, false, nil
		},
	}

	r := newTestRouter()
	h := api.NewNotificationHandler(svc, testLogger())
	r.GET("/notifications", h.List)

	w := doRequest(r, http.MethodGet, "/notifications?project_id=p-flood-2024&type=funding&status=pending&limit=10", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if gotOpts.ProjectID != "p-flood-2024" || gotOpts.Type != models.NotifyFunding {
		t.Errorf("filters not passed through: %+v", gotOpts)
	}

	if gotOpts.Status != models.NotificationPending || gotOpts.Limit != 10 {
		t.Errorf("filters not passed through: %+v", gotOpts)
	}

	var body struct {
		Notifications []models.NotificationRecord `json:"notifications"`
		HasMore       bool                        `json:"has_more"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if len(body.Notifications) != 1 {
		t.Errorf("expected 1 notification, got %d", len(body.Notifications))
	}
}

func TestNotificationList_UnknownType(t *testing.T) {
	t.Parallel()

	r := newTestRouter()
	h := api.NewNotificationHandler(&mockNotificationSvc{}, testLogger())
	r.GET("/notifications", h.List)

	w := doRequest(r, http.MethodGet, "/notifications?type=sms", "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestNotificationList_UnknownStatus(t *testing.T) {
	t.Parallel()

	r := newTestRouter()
	h := api.NewNotificationHandler(&mockNotificationSvc{}, testLogger())
	r.GET("/notifications", h.List)

	w := doRequest(r, http.MethodGet, "/notifications?status=dismissed", "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestNotificationResolve_OK(t *testing.T) {
	t.Parallel()

	now := time.Now()

	svc := &mockNotificationSvc{
		resolveFn: func(_ context.Context, id int64) (*models.NotificationRecord, error) {
			return &models.NotificationRecord{
				ID:         id,
				ProjectID:  "p-flood-2024",
				Type:       models.NotifyReallocation,
				Status:     models.NotificationResolved,
				ResolvedAt: &now,
			}, nil
		},
	}

	r := newTestRouter()
	h := api.NewNotificationHandler(svc, testLogger())
	r.POST("/notifications/:id/resolve", h.Resolve)

	w := doRequest(r, http.MethodPost, "/notifications/7/resolve", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var rec models.NotificationRecord
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if rec.ID != 7 || rec.Status != models.NotificationResolved || rec.ResolvedAt == nil {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestNotificationResolve_NotFound(t *testing.T) {
	t.Parallel()

	svc := &mockNotificationSvc{
		resolveFn: func(_ context.Context, _ int64) (*models.NotificationRecord, error) {
			return nil, models.ErrNotificationNotFound
		},
	}

	r := newTestRouter()
	h := api.NewNotificationHandler(svc, testLogger())
	r.POST("/notifications/:id/resolve", h.Resolve)

	w := doRequest(r, http.MethodPost, "/notifications/9999/resolve", "")

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestNotificationResolve_BadID(t *testing.T) {
	t.Parallel()

	r := newTestRouter()
	h := api.NewNotificationHandler(&mockNotificationSvc{}, testLogger())
	r.POST("/notifications/:id/resolve", h.Resolve)

	w := doRequest(r, http.MethodPost, "/notifications/latest/resolve", "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestNotificationPurge_DefaultRetention(t *testing.T) {
	t.Parallel()

	svc := &mockNotificationSvc{
		purgeFn: func(_ context.Context, retentionDays int) (int, error) {
			if retentionDays != 90 {
				t.Errorf("expected default retention 90, got %d", retentionDays)
			}

			return 5, nil
		},
	}

	r := newTestRouter()
	h := api.NewNotificationHandler(svc, testLogger())
	r.DELETE("/notifications", h.Purge)

	w := doRequest(r, http.MethodDelete, "/notifications", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if body["deleted"] != float64(5) {
		t.Errorf("expected deleted=5, got %v", body["deleted"])
	}
}

func TestNotificationPurge_BadRetention(t *testing.T) {
	t.Parallel()

	r := newTestRouter()
	h := api.NewNotificationHandler(&mockNotificationSvc{}, testLogger())
	r.DELETE("/notifications", h.Purge)

	w := doRequest(r, http.MethodDelete, "/notifications?retention_days=0", "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}
