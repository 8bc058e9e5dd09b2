package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/reliefline/fundledger/internal/api"
	"github.com/reliefline/fundledger/internal/models"
)

func TestImportRun_OK(t *testing.T) {
	t.Parallel()

	batchID := uuid.New()
	var gotReq models.ImportRequest

	svc := &mockImportSvc{
		runFn: func(_ context.Context, req models.ImportRequest) (*models.ImportReport, error) {
			gotReq = req

			return &models.ImportReport{
				BatchID: batchID,
				Rows:    2,
				Matched: 2,
				Updated: 1,
				Skipped: []models.RowFailure{{Row: 2, ProjectID: "p-beta", Reason: models.ReasonInsufficientAvailable}},
			}, nil
		},
	}

	r := newTestRouter()
	h := api.NewImportHandler(svc, testLogger())
	r.POST("/imports", h.Run)

	body := `{"rows":[{"project_id":"p-alpha","amount":"100"},{"project_id":"p-beta","amount":"900"}],"actor_id":"importer-1","filename":"q2.csv"}`
	w := doRequest(r, http.MethodPost, "/imports", body)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if len(gotReq.Rows) != 2 || gotReq.ActorID != "importer-1" || gotReq.Filename != "q2.csv" {
		t.Errorf("request not passed through: %+v", gotReq)
	}

	var report models.ImportReport
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if report.BatchID != batchID || report.Updated != 1 || len(report.Skipped) != 1 {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestImportRun_EmptyRows(t *testing.T) {
	t.Parallel()

	r := newTestRouter()
	h := api.NewImportHandler(&mockImportSvc{}, testLogger())
	r.POST("/imports", h.Run)

	w := doRequest(r, http.MethodPost, "/imports", `{"rows":[],"actor_id":"importer-1"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestImportRun_MissingActor(t *testing.T) {
	t.Parallel()

	r := newTestRouter()
	h := api.NewImportHandler(&mockImportSvc{}, testLogger())
	r.POST("/imports", h.Run)

	w := doRequest(r, http.MethodPost, "/imports", `{"rows":[{"project_id":"p-alpha","amount":"100"}]}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestImportRun_ServiceError(t *testing.T) {
	t.Parallel()

	svc := &mockImportSvc{
		runFn: func(_ context.Context, _ models.ImportRequest) (*models.ImportReport, error) {
			return nil, context.DeadlineExceeded
		},
	}

	r := newTestRouter()
	h := api.NewImportHandler(svc, testLogger())
	r.POST("/imports", h.Run)

	body := `{"rows":[{"project_id":"p-alpha","amount":"100"}],"actor_id":"importer-1"}`
	w := doRequest(r, http.MethodPost, "/imports", body)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
	}
}
