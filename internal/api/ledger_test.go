package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/reliefline/fundledger/internal/api"
	"github.com/reliefline/fundledger/internal/models"
)

func TestLedgerValidate_Allowed(t *testing.T) {
	t.Parallel()

	svc := &mockLedgerSvc{
		validateFn: func(_ context.Context, projectID string, amount decimal.Decimal) (*models.Decision, error) {
			if projectID != "p-flood-2024" {
				t.Errorf("expected project from path, got %q", projectID)
			}
			if !amount.Equal(decimal.NewFromInt(300)) {
				t.Errorf("expected amount 300, got %s", amount)
			}

			return &models.Decision{
				CanCreate:          true,
				AllowFinalDocument: true,
				RemainingAvailable: decimal.NewFromInt(700),
				RemainingCredit:    decimal.NewFromInt(700),
				Version:            4,
			}, nil
		},
	}

	r := newTestRouter()
	h := api.NewLedgerHandler(svc, testLogger())
	r.POST("/budgets/:project_id/validate", h.Validate)

	w := doRequest(r, http.MethodPost, "/budgets/p-flood-2024/validate", `{"amount":"300"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var decision models.Decision
	if err := json.Unmarshal(w.Body.Bytes(), &decision); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if !decision.CanCreate || decision.Version != 4 {
		t.Errorf("unexpected decision: %+v", decision)
	}
}

func TestLedgerValidate_RefusalIsData(t *testing.T) {
	t.Parallel()

	svc := &mockLedgerSvc{
		validateFn: func(_ context.Context, _ string, _ decimal.Decimal) (*models.Decision, error) {
			return &models.Decision{
				CanCreate:          false,
				AllowFinalDocument: false,
				Message:            models.ReasonInsufficientAvailable,
				RemainingAvailable: decimal.NewFromInt(500),
				RemainingCredit:    decimal.NewFromInt(500),
				Version:            1,
			}, nil
		},
	}

	r := newTestRouter()
	h := api.NewLedgerHandler(svc, testLogger())
	r.POST("/budgets/:project_id/validate", h.Validate)

	w := doRequest(r, http.MethodPost, "/budgets/p-flood-2024/validate", `{"amount":"600"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("dry-run refusal should still be 200, got %d: %s", w.Code, w.Body.String())
	}

	var decision models.Decision
	if err := json.Unmarshal(w.Body.Bytes(), &decision); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if decision.CanCreate {
		t.Error("expected can_create false")
	}

	if decision.Message != models.ReasonInsufficientAvailable {
		t.Errorf("unexpected message %q", decision.Message)
	}
}

func TestLedgerValidate_ZeroAmount(t *testing.T) {
	t.Parallel()

	r := newTestRouter()
	h := api.NewLedgerHandler(&mockLedgerSvc{}, testLogger())
	r.POST("/budgets/:project_id/validate", h.Validate)

	w := doRequest(r, http.MethodPost, "/budgets/p-flood-2024/validate", `{"amount":"0"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLedgerValidate_MissingBudget(t *testing.T) {
	t.Parallel()

	svc := &mockLedgerSvc{
		validateFn: func(_ context.Context, _ string, _ decimal.Decimal) (*models.Decision, error) {
			return nil, models.ErrBudgetNotFound
		},
	}

	r := newTestRouter()
	h := api.NewLedgerHandler(svc, testLogger())
	r.POST("/budgets/:project_id/validate", h.Validate)

	w := doRequest(r, http.MethodPost, "/budgets/missing/validate", `{"amount":"300"}`)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLedgerDisburse_Created(t *testing.T) {
	t.Parallel()

	var gotReq models.ApplyRequest

	svc := &mockLedgerSvc{
		applyFn: func(_ context.Context, req models.ApplyRequest) (*models.ApplyResult, error) {
			gotReq = req

			return &models.ApplyResult{
				ProjectID:       req.ProjectID,
				EntryID:         42,
				NewAvailable:    decimal.NewFromInt(700),
				NewAnnualCredit: decimal.NewFromInt(700),
				Version:         2,
			}, nil
		},
	}

	r := newTestRouter()
	h := api.NewLedgerHandler(svc, testLogger())
	r.POST("/budgets/:project_id/disbursements", h.Disburse)

	// The body names a different project; the path must win.
	body := `{"project_id":"p-other","amount":"300","actor_id":"coordinator-7","operation_type":"manual","metadata":{"manual":{"note":"tarpaulins"}}}`
	w := doRequest(r, http.MethodPost, "/budgets/p-flood-2024/disbursements", body)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	if gotReq.ProjectID != "p-flood-2024" {
		t.Errorf("expected path project to override body, got %q", gotReq.ProjectID)
	}

	if gotReq.ActorID != "coordinator-7" || gotReq.Operation != models.OpManual {
		t.Errorf("request not passed through: %+v", gotReq)
	}

	var result models.ApplyResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if result.EntryID != 42 || !result.NewAvailable.Equal(decimal.NewFromInt(700)) {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestLedgerDisburse_Rejected(t *testing.T) {
	t.Parallel()

	svc := &mockLedgerSvc{
		applyFn: func(_ context.Context, _ models.ApplyRequest) (*models.ApplyResult, error) {
			return nil, &models.RejectionError{Decision: models.Decision{
				CanCreate:            false,
				RequiresNotification: true,
				NotificationType:     models.NotifyFunding,
				Message:              models.ReasonCreditExhausted,
				RemainingAvailable:   decimal.NewFromInt(1000),
				RemainingCredit:      decimal.NewFromInt(1000),
				Version:              1,
			}}
		},
	}

	r := newTestRouter()
	h := api.NewLedgerHandler(svc, testLogger())
	r.POST("/budgets/:project_id/disbursements", h.Disburse)

	body := `{"amount":"1000","actor_id":"coordinator-7"}`
	w := doRequest(r, http.MethodPost, "/budgets/p-flood-2024/disbursements", body)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Detail  models.Decision `json:"detail"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if resp.Code != "budget_rejected" {
		t.Errorf("expected code budget_rejected, got %q", resp.Code)
	}

	if resp.Message != models.ReasonCreditExhausted {
		t.Errorf("unexpected message %q", resp.Message)
	}

	if resp.Detail.NotificationType != models.NotifyFunding {
		t.Errorf("expected funding notification in detail, got %+v", resp.Detail)
	}
}

func TestLedgerDisburse_VersionConflict(t *testing.T) {
	t.Parallel()

	svc := &mockLedgerSvc{
		applyFn: func(_ context.Context, _ models.ApplyRequest) (*models.ApplyResult, error) {
			return nil, models.ErrVersionConflict
		},
	}

	r := newTestRouter()
	h := api.NewLedgerHandler(svc, testLogger())
	r.POST("/budgets/:project_id/disbursements", h.Disburse)

	body := `{"amount":"300","actor_id":"coordinator-7","expected_version":3}`
	w := doRequest(r, http.MethodPost, "/budgets/p-flood-2024/disbursements", body)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLedgerDisburse_RefusesRollbackOperation(t *testing.T) {
	t.Parallel()

	r := newTestRouter()
	h := api.NewLedgerHandler(&mockLedgerSvc{}, testLogger())
	r.POST("/budgets/:project_id/disbursements", h.Disburse)

	body := `{"amount":"-300","actor_id":"coordinator-7","operation_type":"rollback","metadata":{"rollback":{"reversed_entry_id":1}}}`
	w := doRequest(r, http.MethodPost, "/budgets/p-flood-2024/disbursements", body)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLedgerDisburse_InvalidBody(t *testing.T) {
	t.Parallel()

	r := newTestRouter()
	h := api.NewLedgerHandler(&mockLedgerSvc{}, testLogger())
	r.POST("/budgets/:project_id/disbursements", h.Disburse)

	w := doRequest(r, http.MethodPost, "/budgets/p-flood-2024/disbursements", `{"amount":`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLedgerRollback_Created(t *testing.T) {
	t.Parallel()

	var gotReq models.RollbackRequest

	svc := &mockLedgerSvc{
		rollbackFn: func(_ context.Context, req models.RollbackRequest) (*models.ApplyResult, error) {
			gotReq = req

			return &models.ApplyResult{
				ProjectID:       req.ProjectID,
				EntryID:         43,
				NewAvailable:    decimal.NewFromInt(1000),
				NewAnnualCredit: decimal.NewFromInt(1000),
				Version:         3,
			}, nil
		},
	}

	r := newTestRouter()
	h := api.NewLedgerHandler(svc, testLogger())
	r.POST("/budgets/:project_id/rollbacks", h.Rollback)

	body := `{"entry_id":42,"actor_id":"auditor-2","reason":"duplicate disbursement"}`
	w := doRequest(r, http.MethodPost, "/budgets/p-flood-2024/rollbacks", body)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	if gotReq.ProjectID != "p-flood-2024" || gotReq.EntryID != 42 || gotReq.Reason != "duplicate disbursement" {
		t.Errorf("request not passed through: %+v", gotReq)
	}
}

func TestLedgerRollback_EntryNotFound(t *testing.T) {
	t.Parallel()

	svc := &mockLedgerSvc{
		rollbackFn: func(_ context.Context, _ models.RollbackRequest) (*models.ApplyResult, error) {
			return nil, models.ErrEntryNotFound
		},
	}

	r := newTestRouter()
	h := api.NewLedgerHandler(svc, testLogger())
	r.POST("/budgets/:project_id/rollbacks", h.Rollback)

	body := `{"entry_id":9999,"actor_id":"auditor-2"}`
	w := doRequest(r, http.MethodPost, "/budgets/p-flood-2024/rollbacks", body)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLedgerRollback_MissingActor(t *testing.T) {
	t.Parallel()

	r := newTestRouter()
	h := api.NewLedgerHandler(&mockLedgerSvc{}, testLogger())
	r.POST("/budgets/:project_id/rollbacks", h.Rollback)

	w := doRequest(r, http.MethodPost, "/budgets/p-flood-2024/rollbacks", `{"entry_id":42}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}
