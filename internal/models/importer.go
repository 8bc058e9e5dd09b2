package models

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxImportRows caps one bulk import call. The upstream file front end splits
// larger spreadsheets before handing rows to this service.
const maxImportRows = 10000

// ImportRow is one (project, amount) row from the bulk-file front end.
// DocumentRef optionally links the row to the disbursement document that
// produced it.
type ImportRow struct {
	ProjectID   string          `json:"project_id"`
	Amount      decimal.Decimal `json:"amount"`
	DocumentRef *string         `json:"document_ref,omitempty"`
}

// ImportRequest is the payload for a bulk import run.
type ImportRequest struct {
	Rows     []ImportRow `json:"rows"`
	ActorID  string      `json:"actor_id"`
	Filename string      `json:"filename,omitempty"`
}

// Validate checks the envelope. Per-row problems are not rejected here; the
// coordinator records them in the report so one bad row never aborts a batch.
func (r *ImportRequest) Validate() error {
	if len(r.Rows) == 0 {
		return fmt.Errorf("rows cannot be empty")
	}

	if len(r.Rows) > maxImportRows {
		return fmt.Errorf("rows exceeds maximum batch size of %d", maxImportRows)
	}

	if r.ActorID == "" {
		return ErrMissingActor
	}

	if len(r.ActorID) > 255 {
		return ErrFieldTooLong("actor_id", 255)
	}

	if len(r.Filename) > 255 {
		return ErrFieldTooLong("filename", 255)
	}

	return nil
}

// RowFailure records why one import row was not applied. Row is the
// 1-based position in the submitted row stream.
type RowFailure struct {
	Row       int    `json:"row"`
	ProjectID string `json:"project_id,omitempty"`
	Reason    string `json:"reason"`
}

// ImportReport summarises the outcome of a bulk import run. Matched counts
// rows whose project had a budget record; Updated counts rows actually
// applied. Skipped rows were refused by the threshold rules or an archived
// budget; Errors are everything else (bad row data, missing budgets,
// conflicts, store errors). A report with failures is still a successful
// batch.
type ImportReport struct {
	BatchID uuid.UUID    `json:"batch_id"`
	Rows    int          `json:"rows"`
	Matched int          `json:"matched"`
	Updated int          `json:"updated"`
	Skipped []RowFailure `json:"skipped,omitempty"`
	Errors  []RowFailure `json:"errors,omitempty"`
}
