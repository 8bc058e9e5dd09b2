package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/reliefline/fundledger/internal/metrics"
	"github.com/reliefline/fundledger/internal/models"
)

// Applier is the mutation surface the import coordinator drives.
type Applier interface {
	ApplyDelta(ctx context.Context, req models.ApplyRequest) (*models.ApplyResult, error)
}

const defaultImportWorkers = 4

// ImportService feeds bulk rows through the mutation engine under one batch
// identity.
type ImportService struct {
	ledger  Applier
	log     *logrus.Logger
	workers int
}

// NewImportService creates an ImportService running at most workers project
// groups concurrently. Zero or negative workers means the default 4.
func NewImportService(ledger Applier, log *logrus.Logger, workers int) *ImportService {
	if workers <= 0 {
		workers = defaultImportWorkers
	}

	return &ImportService{ledger: ledger, log: log, workers: workers}
}

// numberedRow pairs a row with its 1-based position in the submitted stream.
// The position doubles as the row's sequence_in_batch.
type numberedRow struct {
	seq int
	row models.ImportRow
}

// Run processes one bulk import: a fresh batch id, sequence numbers assigned
// over the whole stream in input order, rows grouped by project. Groups run
// concurrently; rows within a group run strictly in sequence order. A row
// failure is recorded in the report and never aborts the batch.
func (s *ImportService) Run(ctx context.Context, req models.ImportRequest) (*models.ImportReport, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	batchID := uuid.New()
	report := &models.ImportReport{BatchID: batchID, Rows: len(req.Rows)}

	groups := make(map[string][]numberedRow)

	var order []string

	for i, row := range req.Rows {
		if _, seen := groups[row.ProjectID]; !seen {
			order = append(order, row.ProjectID)
		}

		groups[row.ProjectID] = append(groups[row.ProjectID], numberedRow{seq: i + 1, row: row})
	}

	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, projectID := range order {
		rows := groups[projectID]

		g.Go(func() error {
			for _, nr := range rows {
				if err := gctx.Err(); err != nil {
					return err
				}

				outcome := s.applyRow(gctx, batchID, req, nr)

				mu.Lock()
				outcome.mergeInto(report)
				mu.Unlock()
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("import batch %s interrupted: %w", batchID, err)
	}

	sortFailures(report)

	s.log.WithFields(logrus.Fields{
		"batch_id": batchID.String(),
		"rows":     report.Rows,
		"matched":  report.Matched,
		"updated":  report.Updated,
		"skipped":  len(report.Skipped),
		"errors":   len(report.Errors),
	}).Info("import.run")

	return report, nil
}

// rowOutcome is one row's contribution to the import report.
type rowOutcome struct {
	matched bool
	updated bool
	skip    *models.RowFailure
	fail    *models.RowFailure
}

func (o rowOutcome) mergeInto(report *models.ImportReport) {
	if o.matched {
		report.Matched++
	}

	if o.updated {
		report.Updated++
	}

	if o.skip != nil {
		report.Skipped = append(report.Skipped, *o.skip)
	}

	if o.fail != nil {
		report.Errors = append(report.Errors, *o.fail)
	}
}

// applyRow runs one row through the mutation engine and classifies the
// result. Threshold refusals and archived budgets are policy skips; anything
// else that stops a row (malformed data, unknown project, contention, store
// failure) lands in errors. Matched counts rows whose project had a budget.
func (s *ImportService) applyRow(
	ctx context.Context, batchID uuid.UUID, req models.ImportRequest, nr numberedRow,
) rowOutcome {
	seq := nr.seq
	failure := models.RowFailure{Row: nr.seq, ProjectID: nr.row.ProjectID}

	_, err := s.ledger.ApplyDelta(ctx, models.ApplyRequest{
		ProjectID:       nr.row.ProjectID,
		Amount:          nr.row.Amount,
		DocumentID:      nr.row.DocumentRef,
		ActorID:         req.ActorID,
		Operation:       models.OpImport,
		BatchID:         &batchID,
		SequenceInBatch: &seq,
		Meta: models.EntryMeta{
			Import: &models.ImportMeta{SourceRow: nr.seq, Filename: req.Filename},
		},
	})

	var rejection *models.RejectionError

	switch {
	case err == nil:
		metrics.ImportRows.WithLabelValues("applied").Inc()
		return rowOutcome{matched: true, updated: true}

	case errors.As(err, &rejection):
		metrics.ImportRows.WithLabelValues("skipped").Inc()
		failure.Reason = rejection.Decision.Message

		return rowOutcome{matched: true, skip: &failure}

	case errors.Is(err, models.ErrBudgetArchived):
		metrics.ImportRows.WithLabelValues("skipped").Inc()
		failure.Reason = err.Error()

		return rowOutcome{matched: true, skip: &failure}

	case errors.Is(err, models.ErrVersionConflict):
		metrics.ImportRows.WithLabelValues("error").Inc()
		failure.Reason = err.Error()

		return rowOutcome{matched: true, fail: &failure}

	default:
		metrics.ImportRows.WithLabelValues("error").Inc()
		failure.Reason = err.Error()

		return rowOutcome{fail: &failure}
	}
}

// sortFailures orders both failure lists by row so reports come out stable
// regardless of which project group finished first.
func sortFailures(report *models.ImportReport) {
	sort.Slice(report.Skipped, func(i, j int) bool { return report.Skipped[i].Row < report.Skipped[j].Row })
	sort.Slice(report.Errors, func(i, j int) bool { return report.Errors[i].Row < report.Errors[j].Row })
}
