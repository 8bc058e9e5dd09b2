package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

// LedgerService handles disbursement mutations and ledger history reads.
type LedgerService struct {
	c *Client
}

// entryListResponse wraps the paginated ledger entry response.
type entryListResponse struct {
	Entries []LedgerEntry `json:"entries"`
	HasMore bool          `json:"has_more"`
}

// Validate runs the threshold rules against a proposed amount without
// recording anything. A refusal comes back as a Decision with
// CanCreate=false, not as an error.
func (s *LedgerService) Validate(ctx context.Context, projectID string, amount decimal.Decimal) (*Decision, error) {
	var d Decision
	body := map[string]decimal.Decimal{"amount": amount}
	if err := s.c.post(ctx, "/api/v1/budgets/"+url.PathEscape(projectID)+"/validate", body, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Disburse records a disbursement against the project budget. A threshold
// refusal surfaces as a 422 *APIError; use RejectionDecision to recover the
// full verdict.
func (s *LedgerService) Disburse(ctx context.Context, projectID string, req *DisburseRequest) (*ApplyResult, error) {
	var res ApplyResult
	if err := s.c.post(ctx, "/api/v1/budgets/"+url.PathEscape(projectID)+"/disbursements", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Rollback reverses a previously recorded entry with a compensating entry.
func (s *LedgerService) Rollback(ctx context.Context, projectID string, req *RollbackRequest) (*ApplyResult, error) {
	var res ApplyResult
	if err := s.c.post(ctx, "/api/v1/budgets/"+url.PathEscape(projectID)+"/rollbacks", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Entries returns ledger history matching the given options.
func (s *LedgerService) Entries(ctx context.Context, opts *LedgerListOptions) ([]LedgerEntry, bool, error) {
	params := url.Values{}
	if opts != nil {
		if opts.ProjectID != "" {
			params.Set("project_id", opts.ProjectID)
		}
		if opts.Operation != "" {
			params.Set("operation", opts.Operation)
		}
		if opts.ActorID != "" {
			params.Set("actor_id", opts.ActorID)
		}
		if opts.From != "" {
			params.Set("from", opts.From)
		}
		if opts.To != "" {
			params.Set("to", opts.To)
		}
		if opts.Order != "" {
			params.Set("order", opts.Order)
		}
		if opts.Limit > 0 {
			params.Set("limit", strconv.Itoa(opts.Limit))
		}
		if opts.Offset > 0 {
			params.Set("offset", strconv.Itoa(opts.Offset))
		}
	}
	var resp entryListResponse
	if err := s.c.get(ctx, "/api/v1/ledger", params, &resp); err != nil {
		return nil, false, err
	}
	return resp.Entries, resp.HasMore, nil
}

// Batch returns the entries of one import batch in insertion order.
func (s *LedgerService) Batch(ctx context.Context, batchID string, limit, offset int) ([]LedgerEntry, bool, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}
	var resp entryListResponse
	if err := s.c.get(ctx, "/api/v1/ledger/batches/"+url.PathEscape(batchID), params, &resp); err != nil {
		return nil, false, err
	}
	return resp.Entries, resp.HasMore, nil
}

// Entry returns a single ledger entry by ID.
func (s *LedgerService) Entry(ctx context.Context, id int64) (*LedgerEntry, error) {
	var e LedgerEntry
	if err := s.c.get(ctx, fmt.Sprintf("/api/v1/ledger/entries/%d", id), nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
