package client

import (
	"context"
	"net/url"
)

// ReconciliationService cross-checks ledger entries against disbursement
// documents.
type ReconciliationService struct {
	c *Client
}

// Run reconciles a project's period. Bounds accept RFC3339 timestamps or
// bare YYYY-MM-DD dates; a bare date as the upper bound covers the whole
// day.
func (s *ReconciliationService) Run(ctx context.Context, projectID, from, to string) (*ReconciliationResult, error) {
	params := url.Values{}
	params.Set("from", from)
	params.Set("to", to)

	var res ReconciliationResult
	if err := s.c.get(ctx, "/api/v1/budgets/"+url.PathEscape(projectID)+"/reconciliation", params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
