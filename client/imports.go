package client

import (
	"context"
)

// ImportService handles bulk import runs.
type ImportService struct {
	c *Client
}

// Run submits a bulk import and returns the per-row report. Row-level
// failures live in the report's Skipped and Errors lists; only envelope
// problems (empty rows, missing actor) come back as errors.
func (s *ImportService) Run(ctx context.Context, req *ImportRequest) (*ImportReport, error) {
	var report ImportReport
	if err := s.c.post(ctx, "/api/v1/imports", req, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
