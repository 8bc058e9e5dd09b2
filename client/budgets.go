package client

import (
	"context"
	"net/url"
	"strconv"
)

// BudgetService handles budget record operations.
type BudgetService struct {
	c *Client
}

// budgetListResponse wraps the paginated budget list response.
type budgetListResponse struct {
	Budgets []Budget `json:"budgets"`
	HasMore bool     `json:"has_more"`
}

// List returns budget records with optional filtering and pagination.
func (s *BudgetService) List(ctx context.Context, opts *BudgetListOptions) ([]Budget, bool, error) {
	params := url.Values{}
	if opts != nil {
		if opts.Status != "" {
			params.Set("status", opts.Status)
		}
		if opts.Limit > 0 {
			params.Set("limit", strconv.Itoa(opts.Limit))
		}
		if opts.Offset > 0 {
			params.Set("offset", strconv.Itoa(opts.Offset))
		}
	}
	var resp budgetListResponse
	if err := s.c.get(ctx, "/api/v1/budgets", params, &resp); err != nil {
		return nil, false, err
	}
	return resp.Budgets, resp.HasMore, nil
}

// Get returns a single budget record by project ID.
func (s *BudgetService) Get(ctx context.Context, projectID string) (*Budget, error) {
	var b Budget
	if err := s.c.get(ctx, "/api/v1/budgets/"+url.PathEscape(projectID), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Create budgets a project for the first time.
func (s *BudgetService) Create(ctx context.Context, req *CreateBudgetRequest) (*Budget, error) {
	var b Budget
	if err := s.c.post(ctx, "/api/v1/budgets", req, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Archive retires a budget. Archived budgets refuse further mutations but
// stay readable.
func (s *BudgetService) Archive(ctx context.Context, projectID string) (*Budget, error) {
	var b Budget
	if err := s.c.post(ctx, "/api/v1/budgets/"+url.PathEscape(projectID)+"/archive", nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}
