package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// NotificationService handles threshold notification records.
type NotificationService struct {
	c *Client
}

// notificationListResponse wraps the paginated notification list response.
type notificationListResponse struct {
	Notifications []Notification `json:"notifications"`
	HasMore       bool           `json:"has_more"`
}

// List returns notification records matching the given options.
func (s *NotificationService) List(ctx context.Context, opts *NotificationListOptions) ([]Notification, bool, error) {
	params := url.Values{}
	if opts != nil {
		if opts.ProjectID != "" {
			params.Set("project_id", opts.ProjectID)
		}
		if opts.Type != "" {
			params.Set("type", opts.Type)
		}
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
	var resp notificationListResponse
	if err := s.c.get(ctx, "/api/v1/notifications", params, &resp); err != nil {
		return nil, false, err
	}
	return resp.Notifications, resp.HasMore, nil
}

// Resolve marks a notification as handled by the funding workflow.
func (s *NotificationService) Resolve(ctx context.Context, id int64) (*Notification, error) {
	var n Notification
	if err := s.c.post(ctx, fmt.Sprintf("/api/v1/notifications/%d/resolve", id), nil, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Purge deletes resolved notifications older than retentionDays. Returns
// count deleted.
func (s *NotificationService) Purge(ctx context.Context, retentionDays int) (int, error) {
	params := url.Values{}
	if retentionDays > 0 {
		params.Set("retention_days", strconv.Itoa(retentionDays))
	}
	var resp struct {
		Deleted       int `json:"deleted"`
		RetentionDays int `json:"retention_days"`
	}
	if err := s.c.del(ctx, "/api/v1/notifications", params, &resp); err != nil {
		return 0, err
	}
	return resp.Deleted, nil
}
