package api

import (
	"context"
	"net/http"

	"github.com/jrsteele09/kaziflow-client/notifications"
	"github.com/jrsteele09/kaziflow-client/risk"
)

var (
	_ notifications.Source = (*Client)(nil)
	_ risk.Analyzer        = (*Client)(nil)
)

func (c *Client) ListNotifications(ctx context.Context) ([]notifications.Notification, error) {
	list := make([]notifications.Notification, 0)
	if err := c.call(ctx, c.authed, "ListNotifications", http.MethodGet, "/notifications/", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.call(ctx, c.authed, "MarkNotificationRead", http.MethodPost, "/notifications/"+pathSegment(id)+"/read", nil, nil)
}

func (c *Client) AnalyzeRisk(ctx context.Context, subjectID string, subject map[string]any) (risk.Score, error) {
	if subject == nil {
		subject = map[string]any{}
	}
	var score risk.Score
	if err := c.call(ctx, c.authed, "AnalyzeRisk", http.MethodPost, "/risk/analyze/"+pathSegment(subjectID), subject, &score); err != nil {
		return risk.Score{}, err
	}
	return score, nil
}
