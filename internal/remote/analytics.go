package remote

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"complaints/backend/internal/analysis"
	"complaints/backend/internal/models"
)

// Analytics is the HTTP-backed analytics service.
type Analytics struct {
	c *Client
}

var _ analysis.Service = (*Analytics)(nil)

func NewAnalytics(c *Client) *Analytics {
	return &Analytics{c: c}
}

func (s *Analytics) GetSummary(ctx context.Context) (*models.AnalyticsSummary, error) {
	var summary models.AnalyticsSummary
	if err := s.c.do(ctx, "GetSummary", http.MethodGet, "/api/analytics/summary", nil, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *Analytics) GetTimeline(ctx context.Context, days int) ([]models.TimelinePoint, error) {
	q := url.Values{}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}
	points := make([]models.TimelinePoint, 0)
	if err := s.c.do(ctx, "GetTimeline", http.MethodGet, "/api/analytics/timeline", q, nil, &points); err != nil {
		return nil, err
	}
	return points, nil
}

func (s *Analytics) GetCategoryStats(ctx context.Context) ([]models.CategoryStat, error) {
	stats := make([]models.CategoryStat, 0)
	if err := s.c.do(ctx, "GetCategoryStats", http.MethodGet, "/api/analytics/categories", nil, nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}
