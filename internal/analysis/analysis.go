// Package analysis aggregates the complaint table into the dashboard views:
// totals with category, location and status breakdowns, a daily timeline
// and per-category statistics.
package analysis

import (
	"context"
	"math"
	"strings"

	"complaints/backend/internal/models"
)

// MaxTimelineDays bounds GetTimeline.
const MaxTimelineDays = 365

// Service is the analytics contract shared by both backends.
type Service interface {
	GetSummary(ctx context.Context) (*models.AnalyticsSummary, error)
	// GetTimeline returns one point per day for the last days days, oldest
	// first, today included.
	GetTimeline(ctx context.Context, days int) ([]models.TimelinePoint, error)
	GetCategoryStats(ctx context.Context) ([]models.CategoryStat, error)
}

// Percentage returns count as a share of total, rounded to one decimal.
func Percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)*1000/float64(total)) / 10
}

// Hashtag renders a category label as a trending topic.
func Hashtag(label string) string {
	return "#" + strings.Join(strings.Fields(label), "")
}
