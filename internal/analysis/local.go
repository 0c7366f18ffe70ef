package analysis

import (
	"context"
	"errors"
	"sort"
	"time"

	"complaints/backend/internal/apperr"
	"complaints/backend/internal/config"
	"complaints/backend/internal/logging"
	"complaints/backend/internal/metrics"
	"complaints/backend/internal/models"
	"complaints/backend/internal/storage"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Local computes analytics from the store. Trend deltas are always zero.
type Local struct {
	store storage.Storage
	log   *logrus.Entry
	now   func() time.Time
}

var _ Service = (*Local)(nil)

func NewLocal(store storage.Storage, logger *logrus.Logger) *Local {
	return &Local{store: store, log: logging.Component(logger, "analysis"), now: time.Now}
}

type countRow struct {
	Name  string
	Count int
}

func (s *Local) GetSummary(ctx context.Context) (summary *models.AnalyticsSummary, err error) {
	defer func() { s.observe("GetSummary", err) }()

	var byCategory, byLocation, byStatus []countRow
	err = s.store.Read(ctx, func(tx *gorm.DB) error {
		if err := groupCount(tx, "category", &byCategory); err != nil {
			return err
		}
		if err := groupCount(tx, "location", &byLocation); err != nil {
			return err
		}
		return groupCount(tx, "status", &byStatus)
	})
	if err != nil {
		return nil, err
	}

	total := 0
	for _, r := range byCategory {
		total += r.Count
	}

	summary = &models.AnalyticsSummary{
		TotalComplaints: total,
		ByCategory:      shares(byCategory, total),
		ByLocation:      shares(byLocation, total),
		ByStatus:        make(map[string]int, len(models.Statuses)),
		TrendingTopics:  make([]string, 0, config.TrendingTopicsMax),
	}
	for _, st := range models.Statuses {
		summary.ByStatus[st] = 0
	}
	for _, r := range byStatus {
		summary.ByStatus[r.Name] = r.Count
	}
	for i, r := range byCategory {
		if i == config.TrendingTopicsMax {
			break
		}
		summary.TrendingTopics = append(summary.TrendingTopics, Hashtag(r.Name))
	}
	return summary, nil
}

// groupCount counts complaints per value of column, largest group first.
func groupCount(tx *gorm.DB, column string, out *[]countRow) error {
	return tx.Model(&models.Complaint{}).
		Select(column + " AS name, COUNT(*) AS count").
		Group(column).
		Order("count DESC").
		Order("name ASC").
		Scan(out).Error
}

func shares(rows []countRow, total int) []models.CountShare {
	out := make([]models.CountShare, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.CountShare{Name: r.Name, Count: r.Count, Percentage: Percentage(r.Count, total)})
	}
	return out
}

func (s *Local) GetTimeline(ctx context.Context, days int) (points []models.TimelinePoint, err error) {
	defer func() { s.observe("GetTimeline", err) }()

	if days <= 0 {
		days = config.DefaultTimelineDays
	}
	if days > MaxTimelineDays {
		return nil, apperr.Validation("timeline is limited to %d days", MaxTimelineDays)
	}

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -(days - 1))

	var created []time.Time
	err = s.store.Read(ctx, func(tx *gorm.DB) error {
		return tx.Model(&models.Complaint{}).Where("created_at >= ?", start).Pluck("created_at", &created).Error
	})
	if err != nil {
		return nil, err
	}

	perDay := make(map[string]int, days)
	for _, t := range created {
		perDay[t.UTC().Format(time.DateOnly)]++
	}

	points = make([]models.TimelinePoint, 0, days)
	for d := start; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := d.Format(time.DateOnly)
		points = append(points, models.TimelinePoint{Date: key, Count: perDay[key]})
	}
	return points, nil
}

func (s *Local) GetCategoryStats(ctx context.Context) (stats []models.CategoryStat, err error) {
	defer func() { s.observe("GetCategoryStats", err) }()

	var categories []models.Category
	var counts []countRow
	err = s.store.Read(ctx, func(tx *gorm.DB) error {
		if err := tx.Order("label ASC").Find(&categories).Error; err != nil {
			return err
		}
		return groupCount(tx, "category", &counts)
	})
	if err != nil {
		return nil, err
	}

	byLabel := make(map[string]int, len(counts))
	total := 0
	for _, r := range counts {
		byLabel[r.Name] = r.Count
		total += r.Count
	}

	stats = make([]models.CategoryStat, 0, len(categories))
	for _, c := range categories {
		n := byLabel[c.Label]
		stats = append(stats, models.CategoryStat{Category: c, Count: n, Percentage: Percentage(n, total)})
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Count > stats[j].Count })
	return stats, nil
}

func (s *Local) observe(op string, err error) {
	metrics.RecordServiceCall("local", op, err)
	if errors.Is(err, apperr.ErrStore) {
		s.log.WithError(err).WithField("op", op).Error("Analytics operation failed")
	}
}
