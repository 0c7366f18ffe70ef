package analysis

import (
	"context"
	"testing"
	"time"

	"complaints/backend/internal/logging"
	"complaints/backend/internal/models"
	"complaints/backend/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0.0, Percentage(3, 0))
	assert.Equal(t, 50.0, Percentage(1, 2))
	assert.Equal(t, 33.3, Percentage(1, 3))
	assert.Equal(t, 66.7, Percentage(2, 3))
}

func TestHashtag(t *testing.T) {
	assert.Equal(t, "#Salud", Hashtag("Salud"))
	assert.Equal(t, "#MedioAmbiente", Hashtag("Medio Ambiente"))
}

func TestLocal_GetSummary(t *testing.T) {
	ctx := context.Background()
	store := storagetest.New(t)
	svc := NewLocal(store, logging.Discard())

	_, err := store.Execute(ctx, `INSERT INTO complaints (id, author, category, location, content, status, created_at)
		VALUES ('3', 'Ana', 'Salud', 'Norte, Ciudad', 'Sin medicinas', 'resolved', '2024-01-16 10:00:00+00:00')`)
	require.NoError(t, err)

	summary, err := svc.GetSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalComplaints)
	assert.Equal(t, []models.CountShare{
		{Name: "Salud", Count: 2, Percentage: 66.7},
		{Name: "Transporte", Count: 1, Percentage: 33.3},
	}, summary.ByCategory)
	assert.Equal(t, []models.CountShare{
		{Name: "Norte, Ciudad", Count: 2, Percentage: 66.7},
		{Name: "Centro, Ciudad", Count: 1, Percentage: 33.3},
	}, summary.ByLocation)
	assert.Equal(t, map[string]int{
		models.StatusPending:    1,
		models.StatusInProgress: 1,
		models.StatusResolved:   1,
		models.StatusRejected:   0,
	}, summary.ByStatus)
	assert.Equal(t, []string{"#Salud", "#Transporte"}, summary.TrendingTopics)
}

func TestLocal_GetSummaryEmpty(t *testing.T) {
	ctx := context.Background()
	store := storagetest.New(t)
	svc := NewLocal(store, logging.Discard())

	_, err := store.Execute(ctx, "DELETE FROM complaints")
	require.NoError(t, err)

	summary, err := svc.GetSummary(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.TotalComplaints)
	assert.Empty(t, summary.ByCategory)
	assert.Empty(t, summary.TrendingTopics)
	assert.Len(t, summary.ByStatus, 4)
}

func TestLocal_GetTimeline(t *testing.T) {
	ctx := context.Background()
	svc := NewLocal(storagetest.New(t), logging.Discard())
	svc.now = func() time.Time { return time.Date(2024, 1, 16, 18, 0, 0, 0, time.UTC) }

	points, err := svc.GetTimeline(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []models.TimelinePoint{
		{Date: "2024-01-14", Count: 0},
		{Date: "2024-01-15", Count: 2},
		{Date: "2024-01-16", Count: 0},
	}, points)

	points, err = svc.GetTimeline(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, points, 7)
	assert.Equal(t, "2024-01-16", points[6].Date)

	_, err = svc.GetTimeline(ctx, MaxTimelineDays+1)
	assert.Error(t, err)
}

func TestLocal_GetCategoryStats(t *testing.T) {
	svc := NewLocal(storagetest.New(t), logging.Discard())

	stats, err := svc.GetCategoryStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 8)

	assert.Equal(t, "Salud", stats[0].Label)
	assert.Equal(t, 1, stats[0].Count)
	assert.Equal(t, 50.0, stats[0].Percentage)
	assert.Equal(t, "🏥", stats[0].Icon)
	assert.Equal(t, "Transporte", stats[1].Label)
	for _, s := range stats[2:] {
		assert.Zero(t, s.Count, s.Label)
	}
}
