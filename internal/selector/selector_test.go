package selector_test

import (
	"context"
	"testing"

	"complaints/backend/internal/analysis"
	"complaints/backend/internal/complaint"
	"complaints/backend/internal/gamification"
	"complaints/backend/internal/notification"
	"complaints/backend/internal/config"
	"complaints/backend/internal/logging"
	"complaints/backend/internal/models"
	"complaints/backend/internal/remote"
	"complaints/backend/internal/selector"
	"complaints/backend/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelector_LocalIsSingleton(t *testing.T) {
	selector.Reset()
	t.Cleanup(selector.Reset)

	store := storagetest.New(t)
	selector.Init(&config.Config{UseLocalBackend: true}, selector.Deps{Store: store, Logger: logging.Discard()})

	first := selector.Complaints()
	require.IsType(t, &complaint.Local{}, first)
	assert.Same(t, first, selector.Complaints())
	assert.Same(t, selector.Analytics(), selector.Analytics())
	assert.Same(t, selector.Gamification(), selector.Gamification())
	assert.Same(t, selector.Notifications(), selector.Notifications())
	assert.Equal(t, selector.ModeLocal, selector.CurrentMode())

	list, err := first.GetComplaints(context.Background(), models.ComplaintFilters{})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestSelector_RemoteFromConfig(t *testing.T) {
	selector.Reset()
	t.Cleanup(selector.Reset)

	selector.Init(&config.Config{UseLocalBackend: false, APIBaseURL: "http://127.0.0.1:1"}, selector.Deps{Logger: logging.Discard()})

	assert.Equal(t, selector.ModeRemote, selector.CurrentMode())
	assert.IsType(t, &remote.Complaints{}, selector.Complaints())
	assert.IsType(t, &remote.Analytics{}, selector.Analytics())
	assert.IsType(t, &remote.Gamification{}, selector.Gamification())
	assert.IsType(t, &remote.Notifications{}, selector.Notifications())
}

func TestSelector_ForceModeOverridesConfig(t *testing.T) {
	selector.Reset()
	t.Cleanup(selector.Reset)

	selector.Init(&config.Config{UseLocalBackend: true, APIBaseURL: "http://127.0.0.1:1"}, selector.Deps{Logger: logging.Discard()})
	selector.ForceMode(selector.ModeRemote)

	assert.IsType(t, &remote.Complaints{}, selector.Complaints())
}

func TestSelector_ResolvedOnce(t *testing.T) {
	selector.Reset()
	t.Cleanup(selector.Reset)

	store := storagetest.New(t)
	selector.Init(&config.Config{UseLocalBackend: true}, selector.Deps{Store: store, Logger: logging.Discard()})
	first := selector.Complaints()

	selector.ForceMode(selector.ModeRemote)
	assert.Same(t, first, selector.Complaints())
}

func TestSelector_ServicesShareOneBackend(t *testing.T) {
	selector.Reset()
	t.Cleanup(selector.Reset)

	store := storagetest.New(t)
	selector.Init(&config.Config{UseLocalBackend: true}, selector.Deps{Store: store, Logger: logging.Discard()})
	require.IsType(t, &complaint.Local{}, selector.Complaints())

	// Neither a later ForceMode nor a later Init splits the set.
	selector.ForceMode(selector.ModeRemote)
	assert.IsType(t, &analysis.Local{}, selector.Analytics())
	selector.Init(&config.Config{UseLocalBackend: false, APIBaseURL: "http://127.0.0.1:1"}, selector.Deps{Logger: logging.Discard()})
	assert.IsType(t, &gamification.Local{}, selector.Gamification())
	assert.IsType(t, &notification.Local{}, selector.Notifications())
	assert.Equal(t, selector.ModeLocal, selector.CurrentMode())
}

func TestSelector_BuildsDefaultStore(t *testing.T) {
	selector.Reset()
	t.Cleanup(selector.Reset)

	selector.Init(&config.Config{UseLocalBackend: true, WorkDir: t.TempDir()}, selector.Deps{Logger: logging.Discard()})

	count, err := selector.Notifications().GetUnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
