package gamification_test

import (
	"context"
	"sync"
	"testing"

	"complaints/backend/internal/apperr"
	"complaints/backend/internal/config"
	"complaints/backend/internal/gamification"
	"complaints/backend/internal/logging"
	"complaints/backend/internal/models"
	"complaints/backend/internal/session"
	"complaints/backend/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	seen []models.Notification
}

func (r *recorder) Publish(n models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, n)
}

func newService(t *testing.T) (*gamification.Local, *recorder) {
	rec := &recorder{}
	return gamification.NewLocal(storagetest.New(t), rec, logging.Discard()), rec
}

func TestLocal_IncrementUserStat(t *testing.T) {
	ctx := context.Background()
	svc, rec := newService(t)

	before, err := svc.GetUserStats(ctx)
	require.NoError(t, err)

	const n = 7
	var user *models.User
	for i := 0; i < n; i++ {
		user, err = svc.IncrementUserStat(ctx, config.StatComplaintsSubmitted)
		require.NoError(t, err)
	}

	assert.Equal(t, before.TransparencyPoints+10*n, user.TransparencyPoints)
	assert.Equal(t, before.ComplaintsSubmitted+n, user.ComplaintsSubmitted)
	assert.Equal(t, user.TransparencyPoints/250+1, user.Level)

	after, err := svc.GetUserStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, user.TransparencyPoints, after.TransparencyPoints)
	assert.Equal(t, user.Level, after.Level)
	assert.Empty(t, rec.seen, "150 + 70 points stays on level 1")
}

func TestLocal_IncrementUserStatLevelUp(t *testing.T) {
	ctx := context.Background()
	svc, rec := newService(t)

	var user *models.User
	var err error
	for i := 0; i < 10; i++ {
		user, err = svc.IncrementUserStat(ctx, config.StatHelpfulVotes)
		require.NoError(t, err)
	}

	assert.Equal(t, 250, user.TransparencyPoints)
	assert.Equal(t, 2, user.Level)
	assert.Equal(t, 10, user.HelpfulVotes)

	require.Len(t, rec.seen, 1)
	assert.Equal(t, models.NotificationSuccess, rec.seen[0].Type)
	assert.Contains(t, rec.seen[0].Message, "nivel 2")
}

func TestLocal_IncrementUserStatUnknown(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.IncrementUserStat(context.Background(), "karma")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestLocal_AwardPoints(t *testing.T) {
	ctx := context.Background()
	svc, rec := newService(t)

	user, err := svc.AwardPoints(ctx, config.DefaultUserID, 1000, "Queja verificada")
	require.NoError(t, err)
	assert.Equal(t, 1150, user.TransparencyPoints)
	assert.Equal(t, 5, user.Level)
	require.Len(t, rec.seen, 1)
	assert.Contains(t, rec.seen[0].Message, "Queja verificada")

	_, err = svc.AwardPoints(ctx, "nobody", 10, "x")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.AwardPoints(ctx, "", 10, "x")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestLocal_LeaderboardTieBreak(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	ana, err := svc.RegisterUser(ctx, models.User{Name: "Ana", TelegramID: 100})
	require.NoError(t, err)
	beto, err := svc.RegisterUser(ctx, models.User{Name: "Beto", TelegramID: 200})
	require.NoError(t, err)

	// Ana ties the seeded user, Beto overtakes everyone.
	_, err = svc.AwardPoints(ctx, ana.ID, 150, "")
	require.NoError(t, err)
	_, err = svc.AwardPoints(ctx, beto.ID, 500, "")
	require.NoError(t, err)

	board, err := svc.GetLeaderboard(ctx, 0)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, []string{beto.ID, config.DefaultUserID, ana.ID},
		[]string{board[0].UserID, board[1].UserID, board[2].UserID})
	assert.Equal(t, []int{1, 2, 3}, []int{board[0].Rank, board[1].Rank, board[2].Rank})
	assert.Equal(t, 3, board[0].Level)

	top, err := svc.GetLeaderboard(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, beto.ID, top[0].UserID)

	stats, err := svc.GetUserStats(session.WithUserID(ctx, ana.ID))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Rank)
	assert.Equal(t, 250, stats.NextLevelPoints)
}

func TestLocal_RegisterUserIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	first, err := svc.RegisterUser(ctx, models.User{Name: "Ana", TelegramID: 42})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, 1, first.Level)

	second, err := svc.RegisterUser(ctx, models.User{Name: "Ana María", TelegramID: 42})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Ana", second.Name)

	_, err = svc.RegisterUser(ctx, models.User{Name: "  "})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestLocal_BadgesAndAchievements(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	badges, err := svc.GetUserBadges(ctx)
	require.NoError(t, err)
	require.Len(t, badges, 3)
	assert.True(t, badges[0].Unlocked, "150 points unlock the 50 point badge")
	assert.False(t, badges[1].Unlocked)

	_, err = svc.IncrementUserStat(ctx, config.StatComplaintsSubmitted)
	require.NoError(t, err)
	_, err = svc.AwardPoints(ctx, config.DefaultUserID, 90, "")
	require.NoError(t, err)

	badges, err = svc.GetUserBadges(ctx)
	require.NoError(t, err)
	assert.True(t, badges[1].Unlocked)
	assert.NotNil(t, badges[1].UnlockedAt)
	assert.False(t, badges[2].Unlocked)

	achievements, err := svc.GetAchievements(ctx)
	require.NoError(t, err)
	byID := map[string]models.AchievementProgress{}
	for _, a := range achievements {
		byID[a.ID] = a
	}
	assert.True(t, byID["primera-queja"].Completed)
	assert.Equal(t, 1, byID["primera-queja"].Progress)
	assert.False(t, byID["comentarista"].Completed)
	assert.Equal(t, 250, byID["transparente"].Progress)
}

func TestLocal_UnknownSessionUser(t *testing.T) {
	svc, _ := newService(t)
	ctx := session.WithUserID(context.Background(), "ghost")

	_, err := svc.GetUserStats(ctx)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.GetUserBadges(ctx)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
