// Package gamification tracks transparency points, levels, rankings and
// rewards of users.
package gamification

import (
	"context"

	"complaints/backend/internal/models"
)

// Service is the gamification contract. Methods without a user argument act
// on the session user of ctx.
type Service interface {
	GetUserStats(ctx context.Context) (*models.UserStats, error)
	// IncrementUserStat bumps one counter (complaintsSubmitted,
	// commentsGiven or helpfulVotes) and awards the fixed stat reward.
	IncrementUserStat(ctx context.Context, stat string) (*models.User, error)
	AwardPoints(ctx context.Context, userID string, points int, reason string) (*models.User, error)
	GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	GetUserBadges(ctx context.Context) ([]models.BadgeStatus, error)
	GetAchievements(ctx context.Context) ([]models.AchievementProgress, error)
	// RegisterUser returns the user matching u.TelegramID (or u.ID), creating
	// it when absent.
	RegisterUser(ctx context.Context, u models.User) (*models.User, error)
}
