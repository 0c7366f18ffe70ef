package remote

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"complaints/backend/internal/gamification"
	"complaints/backend/internal/models"
)

// Gamification is the HTTP-backed gamification service.
type Gamification struct {
	c *Client
}

var _ gamification.Service = (*Gamification)(nil)

func NewGamification(c *Client) *Gamification {
	return &Gamification{c: c}
}

func (s *Gamification) GetUserStats(ctx context.Context) (*models.UserStats, error) {
	var stats models.UserStats
	if err := s.c.do(ctx, "GetUserStats", http.MethodGet, "/api/gamification/stats", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *Gamification) IncrementUserStat(ctx context.Context, stat string) (*models.User, error) {
	var u models.User
	if err := s.c.do(ctx, "IncrementUserStat", http.MethodPost, "/api/gamification/stats/"+escape(stat), nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Gamification) AwardPoints(ctx context.Context, userID string, points int, reason string) (*models.User, error) {
	var u models.User
	body := models.PointsAward{UserID: userID, Points: points, Reason: reason}
	if err := s.c.do(ctx, "AwardPoints", http.MethodPost, "/api/gamification/points", nil, body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Gamification) GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	entries := make([]models.LeaderboardEntry, 0)
	if err := s.c.do(ctx, "GetLeaderboard", http.MethodGet, "/api/gamification/leaderboard", q, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Gamification) GetUserBadges(ctx context.Context) ([]models.BadgeStatus, error) {
	list := make([]models.BadgeStatus, 0)
	if err := s.c.do(ctx, "GetUserBadges", http.MethodGet, "/api/gamification/badges", nil, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Gamification) GetAchievements(ctx context.Context) ([]models.AchievementProgress, error) {
	list := make([]models.AchievementProgress, 0)
	if err := s.c.do(ctx, "GetAchievements", http.MethodGet, "/api/gamification/achievements", nil, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Gamification) RegisterUser(ctx context.Context, u models.User) (*models.User, error) {
	var out models.User
	if err := s.c.do(ctx, "RegisterUser", http.MethodPost, "/api/users", nil, u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
