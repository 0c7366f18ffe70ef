package gamification

import (
	"context"
	"errors"
	"strings"
	"time"

	"complaints/backend/internal/apperr"
	"complaints/backend/internal/config"
	"complaints/backend/internal/logging"
	"complaints/backend/internal/metrics"
	"complaints/backend/internal/models"
	"complaints/backend/internal/notification"
	"complaints/backend/internal/session"
	"complaints/backend/internal/storage"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Local is the store-backed gamification service.
type Local struct {
	store storage.Storage
	pub   notification.Publisher
	log   *logrus.Entry
}

var _ Service = (*Local)(nil)

func NewLocal(store storage.Storage, pub notification.Publisher, logger *logrus.Logger) *Local {
	return &Local{store: store, pub: notification.OrNop(pub), log: logging.Component(logger, "gamification")}
}

func (s *Local) GetUserStats(ctx context.Context) (stats *models.UserStats, err error) {
	defer func() { s.observe("GetUserStats", err) }()

	userID := session.UserID(ctx)
	err = s.store.Read(ctx, func(tx *gorm.DB) error {
		user, err := storage.FindUser(tx, userID)
		if err != nil {
			return err
		}
		var ranked []string
		if err := ranking(tx).Pluck("id", &ranked).Error; err != nil {
			return err
		}
		rank := 0
		for i, id := range ranked {
			if id == user.ID {
				rank = i + 1
				break
			}
		}
		stats = &models.UserStats{
			User:            *user,
			NextLevelPoints: user.Level * models.PointsPerLevel,
			Rank:            rank,
		}
		return nil
	})
	return stats, err
}

func (s *Local) IncrementUserStat(ctx context.Context, stat string) (user *models.User, err error) {
	defer func() { s.observe("IncrementUserStat", err) }()

	if _, ok := config.StatColumns[stat]; !ok {
		return nil, apperr.Validation("unknown stat %q", stat)
	}
	return s.apply(ctx, session.UserID(ctx), config.StatReward, stat, "Actividad: "+stat)
}

func (s *Local) AwardPoints(ctx context.Context, userID string, points int, reason string) (user *models.User, err error) {
	defer func() { s.observe("AwardPoints", err) }()

	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Validation("user id is required")
	}
	return s.apply(ctx, userID, points, "", reason)
}

func (s *Local) apply(ctx context.Context, userID string, points int, stat, reason string) (*models.User, error) {
	var award *Award
	err := s.store.Write(ctx, func(tx *gorm.DB) error {
		var err error
		award, err = Apply(tx, userID, points, stat, reason)
		return err
	})
	if err != nil {
		return nil, err
	}
	if award.LevelUp != nil {
		s.log.WithFields(logrus.Fields{"user_id": userID, "level": award.User.Level}).Info("User leveled up")
		s.pub.Publish(*award.LevelUp)
	}
	return award.User, nil
}

func (s *Local) GetLeaderboard(ctx context.Context, limit int) (entries []models.LeaderboardEntry, err error) {
	defer func() { s.observe("GetLeaderboard", err) }()

	if limit <= 0 {
		limit = config.DefaultLeaderboardLimit
	}
	if limit > config.MaxLeaderboardLimit {
		limit = config.MaxLeaderboardLimit
	}

	var users []models.User
	err = s.store.Read(ctx, func(tx *gorm.DB) error {
		return ranking(tx).Limit(limit).Find(&users).Error
	})
	if err != nil {
		return nil, err
	}

	entries = make([]models.LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, models.LeaderboardEntry{
			Rank:   i + 1,
			UserID: u.ID,
			Name:   u.Name,
			Avatar: u.Avatar,
			Points: u.TransparencyPoints,
			Level:  u.Level,
		})
	}
	return entries, nil
}

// ranking orders users by points, breaking ties by earliest registration and
// then by id.
func ranking(tx *gorm.DB) *gorm.DB {
	return tx.Model(&models.User{}).
		Order("transparency_points DESC").
		Order("created_at ASC").
		Order("id ASC")
}

func (s *Local) GetUserBadges(ctx context.Context) (list []models.BadgeStatus, err error) {
	defer func() { s.observe("GetUserBadges", err) }()

	userID := session.UserID(ctx)
	err = s.store.Read(ctx, func(tx *gorm.DB) error {
		user, err := storage.FindUser(tx, userID)
		if err != nil {
			return err
		}
		var badges []models.Badge
		if err := tx.Order("requirement ASC").Order("id ASC").Find(&badges).Error; err != nil {
			return err
		}
		var unlocked []models.UserBadge
		if err := tx.Where("user_id = ?", user.ID).Find(&unlocked).Error; err != nil {
			return err
		}
		at := make(map[string]time.Time, len(unlocked))
		for _, ub := range unlocked {
			at[ub.BadgeID] = ub.UnlockedAt
		}

		list = make([]models.BadgeStatus, 0, len(badges))
		for _, b := range badges {
			status := models.BadgeStatus{Badge: b}
			if t, ok := at[b.ID]; ok {
				status.Unlocked = true
				status.UnlockedAt = &t
			} else if user.TransparencyPoints >= b.Requirement {
				status.Unlocked = true
			}
			list = append(list, status)
		}
		return nil
	})
	return list, err
}

func (s *Local) GetAchievements(ctx context.Context) (list []models.AchievementProgress, err error) {
	defer func() { s.observe("GetAchievements", err) }()

	userID := session.UserID(ctx)
	err = s.store.Read(ctx, func(tx *gorm.DB) error {
		user, err := storage.FindUser(tx, userID)
		if err != nil {
			return err
		}
		var achievements []models.Achievement
		if err := tx.Order("target ASC").Order("id ASC").Find(&achievements).Error; err != nil {
			return err
		}

		list = make([]models.AchievementProgress, 0, len(achievements))
		for _, a := range achievements {
			progress := statValue(user, a.Stat)
			if progress > a.Target {
				progress = a.Target
			}
			list = append(list, models.AchievementProgress{
				Achievement: a,
				Progress:    progress,
				Completed:   progress >= a.Target,
			})
		}
		return nil
	})
	return list, err
}

func (s *Local) RegisterUser(ctx context.Context, u models.User) (user *models.User, err error) {
	defer func() { s.observe("RegisterUser", err) }()

	u.Name = strings.TrimSpace(u.Name)
	if u.Name == "" {
		return nil, apperr.Validation("name is required")
	}
	if u.TelegramID == 0 && u.ID == "" {
		return nil, apperr.Validation("either id or telegram id is required")
	}
	if u.Avatar == "" {
		u.Avatar = "👤"
	}
	u.TransparencyPoints = 0
	u.CreatedAt = time.Now().UTC()

	err = s.store.Write(ctx, func(tx *gorm.DB) error {
		where := models.User{ID: u.ID}
		if u.TelegramID != 0 {
			where = models.User{TelegramID: u.TelegramID}
		}
		if err := tx.Where(where).FirstOrCreate(&u).Error; err != nil {
			return err
		}
		stored, err := storage.FindUser(tx, u.ID)
		if err != nil {
			return err
		}
		user = stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "telegram_id": user.TelegramID}).Debug("User registered")
	return user, nil
}

func (s *Local) observe(op string, err error) {
	metrics.RecordServiceCall("local", op, err)
	if errors.Is(err, apperr.ErrStore) {
		s.log.WithError(err).WithField("op", op).Error("Gamification operation failed")
	}
}
