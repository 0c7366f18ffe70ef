package gamification

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"complaints/backend/internal/apperr"
	"complaints/backend/internal/config"
	"complaints/backend/internal/models"
	"complaints/backend/internal/storage"

	"gorm.io/gorm"
)

// Award is the outcome of Apply.
type Award struct {
	User *models.User
	// LevelUp is the inbox entry created when the award raised the level.
	LevelUp *models.Notification
}

// Apply adds points to userID inside tx, bumping the named counter first
// when stat is not empty. The level is re-derived from the new total; a
// level-up inserts a success notification and newly reached badges and
// achievements are recorded.
func Apply(tx *gorm.DB, userID string, points int, stat, reason string) (*Award, error) {
	user, err := storage.FindUser(tx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if stat != "" {
		column, ok := config.StatColumns[stat]
		if !ok {
			return nil, apperr.Validation("unknown stat %q", stat)
		}
		updates[column] = bumpStat(user, stat)
	}

	leveledUp := user.AddPoints(points)
	updates["transparency_points"] = user.TransparencyPoints
	updates["level"] = user.Level

	if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", user.ID, err)
	}

	now := time.Now().UTC()
	award := &Award{User: user}
	if leveledUp {
		n := &models.Notification{
			Title:     "¡Nuevo nivel!",
			Message:   strings.TrimSpace(fmt.Sprintf("Has alcanzado el nivel %d. %s", user.Level, reason)),
			TimeLabel: "Ahora",
			Type:      models.NotificationSuccess,
			CreatedAt: now,
		}
		if err := tx.Create(n).Error; err != nil {
			return nil, fmt.Errorf("failed to create level-up notification: %w", err)
		}
		award.LevelUp = n
	}

	if err := recordRewards(tx, user, now); err != nil {
		return nil, err
	}
	return award, nil
}

func bumpStat(u *models.User, stat string) int {
	switch stat {
	case config.StatComplaintsSubmitted:
		u.ComplaintsSubmitted++
		return u.ComplaintsSubmitted
	case config.StatCommentsGiven:
		u.CommentsGiven++
		return u.CommentsGiven
	default:
		u.HelpfulVotes++
		return u.HelpfulVotes
	}
}

// statValue returns the counter an achievement is measured against.
func statValue(u *models.User, stat string) int {
	switch stat {
	case config.StatComplaintsSubmitted:
		return u.ComplaintsSubmitted
	case config.StatCommentsGiven:
		return u.CommentsGiven
	case config.StatHelpfulVotes:
		return u.HelpfulVotes
	case "transparencyPoints":
		return u.TransparencyPoints
	}
	return 0
}

// recordRewards stores the unlock time of badges and achievements the user
// reached for the first time.
func recordRewards(tx *gorm.DB, u *models.User, now time.Time) error {
	var badges []models.Badge
	if err := tx.Where("requirement <= ?", u.TransparencyPoints).Find(&badges).Error; err != nil {
		return err
	}
	for _, b := range badges {
		ub := models.UserBadge{UserID: u.ID, BadgeID: b.ID, UnlockedAt: now}
		if err := tx.Where(models.UserBadge{UserID: u.ID, BadgeID: b.ID}).FirstOrCreate(&ub).Error; err != nil {
			return fmt.Errorf("failed to record badge %s: %w", b.ID, err)
		}
	}

	var achievements []models.Achievement
	if err := tx.Find(&achievements).Error; err != nil {
		return err
	}
	for _, a := range achievements {
		progress := statValue(u, a.Stat)
		if progress < a.Target {
			continue
		}
		var ua models.UserAchievement
		err := tx.Where("user_id = ? AND achievement_id = ?", u.ID, a.ID).First(&ua).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		completed := now
		ua = models.UserAchievement{UserID: u.ID, AchievementID: a.ID, Progress: a.Target, CompletedAt: &completed}
		if err := tx.Create(&ua).Error; err != nil {
			return fmt.Errorf("failed to record achievement %s: %w", a.ID, err)
		}
	}
	return nil
}
