package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a participant of the complaints feed. The local backend seeds one
// row that stands in for the operator; every other row is created on demand
// (API tokens, Telegram chats) and ranks on the same leaderboard.
type User struct {
	ID       string `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"not null" json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	Bio      string `json:"bio"`
	Avatar   string `json:"avatar"`
	// TelegramID links the user to a bot chat; zero for web-only users.
	TelegramID int64 `gorm:"index" json:"telegramId,omitempty"`

	// TransparencyPoints is the gamification score. Level is derived from it.
	TransparencyPoints  int `gorm:"not null;default:0" json:"transparencyPoints"`
	Level               int `gorm:"not null;default:1" json:"level"`
	ComplaintsSubmitted int `gorm:"not null;default:0" json:"complaintsSubmitted"`
	CommentsGiven       int `gorm:"not null;default:0" json:"commentsGiven"`
	HelpfulVotes        int `gorm:"not null;default:0" json:"helpfulVotes"`

	CreatedAt time.Time `json:"createdAt"`
}

// BeforeCreate generates a UUID for users created without an explicit ID.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	u.RecalculateLevel()
	return
}

// LevelFor returns the level reached with the given amount of points.
func LevelFor(points, step int) int {
	if points < 0 || step <= 0 {
		return 1
	}
	return points/step + 1
}

// RecalculateLevel re-derives Level from TransparencyPoints and reports
// whether the level went up.
func (u *User) RecalculateLevel() bool {
	before := u.Level
	u.Level = LevelFor(u.TransparencyPoints, PointsPerLevel)
	return u.Level > before
}

// AddPoints adds points and re-derives the level.
func (u *User) AddPoints(points int) (leveledUp bool) {
	u.TransparencyPoints += points
	return u.RecalculateLevel()
}

// PointsPerLevel is the number of transparency points between two levels.
const PointsPerLevel = 250
