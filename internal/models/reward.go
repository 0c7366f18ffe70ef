package models

import "time"

// Badge is an unlockable reward shown on the user profile.
type Badge struct {
	ID          string `gorm:"primaryKey" json:"id" yaml:"id"`
	Name        string `gorm:"not null" json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Icon        string `json:"icon" yaml:"icon"`
	// Requirement is the number of points needed to unlock the badge.
	Requirement int `gorm:"not null;default:0" json:"requirement" yaml:"requirement"`
}

// Achievement is a goal measured against one of the user counters.
type Achievement struct {
	ID          string `gorm:"primaryKey" json:"id" yaml:"id"`
	Title       string `gorm:"not null" json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Icon        string `json:"icon" yaml:"icon"`
	// Stat names the counter measured (complaintsSubmitted, commentsGiven,
	// helpfulVotes or transparencyPoints).
	Stat   string `gorm:"not null" json:"stat" yaml:"stat"`
	Target int    `gorm:"not null" json:"target" yaml:"target"`
	Points int    `gorm:"not null;default:0" json:"points" yaml:"points"`
}

type UserBadge struct {
	UserID     string    `gorm:"primaryKey" json:"userId"`
	BadgeID    string    `gorm:"primaryKey" json:"badgeId"`
	UnlockedAt time.Time `json:"unlockedAt"`
}

type UserAchievement struct {
	UserID        string     `gorm:"primaryKey" json:"userId"`
	AchievementID string     `gorm:"primaryKey" json:"achievementId"`
	Progress      int        `gorm:"not null;default:0" json:"progress"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

// BadgeStatus pairs a badge with the user's unlock state.
type BadgeStatus struct {
	Badge
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlockedAt,omitempty"`
}

// AchievementProgress pairs an achievement with the user's progress.
type AchievementProgress struct {
	Achievement
	Progress  int  `json:"progress"`
	Completed bool `json:"completed"`
}

// LeaderboardEntry is one ranked user.
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Points int    `json:"points"`
	Level  int    `json:"level"`
}

// UserStats is the gamification view of a user.
type UserStats struct {
	User
	NextLevelPoints int `json:"nextLevelPoints"`
	Rank            int `json:"rank"`
}
