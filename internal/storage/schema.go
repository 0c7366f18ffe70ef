package storage

import (
	_ "embed"
	"fmt"
	"time"

	"complaints/backend/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed seed.yaml
var defaultSeed []byte

// Models lists every table of the schema, parents before children.
func Models() []any {
	return []any{
		&models.User{},
		&models.Category{},
		&models.Complaint{},
		&models.Comment{},
		&models.Notification{},
		&models.Badge{},
		&models.Achievement{},
		&models.UserBadge{},
		&models.UserAchievement{},
	}
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

type seedComplaint struct {
	ID          string          `yaml:"id"`
	AuthorID    string          `yaml:"authorId"`
	Author      string          `yaml:"author"`
	Avatar      string          `yaml:"avatar"`
	TimeLabel   string          `yaml:"time"`
	Category    string          `yaml:"category"`
	Location    string          `yaml:"location"`
	Content     string          `yaml:"content"`
	Entities    []models.Entity `yaml:"entities"`
	Likes       int             `yaml:"likes"`
	Comments    int             `yaml:"comments"`
	Shares      int             `yaml:"shares"`
	Trending    bool            `yaml:"trending"`
	Verified    bool            `yaml:"verified"`
	Status      string          `yaml:"status"`
	CreatedAt   time.Time       `yaml:"createdAt"`
}

type seedUser struct {
	ID                  string    `yaml:"id"`
	Name                string    `yaml:"name"`
	Email               string    `yaml:"email"`
	Phone               string    `yaml:"phone"`
	Location            string    `yaml:"location"`
	Bio                 string    `yaml:"bio"`
	Avatar              string    `yaml:"avatar"`
	TransparencyPoints  int       `yaml:"transparencyPoints"`
	ComplaintsSubmitted int       `yaml:"complaintsSubmitted"`
	CommentsGiven       int       `yaml:"commentsGiven"`
	HelpfulVotes        int       `yaml:"helpfulVotes"`
	CreatedAt           time.Time `yaml:"createdAt"`
}

type seedNotification struct {
	ID        string    `yaml:"id"`
	Title     string    `yaml:"title"`
	Message   string    `yaml:"message"`
	TimeLabel string    `yaml:"time"`
	Type      string    `yaml:"type"`
	Read      bool      `yaml:"read"`
	CreatedAt time.Time `yaml:"createdAt"`
}

type seedDocument struct {
	Users         []seedUser           `yaml:"users"`
	Categories    []models.Category    `yaml:"categories"`
	Complaints    []seedComplaint      `yaml:"complaints"`
	Notifications []seedNotification   `yaml:"notifications"`
	Badges        []models.Badge       `yaml:"badges"`
	Achievements  []models.Achievement `yaml:"achievements"`
}

// seed inserts the reference and sample rows. Rows are matched by primary
// key, so seeding twice never duplicates anything.
func seed(db *gorm.DB, document []byte) error {
	var doc seedDocument
	if err := yaml.Unmarshal(document, &doc); err != nil {
		return fmt.Errorf("failed to parse seed data: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, u := range doc.Users {
			user := models.User{
				ID:                  u.ID,
				Name:                u.Name,
				Email:               u.Email,
				Phone:               u.Phone,
				Location:            u.Location,
				Bio:                 u.Bio,
				Avatar:              u.Avatar,
				TransparencyPoints:  u.TransparencyPoints,
				ComplaintsSubmitted: u.ComplaintsSubmitted,
				CommentsGiven:       u.CommentsGiven,
				HelpfulVotes:        u.HelpfulVotes,
				CreatedAt:           u.CreatedAt,
			}
			user.RecalculateLevel()
			if err := tx.Where(models.User{ID: user.ID}).FirstOrCreate(&user).Error; err != nil {
				return fmt.Errorf("failed to seed user %s: %w", u.ID, err)
			}
		}

		for _, c := range doc.Categories {
			category := c
			if err := tx.Where(models.Category{ID: c.ID}).FirstOrCreate(&category).Error; err != nil {
				return fmt.Errorf("failed to seed category %s: %w", c.ID, err)
			}
		}

		for _, c := range doc.Complaints {
			complaint := models.Complaint{
				ID:        c.ID,
				AuthorID:  c.AuthorID,
				Author:    c.Author,
				Avatar:    c.Avatar,
				TimeLabel: c.TimeLabel,
				Category:  c.Category,
				Location:  c.Location,
				Content:   c.Content,
				Entities:  c.Entities,
				Likes:     c.Likes,
				Comments:  c.Comments,
				Shares:    c.Shares,
				Trending:  c.Trending,
				Verified:  c.Verified,
				Files:     []string{},
				Status:    c.Status,
				CreatedAt: c.CreatedAt,
			}
			if complaint.Status == "" {
				complaint.Status = models.StatusPending
			}
			if err := tx.Where(models.Complaint{ID: c.ID}).FirstOrCreate(&complaint).Error; err != nil {
				return fmt.Errorf("failed to seed complaint %s: %w", c.ID, err)
			}
		}

		for _, n := range doc.Notifications {
			notification := models.Notification{
				ID:        n.ID,
				Title:     n.Title,
				Message:   n.Message,
				TimeLabel: n.TimeLabel,
				Type:      n.Type,
				Read:      n.Read,
				CreatedAt: n.CreatedAt,
			}
			if err := tx.Where(models.Notification{ID: n.ID}).FirstOrCreate(&notification).Error; err != nil {
				return fmt.Errorf("failed to seed notification %s: %w", n.ID, err)
			}
		}

		for _, b := range doc.Badges {
			badge := b
			if err := tx.Where(models.Badge{ID: b.ID}).FirstOrCreate(&badge).Error; err != nil {
				return fmt.Errorf("failed to seed badge %s: %w", b.ID, err)
			}
		}

		for _, a := range doc.Achievements {
			achievement := a
			if err := tx.Where(models.Achievement{ID: a.ID}).FirstOrCreate(&achievement).Error; err != nil {
				return fmt.Errorf("failed to seed achievement %s: %w", a.ID, err)
			}
		}
		return nil
	})
}
