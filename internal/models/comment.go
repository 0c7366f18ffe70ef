package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment is a reply attached to a complaint. Comments are removed together
// with their complaint.
type Comment struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	ComplaintID string    `gorm:"not null;index" json:"complaintId"`
	Complaint   Complaint `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	AuthorID    string    `json:"authorId,omitempty"`
	Author      string    `gorm:"not null" json:"author"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	TimeLabel   string    `json:"time"`
	Likes       int       `gorm:"not null;default:0" json:"likes"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}
