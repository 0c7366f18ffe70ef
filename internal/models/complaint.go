package models

import (
	"time"

	"gorm.io/datatypes"
)

// Complaint lifecycle statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusResolved   = "resolved"
	StatusRejected   = "rejected"
)

// Statuses lists every lifecycle status a complaint may hold.
var Statuses = []string{StatusPending, StatusInProgress, StatusResolved, StatusRejected}

// ValidStatus reports whether s is a known lifecycle status.
func ValidStatus(s string) bool {
	for _, status := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// Entity is a span of complaint text classified by keyword match.
type Entity struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Icon  string `json:"icon"`
}

// Complaint is a citizen report of a public-service problem.
type Complaint struct {
	// ID is derived from the submission timestamp (milliseconds).
	ID        string `gorm:"primaryKey" json:"id"`
	Author    string `gorm:"not null" json:"author"`
	AuthorID  string `gorm:"index" json:"authorId,omitempty"`
	Avatar    string `json:"avatar"`
	TimeLabel string `json:"time"`
	Category  string `gorm:"not null;index" json:"category"`
	Location  string `gorm:"not null" json:"location"`
	Content   string `gorm:"type:text;not null" json:"content"`

	Entities datatypes.JSONSlice[Entity] `json:"entities"`

	Likes    int `gorm:"not null;default:0" json:"likes"`
	Comments int `gorm:"not null;default:0" json:"comments"`
	Shares   int `gorm:"not null;default:0" json:"shares"`

	Trending    bool                        `gorm:"not null;default:false" json:"trending"`
	Verified    bool                        `gorm:"not null;default:false" json:"verified"`
	IsAnonymous bool                        `gorm:"not null;default:false" json:"isAnonymous"`
	Files       datatypes.JSONSlice[string] `json:"files"`

	Status          string     `gorm:"not null;default:pending;index" json:"status"`
	StatusUpdatedAt *time.Time `json:"statusUpdatedAt,omitempty"`
	StatusUpdatedBy string     `json:"statusUpdatedBy,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

// ComplaintFormData carries the fields a citizen fills in to submit a complaint.
type ComplaintFormData struct {
	Content     string   `json:"content" yaml:"content"`
	Category    string   `json:"category" yaml:"category"`
	Location    string   `json:"location" yaml:"location"`
	IsAnonymous bool     `json:"isAnonymous" yaml:"isAnonymous"`
	Files       []string `json:"files,omitempty" yaml:"files"`
}

// ComplaintFilters narrows feed and search queries. Zero values impose no
// constraint.
type ComplaintFilters struct {
	Category string `json:"category,omitempty" form:"category"`
	Location string `json:"location,omitempty" form:"location"`
	Trending *bool  `json:"trending,omitempty" form:"trending"`
	Limit    int    `json:"limit,omitempty" form:"limit"`
	Offset   int    `json:"offset,omitempty" form:"offset"`
}

// SearchFilterOptions lists the distinct values present in the whole corpus.
type SearchFilterOptions struct {
	Categories []string `json:"categories"`
	Locations  []string `json:"locations"`
}

// SearchResult is returned by a complaint search.
type SearchResult struct {
	Complaints   []Complaint         `json:"complaints"`
	TotalResults int                 `json:"totalResults"`
	Suggestions  []string            `json:"suggestions"`
	Filters      SearchFilterOptions `json:"filters"`
}

// LikeResult is returned by a like.
type LikeResult struct {
	Liked      bool `json:"liked"`
	TotalLikes int  `json:"totalLikes"`
}

// ShareResult is returned by a share.
type ShareResult struct {
	TotalShares int `json:"totalShares"`
}
