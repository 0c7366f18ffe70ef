// Package complaint implements the complaint feed: submission with entity
// detection, status lifecycle, votes, comments and search.
package complaint

import (
	"context"

	"complaints/backend/internal/models"
)

// Service is the complaints contract shared by the local and remote backends.
// Submissions and comments are authored by the session user of ctx.
type Service interface {
	// GetComplaints lists complaints newest first. No match yields an empty
	// slice.
	GetComplaints(ctx context.Context, filters models.ComplaintFilters) ([]models.Complaint, error)
	GetComplaint(ctx context.Context, id string) (*models.Complaint, error)
	CreateComplaint(ctx context.Context, form models.ComplaintFormData) (*models.Complaint, error)
	// UpdateComplaintStatus moves a complaint to any lifecycle status.
	UpdateComplaintStatus(ctx context.Context, id, status, updatedBy string) (*models.Complaint, error)
	// ToggleLike adds one like; repeated calls keep adding.
	ToggleLike(ctx context.Context, id string) (*models.LikeResult, error)
	ShareComplaint(ctx context.Context, id string) (*models.ShareResult, error)
	AddComment(ctx context.Context, complaintID, content string) (*models.Comment, error)
	GetComments(ctx context.Context, complaintID string) ([]models.Comment, error)
	DeleteComplaint(ctx context.Context, id string) error
	SearchComplaints(ctx context.Context, query string, filters models.ComplaintFilters) (*models.SearchResult, error)
	DetectEntities(text string) []models.Entity
}

// AnonymousAuthor is shown instead of the author of anonymous complaints.
const AnonymousAuthor = "Anónimo"

// genericSuggestions complement category labels as search suggestions.
var genericSuggestions = []string{
	"retraso", "hospital", "bus", "basura", "alumbrado", "baches", "agua", "seguridad ciudadana",
}
