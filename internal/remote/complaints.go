package remote

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"complaints/backend/internal/complaint"
	"complaints/backend/internal/models"
)

// Complaints is the HTTP-backed complaints service.
type Complaints struct {
	c *Client
}

var _ complaint.Service = (*Complaints)(nil)

func NewComplaints(c *Client) *Complaints {
	return &Complaints{c: c}
}

func filterQuery(f models.ComplaintFilters) url.Values {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Location != "" {
		q.Set("location", f.Location)
	}
	if f.Trending != nil {
		q.Set("trending", strconv.FormatBool(*f.Trending))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	return q
}

func (s *Complaints) GetComplaints(ctx context.Context, filters models.ComplaintFilters) ([]models.Complaint, error) {
	list := make([]models.Complaint, 0)
	if err := s.c.do(ctx, "GetComplaints", http.MethodGet, "/api/complaints", filterQuery(filters), nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Complaints) GetComplaint(ctx context.Context, id string) (*models.Complaint, error) {
	var c models.Complaint
	if err := s.c.do(ctx, "GetComplaint", http.MethodGet, "/api/complaints/"+escape(id), nil, nil, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Complaints) CreateComplaint(ctx context.Context, form models.ComplaintFormData) (*models.Complaint, error) {
	var c models.Complaint
	if err := s.c.do(ctx, "CreateComplaint", http.MethodPost, "/api/complaints", nil, form, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Complaints) UpdateComplaintStatus(ctx context.Context, id, status, updatedBy string) (*models.Complaint, error) {
	var c models.Complaint
	body := models.StatusUpdate{Status: status, UpdatedBy: updatedBy}
	if err := s.c.do(ctx, "UpdateComplaintStatus", http.MethodPut, "/api/complaints/"+escape(id)+"/status", nil, body, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Complaints) ToggleLike(ctx context.Context, id string) (*models.LikeResult, error) {
	var res models.LikeResult
	if err := s.c.do(ctx, "ToggleLike", http.MethodPost, "/api/complaints/"+escape(id)+"/like", nil, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *Complaints) ShareComplaint(ctx context.Context, id string) (*models.ShareResult, error) {
	var res models.ShareResult
	if err := s.c.do(ctx, "ShareComplaint", http.MethodPost, "/api/complaints/"+escape(id)+"/share", nil, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *Complaints) AddComment(ctx context.Context, complaintID, content string) (*models.Comment, error) {
	var c models.Comment
	body := models.CommentInput{Content: content}
	if err := s.c.do(ctx, "AddComment", http.MethodPost, "/api/complaints/"+escape(complaintID)+"/comments", nil, body, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Complaints) GetComments(ctx context.Context, complaintID string) ([]models.Comment, error) {
	list := make([]models.Comment, 0)
	if err := s.c.do(ctx, "GetComments", http.MethodGet, "/api/complaints/"+escape(complaintID)+"/comments", nil, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Complaints) DeleteComplaint(ctx context.Context, id string) error {
	return s.c.do(ctx, "DeleteComplaint", http.MethodDelete, "/api/complaints/"+escape(id), nil, nil, nil)
}

func (s *Complaints) SearchComplaints(ctx context.Context, query string, filters models.ComplaintFilters) (*models.SearchResult, error) {
	q := filterQuery(filters)
	q.Set("q", query)
	var res models.SearchResult
	if err := s.c.do(ctx, "SearchComplaints", http.MethodGet, "/api/search", q, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// DetectEntities runs locally; the classifier needs no server state.
func (s *Complaints) DetectEntities(text string) []models.Entity {
	return complaint.DetectEntities(text)
}
