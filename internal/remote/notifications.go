package remote

import (
	"context"
	"net/http"

	"complaints/backend/internal/models"
	"complaints/backend/internal/notification"
)

// Notifications is the HTTP-backed notification inbox.
type Notifications struct {
	c *Client
}

var _ notification.Service = (*Notifications)(nil)

func NewNotifications(c *Client) *Notifications {
	return &Notifications{c: c}
}

func (s *Notifications) GetNotifications(ctx context.Context) ([]models.Notification, error) {
	list := make([]models.Notification, 0)
	if err := s.c.do(ctx, "GetNotifications", http.MethodGet, "/api/notifications", nil, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Notifications) MarkAsRead(ctx context.Context, id string) error {
	return s.c.do(ctx, "MarkAsRead", http.MethodPut, "/api/notifications/"+escape(id)+"/read", nil, nil, nil)
}

func (s *Notifications) MarkAllAsRead(ctx context.Context) error {
	return s.c.do(ctx, "MarkAllAsRead", http.MethodPut, "/api/notifications/read-all", nil, nil, nil)
}

func (s *Notifications) GetUnreadCount(ctx context.Context) (int, error) {
	var res models.UnreadCount
	if err := s.c.do(ctx, "GetUnreadCount", http.MethodGet, "/api/notifications/unread-count", nil, nil, &res); err != nil {
		return 0, err
	}
	return res.Count, nil
}

func (s *Notifications) AddNotification(ctx context.Context, n models.Notification) (*models.Notification, error) {
	var out models.Notification
	if err := s.c.do(ctx, "AddNotification", http.MethodPost, "/api/notifications", nil, n, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Notifications) DeleteNotification(ctx context.Context, id string) error {
	return s.c.do(ctx, "DeleteNotification", http.MethodDelete, "/api/notifications/"+escape(id), nil, nil, nil)
}
