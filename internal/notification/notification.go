// Package notification implements the global notification inbox.
package notification

import (
	"context"

	"complaints/backend/internal/models"
)

// Service is the notification inbox.
type Service interface {
	// GetNotifications lists the inbox, newest first.
	GetNotifications(ctx context.Context) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id string) error
	MarkAllAsRead(ctx context.Context) error
	GetUnreadCount(ctx context.Context) (int, error)
	// AddNotification stores n. An empty type defaults to info.
	AddNotification(ctx context.Context, n models.Notification) (*models.Notification, error)
	DeleteNotification(ctx context.Context, id string) error
}

// Publisher receives every notification after it has been stored.
type Publisher interface {
	Publish(n models.Notification)
}

// Nop discards published notifications.
type Nop struct{}

func (Nop) Publish(models.Notification) {}

// OrNop returns p, or Nop when p is nil.
func OrNop(p Publisher) Publisher {
	if p == nil {
		return Nop{}
	}
	return p
}
