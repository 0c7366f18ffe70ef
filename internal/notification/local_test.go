package notification_test

import (
	"context"
	"sync"
	"testing"

	"complaints/backend/internal/apperr"
	"complaints/backend/internal/logging"
	"complaints/backend/internal/models"
	"complaints/backend/internal/notification"
	"complaints/backend/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	seen []models.Notification
}

func (r *recorder) Publish(n models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, n)
}

func newService(t *testing.T) (*notification.Local, *recorder) {
	rec := &recorder{}
	return notification.NewLocal(storagetest.New(t), rec, logging.Discard()), rec
}

func TestLocal_SeededInboxNewestFirst(t *testing.T) {
	svc, _ := newService(t)

	list, err := svc.GetNotifications(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2", list[0].ID)
	assert.Equal(t, "1", list[1].ID)

	unread, err := svc.GetUnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, unread)
}

func TestLocal_AddNotification(t *testing.T) {
	ctx := context.Background()
	svc, rec := newService(t)

	created, err := svc.AddNotification(ctx, models.Notification{Title: "Hola", Message: "Nuevo aviso"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.NotificationInfo, created.Type)
	assert.False(t, created.Read)

	list, err := svc.GetNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, *created, list[0])

	require.Len(t, rec.seen, 1)
	assert.Equal(t, created.ID, rec.seen[0].ID)
}

func TestLocal_AddNotificationValidation(t *testing.T) {
	svc, rec := newService(t)

	tests := []struct {
		name string
		in   models.Notification
	}{
		{"missing title", models.Notification{Message: "m"}},
		{"missing message", models.Notification{Title: "t", Message: "  "}},
		{"unknown type", models.Notification{Title: "t", Message: "m", Type: "urgent"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddNotification(context.Background(), tt.in)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
	assert.Empty(t, rec.seen)
}

func TestLocal_MarkAsRead(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	require.NoError(t, svc.MarkAsRead(ctx, "1"))
	unread, err := svc.GetUnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	// Marking twice is harmless.
	require.NoError(t, svc.MarkAsRead(ctx, "1"))

	err = svc.MarkAsRead(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, svc.MarkAllAsRead(ctx))
	unread, err = svc.GetUnreadCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestLocal_DeleteNotification(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	require.NoError(t, svc.DeleteNotification(ctx, "2"))
	err := svc.DeleteNotification(ctx, "2")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	list, err := svc.GetNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "1", list[0].ID)
}
