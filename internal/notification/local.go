package notification

import (
	"context"
	"errors"
	"strings"
	"time"

	"complaints/backend/internal/apperr"
	"complaints/backend/internal/logging"
	"complaints/backend/internal/metrics"
	"complaints/backend/internal/models"
	"complaints/backend/internal/storage"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Local is the store-backed inbox.
type Local struct {
	store storage.Storage
	pub   Publisher
	log   *logrus.Entry
}

var _ Service = (*Local)(nil)

func NewLocal(store storage.Storage, pub Publisher, logger *logrus.Logger) *Local {
	return &Local{store: store, pub: OrNop(pub), log: logging.Component(logger, "notification")}
}

func (s *Local) GetNotifications(ctx context.Context) (list []models.Notification, err error) {
	defer func() { s.observe("GetNotifications", err) }()

	list = make([]models.Notification, 0)
	err = s.store.Read(ctx, func(tx *gorm.DB) error {
		return tx.Order("created_at DESC").Order("id DESC").Find(&list).Error
	})
	return list, err
}

func (s *Local) MarkAsRead(ctx context.Context, id string) (err error) {
	defer func() { s.observe("MarkAsRead", err) }()

	return s.store.Write(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.Notification{}).Where("id = ?", id).Update("read", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("notification", id)
		}
		return nil
	})
}

func (s *Local) MarkAllAsRead(ctx context.Context) (err error) {
	defer func() { s.observe("MarkAllAsRead", err) }()

	return s.store.Write(ctx, func(tx *gorm.DB) error {
		return tx.Model(&models.Notification{}).Where("read = ?", false).Update("read", true).Error
	})
}

func (s *Local) GetUnreadCount(ctx context.Context) (n int, err error) {
	defer func() { s.observe("GetUnreadCount", err) }()

	var count int64
	err = s.store.Read(ctx, func(tx *gorm.DB) error {
		return tx.Model(&models.Notification{}).Where("read = ?", false).Count(&count).Error
	})
	return int(count), err
}

func (s *Local) AddNotification(ctx context.Context, n models.Notification) (created *models.Notification, err error) {
	defer func() { s.observe("AddNotification", err) }()

	n.Title = strings.TrimSpace(n.Title)
	n.Message = strings.TrimSpace(n.Message)
	if n.Title == "" || n.Message == "" {
		return nil, apperr.Validation("title and message are required")
	}
	if n.Type == "" {
		n.Type = models.NotificationInfo
	}
	if !models.ValidNotificationType(n.Type) {
		return nil, apperr.Validation("unknown notification type %q", n.Type)
	}
	if n.TimeLabel == "" {
		n.TimeLabel = "Ahora"
	}
	n.ID = ""
	n.CreatedAt = time.Now().UTC()

	err = s.store.Write(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&n).Error; err != nil {
			return err
		}
		stored, err := storage.FindNotification(tx, n.ID)
		if err != nil {
			return err
		}
		created = stored
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.pub.Publish(*created)
	return created, nil
}

func (s *Local) DeleteNotification(ctx context.Context, id string) (err error) {
	defer func() { s.observe("DeleteNotification", err) }()

	return s.store.Write(ctx, func(tx *gorm.DB) error {
		res := tx.Delete(&models.Notification{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("notification", id)
		}
		return nil
	})
}

func (s *Local) observe(op string, err error) {
	metrics.RecordServiceCall("local", op, err)
	if errors.Is(err, apperr.ErrStore) {
		s.log.WithError(err).WithField("op", op).Error("Notification operation failed")
	}
}
