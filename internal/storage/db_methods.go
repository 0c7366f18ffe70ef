package storage

import (
	"errors"

	"complaints/backend/internal/apperr"
	"complaints/backend/internal/models"

	"gorm.io/gorm"
)

// FindComplaint loads a complaint by id, translating a missing row to
// apperr.ErrNotFound.
func FindComplaint(tx *gorm.DB, id string) (*models.Complaint, error) {
	var c models.Complaint
	if err := tx.First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("complaint", id)
		}
		return nil, err
	}
	return &c, nil
}

// FindUser loads a user by id, translating a missing row to apperr.ErrNotFound.
func FindUser(tx *gorm.DB, id string) (*models.User, error) {
	var u models.User
	if err := tx.First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user", id)
		}
		return nil, err
	}
	return &u, nil
}

// FindNotification loads a notification by id.
func FindNotification(tx *gorm.DB, id string) (*models.Notification, error) {
	var n models.Notification
	if err := tx.First(&n, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("notification", id)
		}
		return nil, err
	}
	return &n, nil
}

// Increment adds delta to a counter column of the row matched by id and
// reports a missing row as apperr.ErrNotFound.
func Increment(tx *gorm.DB, model any, kind, id, column string, delta int) error {
	res := tx.Model(model).Where("id = ?", id).UpdateColumn(column, gorm.Expr(column+" + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(kind, id)
	}
	return nil
}
