package complaint

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"complaints/backend/internal/apperr"
	"complaints/backend/internal/config"
	"complaints/backend/internal/gamification"
	"complaints/backend/internal/logging"
	"complaints/backend/internal/metrics"
	"complaints/backend/internal/models"
	"complaints/backend/internal/notification"
	"complaints/backend/internal/session"
	"complaints/backend/internal/storage"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Local is the store-backed complaints service.
type Local struct {
	store storage.Storage
	pub   notification.Publisher
	log   *logrus.Entry
}

var _ Service = (*Local)(nil)

// NewLocal creates the store-backed service. Level-up notifications earned by
// submissions and comments are sent to pub.
func NewLocal(store storage.Storage, pub notification.Publisher, logger *logrus.Logger) *Local {
	return &Local{store: store, pub: notification.OrNop(pub), log: logging.Component(logger, "complaint")}
}

func (s *Local) GetComplaints(ctx context.Context, filters models.ComplaintFilters) (list []models.Complaint, err error) {
	defer func() { s.observe("GetComplaints", err) }()

	if err = checkPage(filters); err != nil {
		return nil, err
	}

	list = make([]models.Complaint, 0)
	err = s.store.Read(ctx, func(tx *gorm.DB) error {
		q := newestFirst(applyFilters(tx.Model(&models.Complaint{}), filters))
		if filters.Location == "" {
			q = paginate(q, filters)
		}
		return q.Find(&list).Error
	})
	if err != nil {
		return nil, err
	}
	if filters.Location != "" {
		list = page(inLocation(list, filters.Location), filters)
	}
	return list, nil
}

func (s *Local) GetComplaint(ctx context.Context, id string) (c *models.Complaint, err error) {
	defer func() { s.observe("GetComplaint", err) }()

	err = s.store.Read(ctx, func(tx *gorm.DB) error {
		c, err = storage.FindComplaint(tx, id)
		return err
	})
	return c, err
}

func (s *Local) CreateComplaint(ctx context.Context, form models.ComplaintFormData) (created *models.Complaint, err error) {
	defer func() { s.observe("CreateComplaint", err) }()

	form.Content = strings.TrimSpace(form.Content)
	form.Category = strings.TrimSpace(form.Category)
	form.Location = strings.TrimSpace(form.Location)
	if form.Content == "" || form.Category == "" || form.Location == "" {
		return nil, apperr.Validation("content, category and location are required")
	}

	userID := session.UserID(ctx)
	var award *gamification.Award
	err = s.store.Write(ctx, func(tx *gorm.DB) error {
		var known int64
		if err := tx.Model(&models.Category{}).Where("label = ?", form.Category).Count(&known).Error; err != nil {
			return err
		}
		if known == 0 {
			return apperr.Validation("unknown category %q", form.Category)
		}

		user, err := storage.FindUser(tx, userID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		id, err := nextID(tx, now)
		if err != nil {
			return err
		}

		files := form.Files
		if files == nil {
			files = []string{}
		}
		c := models.Complaint{
			ID:          id,
			Author:      user.Name,
			AuthorID:    user.ID,
			Avatar:      user.Avatar,
			TimeLabel:   "Ahora",
			Category:    form.Category,
			Location:    form.Location,
			Content:     form.Content,
			Entities:    DetectEntities(form.Content),
			IsAnonymous: form.IsAnonymous,
			Files:       files,
			Status:      models.StatusPending,
			CreatedAt:   now,
		}
		if form.IsAnonymous {
			c.Author = AnonymousAuthor
			c.AuthorID = ""
			c.Avatar = "👤"
		}
		if err := tx.Create(&c).Error; err != nil {
			return err
		}

		award, err = gamification.Apply(tx, user.ID, config.ComplaintReward, config.StatComplaintsSubmitted, "Gracias por tu queja.")
		if err != nil {
			return err
		}

		created, err = storage.FindComplaint(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"complaint_id": created.ID,
		"category":     created.Category,
		"entities":     len(created.Entities),
	}).Info("Complaint created")
	s.publishLevelUp(award)
	return created, nil
}

// nextID derives the id from the submission time in milliseconds, moving
// forward past ids already taken.
func nextID(tx *gorm.DB, now time.Time) (string, error) {
	ms := now.UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		var taken int64
		if err := tx.Model(&models.Complaint{}).Where("id = ?", id).Count(&taken).Error; err != nil {
			return "", err
		}
		if taken == 0 {
			return id, nil
		}
		ms++
	}
}

func (s *Local) UpdateComplaintStatus(ctx context.Context, id, status, updatedBy string) (c *models.Complaint, err error) {
	defer func() { s.observe("UpdateComplaintStatus", err) }()

	if !models.ValidStatus(status) {
		return nil, apperr.Validation("invalid status %q", status)
	}
	updatedBy = strings.TrimSpace(updatedBy)
	if updatedBy == "" {
		updatedBy = session.UserID(ctx)
	}

	var previous string
	err = s.store.Write(ctx, func(tx *gorm.DB) error {
		current, err := storage.FindComplaint(tx, id)
		if err != nil {
			return err
		}
		previous = current.Status

		now := time.Now().UTC()
		if err := tx.Model(&models.Complaint{}).Where("id = ?", id).Updates(map[string]any{
			"status":            status,
			"status_updated_at": now,
			"status_updated_by": updatedBy,
		}).Error; err != nil {
			return err
		}
		c, err = storage.FindComplaint(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"complaint_id": id, "from": previous, "to": status, "by": updatedBy}).Info("Complaint status updated")
	return c, nil
}

func (s *Local) ToggleLike(ctx context.Context, id string) (res *models.LikeResult, err error) {
	defer func() { s.observe("ToggleLike", err) }()

	total, err := s.increment(ctx, id, "likes")
	if err != nil {
		return nil, err
	}
	return &models.LikeResult{Liked: true, TotalLikes: total}, nil
}

func (s *Local) ShareComplaint(ctx context.Context, id string) (res *models.ShareResult, err error) {
	defer func() { s.observe("ShareComplaint", err) }()

	total, err := s.increment(ctx, id, "shares")
	if err != nil {
		return nil, err
	}
	return &models.ShareResult{TotalShares: total}, nil
}

func (s *Local) increment(ctx context.Context, id, column string) (int, error) {
	var total int
	err := s.store.Write(ctx, func(tx *gorm.DB) error {
		if err := storage.Increment(tx, &models.Complaint{}, "complaint", id, column, 1); err != nil {
			return err
		}
		return tx.Model(&models.Complaint{}).Where("id = ?", id).Select(column).Scan(&total).Error
	})
	return total, err
}

func (s *Local) AddComment(ctx context.Context, complaintID, content string) (comment *models.Comment, err error) {
	defer func() { s.observe("AddComment", err) }()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Validation("comment content is required")
	}

	userID := session.UserID(ctx)
	var award *gamification.Award
	err = s.store.Write(ctx, func(tx *gorm.DB) error {
		// Checked explicitly so a missing parent is NotFound rather than a
		// constraint failure.
		if _, err := storage.FindComplaint(tx, complaintID); err != nil {
			return err
		}
		user, err := storage.FindUser(tx, userID)
		if err != nil {
			return err
		}

		c := models.Comment{
			ComplaintID: complaintID,
			AuthorID:    user.ID,
			Author:      user.Name,
			Content:     content,
			TimeLabel:   "Ahora",
			CreatedAt:   time.Now().UTC(),
		}
		if err := tx.Omit(clause.Associations).Create(&c).Error; err != nil {
			return err
		}
		if err := storage.Increment(tx, &models.Complaint{}, "complaint", complaintID, "comments", 1); err != nil {
			return err
		}

		award, err = gamification.Apply(tx, user.ID, config.CommentReward, config.StatCommentsGiven, "Gracias por participar.")
		if err != nil {
			return err
		}

		var stored models.Comment
		if err := tx.First(&stored, "id = ?", c.ID).Error; err != nil {
			return err
		}
		comment = &stored
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishLevelUp(award)
	return comment, nil
}

func (s *Local) GetComments(ctx context.Context, complaintID string) (list []models.Comment, err error) {
	defer func() { s.observe("GetComments", err) }()

	list = make([]models.Comment, 0)
	err = s.store.Read(ctx, func(tx *gorm.DB) error {
		if _, err := storage.FindComplaint(tx, complaintID); err != nil {
			return err
		}
		return tx.Where("complaint_id = ?", complaintID).
			Order("created_at ASC").
			Order("id ASC").
			Find(&list).Error
	})
	return list, err
}

func (s *Local) DeleteComplaint(ctx context.Context, id string) (err error) {
	defer func() { s.observe("DeleteComplaint", err) }()

	err = s.store.Write(ctx, func(tx *gorm.DB) error {
		res := tx.Delete(&models.Complaint{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("complaint", id)
		}
		return nil
	})
	if err == nil {
		s.log.WithField("complaint_id", id).Info("Complaint deleted")
	}
	return err
}

func (s *Local) DetectEntities(text string) []models.Entity {
	return DetectEntities(text)
}

func (s *Local) publishLevelUp(award *gamification.Award) {
	if award == nil || award.LevelUp == nil {
		return
	}
	s.log.WithFields(logrus.Fields{"user_id": award.User.ID, "level": award.User.Level}).Info("User leveled up")
	s.pub.Publish(*award.LevelUp)
}

func (s *Local) observe(op string, err error) {
	metrics.RecordServiceCall("local", op, err)
	if errors.Is(err, apperr.ErrStore) {
		s.log.WithError(err).WithField("op", op).Error("Complaint operation failed")
	}
}

// applyFilters narrows q by category and trending. The location filter is a
// Unicode case-insensitive match, which SQLite's LOWER cannot do; callers
// apply it with inLocation.
func applyFilters(q *gorm.DB, f models.ComplaintFilters) *gorm.DB {
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Trending != nil {
		q = q.Where("trending = ?", *f.Trending)
	}
	return q
}

func newestFirst(q *gorm.DB) *gorm.DB {
	return q.Order("created_at DESC").Order("id DESC")
}

func inLocation(list []models.Complaint, location string) []models.Complaint {
	needle := strings.ToLower(strings.TrimSpace(location))
	out := make([]models.Complaint, 0, len(list))
	for _, c := range list {
		if strings.Contains(strings.ToLower(c.Location), needle) {
			out = append(out, c)
		}
	}
	return out
}

// checkPage rejects negative offsets and limits outside 0..MaxPageSize. A
// zero limit means no limit.
func checkPage(f models.ComplaintFilters) error {
	if f.Limit < 0 || f.Limit > config.MaxPageSize {
		return apperr.Validation("limit must be between 0 and %d", config.MaxPageSize)
	}
	if f.Offset < 0 {
		return apperr.Validation("offset must not be negative")
	}
	return nil
}

func paginate(q *gorm.DB, f models.ComplaintFilters) *gorm.DB {
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	return q
}
