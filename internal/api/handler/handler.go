// Package handler exposes the four domain services over HTTP.
package handler

import (
	"errors"
	"net/http"

	"complaints/backend/internal/analysis"
	"complaints/backend/internal/apperr"
	"complaints/backend/internal/complaint"
	"complaints/backend/internal/gamification"
	"complaints/backend/internal/hub"
	"complaints/backend/internal/logging"
	"complaints/backend/internal/metrics"
	"complaints/backend/internal/notification"
	"complaints/backend/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handler holds the services behind the API.
type Handler struct {
	Complaints    complaint.Service
	Analytics     analysis.Service
	Gamification  gamification.Service
	Notifications notification.Service

	// Hub serves the live inbox; nil disables /ws.
	Hub    *hub.Manager
	Tokens *session.Tokens

	log *logrus.Entry
}

// Deps are the collaborators of a Handler.
type Deps struct {
	Complaints    complaint.Service
	Analytics     analysis.Service
	Gamification  gamification.Service
	Notifications notification.Service
	Hub           *hub.Manager
	Tokens        *session.Tokens
	Logger        *logrus.Logger
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		Complaints:    d.Complaints,
		Analytics:     d.Analytics,
		Gamification:  d.Gamification,
		Notifications: d.Notifications,
		Hub:           d.Hub,
		Tokens:        d.Tokens,
		log:           logging.Component(d.Logger, "api"),
	}
}

// RouterOptions tune the middleware stack.
type RouterOptions struct {
	RateLimitRPS int
	RateBurst    int
}

// Router builds the gin engine with every route registered.
func (h *Handler) Router(opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())

	if opts.RateLimitRPS > 0 {
		limiter := NewRateLimiter(opts.RateLimitRPS, opts.RateBurst)
		r.Use(limiter.Handler())
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/auth/token", h.GetToken)
	if h.Hub != nil {
		r.GET("/ws", h.ServeWebSocket)
	}

	api := r.Group("/api", h.Authenticate())
	{
		api.GET("/complaints", h.GetComplaints)
		api.POST("/complaints", h.CreateComplaint)
		api.GET("/complaints/:id", h.GetComplaint)
		api.DELETE("/complaints/:id", h.DeleteComplaint)
		api.PUT("/complaints/:id/status", h.UpdateComplaintStatus)
		api.POST("/complaints/:id/like", h.ToggleLike)
		api.POST("/complaints/:id/share", h.ShareComplaint)
		api.GET("/complaints/:id/comments", h.GetComments)
		api.POST("/complaints/:id/comments", h.AddComment)
		api.GET("/search", h.SearchComplaints)
		api.POST("/entities", h.DetectEntities)

		api.GET("/analytics/summary", h.GetSummary)
		api.GET("/analytics/timeline", h.GetTimeline)
		api.GET("/analytics/categories", h.GetCategoryStats)

		api.GET("/gamification/stats", h.GetUserStats)
		api.POST("/gamification/stats/:stat", h.IncrementUserStat)
		api.POST("/gamification/points", h.AwardPoints)
		api.GET("/gamification/leaderboard", h.GetLeaderboard)
		api.GET("/gamification/badges", h.GetUserBadges)
		api.GET("/gamification/achievements", h.GetAchievements)
		api.POST("/users", h.RegisterUser)

		api.GET("/notifications", h.GetNotifications)
		api.POST("/notifications", h.AddNotification)
		api.GET("/notifications/unread-count", h.GetUnreadCount)
		api.PUT("/notifications/read-all", h.MarkAllAsRead)
		api.PUT("/notifications/:id/read", h.MarkAsRead)
		api.DELETE("/notifications/:id", h.DeleteNotification)
	}
	return r
}

// respondError maps the error taxonomy onto HTTP status codes.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrValidation):
		status = http.StatusBadRequest
	default:
		h.log.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
