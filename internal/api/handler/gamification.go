package handler

import (
	"net/http"
	"strconv"

	"complaints/backend/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetUserStats(c *gin.Context) {
	stats, err := h.Gamification.GetUserStats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) IncrementUserStat(c *gin.Context) {
	user, err := h.Gamification.IncrementUserStat(c.Request.Context(), c.Param("stat"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) AwardPoints(c *gin.Context) {
	var body models.PointsAward
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid body: "+err.Error())
		return
	}
	user, err := h.Gamification.AwardPoints(c.Request.Context(), body.UserID, body.Points, body.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) GetLeaderboard(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "limit must be an integer")
			return
		}
		limit = n
	}
	entries, err := h.Gamification.GetLeaderboard(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) GetUserBadges(c *gin.Context) {
	list, err := h.Gamification.GetUserBadges(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetAchievements(c *gin.Context) {
	list, err := h.Gamification.GetAchievements(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) RegisterUser(c *gin.Context) {
	var body models.User
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid body: "+err.Error())
		return
	}
	user, err := h.Gamification.RegisterUser(c.Request.Context(), body)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
