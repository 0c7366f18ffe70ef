package handler

import (
	"net/http"
	"strings"

	"complaints/backend/internal/config"
	"complaints/backend/internal/session"

	"github.com/gin-gonic/gin"
)

// GetToken issues a session token for the default user.
func (h *Handler) GetToken(c *gin.Context) {
	if h.Tokens == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "tokens are not configured"})
		return
	}
	token, err := h.Tokens.Issue(config.DefaultUserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "userId": config.DefaultUserID})
}

// Authenticate puts the user of a bearer token into the request context.
// Requests without a token act as the default user; a token that does not
// verify is rejected.
func (h *Handler) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := h.bearerUser(c)
		if !ok {
			return
		}
		if userID != "" {
			c.Request = c.Request.WithContext(session.WithUserID(c.Request.Context(), userID))
		}
		c.Next()
	}
}

// bearerUser returns the user of the Authorization header, "" when there is
// none. It aborts the request and returns false on a bad token.
func (h *Handler) bearerUser(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" || h.Tokens == nil {
		return "", true
	}
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token missing"})
		return "", false
	}
	userID, err := h.Tokens.Parse(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token or expired"})
		return "", false
	}
	return userID, true
}
