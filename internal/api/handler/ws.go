package handler

import (
	"net/http"

	"complaints/backend/internal/hub"
	"complaints/backend/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the connection and streams new notifications to it.
// Browsers cannot set headers on websocket requests, so the token may also
// come in the "token" query parameter.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	if token := c.Query("token"); token != "" && c.GetHeader("Authorization") == "" {
		c.Request.Header.Set("Authorization", "Bearer "+token)
	}
	userID, ok := h.bearerUser(c)
	if !ok {
		return
	}
	if userID == "" {
		userID = session.UserID(c.Request.Context())
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("Failed to upgrade connection")
		return
	}

	client := hub.NewWebSocketClient(h.Hub, conn, userID)
	h.Hub.Register(client)
	client.Run()
}
