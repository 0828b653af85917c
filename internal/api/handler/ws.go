package handler

import (
	"net/http"

	"cultgo/backend/internal/gamehub"
	"cultgo/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The feed is public and read-only, so any origin may subscribe.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeFeed upgrades the connection and subscribes it to the game feed.
func (h *Handler) ServeFeed(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
		return
	}

	client := &gamehub.WSClient{
		ID:   uuid.New().String(),
		Conn: conn,
		Hub:  h.Hub,
		Send: make(chan models.GameUpdate, 16),
	}

	h.Hub.RegisterCh <- client
	client.Run()
}
