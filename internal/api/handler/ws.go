package handler

import (
	"chatdraft/backend/internal/chathub"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allows any origin. Restrict in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the connection and streams the draft's frames:
// the current elements first, then one frame per change.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("draft_id", s.ID).Msg("failed to upgrade connection")
		return
	}

	client := chathub.NewWebSocketClient(s.ID, conn, h.Hub)
	if !h.Hub.Register(client) {
		conn.Close()
		return
	}
	client.Run()
}
