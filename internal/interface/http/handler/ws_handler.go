package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/openwitness/witness-backend/internal/logger"
	"github.com/openwitness/witness-backend/internal/ws"
)

// WSHandler подключает клиентов к рассылке data-updated.
type WSHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *ws.Hub, allowedOrigins []string) *WSHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
	}
}

// Handle обслуживает GET /api/ws.
func (h *WSHandler) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Component("ws").WithError(err).Debug("Не удалось установить WebSocket соединение")
		return
	}

	client := ws.NewClient(conn, h.hub)
	client.Run(c.Request.Context())
}
