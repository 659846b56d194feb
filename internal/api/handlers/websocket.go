package handlers

import (
	"realtime-threads/internal/websocket"

	"github.com/gin-gonic/gin"
)

type WSHandler struct {
	hub *websocket.Hub
}

func NewWSHandler(hub *websocket.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// HandleWebSocket godoc
// @Summary WebSocket connection
// @Description Establish a realtime connection. The credential is read from the token query parameter, the Authorization header or a handshake frame.
// @Tags websocket
// @Param token query string false "Identity provider credential"
// @Success 101 "Switching Protocols - WebSocket connection established"
// @Router /ws [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	h.hub.ServeWS(c.Writer, c.Request)
}
