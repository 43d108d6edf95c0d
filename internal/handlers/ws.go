package handlers

import (
	"log"
	"net/http"

	"github.com/bby-kanta/rizin-yamanote-line-game/internal/services"
	"github.com/bby-kanta/rizin-yamanote-line-game/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	hub             *ws.Hub
	presenceService *services.PresenceService
}

func NewWSHandler(hub *ws.Hub, presenceService *services.PresenceService) *WSHandler {
	return &WSHandler{hub: hub, presenceService: presenceService}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleGameSocket godoc
// @Summary      WebSocket stream of elimination game events
// @Tags         websocket
// @Param        id path int true "Session ID"
// @Router       /ws/game/{id} [get]
func (h *WSHandler) HandleGameSocket(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	channel := ws.GameChannel(sessionID)
	h.hub.AddConnection(channel, conn)
	defer h.hub.RemoveConnection(channel, conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// HandleQuizSocket godoc
// @Summary      WebSocket stream of quiz events
// @Description  Subscribing marks the participant connected; closing marks them disconnected. Both emit connection_updated.
// @Tags         websocket
// @Param        id path int true "Session ID"
// @Router       /ws/quiz/{id} [get]
func (h *WSHandler) HandleQuizSocket(c *gin.Context) {
	userID := c.GetUint("user_id")
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	channel := ws.QuizChannel(sessionID)
	h.hub.AddConnection(channel, conn)

	// The subscription doubles as the presence signal gating quiz start, so
	// every connect and disconnect pushes the aggregate to all clients.
	if state, err := h.presenceService.MarkConnected(sessionID, userID); err == nil {
		h.hub.Broadcast(channel, ws.Event{
			Type: ws.EventConnectionUpdated,
			Data: state,
		})
	}

	defer func() {
		h.hub.RemoveConnection(channel, conn)
		if state, err := h.presenceService.MarkDisconnected(sessionID, userID); err == nil {
			h.hub.Broadcast(channel, ws.Event{
				Type: ws.EventConnectionUpdated,
				Data: state,
			})
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
