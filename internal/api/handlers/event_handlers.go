package handlers

import (
	"net/http"

	"registro-ponto/internal/server/sse"

	"github.com/gin-gonic/gin"
)

// EventHandler streamt die Meldungen der Erfassung per SSE
type EventHandler struct {
	hub *sse.Hub
}

// NewEventHandler erstellt einen neuen Event-Handler
func NewEventHandler(hub *sse.Hub) *EventHandler {
	return &EventHandler{hub: hub}
}

// RegisterRoutes registriert die Event-Routen
func (h *EventHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/events", h.handleSSE)
}

// handleSSE behandelt SSE-Verbindungen für Echtzeit-Updates
func (h *EventHandler) handleSSE(c *gin.Context) {
	// SSE-Header setzen
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	client := sse.NewClient()
	h.hub.Register(client)
	defer h.hub.Unregister(client)

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-client:
			if !ok {
				return // Hub beendet oder Client zu langsam
			}
			c.SSEvent("message", string(msg))
			c.Writer.Flush()
		}
	}
}
