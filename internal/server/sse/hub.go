package sse

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"

	"registro-ponto/internal/core/capture"
	"registro-ponto/internal/core/models"

	log "github.com/sirupsen/logrus"
)

// Client repräsentiert einen einzelnen verbundenen SSE-Client
type Client chan []byte

// Hub verwaltet die Menge der aktiven Clients und sendet Broadcasts an sie.
// Er ist gleichzeitig eine capture.Bridge für die Weboberfläche.
type Hub struct {
	// Registrierte Clients
	clients map[Client]bool

	// Eingehende Nachrichten von der Anwendung
	broadcast chan []byte

	// Registrierungsanfragen von Clients
	register chan Client

	// Abmeldeanfragen von Clients
	unregister chan Client

	// Mutex zum Schutz des simultanen Zugriffs auf die Clients-Map
	mu sync.Mutex

	// Wird geschlossen, wenn Run endet
	done chan struct{}

	now func() time.Time
}

// Nachrichtentypen
const (
	TypePreview   = "preview"
	TypeStatus    = "status"
	TypeRemaining = "remaining"
	TypeOutcome   = "outcome"
)

// Message ist die Struktur der Daten, die über SSE gesendet werden
type Message struct {
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Image     string         `json:"image,omitempty"` // Base64-JPEG
	Text      string         `json:"text,omitempty"`
	Severity  string         `json:"severity,omitempty"`
	Seconds   *int           `json:"seconds,omitempty"`
	Outcome   string         `json:"outcome,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	Person    *models.Person `json:"person,omitempty"`
}

// NewHub erstellt eine neue Hub-Instanz
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 100), // Puffer für 100 Nachrichten
		register:   make(chan Client),
		unregister: make(chan Client),
		clients:    make(map[Client]bool),
		done:       make(chan struct{}),
		now:        time.Now,
	}
}

// Run startet die Verarbeitungsschleife des Hubs bis ctx beendet wird
func (h *Hub) Run(ctx context.Context) {
	log.Info("SSE Hub started and running")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client)
			}
			h.mu.Unlock()
			log.Info("SSE Hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()
			log.Infof("SSE client registered. Total clients: %d", clientCount)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client)
				log.Infof("SSE client unregistered. Total clients: %d", len(h.clients))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client <- message:
				default:
					// Client-Kanal ist voll, der Client ist zu langsam
					log.Warn("SSE client channel full, removing client")
					delete(h.clients, client)
					close(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// NewClient erstellt einen gepufferten Client-Kanal
func NewClient() Client {
	return make(Client, 32)
}

// Register registriert einen neuen Client am Hub. Nach dem Ende des Hubs wird der Client sofort geschlossen.
func (h *Hub) Register(client Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client)
	}
}

// Unregister meldet einen Client vom Hub ab
func (h *Hub) Unregister(client Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount liefert die Anzahl verbundener Clients
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sendet eine Nachricht an alle registrierten Clients
func (h *Hub) Broadcast(message []byte) {
	// Blockieren vermeiden, wenn der Broadcast-Kanal voll ist
	select {
	case h.broadcast <- message:
	default:
		log.Warn("SSE broadcast channel full, message dropped")
	}
}

func (h *Hub) send(msg Message) {
	msg.Timestamp = h.now()
	data, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Failed to marshal SSE message: %v", err)
		return
	}
	h.Broadcast(data)
}

// OnPreviewFrame implementiert capture.Bridge
func (h *Hub) OnPreviewFrame(jpeg []byte) {
	h.send(Message{Type: TypePreview, Image: base64.StdEncoding.EncodeToString(jpeg)})
}

// OnStatus implementiert capture.Bridge
func (h *Hub) OnStatus(text string, severity capture.Severity) {
	h.send(Message{Type: TypeStatus, Text: text, Severity: string(severity)})
}

// OnRemainingTime implementiert capture.Bridge
func (h *Hub) OnRemainingTime(seconds int) {
	h.send(Message{Type: TypeRemaining, Seconds: &seconds})
}

// OnOutcome implementiert capture.Bridge
func (h *Hub) OnOutcome(o capture.Outcome) {
	log.WithFields(log.Fields{"session_id": o.SessionID, "outcome": o.Kind}).Info("Broadcasting capture outcome to SSE clients")
	h.send(Message{
		Type:      TypeOutcome,
		Text:      o.Message,
		Outcome:   string(o.Kind),
		SessionID: o.SessionID,
		Person:    o.Person,
	})
}
