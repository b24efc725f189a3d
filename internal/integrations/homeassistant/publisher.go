package homeassistant

import (
	"context"
	"strings"
	"sync"
	"time"

	"registro-ponto/internal/core/capture"

	log "github.com/sirupsen/logrus"
)

// Topics baut die Topics unterhalb des konfigurierten Präfixes
type Topics struct {
	Prefix string
}

func (t Topics) join(parts ...string) string {
	prefix := strings.TrimSuffix(t.Prefix, "/")
	if prefix == "" {
		prefix = "ponto"
	}
	return prefix + "/" + strings.Join(parts, "/")
}

// Outcome ist das Topic für Sitzungsergebnisse
func (t Topics) Outcome() string { return t.join("outcome") }

// Attendance ist das Topic für registrierte Pontos eines Mitarbeiters
func (t Topics) Attendance(badgeID string) string {
	return t.join("attendance", sanitize(badgeID))
}

// LastAttendance enthält den zuletzt registrierten Ponto (retained)
func (t Topics) LastAttendance() string { return t.join("attendance", "last") }

// Status ist das Topic für Statustexte
func (t Topics) Status() string { return t.join("status") }

// Availability ist das Topic für online/offline
func (t Topics) Availability() string { return t.join("availability") }

// sanitize entfernt MQTT-Platzhalter und Trennzeichen aus einem Topic-Segment
func sanitize(segment string) string {
	r := strings.NewReplacer("/", "_", "+", "_", "#", "_", " ", "_")
	s := r.Replace(strings.TrimSpace(segment))
	if s == "" {
		return "unknown"
	}
	return s
}

// OutcomeMessage wird auf <prefix>/outcome veröffentlicht
type OutcomeMessage struct {
	SessionID string    `json:"session_id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Name      string    `json:"name,omitempty"`
	BadgeID   string    `json:"badge_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AttendanceMessage wird für jeden registrierten Ponto veröffentlicht
type AttendanceMessage struct {
	SessionID string    `json:"session_id"`
	Name      string    `json:"name"`
	BadgeID   string    `json:"badge_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusMessage wird auf <prefix>/status veröffentlicht
type StatusMessage struct {
	Text     string `json:"text"`
	Severity string `json:"severity"`
}

type publishRequest struct {
	topic   string
	payload interface{}
	retain  bool
}

// Publisher veröffentlicht Sitzungsereignisse über MQTT. Er implementiert capture.Bridge;
// die eigentliche Veröffentlichung läuft in Run, damit die Erfassungsschleife nicht auf den Broker wartet.
type Publisher struct {
	capture.NopBridge

	client    MessagePublisher
	topics    Topics
	eventType string
	queue     chan publishRequest

	mu      sync.Mutex
	dropped int
}

// NewPublisher erstellt einen neuen Publisher mit einem Puffer von buffer Nachrichten
func NewPublisher(client MessagePublisher, topics Topics, eventType string, buffer int) *Publisher {
	if buffer <= 0 {
		buffer = 64
	}
	return &Publisher{
		client:    client,
		topics:    topics,
		eventType: eventType,
		queue:     make(chan publishRequest, buffer),
	}
}

// Run veröffentlicht die gepufferten Nachrichten, bis ctx beendet ist
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-p.queue:
			var err error
			if req.retain {
				err = p.client.PublishRetain(req.topic, req.payload)
			} else {
				err = p.client.Publish(req.topic, req.payload)
			}
			if err != nil {
				log.Warnf("Failed to publish MQTT message to %s: %v", req.topic, err)
			}
		}
	}
}

// Dropped liefert die Anzahl verworfener Nachrichten
func (p *Publisher) Dropped() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

func (p *Publisher) enqueue(topic string, payload interface{}, retain bool) {
	select {
	case p.queue <- publishRequest{topic: topic, payload: payload, retain: retain}:
	default:
		p.mu.Lock()
		p.dropped++
		p.mu.Unlock()
		log.Warnf("MQTT publish buffer full, dropping message for %s", topic)
	}
}

// OnStatus veröffentlicht den Statustext
func (p *Publisher) OnStatus(text string, severity capture.Severity) {
	p.enqueue(p.topics.Status(), StatusMessage{Text: text, Severity: string(severity)}, false)
}

// OnOutcome veröffentlicht das Ergebnis und bei einem Treffer zusätzlich den Ponto
func (p *Publisher) OnOutcome(o capture.Outcome) {
	msg := OutcomeMessage{
		SessionID: o.SessionID,
		Kind:      string(o.Kind),
		Message:   o.Message,
		Timestamp: o.At,
	}
	if o.Person != nil {
		msg.Name = o.Person.Name
		msg.BadgeID = o.Person.BadgeID
	}
	p.enqueue(p.topics.Outcome(), msg, true)

	if o.Kind != capture.OutcomeMatched || o.Person == nil {
		return
	}
	attendance := AttendanceMessage{
		SessionID: o.SessionID,
		Name:      o.Person.Name,
		BadgeID:   o.Person.BadgeID,
		EventType: p.eventType,
		Timestamp: o.At,
	}
	p.enqueue(p.topics.Attendance(o.Person.BadgeID), attendance, false)
	p.enqueue(p.topics.LastAttendance(), attendance, true)
}
