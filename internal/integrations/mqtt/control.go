package mqtt

import (
	"errors"
	"strings"

	"registro-ponto/internal/core/capture"

	log "github.com/sirupsen/logrus"
)

// Station ist der Teil von capture.Station, den die Fernsteuerung braucht
type Station interface {
	Start(lang string) (*capture.Session, error)
	RequestStop() bool
}

// ControlHandler startet und stoppt Sitzungen über das Steuer-Topic, z.B. per Taster
type ControlHandler struct {
	topic    string
	station  Station
	language string
}

// NewControlHandler erstellt einen Handler für topic. Sitzungen laufen in language.
func NewControlHandler(topic string, station Station, language string) *ControlHandler {
	return &ControlHandler{topic: topic, station: station, language: language}
}

// HandleMessage akzeptiert die Payloads "start" und "stop"
func (h *ControlHandler) HandleMessage(topic string, payload []byte) {
	if topic != h.topic {
		return
	}
	switch cmd := strings.ToLower(strings.TrimSpace(string(payload))); cmd {
	case "start":
		s, err := h.station.Start(h.language)
		if errors.Is(err, capture.ErrSessionActive) {
			log.Info("Ignoring MQTT start request, a capture session is already running")
			return
		}
		if errors.Is(err, capture.ErrStationClosed) {
			log.Info("Ignoring MQTT start request, the station is shutting down")
			return
		}
		if err != nil {
			log.Errorf("Failed to start capture session from MQTT: %v", err)
			return
		}
		log.WithField("session_id", s.ID).Info("Capture session started via MQTT")
	case "stop":
		if h.station.RequestStop() {
			log.Info("Capture session stop requested via MQTT")
		}
	default:
		log.Warnf("Unknown MQTT control command %q", cmd)
	}
}
