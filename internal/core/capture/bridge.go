package capture

import (
	"time"

	"registro-ponto/internal/core/models"
)

// Severity stuft Statusmeldungen ein
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// OutcomeKind ist die Art eines gemeldeten Endergebnisses. StoppedByUser wird nie gemeldet
type OutcomeKind string

const (
	OutcomeMatched       OutcomeKind = "matched"
	OutcomeTimedOut      OutcomeKind = "timed_out"
	OutcomeDeviceFailed  OutcomeKind = "device_failed"
	OutcomeStorageFailed OutcomeKind = "storage_failed"
)

// Outcome beschreibt, wie eine Sitzung endete
type Outcome struct {
	SessionID string         `json:"session_id"`
	Kind      OutcomeKind    `json:"kind"`
	Message   string         `json:"message"`
	Person    *models.Person `json:"person,omitempty"`
	At        time.Time      `json:"at"`
}

// Bridge empfängt alles, was die Pipeline dem Bediener anzeigen will.
// Implementierungen dürfen die Erfassungsschleife nicht lange blockieren
type Bridge interface {
	OnPreviewFrame(jpeg []byte)
	OnStatus(text string, severity Severity)
	OnRemainingTime(seconds int)
	OnOutcome(o Outcome)
}

// Bridges verteilt jeden Aufruf der Reihe nach an alle Mitglieder
type Bridges []Bridge

func (bs Bridges) OnPreviewFrame(jpeg []byte) {
	for _, b := range bs {
		b.OnPreviewFrame(jpeg)
	}
}

func (bs Bridges) OnStatus(text string, severity Severity) {
	for _, b := range bs {
		b.OnStatus(text, severity)
	}
}

func (bs Bridges) OnRemainingTime(seconds int) {
	for _, b := range bs {
		b.OnRemainingTime(seconds)
	}
}

func (bs Bridges) OnOutcome(o Outcome) {
	for _, b := range bs {
		b.OnOutcome(o)
	}
}

// NopBridge verwirft alles. Einbetten, um nur einen Teil von Bridge zu implementieren
type NopBridge struct{}

func (NopBridge) OnPreviewFrame([]byte) {}
func (NopBridge) OnStatus(string, Severity) {}
func (NopBridge) OnRemainingTime(int) {}
func (NopBridge) OnOutcome(Outcome) {}
