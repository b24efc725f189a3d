// Package capture implementiert die Echtzeit-Erkennung des Zeiterfassungs-Kiosks.
//
// Ein Controller führt jeweils eine Erfassungssitzung aus: Er holt Bilder aus einer FrameSource,
// sucht Gesichter, kodiert jede Kandidatenregion und schlägt die Kodierung in der Registry nach.
// Der erste exakte Treffer wird ins Ledger geschrieben und beendet die Sitzung. Sitzungen enden
// außerdem bei Ablauf der Frist, bei Geräte- oder Speicherfehlern und auf Stopp-Anforderung.
package capture

import (
	"context"
	"errors"
	"image"

	"registro-ponto/internal/core/models"
)

var (
	// ErrDeviceUnavailable liefert FrameSource.Open, wenn kein Gerät belegt werden kann
	ErrDeviceUnavailable = errors.New("capture device unavailable")
	// ErrNoFrame ist ein vorübergehender Aussetzer von FrameSource.Next; der Tick wird übersprungen
	ErrNoFrame = errors.New("no frame available")
	// ErrStorage umhüllt Fehler von Registry und Ledger
	ErrStorage = errors.New("storage error")
	// ErrSessionActive liefert Station.Start, solange eine andere Sitzung läuft
	ErrSessionActive = errors.New("capture session already active")
	// ErrStationClosed wird nach Shutdown für jeden neuen Start geliefert
	ErrStationClosed = errors.New("capture station closed")
)

// Frame ist ein erfasstes Bild. Gray dient Erkennung und Kodierung, Color der Vorschau
type Frame struct {
	Gray  *image.Gray
	Color image.Image
}

// FrameSource besitzt das Aufnahmegerät für die Dauer einer Sitzung
type FrameSource interface {
	Open(ctx context.Context) error
	Next() (*Frame, error)
	Close() error
}

// FaceLocator liefert die Kandidatenregionen eines Graustufenbildes.
// Dasselbe Bild muss immer dieselben Regionen ergeben
type FaceLocator interface {
	Locate(gray *image.Gray) []image.Rectangle
}

// Encoder normalisiert ein ausgeschnittenes Gesicht und leitet seine Kodierung ab
type Encoder interface {
	Encode(face *image.Gray) (models.Encoding, error)
}

// PreviewRenderer macht aus Bild und Kandidatenregionen ein kodiertes Vorschaubild
type PreviewRenderer interface {
	Render(frame *Frame, faces []image.Rectangle) ([]byte, error)
}

// Registry ordnet Kodierungen registrierten Personen zu. nil ohne Fehler heißt kein Treffer
type Registry interface {
	Lookup(ctx context.Context, enc models.Encoding) (*models.Person, error)
}

// Ledger ist der nur anhängende Speicher der Anwesenheitsereignisse
type Ledger interface {
	Append(ctx context.Context, evt *models.AttendanceEvent) error
}

// Store bindet Registry- und Ledger-Zugriffe an eine Sitzung. Was WithinSession belegt, ist bei
// der Rückkehr wieder freigegeben
type Store interface {
	WithinSession(ctx context.Context, fn func(Registry, Ledger) error) error
}

// Localizer erzeugt Meldungen für den Bediener
type Localizer interface {
	Localize(id string, data map[string]any) string
}

type idLocalizer struct{}

func (idLocalizer) Localize(id string, _ map[string]any) string { return id }
