package opencv

import (
	"fmt"
	"image"
	"sync"

	"registro-ponto/config"
	"registro-ponto/internal/core/capture"
	"registro-ponto/internal/core/identity"

	log "github.com/sirupsen/logrus"
)

// Service bündelt die OpenCV-Bausteine der Erfassung
type Service struct {
	Locator  *CascadeLocator
	Encoder  capture.Encoder
	Preview  capture.PreviewRenderer // nil, wenn die Vorschau deaktiviert ist
	Previews *PreviewStore

	mutex  sync.Mutex
	closed bool
}

// NewService erstellt Detektor, Encoder und Vorschau aus der Konfiguration
func NewService(cfg *config.Config) (*Service, error) {
	locator, err := NewCascadeLocator(DetectorConfig{
		CascadeFile:  cfg.Detector.CascadeFile,
		ScaleFactor:  cfg.Detector.ScaleFactor,
		MinNeighbors: cfg.Detector.MinNeighbors,
		MinSize:      image.Pt(cfg.Detector.MinSize, cfg.Detector.MinSize),
	})
	if err != nil {
		return nil, fmt.Errorf("fehler beim Initialisieren des Gesichtsdetektors: %w", err)
	}

	encoder, err := NewEncoderFor(cfg.Encoder)
	if err != nil {
		locator.Close()
		return nil, err
	}

	s := &Service{
		Locator:  locator,
		Encoder:  encoder,
		Previews: NewPreviewStore(10),
	}
	if cfg.Preview.Enabled {
		s.Preview = NewPreviewRenderer(cfg.Preview.JPEGQuality)
	} else {
		log.Info("Vorschau ist in der Konfiguration deaktiviert")
	}
	return s, nil
}

// NewEncoderFor wählt das Encoder-Backend aus der Konfiguration
func NewEncoderFor(cfg config.EncoderConfig) (capture.Encoder, error) {
	norm := identity.Normalization{Width: cfg.Width, Height: cfg.Height, Interpolation: cfg.Interpolation}
	switch cfg.Backend {
	case config.EncoderOpenCV, "":
		enc, err := NewEncoder(norm)
		if err != nil {
			return nil, fmt.Errorf("fehler beim Initialisieren des OpenCV-Encoders: %w", err)
		}
		return enc, nil
	case config.EncoderXDraw:
		enc, err := identity.NewXDrawEncoder(norm)
		if err != nil {
			return nil, fmt.Errorf("fehler beim Initialisieren des xdraw-Encoders: %w", err)
		}
		return enc, nil
	default:
		return nil, fmt.Errorf("unknown encoder backend %q", cfg.Backend)
	}
}

// Close gibt die Ressourcen des Service frei
func (s *Service) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.Locator.Close()
}
