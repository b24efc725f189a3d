package opencv

import (
	"fmt"
	"image"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
	gocv "gocv.io/x/gocv"
)

// DetectorConfig enthält die unveränderlichen Parameter der Haar-Kaskade
type DetectorConfig struct {
	CascadeFile  string
	ScaleFactor  float64
	MinNeighbors int
	MinSize      image.Point
}

// DefaultDetectorConfig entspricht den Werten, mit denen die Gesichter registriert wurden
func DefaultDetectorConfig(cascadeFile string) DetectorConfig {
	return DetectorConfig{
		CascadeFile:  cascadeFile,
		ScaleFactor:  1.1,
		MinNeighbors: 5,
		MinSize:      image.Pt(50, 50),
	}
}

// CascadeLocator findet Gesichter mit einer Haar-Kaskade
type CascadeLocator struct {
	cfg        DetectorConfig
	mutex      sync.Mutex // CascadeClassifier ist nicht threadsicher
	classifier gocv.CascadeClassifier
}

// NewCascadeLocator lädt die Kaskadendatei
func NewCascadeLocator(cfg DetectorConfig) (*CascadeLocator, error) {
	if !fileExists(cfg.CascadeFile) {
		return nil, fmt.Errorf("cascade file not found: %s", cfg.CascadeFile)
	}
	if cfg.ScaleFactor <= 1.0 {
		return nil, fmt.Errorf("scale factor must be greater than 1, got %v", cfg.ScaleFactor)
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cfg.CascadeFile) {
		classifier.Close()
		return nil, fmt.Errorf("konnte Kaskade nicht laden: %s", cfg.CascadeFile)
	}
	log.Infof("Haar-Kaskade geladen: %s (scale=%.2f, neighbors=%d, min=%v)",
		cfg.CascadeFile, cfg.ScaleFactor, cfg.MinNeighbors, cfg.MinSize)

	return &CascadeLocator{cfg: cfg, classifier: classifier}, nil
}

// Locate liefert die Gesichtsregionen des Graubilds in Bildkoordinaten
func (l *CascadeLocator) Locate(gray *image.Gray) []image.Rectangle {
	if gray == nil || gray.Bounds().Empty() {
		return nil
	}
	mat, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		log.Warnf("Konnte Graubild nicht für die Erkennung konvertieren: %v", err)
		return nil
	}
	defer mat.Close()

	l.mutex.Lock()
	rects := l.classifier.DetectMultiScaleWithParams(mat, l.cfg.ScaleFactor, l.cfg.MinNeighbors, 0, l.cfg.MinSize, image.Point{})
	l.mutex.Unlock()

	// gocv arbeitet relativ zu (0,0); SubImages haben einen Offset
	offset := gray.Bounds().Min
	if offset != (image.Point{}) {
		for i := range rects {
			rects[i] = rects[i].Add(offset)
		}
	}
	return rects
}

// Close gibt die Kaskade frei
func (l *CascadeLocator) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.classifier.Close()
}

// Hilfsfunktion zur Überprüfung, ob eine Datei existiert
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
