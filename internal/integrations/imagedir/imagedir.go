// Package imagedir spielt Standbilder aus einem Verzeichnis als Bildquelle ab.
//
// Es ersetzt die Kamera auf Kiosks ohne Gerät und in Tests. Die Dateien laufen in lexikalischer
// Reihenfolge und beginnen nach der letzten Datei von vorn.
package imagedir

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"registro-ponto/internal/core/capture"

	log "github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var supportedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".webp": true,
}

// Source ist eine capture.FrameSource über die Bilder eines Verzeichnisses
type Source struct {
	dir string

	mu    sync.Mutex
	files []string
	next  int
	open  bool
}

// New erstellt eine Quelle für dir. Das Verzeichnis wird erst bei Open gelesen
func New(dir string) *Source {
	return &Source{dir: dir}
}

// Open listet die Bilder des Verzeichnisses
func (s *Source) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	files, err := listImages(s.dir)
	if err != nil {
		return fmt.Errorf("%w: %v", capture.ErrDeviceUnavailable, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no images in %s", capture.ErrDeviceUnavailable, s.dir)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = files
	s.next = 0
	s.open = true
	log.Debugf("Replaying %d images from %s", len(files), s.dir)
	return nil
}

// Next dekodiert das nächste Bild. Nicht lesbare Dateien zählen als fehlendes Bild
func (s *Source) Next() (*capture.Frame, error) {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: source %s is not open", capture.ErrDeviceUnavailable, s.dir)
	}
	path := s.files[s.next]
	s.next = (s.next + 1) % len(s.files)
	s.mu.Unlock()

	img, err := decode(path)
	if err != nil {
		log.WithError(err).Warnf("Skipping unreadable image %s", path)
		return nil, capture.ErrNoFrame
	}
	return &capture.Frame{Gray: ToGray(img), Color: img}, nil
}

// Close gibt die Dateiliste frei
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	s.files = nil
	return nil
}

// ToGray wandelt img in ein 8-Bit-Graustufenbild mit Ursprung (0,0) um
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !supportedExt[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
