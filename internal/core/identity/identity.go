// Package identity leitet Kodierungen aus normalisierten Gesichtsbildern ab.
//
// Eine Kodierung ist ein SHA-256-Digest über den kanonischen 8-Bit-Graustufenpuffer eines
// Gesichtsausschnitts, der auf eine feste Auflösung skaliert wurde. Abfragen gegen die Registry
// sind exakt: Ein einziges geändertes Pixel ergibt eine andere Kodierung.
package identity

import (
	"crypto/sha256"
	"fmt"
	"image"
	"strings"

	"registro-ponto/internal/core/models"

	"golang.org/x/image/draw"
)

// Interpolationsverfahren, die Normalization akzeptiert
const (
	InterpolationNearest        = "nearest"
	InterpolationLinear         = "linear"
	InterpolationApproxBiLinear = "approx-bilinear"
	InterpolationCubic          = "cubic"
	InterpolationArea           = "area"
)

// Normalization ist die feste kanonische Auflösung samt Skalierungsverfahren vor dem Hashing
type Normalization struct {
	Width         int
	Height        int
	Interpolation string
}

// DefaultNormalization entspricht der Auflösung bei der Registrierung
var DefaultNormalization = Normalization{Width: 100, Height: 100, Interpolation: InterpolationLinear}

// Validate prüft, ob die Normalisierung eine brauchbare Größe beschreibt
func (n Normalization) Validate() error {
	if n.Width <= 0 || n.Height <= 0 {
		return fmt.Errorf("invalid canonical size %dx%d", n.Width, n.Height)
	}
	return nil
}

// Digest berechnet die Kodierung eines kanonischen, zeilenweisen Pixelpuffers
func Digest(pixels []byte) models.Encoding {
	return models.Encoding(sha256.Sum256(pixels))
}

// Crop kopiert die Region r von img in ein dicht gepacktes Graustufenbild mit Ursprung (0,0).
// Die Region wird auf die Bildgrenzen beschnitten; eine leere Schnittmenge ergibt nil
func Crop(img *image.Gray, r image.Rectangle) *image.Gray {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return nil
	}
	out := image.NewGray(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		srcOff := img.PixOffset(r.Min.X, r.Min.Y+y)
		copy(out.Pix[y*out.Stride:y*out.Stride+r.Dx()], img.Pix[srcOff:srcOff+r.Dx()])
	}
	return out
}

// XDrawEncoder ist das reine Go-Backend auf Basis von golang.org/x/image/draw.
// Die Ausgabe ist deterministisch, aber nicht bitgleich mit dem OpenCV-Backend
type XDrawEncoder struct {
	norm   Normalization
	scaler draw.Scaler
}

// NewXDrawEncoder erstellt einen Encoder für die angegebene Normalisierung
func NewXDrawEncoder(norm Normalization) (*XDrawEncoder, error) {
	if err := norm.Validate(); err != nil {
		return nil, err
	}
	var scaler draw.Scaler
	switch strings.ToLower(norm.Interpolation) {
	case InterpolationNearest:
		scaler = draw.NearestNeighbor
	case "", InterpolationLinear:
		scaler = draw.BiLinear
	case InterpolationApproxBiLinear:
		scaler = draw.ApproxBiLinear
	case InterpolationCubic:
		scaler = draw.CatmullRom
	default:
		return nil, fmt.Errorf("interpolation %q not supported by the xdraw encoder", norm.Interpolation)
	}
	return &XDrawEncoder{norm: norm, scaler: scaler}, nil
}

// Encode skaliert face auf die kanonische Auflösung und hasht das Ergebnis
func (e *XDrawEncoder) Encode(face *image.Gray) (models.Encoding, error) {
	if face == nil || face.Bounds().Empty() {
		return models.Encoding{}, fmt.Errorf("empty face region")
	}
	canonical := image.NewGray(image.Rect(0, 0, e.norm.Width, e.norm.Height))
	e.scaler.Scale(canonical, canonical.Bounds(), face, face.Bounds(), draw.Src, nil)
	return Digest(canonical.Pix), nil
}
