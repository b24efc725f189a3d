package opencv

import (
	"fmt"
	"image"
	"strings"

	"registro-ponto/internal/core/identity"
	"registro-ponto/internal/core/models"

	gocv "gocv.io/x/gocv"
)

// Encoder skaliert Gesichtsausschnitte mit OpenCV auf die kanonische Größe und bildet den Digest.
// Das Ergebnis ist bitgleich mit den bei der Registrierung gespeicherten Encodings.
type Encoder struct {
	size   image.Point
	interp gocv.InterpolationFlags
}

// NewEncoder erstellt einen Encoder für die Normalisierung norm
func NewEncoder(norm identity.Normalization) (*Encoder, error) {
	if err := norm.Validate(); err != nil {
		return nil, err
	}
	var interp gocv.InterpolationFlags
	switch strings.ToLower(norm.Interpolation) {
	case "", identity.InterpolationLinear:
		interp = gocv.InterpolationLinear
	case identity.InterpolationNearest:
		interp = gocv.InterpolationNearestNeighbor
	case identity.InterpolationCubic:
		interp = gocv.InterpolationCubic
	case identity.InterpolationArea:
		interp = gocv.InterpolationArea
	default:
		return nil, fmt.Errorf("interpolation %q not supported by the opencv encoder", norm.Interpolation)
	}
	return &Encoder{size: image.Pt(norm.Width, norm.Height), interp: interp}, nil
}

// Encode berechnet das Encoding eines Gesichtsausschnitts
func (e *Encoder) Encode(face *image.Gray) (models.Encoding, error) {
	if face == nil || face.Bounds().Empty() {
		return models.Encoding{}, fmt.Errorf("empty face region")
	}
	src, err := gocv.ImageGrayToMatGray(face)
	if err != nil {
		return models.Encoding{}, fmt.Errorf("konnte Ausschnitt nicht konvertieren: %w", err)
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Resize(src, &dst, e.size, 0, 0, e.interp)

	pixels := dst.ToBytes()
	if len(pixels) != e.size.X*e.size.Y {
		return models.Encoding{}, fmt.Errorf("unexpected canonical buffer size %d", len(pixels))
	}
	return identity.Digest(pixels), nil
}
