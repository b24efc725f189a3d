package opencv

import (
	"fmt"
	"image"
	"image/color"

	"registro-ponto/internal/core/capture"

	gocv "gocv.io/x/gocv"
)

// PreviewRenderer zeichnet eine Ellipse um jedes Kandidatengesicht und kodiert das Bild als JPEG
type PreviewRenderer struct {
	quality int
	color   color.RGBA
}

// NewPreviewRenderer erstellt einen Renderer mit JPEG-Qualität quality (1..100)
func NewPreviewRenderer(quality int) *PreviewRenderer {
	if quality < 1 || quality > 100 {
		quality = 80
	}
	return &PreviewRenderer{quality: quality, color: color.RGBA{0, 255, 0, 0}}
}

// Render implementiert capture.PreviewRenderer
func (p *PreviewRenderer) Render(frame *capture.Frame, faces []image.Rectangle) ([]byte, error) {
	if frame == nil {
		return nil, fmt.Errorf("no frame to render")
	}
	src := frame.Color
	if src == nil {
		src = frame.Gray
	}
	mat, err := gocv.ImageToMatRGB(src)
	if err != nil {
		return nil, fmt.Errorf("konnte Vorschaubild nicht konvertieren: %w", err)
	}
	defer mat.Close()

	for _, r := range faces {
		center, axes := faceEllipse(r)
		gocv.Ellipse(&mat, center, axes, 0, 0, 360, p.color, 3)
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{int(gocv.IMWriteJpegQuality), p.quality})
	if err != nil {
		return nil, fmt.Errorf("konnte Vorschaubild nicht kodieren: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// faceEllipse liefert Mittelpunkt und Halbachsen (70 % der Regionsgröße) der Markierung
func faceEllipse(r image.Rectangle) (center, axes image.Point) {
	center = image.Pt(r.Min.X+r.Dx()/2, r.Min.Y+r.Dy()/2)
	axes = image.Pt(int(float64(r.Dx())*0.7), int(float64(r.Dy())*0.7))
	return center, axes
}
