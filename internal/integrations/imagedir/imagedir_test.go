package imagedir

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registro-ponto/internal/core/capture"
)

func writePNG(t *testing.T, path string, shade uint8) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: shade, G: shade, B: shade, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestSourceReplaysInLexicalOrder(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), 200)
	writePNG(t, filepath.Join(dir, "a.png"), 10)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	src := New(dir)
	require.NoError(t, src.Open(context.Background()))
	defer src.Close()

	shades := make([]uint8, 0, 3)
	for i := 0; i < 3; i++ {
		frame, err := src.Next()
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 8, 6), frame.Gray.Bounds())
		shades = append(shades, frame.Gray.GrayAt(0, 0).Y)
	}
	assert.Equal(t, []uint8{10, 200, 10}, shades)
}

func TestSourceSkipsUndecodableFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("not a jpeg"), 0o600))
	writePNG(t, filepath.Join(dir, "ok.png"), 99)

	src := New(dir)
	require.NoError(t, src.Open(context.Background()))

	_, err := src.Next()
	assert.ErrorIs(t, err, capture.ErrNoFrame)
	frame, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, uint8(99), frame.Gray.GrayAt(3, 3).Y)
}

func TestSourceUnavailable(t *testing.T) {
	err := New(filepath.Join(t.TempDir(), "missing")).Open(context.Background())
	assert.ErrorIs(t, err, capture.ErrDeviceUnavailable)

	err = New(t.TempDir()).Open(context.Background())
	assert.ErrorIs(t, err, capture.ErrDeviceUnavailable)

	src := New(t.TempDir())
	_, err = src.Next()
	assert.ErrorIs(t, err, capture.ErrDeviceUnavailable)
}

func TestToGray(t *testing.T) {
	img := image.NewRGBA(image.Rect(5, 5, 9, 9))
	img.Set(5, 5, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	gray := ToGray(img)
	assert.Equal(t, image.Rect(0, 0, 4, 4), gray.Bounds())
	assert.Equal(t, uint8(255), gray.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(0), gray.GrayAt(1, 1).Y)
}
