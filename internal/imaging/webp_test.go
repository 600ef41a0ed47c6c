package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 7 {
		img.Set(x, h/2, color.RGBA{R: 200, G: 30, B: 30, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestToWebPResizesLandscape(t *testing.T) {
	res, err := ToWebP(pngOf(t, 2000, 1000))
	require.NoError(t, err)

	assert.Equal(t, 1600, res.Width)
	assert.Equal(t, 800, res.Height)

	cfg, err := webp.DecodeConfig(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, 1600, cfg.Width)
	assert.Equal(t, 800, cfg.Height)
}

func TestToWebPKeepsSmallImages(t *testing.T) {
	res, err := ToWebP(pngOf(t, 400, 900))
	require.NoError(t, err)
	assert.Equal(t, 400, res.Width)
	assert.Equal(t, 900, res.Height)
}

func TestToWebPRejectsGarbage(t *testing.T) {
	_, err := ToWebP([]byte("definitely not an image"))
	assert.EqualError(t, err, "invalid_image")

	_, err = ToWebP(nil)
	assert.EqualError(t, err, "invalid_image")
}
