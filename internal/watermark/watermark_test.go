package watermark

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func redImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = 0xff
		img.Pix[i+3] = 0xff
	}
	return img
}

func TestApplyKeepsSizeAndAddsAlpha(t *testing.T) {
	sources := []image.Image{
		redImage(200, 100),
		image.NewGray(image.Rect(0, 0, 200, 100)),
		image.NewYCbCr(image.Rect(0, 0, 200, 100), image.YCbCrSubsampleRatio420),
		image.NewPaletted(image.Rect(0, 0, 200, 100), color.Palette{color.Black, color.White}),
	}

	c := New(DefaultFontSource(""))
	for _, src := range sources {
		out, err := c.Apply(src, "Test Watermark")
		require.NoError(t, err)
		require.NotNil(t, out)
		assert.Equal(t, src.Bounds().Size(), out.Bounds().Size(), "%T", src)
	}
}

func TestApplyDoesNotMutateSource(t *testing.T) {
	src := redImage(120, 60)
	before := append([]byte(nil), src.Pix...)

	_, err := New(GoFont{}).Apply(src, "mark")
	require.NoError(t, err)
	assert.Equal(t, before, src.Pix)
}

func TestApplyPlacesTextBottomRight(t *testing.T) {
	src := redImage(300, 200)
	out, err := New(GoFont{}).Apply(src, "(c) Me")
	require.NoError(t, err)

	var touched int
	for y := 0; y < 200; y++ {
		for x := 0; x < 300; x++ {
			if out.NRGBAAt(x, y).G == 0 {
				continue
			}
			touched++
			assert.GreaterOrEqual(t, y, 120, "glyph pixel too high at %d,%d", x, y)
			assert.GreaterOrEqual(t, x, 150, "glyph pixel too far left at %d,%d", x, y)
			assert.Less(t, y, 195)
			assert.Less(t, x, 295)
		}
	}
	assert.Positive(t, touched)
}

func TestApplyOpacityBlend(t *testing.T) {
	src := redImage(100, 40)

	half, err := New(BasicFont{}, WithOpacity(128)).Apply(src, "WWW")
	require.NoError(t, err)
	assert.InDelta(t, 128, maxGreen(half), 2)

	full, err := New(BasicFont{}, WithOpacity(255)).Apply(src, "WWW")
	require.NoError(t, err)
	assert.Equal(t, uint8(255), maxGreen(full))

	none, err := New(BasicFont{}, WithOpacity(0)).Apply(src, "WWW")
	require.NoError(t, err)
	assert.Equal(t, uint8(0), maxGreen(none))
}

func TestApplyEmptyTextReturnsCopy(t *testing.T) {
	src := redImage(10, 10)
	out, err := New(nil).Apply(src, "")
	require.NoError(t, err)
	assert.Equal(t, src.Pix, out.Pix)
}

func TestDefaultFontSourceFallsBack(t *testing.T) {
	face, err := DefaultFontSource("/definitely/missing/arial.ttf").Face(36)
	require.NoError(t, err)
	require.NotNil(t, face)
	assert.NoError(t, face.Close())
}

func TestFallbackReportsAllFailures(t *testing.T) {
	_, err := Fallback(FileFont{Path: "/missing/a.ttf"}, FileFont{Path: "/missing/b.ttf"}).Face(12)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a.ttf")
	assert.Contains(t, err.Error(), "b.ttf")

	_, err = Fallback().Face(12)
	assert.Error(t, err)
}

func maxGreen(img *image.NRGBA) uint8 {
	var g uint8
	for i := 1; i < len(img.Pix); i += 4 {
		if img.Pix[i] > g {
			g = img.Pix[i]
		}
	}
	return g
}
