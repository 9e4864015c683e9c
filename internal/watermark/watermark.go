// Package watermark draws a translucent text mark in the bottom-right corner
// of an image.
package watermark

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const (
	DefaultFontSize = 36
	DefaultOpacity  = 128
	DefaultMargin   = 10
)

type Compositor struct {
	fonts    FontSource
	fontSize float64
	opacity  uint8
	margin   int
}

type Option func(*Compositor)

func WithFontSize(size float64) Option {
	return func(c *Compositor) {
		if size > 0 {
			c.fontSize = size
		}
	}
}

// WithOpacity sets the glyph alpha; values are clamped to 0-255.
func WithOpacity(opacity int) Option {
	return func(c *Compositor) {
		switch {
		case opacity < 0:
			c.opacity = 0
		case opacity > 255:
			c.opacity = 255
		default:
			c.opacity = uint8(opacity)
		}
	}
}

func WithMargin(margin int) Option {
	return func(c *Compositor) {
		if margin >= 0 {
			c.margin = margin
		}
	}
}

// New builds a Compositor. A nil source falls back to DefaultFontSource("").
func New(fonts FontSource, opts ...Option) *Compositor {
	if fonts == nil {
		fonts = DefaultFontSource("")
	}
	c := &Compositor{
		fonts:    fonts,
		fontSize: DefaultFontSize,
		opacity:  DefaultOpacity,
		margin:   DefaultMargin,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Apply returns a new NRGBA image with text composited over img. The result
// always carries alpha, whatever the source color model, and keeps the source
// dimensions. img is not modified.
func (c *Compositor) Apply(img image.Image, text string) (*image.NRGBA, error) {
	base := toNRGBA(img)
	if text == "" {
		return base, nil
	}

	face, err := c.fonts.Face(c.fontSize)
	if err != nil {
		return nil, fmt.Errorf("resolve watermark font: %w", err)
	}
	defer face.Close()

	layer := image.NewNRGBA(base.Bounds())
	origin := c.place(face, text, base.Bounds())

	d := &font.Drawer{
		Dst:  layer,
		Src:  image.NewUniform(color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: c.opacity}),
		Face: face,
		Dot:  origin,
	}
	d.DrawString(text)

	draw.Draw(base, base.Bounds(), layer, image.Point{}, draw.Over)
	return base, nil
}

// place returns the drawing dot that puts the text's bounding box at
// (width - textWidth - margin, height - textHeight - margin).
func (c *Compositor) place(face font.Face, text string, bounds image.Rectangle) fixed.Point26_6 {
	box, _ := font.BoundString(face, text)
	textW := (box.Max.X - box.Min.X).Ceil()
	textH := (box.Max.Y - box.Min.Y).Ceil()

	x := bounds.Dx() - textW - c.margin
	y := bounds.Dy() - textH - c.margin

	return fixed.Point26_6{
		X: fixed.I(x) - box.Min.X,
		Y: fixed.I(y) - box.Min.Y,
	}
}

func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
