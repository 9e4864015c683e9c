// Package pipeline applies the configured stages to one image:
// crop, resize, watermark, then format normalization and encoding.
package pipeline

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"

	"github.com/KnowOneActual/image-processor/internal/config"
	"github.com/KnowOneActual/image-processor/internal/geometry"
	"github.com/KnowOneActual/image-processor/internal/watermark"
	"github.com/KnowOneActual/image-processor/pkg/imgutil"
)

type Stage string

const (
	StageDecode    Stage = "decode"
	StageOrient    Stage = "orient"
	StageCrop      Stage = "crop"
	StageResize    Stage = "resize"
	StageWatermark Stage = "watermark"
	StageSave      Stage = "save"
)

// Notifier receives one human readable line per stage that ran or was
// skipped. It may be nil.
type Notifier func(stage Stage, msg string)

func (n Notifier) emit(stage Stage, format string, args ...any) {
	if n != nil {
		n(stage, fmt.Sprintf(format, args...))
	}
}

// Pipeline is safe for concurrent use; it holds only read-only settings.
type Pipeline struct {
	cfg        config.TransformConfig
	compositor *watermark.Compositor
}

type Option func(*options)

type options struct {
	fonts watermark.FontSource
}

// WithFontSource overrides the font lookup used for watermarks.
func WithFontSource(src watermark.FontSource) Option {
	return func(o *options) { o.fonts = src }
}

func New(cfg config.TransformConfig, opts ...Option) *Pipeline {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.fonts == nil {
		o.fonts = watermark.DefaultFontSource(cfg.FontPath)
	}

	return &Pipeline{
		cfg: cfg,
		compositor: watermark.New(o.fonts,
			watermark.WithFontSize(cfg.FontSize),
			watermark.WithOpacity(cfg.Opacity),
		),
	}
}

// Transform runs crop, resize and watermark in that order. A crop ratio that
// does not parse leaves the image as it was and processing continues.
func (p *Pipeline) Transform(img image.Image, notify Notifier) (image.Image, error) {
	if p.cfg.Crop() {
		img = p.crop(img, notify)
	}

	if p.cfg.Resize() {
		b := img.Bounds()
		w, h, err := geometry.ResizeDims(b.Dx(), b.Dy(), p.cfg.TargetWidth)
		if err != nil {
			return nil, fmt.Errorf("resize: %w", err)
		}
		img = resize.Resize(uint(w), uint(h), img, resize.Lanczos3)
		notify.emit(StageResize, "resized to %dx%d", w, h)
	}

	if p.cfg.Watermark() {
		marked, err := p.compositor.Apply(img, p.cfg.WatermarkText)
		if err != nil {
			return nil, fmt.Errorf("watermark: %w", err)
		}
		img = marked
		notify.emit(StageWatermark, "added watermark %q", p.cfg.WatermarkText)
	}

	return img, nil
}

func (p *Pipeline) crop(img image.Image, notify Notifier) image.Image {
	ratio, err := geometry.ParseRatio(p.cfg.CropRatio)
	if err != nil {
		notify.emit(StageCrop, "crop skipped: %v", err)
		return img
	}

	b := img.Bounds()
	rect, err := geometry.CropRect(b.Dx(), b.Dy(), ratio.W, ratio.H)
	if err != nil {
		notify.emit(StageCrop, "crop skipped: %v", err)
		return img
	}
	if rect.Dx() == b.Dx() && rect.Dy() == b.Dy() {
		notify.emit(StageCrop, "already %s, crop not needed", ratio)
		return img
	}

	notify.emit(StageCrop, "cropped to %s (%dx%d)", ratio, rect.Dx(), rect.Dy())
	return imaging.Crop(img, rect.Add(b.Min))
}

// Orient rotates or flips img so that it displays upright for the given EXIF
// orientation.
func Orient(img image.Image, o imgutil.Orientation) image.Image {
	switch o {
	case imgutil.OrientFlipH:
		return imaging.FlipH(img)
	case imgutil.OrientRotate180:
		return imaging.Rotate180(img)
	case imgutil.OrientFlipV:
		return imaging.FlipV(img)
	case imgutil.OrientTranspose:
		return imaging.Transpose(img)
	case imgutil.OrientRotate270:
		return imaging.Rotate270(img)
	case imgutil.OrientTransverse:
		return imaging.Transverse(img)
	case imgutil.OrientRotate90:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
