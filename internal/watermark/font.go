package watermark

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontSource resolves a face able to measure and draw glyphs at a size.
type FontSource interface {
	Face(size float64) (font.Face, error)
}

// FileFont loads a TrueType or OpenType font from disk.
type FileFont struct {
	Path string
}

func (f FileFont) Face(size float64) (font.Face, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", f.Path, err)
	}
	return parseFace(data, size)
}

// GoFont is the Go Regular face compiled into the binary.
type GoFont struct{}

func (GoFont) Face(size float64) (font.Face, error) {
	return parseFace(goregular.TTF, size)
}

// BasicFont is a fixed 7x13 bitmap face. It ignores the requested size and
// cannot fail, which makes it the last resort of DefaultFontSource.
type BasicFont struct{}

func (BasicFont) Face(float64) (font.Face, error) {
	return basicfont.Face7x13, nil
}

type fallback []FontSource

// Fallback tries each source in order and returns the first face that loads.
func Fallback(sources ...FontSource) FontSource {
	return fallback(sources)
}

func (fb fallback) Face(size float64) (font.Face, error) {
	var errs []error
	for _, src := range fb {
		face, err := src.Face(size)
		if err == nil {
			return face, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, errors.New("no font sources configured")
	}
	return nil, errors.Join(errs...)
}

// DefaultFontSource prefers the font at path, then the embedded Go font,
// then the built-in bitmap face. An empty path skips the file lookup.
func DefaultFontSource(path string) FontSource {
	var sources []FontSource
	if strings.TrimSpace(path) != "" {
		sources = append(sources, FileFont{Path: path})
	}
	return Fallback(append(sources, GoFont{}, BasicFont{})...)
}

func parseFace(data []byte, size float64) (font.Face, error) {
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
