// Package format decides output names, color normalization and encoder
// options for each target container format.
package format

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var ErrUnsupportedFormat = errors.New("unsupported format")

// Format identifies an output container with a known encoder.
type Format int

const (
	Unknown Format = iota
	JPEG
	PNG
	WEBP
	GIF
	BMP
	TIFF
)

var all = []Format{JPEG, PNG, WEBP, GIF, BMP, TIFF}

// All lists every format with an encoder, in display order.
func All() []Format {
	out := make([]Format, len(all))
	copy(out, all)
	return out
}

func (f Format) String() string {
	switch f {
	case JPEG:
		return "jpeg"
	case PNG:
		return "png"
	case WEBP:
		return "webp"
	case GIF:
		return "gif"
	case BMP:
		return "bmp"
	case TIFF:
		return "tiff"
	default:
		return "unknown"
	}
}

// SupportsAlpha reports whether the container can store an alpha channel.
func (f Format) SupportsAlpha() bool {
	switch f {
	case PNG, WEBP, GIF, TIFF:
		return true
	default:
		return false
	}
}

// Lossy reports whether the encoder accepts a quality setting.
func (f Format) Lossy() bool {
	return f == JPEG || f == WEBP
}

// Parse maps a user supplied name such as "JPG" or "webp" to a Format.
func Parse(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "jpeg", "jpg":
		return JPEG, nil
	case "png":
		return PNG, nil
	case "webp":
		return WEBP, nil
	case "gif":
		return GIF, nil
	case "bmp":
		return BMP, nil
	case "tiff", "tif":
		return TIFF, nil
	default:
		return Unknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// FromPath infers the format from a file extension.
func FromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return Unknown, fmt.Errorf("%w: %s has no extension", ErrUnsupportedFormat, filepath.Base(path))
	}
	return Parse(ext)
}

// OutputName swaps the extension of filename for the lowercased override.
// With no override the name is returned unchanged.
func OutputName(filename, override string) string {
	override = strings.TrimSpace(override)
	if override == "" {
		return filename
	}
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	return base + "." + strings.ToLower(override)
}

// Resolve returns the encoder format and output file name for filename.
func Resolve(filename, override string) (Format, string, error) {
	name := OutputName(filename, override)
	if strings.TrimSpace(override) == "" {
		f, err := FromPath(filename)
		return f, name, err
	}
	f, err := Parse(override)
	return f, name, err
}
