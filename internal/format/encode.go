package format

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/chai2010/webp"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	// Decoders for formats the standard library does not register.
	_ "golang.org/x/image/webp"
)

// Mode is the color representation of a decoded image.
type Mode int

const (
	ModeRGB Mode = iota
	ModeRGBA
	ModePalette
	ModeGray
)

func (m Mode) String() string {
	switch m {
	case ModeRGBA:
		return "RGBA"
	case ModePalette:
		return "P"
	case ModeGray:
		return "L"
	default:
		return "RGB"
	}
}

// ModeOf classifies img by its concrete pixel layout.
func ModeOf(img image.Image) Mode {
	switch img.(type) {
	case *image.Paletted:
		return ModePalette
	case *image.Gray, *image.Gray16:
		return ModeGray
	case *image.YCbCr, *image.CMYK:
		return ModeRGB
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64, *image.NYCbCrA, *image.Alpha, *image.Alpha16:
		return ModeRGBA
	}
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		return ModeGray
	case color.YCbCrModel, color.CMYKModel:
		return ModeRGB
	}
	return ModeRGBA
}

// Normalize prepares img for the encoder of f. Formats without alpha get an
// opaque copy with the alpha channel dropped; color values are kept as
// stored, not blended onto a background.
func Normalize(img image.Image, f Format) image.Image {
	if f.SupportsAlpha() {
		return img
	}
	switch ModeOf(img) {
	case ModeRGBA, ModePalette:
		return dropAlpha(img)
	default:
		return img
	}
}

func dropAlpha(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			i := out.PixOffset(x-b.Min.X, y-b.Min.Y)
			out.Pix[i+0] = c.R
			out.Pix[i+1] = c.G
			out.Pix[i+2] = c.B
			out.Pix[i+3] = 0xff
		}
	}
	return out
}

// Encode writes img to w in format f. Quality (1-100) applies to lossy
// formats only.
func Encode(w io.Writer, img image.Image, f Format, quality int) error {
	switch f {
	case JPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case WEBP:
		return webp.Encode(w, img, &webp.Options{Quality: float32(quality)})
	case PNG:
		return png.Encode(w, img)
	case GIF:
		return gif.Encode(w, img, &gif.Options{NumColors: 256})
	case BMP:
		return bmp.Encode(w, img)
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: no encoder for %s", ErrUnsupportedFormat, f)
	}
}
