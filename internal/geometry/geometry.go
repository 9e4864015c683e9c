// Package geometry computes crop boxes and resize dimensions.
package geometry

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"
)

var (
	ErrInvalidRatio     = errors.New("invalid aspect ratio")
	ErrDegenerateSource = errors.New("source has zero width")
)

// Ratio is a target aspect ratio such as 16:9.
type Ratio struct {
	W int
	H int
}

func (r Ratio) String() string {
	return fmt.Sprintf("%d:%d", r.W, r.H)
}

func (r Ratio) Float() float64 {
	return float64(r.W) / float64(r.H)
}

// ParseRatio parses "W:H" where both terms are positive integers.
func ParseRatio(s string) (Ratio, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return Ratio{}, fmt.Errorf("%w: %q", ErrInvalidRatio, s)
	}

	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Ratio{}, fmt.Errorf("%w: %q", ErrInvalidRatio, s)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Ratio{}, fmt.Errorf("%w: %q", ErrInvalidRatio, s)
	}
	if w <= 0 || h <= 0 {
		return Ratio{}, fmt.Errorf("%w: %q", ErrInvalidRatio, s)
	}

	return Ratio{W: w, H: h}, nil
}

// CropRect returns the largest box centered in a srcW x srcH image whose
// sides match ratioW:ratioH. Coordinates are relative to a (0,0) image
// origin; add the source bounds' Min to use them on a shifted image.
func CropRect(srcW, srcH, ratioW, ratioH int) (image.Rectangle, error) {
	if ratioW <= 0 || ratioH <= 0 {
		return image.Rectangle{}, fmt.Errorf("%w: %d:%d", ErrInvalidRatio, ratioW, ratioH)
	}
	if srcW <= 0 || srcH <= 0 {
		return image.Rectangle{}, ErrDegenerateSource
	}

	target := float64(ratioW) / float64(ratioH)
	newW, newH := srcW, srcH

	// Cross-multiplied so equal ratios never land on the wrong branch.
	if srcW*ratioH > srcH*ratioW {
		newW = clamp(round(float64(srcH)*target), 1, srcW)
	} else {
		newH = clamp(round(float64(srcW)/target), 1, srcH)
	}

	left := (srcW - newW) / 2
	top := (srcH - newH) / 2
	return image.Rect(left, top, left+newW, top+newH), nil
}

// ResizeDims scales srcW x srcH to targetW, deriving the height from the
// source aspect ratio.
func ResizeDims(srcW, srcH, targetW int) (int, int, error) {
	if srcW <= 0 {
		return 0, 0, ErrDegenerateSource
	}
	if targetW <= 0 {
		return 0, 0, fmt.Errorf("target width must be positive, got %d", targetW)
	}

	newH := round(float64(targetW) * float64(srcH) / float64(srcW))
	if newH < 1 {
		newH = 1
	}
	return targetW, newH, nil
}

func round(v float64) int {
	return int(math.Round(v))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
