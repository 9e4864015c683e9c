package geometry

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCropRectSquare(t *testing.T) {
	rect, err := CropRect(200, 100, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 100, rect.Dx())
	assert.Equal(t, 100, rect.Dy())
	assert.Equal(t, 50, rect.Min.X)
	assert.Equal(t, 0, rect.Min.Y)
}

func TestCropRectWidescreen(t *testing.T) {
	rect, err := CropRect(200, 100, 16, 9)
	require.NoError(t, err)
	assert.Equal(t, 100, rect.Dy())
	assert.GreaterOrEqual(t, rect.Dx(), 176)
	assert.LessOrEqual(t, rect.Dx(), 178)
}

func TestCropRectTallTarget(t *testing.T) {
	rect, err := CropRect(300, 300, 9, 16)
	require.NoError(t, err)
	assert.Equal(t, 169, rect.Dx())
	assert.Equal(t, 300, rect.Dy())
}

func TestCropRectMatchingRatioIsNoop(t *testing.T) {
	rect, err := CropRect(1920, 1080, 16, 9)
	require.NoError(t, err)
	assert.Equal(t, 0, rect.Min.X)
	assert.Equal(t, 0, rect.Min.Y)
	assert.Equal(t, 1920, rect.Dx())
	assert.Equal(t, 1080, rect.Dy())
}

func TestCropRectProperties(t *testing.T) {
	ratios := [][2]int{{1, 1}, {16, 9}, {9, 16}, {4, 3}, {3, 2}, {21, 9}, {7, 5}}
	for w := 1; w <= 64; w += 7 {
		for h := 1; h <= 64; h += 5 {
			for _, r := range ratios {
				rect, err := CropRect(w, h, r[0], r[1])
				require.NoError(t, err)

				assert.True(t, rect.Dx() >= 1 && rect.Dx() <= w, "width %d out of range for %dx%d", rect.Dx(), w, h)
				assert.True(t, rect.Dy() >= 1 && rect.Dy() <= h, "height %d out of range for %dx%d", rect.Dy(), w, h)
				assert.True(t, rect.Dx() == w || rect.Dy() == h, "one side must be kept for %dx%d %v", w, h, r)
				if w*r[1] > h*r[0] {
					assert.Equal(t, h, rect.Dy(), "height kept for %dx%d %v", w, h, r)
				} else {
					assert.Equal(t, w, rect.Dx(), "width kept for %dx%d %v", w, h, r)
				}

				// Rounding tolerance: one pixel on the derived side.
				// Same branch as CropRect: the height is kept when the source is wider.
				if w*r[1] > h*r[0] {
					want := float64(h) * float64(r[0]) / float64(r[1])
					assert.InDelta(t, want, float64(rect.Dx()), 1.0)
				} else {
					want := float64(w) * float64(r[1]) / float64(r[0])
					assert.InDelta(t, want, float64(rect.Dy()), 1.0)
				}

				leftMargin := rect.Min.X
				rightMargin := w - rect.Max.X
				topMargin := rect.Min.Y
				bottomMargin := h - rect.Max.Y
				assert.InDelta(t, leftMargin, rightMargin, 1)
				assert.InDelta(t, topMargin, bottomMargin, 1)
				assert.LessOrEqual(t, leftMargin, rightMargin)
				assert.LessOrEqual(t, topMargin, bottomMargin)
			}
		}
	}
}

func TestCropRectClampsTinySource(t *testing.T) {
	rect, err := CropRect(1, 1, 21, 9)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1, 1), rect)

	rect, err = CropRect(1, 64, 21, 9)
	require.NoError(t, err)
	assert.Equal(t, 1, rect.Dx())
	assert.Equal(t, 1, rect.Dy())
}

func TestCropRectInvalidRatio(t *testing.T) {
	_, err := CropRect(200, 100, 16, 0)
	assert.ErrorIs(t, err, ErrInvalidRatio)

	_, err = CropRect(200, 100, 0, 9)
	assert.ErrorIs(t, err, ErrInvalidRatio)

	_, err = CropRect(200, 100, -4, 3)
	assert.ErrorIs(t, err, ErrInvalidRatio)
}

func TestParseRatio(t *testing.T) {
	cases := []struct {
		in      string
		want    Ratio
		wantErr bool
	}{
		{in: "16:9", want: Ratio{W: 16, H: 9}},
		{in: " 1 : 1 ", want: Ratio{W: 1, H: 1}},
		{in: "4:3", want: Ratio{W: 4, H: 3}},
		{in: "invalid-ratio", wantErr: true},
		{in: "16:0", wantErr: true},
		{in: "0:9", wantErr: true},
		{in: "-1:2", wantErr: true},
		{in: "1.5:1", wantErr: true},
		{in: "1:2:3", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseRatio(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRatio)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResizeDims(t *testing.T) {
	w, h, err := ResizeDims(200, 100, 100)
	require.NoError(t, err)
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)

	w, h, err = ResizeDims(3000, 2000, 1024)
	require.NoError(t, err)
	assert.Equal(t, 1024, w)
	assert.Equal(t, 683, h)

	w, h, err = ResizeDims(100, 200, 400)
	require.NoError(t, err)
	assert.Equal(t, 400, w)
	assert.Equal(t, 800, h)
}

func TestResizeDimsKeepsAtLeastOneRow(t *testing.T) {
	_, h, err := ResizeDims(1000, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, h)
}

func TestResizeDimsDegenerate(t *testing.T) {
	_, _, err := ResizeDims(0, 100, 50)
	assert.ErrorIs(t, err, ErrDegenerateSource)

	_, _, err = ResizeDims(100, 100, 0)
	assert.Error(t, err)
}
