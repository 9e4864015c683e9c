package imgutil

import (
	"errors"
	"io"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
)

// Orientation is the EXIF orientation tag value (1-8). 1 means the stored
// pixels are already upright.
type Orientation int

const (
	OrientNormal     Orientation = 1
	OrientFlipH      Orientation = 2
	OrientRotate180  Orientation = 3
	OrientFlipV      Orientation = 4
	OrientTranspose  Orientation = 5
	OrientRotate270  Orientation = 6
	OrientTransverse Orientation = 7
	OrientRotate90   Orientation = 8
)

// ReadOrientation returns the EXIF orientation stored in rs. Files without
// EXIF data, or without the tag, report OrientNormal.
func ReadOrientation(rs io.ReadSeeker) (Orientation, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return OrientNormal, err
	}

	// The EXIF block sits inside a container segment (JPEG APP1, WEBP chunk),
	// so locate the raw TIFF data before parsing tags.
	raw, err := exif.SearchAndExtractExifWithReader(rs)
	if err != nil {
		if isNoExif(err) {
			return OrientNormal, nil
		}
		return OrientNormal, err
	}

	tags, _, err := exif.GetFlatExifData(raw, nil)
	if err != nil {
		if isNoExif(err) {
			return OrientNormal, nil
		}
		return OrientNormal, err
	}

	for _, tag := range tags {
		if tag.TagName != "Orientation" {
			continue
		}
		var v int
		switch value := tag.Value.(type) {
		case []uint16:
			if len(value) > 0 {
				v = int(value[0])
			}
		case uint16:
			v = int(value)
		}
		if v >= 1 && v <= 8 {
			return Orientation(v), nil
		}
	}

	return OrientNormal, nil
}

func isNoExif(err error) bool {
	if errors.Is(err, exif.ErrNoExif) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no exif")
}
