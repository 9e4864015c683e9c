package imgutil

import (
	"bytes"
	"errors"
	"io"
	"os"
)

// Kind identifies an image container by its magic bytes.
type Kind int

const (
	KindUnknown Kind = iota
	KindJPEG
	KindPNG
	KindGIF
	KindBMP
	KindWEBP
	KindTIFF
)

func (k Kind) String() string {
	switch k {
	case KindJPEG:
		return "jpeg"
	case KindPNG:
		return "png"
	case KindGIF:
		return "gif"
	case KindBMP:
		return "bmp"
	case KindWEBP:
		return "webp"
	case KindTIFF:
		return "tiff"
	default:
		return "unknown"
	}
}

// HeaderSize is the number of leading bytes DetectHeader needs.
const HeaderSize = 12

var (
	pngSig    = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
	jpegSig   = []byte{0xff, 0xd8, 0xff}
	gif87Sig  = []byte("GIF87a")
	gif89Sig  = []byte("GIF89a")
	bmpSig    = []byte("BM")
	riffSig   = []byte("RIFF")
	webpSig   = []byte("WEBP")
	tiffSigLE = []byte{0x49, 0x49, 0x2a, 0x00}
	tiffSigBE = []byte{0x4d, 0x4d, 0x00, 0x2a}
)

// DetectHeader inspects the first HeaderSize bytes of a file for known
// signatures.
func DetectHeader(header []byte) (Kind, error) {
	if len(header) < HeaderSize {
		return KindUnknown, errors.New("header too short")
	}

	switch {
	case bytes.HasPrefix(header, jpegSig):
		return KindJPEG, nil
	case bytes.HasPrefix(header, pngSig):
		return KindPNG, nil
	case bytes.HasPrefix(header, gif87Sig), bytes.HasPrefix(header, gif89Sig):
		return KindGIF, nil
	case bytes.HasPrefix(header, riffSig) && bytes.Equal(header[8:12], webpSig):
		return KindWEBP, nil
	case bytes.HasPrefix(header, tiffSigLE), bytes.HasPrefix(header, tiffSigBE):
		return KindTIFF, nil
	case bytes.HasPrefix(header, bmpSig):
		return KindBMP, nil
	}

	return KindUnknown, nil
}

// SniffFile reads the header of the file at path to determine its type.
func SniffFile(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return KindUnknown, err
	}
	defer f.Close()

	return SniffReader(f)
}

// SniffReader reads HeaderSize bytes from r and determines its type.
func SniffReader(r io.Reader) (Kind, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return KindUnknown, err
	}

	return DetectHeader(header)
}
