package imgutil

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestDetectHeader(t *testing.T) {
	pad := func(b []byte) []byte {
		out := make([]byte, HeaderSize)
		copy(out, b)
		return out
	}

	cases := []struct {
		name   string
		header []byte
		want   Kind
	}{
		{"jpeg", pad([]byte{0xff, 0xd8, 0xff, 0xe0}), KindJPEG},
		{"png", pad(pngSig), KindPNG},
		{"gif87", pad([]byte("GIF87a")), KindGIF},
		{"gif89", pad([]byte("GIF89a")), KindGIF},
		{"bmp", pad([]byte("BM")), KindBMP},
		{"webp", []byte("RIFF\x10\x00\x00\x00WEBP"), KindWEBP},
		{"riff-wav", []byte("RIFF\x10\x00\x00\x00WAVE"), KindUnknown},
		{"tiff-le", pad(tiffSigLE), KindTIFF},
		{"tiff-be", pad(tiffSigBE), KindTIFF},
		{"text", pad([]byte("hello world")), KindUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DetectHeader(tc.header)
			if err != nil {
				t.Fatalf("detect: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}

	if _, err := DetectHeader([]byte{0xff, 0xd8}); err == nil {
		t.Fatalf("expected error for short header")
	}
}

func TestSniffFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pixel.png")

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	kind, err := SniffFile(path)
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	if kind != KindPNG {
		t.Fatalf("got %s, want png", kind)
	}
}

func TestReadOrientation(t *testing.T) {
	data := buildJPEGWithOrientation(6)

	got, err := ReadOrientation(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("read orientation: %v", err)
	}
	if got != OrientRotate270 {
		t.Fatalf("got %d, want %d", got, OrientRotate270)
	}
}

func TestReadOrientationAfterJFIFSegment(t *testing.T) {
	data := buildJPEGWithOrientation(8)
	jfif := []byte{0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x01, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00}
	withJFIF := append(append([]byte{0xff, 0xd8}, jfif...), data[2:]...)

	r := bytes.NewReader(withJFIF)
	// A caller that already sniffed the header leaves the reader mid-file.
	if _, err := SniffReader(r); err != nil {
		t.Fatalf("sniff: %v", err)
	}

	got, err := ReadOrientation(r)
	if err != nil {
		t.Fatalf("read orientation: %v", err)
	}
	if got != OrientRotate90 {
		t.Fatalf("got %d, want %d", got, OrientRotate90)
	}
}

func TestReadOrientationWithoutExif(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := ReadOrientation(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("read orientation: %v", err)
	}
	if got != OrientNormal {
		t.Fatalf("got %d, want normal", got)
	}
}

func buildJPEGWithOrientation(value uint16) []byte {
	var tiff bytes.Buffer
	tiff.Write([]byte{0x49, 0x49, 0x2a, 0x00})
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(8))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(1))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0x0112))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(3))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(1))
	_ = binary.Write(&tiff, binary.LittleEndian, value)
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(0))

	exif := append([]byte("Exif\x00\x00"), tiff.Bytes()...)

	var buf bytes.Buffer
	buf.Write([]byte{0xff, 0xd8})
	buf.Write([]byte{0xff, 0xe1})
	_ = binary.Write(&buf, binary.BigEndian, uint16(len(exif)+2))
	buf.Write(exif)
	buf.Write([]byte{0xff, 0xd9})
	return buf.Bytes()
}
