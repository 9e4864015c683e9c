package pipeline

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/KnowOneActual/image-processor/internal/format"
	"github.com/KnowOneActual/image-processor/pkg/imgutil"
)

// Encode normalizes img for the format resolved from filename and the
// configured override, writes it to w and returns the output file name.
func (p *Pipeline) Encode(w io.Writer, img image.Image, filename string) (string, error) {
	f, name, err := format.Resolve(filename, p.cfg.OutputFormat)
	if err != nil {
		return "", err
	}
	if err := p.encode(w, img, f); err != nil {
		return "", err
	}
	return name, nil
}

func (p *Pipeline) encode(w io.Writer, img image.Image, f format.Format) error {
	if err := format.Encode(w, format.Normalize(img, f), f, p.cfg.Quality); err != nil {
		return fmt.Errorf("encode %s: %w", f, err)
	}
	return nil
}

// ProcessFile decodes src, transforms it and writes the result into outDir.
// The output appears atomically; a failure leaves no partial file behind.
func (p *Pipeline) ProcessFile(src, outDir string, notify Notifier) (string, error) {
	filename := filepath.Base(src)

	// Unknown targets fail before any decoding work.
	f, outName, err := format.Resolve(filename, p.cfg.OutputFormat)
	if err != nil {
		return "", err
	}

	img, err := p.decode(src, notify)
	if err != nil {
		return "", err
	}

	img, err = p.Transform(img, notify)
	if err != nil {
		return "", err
	}

	tmpFile, err := os.CreateTemp(outDir, ".imgproc-*.tmp")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmpFile.Name())

	if err := p.encode(tmpFile, img, f); err != nil {
		_ = tmpFile.Close()
		return "", err
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return "", err
	}
	if err := tmpFile.Close(); err != nil {
		return "", err
	}

	dest := filepath.Join(outDir, outName)
	if err := replaceFile(tmpFile.Name(), dest); err != nil {
		return "", err
	}

	notify.emit(StageSave, "saved %s", dest)
	return dest, nil
}

func (p *Pipeline) decode(src string, notify Notifier) (image.Image, error) {
	file, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if kind, err := imgutil.SniffReader(file); err == nil {
		if declared, ferr := format.FromPath(src); ferr == nil && kind != imgutil.KindUnknown && kind.String() != declared.String() {
			notify.emit(StageDecode, "content is %s but extension says %s", kind, declared)
		}
	}

	orientation := imgutil.OrientNormal
	if p.cfg.AutoOrient {
		o, err := imgutil.ReadOrientation(file)
		if err != nil {
			notify.emit(StageOrient, "orientation unreadable, keeping pixels as stored: %v", err)
		} else {
			orientation = o
		}
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	if orientation != imgutil.OrientNormal {
		img = Orient(img, orientation)
		notify.emit(StageOrient, "applied EXIF orientation %d", orientation)
	}
	return img, nil
}

func replaceFile(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err == nil {
		return nil
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmpPath, destPath)
}
