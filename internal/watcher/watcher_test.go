package watcher

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KnowOneActual/image-processor/internal/config"
	"github.com/KnowOneActual/image-processor/internal/pipeline"
	"github.com/KnowOneActual/image-processor/internal/processor"
)

func TestShouldHandle(t *testing.T) {
	cases := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"create png", fsnotify.Event{Name: "/in/a.png", Op: fsnotify.Create}, true},
		{"write jpeg upper", fsnotify.Event{Name: "/in/B.JPG", Op: fsnotify.Write}, true},
		{"remove", fsnotify.Event{Name: "/in/a.png", Op: fsnotify.Remove}, false},
		{"chmod", fsnotify.Event{Name: "/in/a.png", Op: fsnotify.Chmod}, false},
		{"text file", fsnotify.Event{Name: "/in/notes.txt", Op: fsnotify.Create}, false},
		{"hidden temp", fsnotify.Event{Name: "/in/.imgproc-123.tmp", Op: fsnotify.Create}, false},
		{"hidden image", fsnotify.Event{Name: "/in/.a.png", Op: fsnotify.Write}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldHandle(tc.ev))
		})
	}
}

func TestCheckDirs(t *testing.T) {
	dir := t.TempDir()
	err := CheckDirs(dir, dir+string(filepath.Separator))
	require.ErrorIs(t, err, ErrOutputInsideInput)

	require.NoError(t, CheckDirs(dir, filepath.Join(dir, "out")))
}

func TestWatcherProcessesNewFiles(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")

	cfg := config.DefaultTransform()
	cfg.TargetWidth = 20
	w, err := New(in, out, pipeline.New(cfg), WithDelay(50*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan processor.Event, 64)
	runErr := make(chan error, 1)
	go func() { runErr <- w.Run(ctx, events) }()

	waitFor(t, events, processor.EventScan, "")

	// Two writes inside the quiet period are handled once.
	path := filepath.Join(in, "photo.png")
	writePNG(t, path, 40, 20)
	writePNG(t, path, 40, 20)
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.txt"), []byte("hi"), 0o644))

	waitFor(t, events, processor.EventSave, "photo.png")

	select {
	case ev := <-events:
		if ev.Kind == processor.EventSave {
			t.Fatalf("expected a single save, got another: %s", ev)
		}
	case <-time.After(300 * time.Millisecond):
	}

	f, err := os.Open(filepath.Join(out, "photo.png"))
	require.NoError(t, err)
	defer f.Close()
	cfgOut, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 20, cfgOut.Width)
	assert.Equal(t, 10, cfgOut.Height)

	cancel()
	select {
	case err := <-runErr:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherMissingInput(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "missing"), t.TempDir(), pipeline.New(config.DefaultTransform()))
	require.NoError(t, err)

	err = w.Run(context.Background(), nil)
	require.True(t, errors.Is(err, processor.ErrInputNotFound))
}

func waitFor(t *testing.T, events <-chan processor.Event, kind processor.EventKind, file string) processor.Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Kind == kind && (file == "" || ev.File == file) {
				return ev
			}
			if ev.Kind == processor.EventError {
				t.Fatalf("unexpected error event: %s", ev)
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", kind)
		}
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 6), G: uint8(y * 12), B: 90, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}
