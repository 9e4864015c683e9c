package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/KnowOneActual/image-processor/internal/pipeline"
	"github.com/KnowOneActual/image-processor/internal/processor"
)

// DefaultDelay is how long a path must stay quiet before it is processed.
const DefaultDelay = 500 * time.Millisecond

var ErrOutputInsideInput = errors.New("output directory must not be the input directory")

// Watcher transforms images as they appear in a directory.
type Watcher struct {
	input    string
	output   string
	pipeline *pipeline.Pipeline
	logger   *zap.Logger
	delay    time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

type Option func(*Watcher)

func WithDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func New(input, output string, p *pipeline.Pipeline, opts ...Option) (*Watcher, error) {
	if err := CheckDirs(input, output); err != nil {
		return nil, err
	}
	w := &Watcher{
		input:    input,
		output:   output,
		pipeline: p,
		logger:   zap.NewNop(),
		delay:    DefaultDelay,
		pending:  make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// CheckDirs rejects an output directory equal to the input directory, since
// every saved file would be picked up again.
func CheckDirs(input, output string) error {
	in, err := filepath.Abs(input)
	if err != nil {
		return err
	}
	out, err := filepath.Abs(output)
	if err != nil {
		return err
	}
	if filepath.Clean(in) == filepath.Clean(out) {
		return fmt.Errorf("%w: %s", ErrOutputInsideInput, output)
	}
	return nil
}

// Run watches until ctx is done. A scan event is emitted once the directory
// is being watched; after that every handled file produces the same events
// as a batch run.
func (w *Watcher) Run(ctx context.Context, events chan<- processor.Event) error {
	info, err := os.Stat(w.input)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", processor.ErrInputNotFound, w.input)
	}
	if err := os.MkdirAll(w.output, 0o755); err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.input); err != nil {
		return fmt.Errorf("watch %s: %w", w.input, err)
	}
	w.logger.Info("watching folder", zap.String("input", w.input), zap.String("output", w.output))
	emit(events, processor.Event{Kind: processor.EventScan, Message: "watching " + w.input})

	ready := make(chan string, 16)
	defer w.stopPending()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ShouldHandle(ev) {
				w.schedule(ctx, ev.Name, ready)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		case path := <-ready:
			w.handle(path, events)
		}
	}
}

// ShouldHandle reports whether ev announces new content in a recognized
// image. Hidden files are ignored, which also covers in-progress temp files.
func ShouldHandle(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return false
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return processor.Recognized(base)
}

// schedule restarts the quiet period for path.
func (w *Watcher) schedule(ctx context.Context, path string, ready chan<- string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.delay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		select {
		case ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) handle(path string, events chan<- processor.Event) {
	info, err := os.Stat(path)
	if err != nil {
		// Removed before the quiet period ended.
		w.logger.Debug("file vanished", zap.String("file", path), zap.Error(err))
		return
	}
	if !info.Mode().IsRegular() {
		return
	}
	processor.ProcessFile(w.pipeline, path, w.output, w.logger, events)
}

func emit(events chan<- processor.Event, ev processor.Event) {
	if events != nil {
		events <- ev
	}
}
