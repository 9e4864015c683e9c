package processor

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KnowOneActual/image-processor/internal/pipeline"
)

// Run processes every recognized image directly inside opts.Input and writes
// results to opts.Output. Only a missing input directory aborts the run; any
// per-file problem becomes a Failed outcome and the batch continues. When ctx
// is cancelled, files not yet started are reported as skipped.
func Run(ctx context.Context, opts Options, events chan<- Event) (Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	report := Report{
		RunID:   uuid.NewString(),
		Input:   opts.Input,
		Output:  opts.Output,
		State:   StateIdle,
		Started: time.Now(),
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("run_id", report.RunID))

	emit := func(ev Event) {
		if events != nil {
			events <- ev
		}
	}

	report.State = StateScanning
	entries, err := scan(opts.Input)
	if err != nil {
		report.State = StateAborted
		report.Finished = time.Now()
		logger.Error("batch aborted", zap.String("input", opts.Input), zap.Error(err))
		emit(Event{Kind: EventError, Message: err.Error()})
		return report, err
	}

	outcomes := make([]Outcome, len(entries))
	var jobs []Job
	for i, entry := range entries {
		if entry.skipReason != "" {
			outcomes[i] = Outcome{File: entry.name, Status: StatusSkipped, Reason: entry.skipReason}
			logger.Debug("skipping entry", zap.String("file", entry.name), zap.String("reason", entry.skipReason))
			emit(Event{Kind: EventSkip, File: entry.name, Message: "skipped: " + entry.skipReason})
			continue
		}
		jobs = append(jobs, Job{Index: i, Path: entry.path, Name: entry.name})
	}
	emit(Event{
		Kind:    EventScan,
		Message: fmt.Sprintf("found %d image(s) in %d entries", len(jobs), len(entries)),
		Total:   len(entries),
	})

	report.State = StateProcessing
	if err := os.MkdirAll(opts.Output, 0o755); err != nil {
		// Every write will fail and be reported per file.
		logger.Warn("cannot create output directory", zap.String("output", opts.Output), zap.Error(err))
	}

	p := opts.Pipeline
	if p == nil {
		p = pipeline.New(opts.Transform)
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) && len(jobs) > 0 {
		workers = len(jobs)
	}

	jobCh := make(chan Job)
	results := make(chan indexedOutcome)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			worker(ctx, p, opts.Output, logger, jobCh, results, events)
		}()
	}

	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for res := range results {
			outcomes[res.index] = res.outcome
		}
	}()

	go func() {
		defer close(jobCh)
		for _, job := range jobs {
			select {
			case jobCh <- job:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(results)
	<-collectorDone

	for i := range outcomes {
		if outcomes[i].Status == "" {
			report.Cancelled = true
			outcomes[i] = Outcome{File: entries[i].name, Status: StatusSkipped, Reason: "cancelled"}
			emit(Event{Kind: EventSkip, File: entries[i].name, Message: "skipped: cancelled"})
		}
		switch outcomes[i].Status {
		case StatusProcessed:
			report.Processed++
		case StatusSkipped:
			report.Skipped++
		case StatusFailed:
			report.Failed++
		}
	}

	report.Outcomes = outcomes
	report.State = StateCompleted
	report.Finished = time.Now()

	logger.Info("batch completed",
		zap.Int("processed", report.Processed),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Bool("cancelled", report.Cancelled),
		zap.Duration("elapsed", report.Finished.Sub(report.Started)),
	)
	emit(Event{
		Kind:    EventDone,
		Message: fmt.Sprintf("done: %d processed, %d skipped, %d failed", report.Processed, report.Skipped, report.Failed),
	})

	return report, nil
}

type indexedOutcome struct {
	index   int
	outcome Outcome
}

func worker(ctx context.Context, p *pipeline.Pipeline, outDir string, logger *zap.Logger, jobs <-chan Job, results chan<- indexedOutcome, events chan<- Event) {
	for job := range jobs {
		// Cancellation only takes effect between files.
		if ctx.Err() != nil {
			continue
		}
		results <- indexedOutcome{index: job.Index, outcome: ProcessFile(p, job.Path, outDir, logger, events)}
	}
}

// ProcessFile runs one file through p and converts every error, including a
// codec panic, into a Failed outcome.
func ProcessFile(p *pipeline.Pipeline, path, outDir string, logger *zap.Logger, events chan<- Event) (outcome Outcome) {
	name := filepath.Base(path)
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.With(zap.String("file", name))

	emit := func(ev Event) {
		if events != nil {
			events <- ev
		}
	}

	defer func() {
		if r := recover(); r != nil {
			outcome = Outcome{File: name, Status: StatusFailed, Reason: fmt.Sprintf("panic: %v", r)}
			log.Error("file failed", zap.Any("panic", r))
			emit(Event{Kind: EventError, File: name, Message: "could not process: " + outcome.Reason})
		}
	}()

	notify := func(stage pipeline.Stage, msg string) {
		if stage == pipeline.StageSave {
			return
		}
		log.Debug(msg, zap.String("stage", string(stage)))
		emit(Event{Kind: EventKind(stage), File: name, Message: msg})
	}

	dest, err := p.ProcessFile(path, outDir, notify)
	if err != nil {
		log.Warn("file failed", zap.Error(err))
		emit(Event{Kind: EventError, File: name, Message: "could not process: " + err.Error()})
		return Outcome{File: name, Status: StatusFailed, Reason: err.Error()}
	}

	log.Info("file saved", zap.String("output", dest))
	emit(Event{Kind: EventSave, File: name, Message: "saved to " + dest})
	return Outcome{File: name, Status: StatusProcessed, OutputPath: dest}
}

type scanEntry struct {
	name       string
	path       string
	skipReason string
}

func scan(root string) ([]scanEntry, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, root)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInputNotFound, root)
	}

	dirEntries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputNotFound, err)
	}

	entries := make([]scanEntry, 0, len(dirEntries))
	for _, d := range dirEntries {
		full := filepath.Join(root, d.Name())
		entry := scanEntry{name: d.Name(), path: full}

		switch {
		case !isRegular(d, full):
			entry.skipReason = "not a regular file"
		case !Recognized(d.Name()):
			entry.skipReason = "unrecognized extension"
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Recognized reports whether name has one of RecognizedExtensions,
// ignoring case.
func Recognized(name string) bool {
	return slices.Contains(RecognizedExtensions, strings.ToLower(filepath.Ext(name)))
}

func isRegular(d fs.DirEntry, full string) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink != 0 {
		info, err := os.Stat(full)
		return err == nil && info.Mode().IsRegular()
	}
	return false
}
