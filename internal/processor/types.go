package processor

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/KnowOneActual/image-processor/internal/config"
	"github.com/KnowOneActual/image-processor/internal/pipeline"
)

var ErrInputNotFound = errors.New("input directory not found")

// RecognizedExtensions are the lowercase extensions picked up by a scan.
var RecognizedExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"}

type State string

const (
	StateIdle       State = "idle"
	StateScanning   State = "scanning"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateAborted    State = "aborted"
)

type Status string

const (
	StatusProcessed Status = "processed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

type Options struct {
	Input     string
	Output    string
	Transform config.TransformConfig
	// Workers bounds the number of files in flight. Zero means one.
	Workers int
	Logger  *zap.Logger
	// Pipeline overrides the one built from Transform.
	Pipeline *pipeline.Pipeline
}

type Job struct {
	Index int
	Path  string
	Name  string
}

// Outcome is the terminal result for one directory entry.
type Outcome struct {
	File       string `yaml:"file"`
	Status     Status `yaml:"status"`
	OutputPath string `yaml:"output,omitempty"`
	Reason     string `yaml:"reason,omitempty"`
}

type EventKind string

const (
	EventScan      EventKind = "scan"
	EventSkip      EventKind = "skip"
	EventDecode    EventKind = EventKind(pipeline.StageDecode)
	EventOrient    EventKind = EventKind(pipeline.StageOrient)
	EventCrop      EventKind = EventKind(pipeline.StageCrop)
	EventResize    EventKind = EventKind(pipeline.StageResize)
	EventWatermark EventKind = EventKind(pipeline.StageWatermark)
	EventSave      EventKind = EventKind(pipeline.StageSave)
	EventError     EventKind = "error"
	EventDone      EventKind = "done"
)

// Event is one log line for the presentation layer. Scan events carry the
// number of files queued in Total.
type Event struct {
	Kind    EventKind
	File    string
	Message string
	Total   int
}

func (e Event) String() string {
	if e.File == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// Terminal reports whether the event closes out a file.
func (e Event) Terminal() bool {
	switch e.Kind {
	case EventSave, EventError, EventSkip:
		return e.File != ""
	default:
		return false
	}
}

type Report struct {
	RunID     string    `yaml:"run_id"`
	Input     string    `yaml:"input"`
	Output    string    `yaml:"output"`
	State     State     `yaml:"state"`
	Processed int       `yaml:"processed"`
	Skipped   int       `yaml:"skipped"`
	Failed    int       `yaml:"failed"`
	Cancelled bool      `yaml:"cancelled,omitempty"`
	Started   time.Time `yaml:"started"`
	Finished  time.Time `yaml:"finished"`
	Outcomes  []Outcome `yaml:"outcomes"`
}

// Total is the number of directory entries the run accounted for.
func (r Report) Total() int {
	return r.Processed + r.Skipped + r.Failed
}
