// Package batch transcribes many audio sources with bounded concurrency.
package batch

import (
	"errors"
	"time"

	"github.com/assemblyai/assemblyai-go-sdk/assemblyai/resources"
)

// ErrTranscriptFailed matches the error of an item whose transcript
// finished with status error.
var ErrTranscriptFailed = errors.New("batch: transcript failed")

// Logger is the interface for debug logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
}

// Options configures a Transcriber.
type Options struct {
	// Concurrency is the maximum number of items in flight (default: 5).
	Concurrency int
	// Poll overrides the transcripts resource's polling defaults.
	Poll *resources.PollOptions
	// Logger is the debug logger.
	Logger Logger
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Concurrency: 5,
	}
}

// Item is one audio source to transcribe.
type Item struct {
	// ID identifies the item in events and results. A random UUID is
	// assigned when empty.
	ID     string
	Source resources.AudioSource
	Params *resources.TranscriptOptionalParams
}

// Result is the outcome of one Item. Transcript is set whenever a
// transcript was created, even if waiting for it failed.
type Result struct {
	ItemID     string
	Transcript *resources.Transcript
	Err        error
	Duration   time.Duration
}

// EventType names a batch event.
type EventType string

const (
	EventItemSubmitted EventType = "item.submitted"
	EventItemCompleted EventType = "item.completed"
	EventItemFailed    EventType = "item.failed"
)

// Event is emitted while a batch runs.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Data      any
}

// ItemSubmittedData is emitted once the transcript has been created.
type ItemSubmittedData struct {
	ItemID       string
	TranscriptID string
}

// ItemCompletedData is emitted when a transcript completes.
type ItemCompletedData struct {
	ItemID       string
	TranscriptID string
	Duration     time.Duration
}

// ItemFailedData is emitted when submitting, waiting or the transcript
// itself fails. TranscriptID is empty if submission failed.
type ItemFailedData struct {
	ItemID       string
	TranscriptID string
	Error        error
	Duration     time.Duration
}

// EventHandler is a callback for batch events.
type EventHandler func(event Event)
