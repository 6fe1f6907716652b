package batch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/assemblyai/assemblyai-go-sdk/assemblyai/resources"
)

// Transcriber submits items and waits for their transcripts, at most
// Concurrency at a time. Each item is polled independently with its own
// timeout.
type Transcriber struct {
	transcripts *resources.TranscriptsResource
	opts        Options

	inFlight      atomic.Int32
	mu            sync.RWMutex
	eventHandlers []EventHandler
}

// NewTranscriber creates a batch transcriber over transcripts.
func NewTranscriber(transcripts *resources.TranscriptsResource, opts Options) *Transcriber {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultOptions().Concurrency
	}
	return &Transcriber{transcripts: transcripts, opts: opts}
}

// OnEvent registers an event handler. Handlers may be called from several
// goroutines at once.
func (b *Transcriber) OnEvent(handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.eventHandlers = append(b.eventHandlers, handler)
}

// InFlight returns the number of items currently being processed.
func (b *Transcriber) InFlight() int {
	return int(b.inFlight.Load())
}

// Run transcribes items and returns one Result per item in input order.
// Items not yet started when ctx is cancelled get ctx.Err() and are never
// read; their DisposeAfterRead streams are still closed.
func (b *Transcriber) Run(ctx context.Context, items []Item) []Result {
	results := make([]Result, len(items))
	slots := make(chan struct{}, b.opts.Concurrency)
	var wg sync.WaitGroup

	for i, item := range items {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}

		if err := ctx.Err(); err != nil {
			results[i] = b.skip(item, err)
			continue
		}
		select {
		case slots <- struct{}{}:
		case <-ctx.Done():
			results[i] = b.skip(item, ctx.Err())
			continue
		}

		wg.Add(1)
		go func(i int, item Item) {
			defer wg.Done()
			defer func() { <-slots }()
			results[i] = b.process(ctx, item)
		}(i, item)
	}

	wg.Wait()
	return results
}

// skip releases an item that will not be submitted.
func (b *Transcriber) skip(item Item, err error) Result {
	if closeErr := resources.DisposeSource(item.Source); closeErr != nil {
		b.log("closing skipped item", "item", item.ID, "error", closeErr)
	}
	return Result{ItemID: item.ID, Err: err}
}

func (b *Transcriber) process(ctx context.Context, item Item) Result {
	b.inFlight.Add(1)
	defer b.inFlight.Add(-1)

	start := time.Now()
	result := Result{ItemID: item.ID}

	submitted, err := b.transcripts.Submit(ctx, item.Source, item.Params)
	if err != nil {
		return b.fail(result, "", err, start)
	}
	result.Transcript = submitted
	b.log("item submitted", "item", item.ID, "transcript", submitted.ID)
	b.emit(Event{
		Type:      EventItemSubmitted,
		Timestamp: time.Now(),
		Data:      ItemSubmittedData{ItemID: item.ID, TranscriptID: submitted.ID},
	})

	done, err := b.transcripts.WaitUntilReady(ctx, submitted.ID, b.opts.Poll)
	if err != nil {
		return b.fail(result, submitted.ID, err, start)
	}
	result.Transcript = done

	if done.Status == resources.TranscriptStatusError {
		reason := "unknown error"
		if done.Error != nil {
			reason = *done.Error
		}
		return b.fail(result, done.ID, fmt.Errorf("%w: %s: %s", ErrTranscriptFailed, done.ID, reason), start)
	}

	result.Duration = time.Since(start)
	b.emit(Event{
		Type:      EventItemCompleted,
		Timestamp: time.Now(),
		Data:      ItemCompletedData{ItemID: item.ID, TranscriptID: done.ID, Duration: result.Duration},
	})
	b.log("item completed", "item", item.ID, "transcript", done.ID, "duration", result.Duration)
	return result
}

func (b *Transcriber) fail(result Result, transcriptID string, err error, start time.Time) Result {
	result.Err = err
	result.Duration = time.Since(start)
	b.emit(Event{
		Type:      EventItemFailed,
		Timestamp: time.Now(),
		Data: ItemFailedData{
			ItemID:       result.ItemID,
			TranscriptID: transcriptID,
			Error:        err,
			Duration:     result.Duration,
		},
	})
	b.log("item failed", "item", result.ItemID, "transcript", transcriptID, "error", err)
	return result
}

func (b *Transcriber) emit(event Event) {
	b.mu.RLock()
	handlers := b.eventHandlers
	b.mu.RUnlock()

	for _, handler := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.log("event handler panic", "event", event.Type, "panic", r)
				}
			}()
			handler(event)
		}()
	}
}

func (b *Transcriber) log(msg string, keysAndValues ...any) {
	if b.opts.Logger != nil {
		b.opts.Logger.Debug("batch: "+msg, keysAndValues...)
	}
}
