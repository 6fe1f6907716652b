package batch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/assemblyai/assemblyai-go-sdk/assemblyai/resources"
	"github.com/assemblyai/assemblyai-go-sdk/internal/httpx"
	"github.com/assemblyai/assemblyai-go-sdk/internal/testutil"
)

func newTestTranscripts(t *testing.T) (*testutil.MockServer, *resources.TranscriptsResource) {
	t.Helper()
	ms := testutil.NewMockServer(t)
	base := resources.NewBase(httpx.NewTransport(httpx.Config{BaseURL: ms.URL, APIKey: "test-key"}))
	poll := resources.PollOptions{Interval: 5 * time.Millisecond}
	return ms, resources.NewTranscriptsResource(base, resources.NewFilesResource(base), poll)
}

// routeByAudioURL creates transcripts whose ID is looked up from the
// submitted audio_url.
func routeByAudioURL(ms *testutil.MockServer, ids map[string]string) {
	ms.Handle(http.MethodPost, "/v2/transcript", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			AudioURL string `json:"audio_url"`
		}
		json.NewDecoder(r.Body).Decode(&body)

		w.Header().Set("Content-Type", "application/json")
		id, ok := ids[body.AudioURL]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Invalid audio URL"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": id, "status": "queued", "audio_url": body.AudioURL})
	})
}

func TestTranscriber_Run(t *testing.T) {
	ms, transcripts := newTestTranscripts(t)
	routeByAudioURL(ms, map[string]string{
		"https://example.com/a.mp3": "ta",
		"https://example.com/b.mp3": "tb",
	})
	ms.HandleSequence(http.MethodGet, "/v2/transcript/ta",
		map[string]any{"id": "ta", "status": "processing"},
		map[string]any{"id": "ta", "status": "completed", "text": "First file."},
	)
	ms.HandleJSON(http.MethodGet, "/v2/transcript/tb", http.StatusOK, map[string]any{
		"id": "tb", "status": "error", "error": "Download error, unable to download https://example.com/b.mp3",
	})

	b := NewTranscriber(transcripts, Options{Concurrency: 2})

	var mu sync.Mutex
	counts := map[EventType]int{}
	b.OnEvent(func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		counts[e.Type]++
		if n := b.InFlight(); n > 2 {
			t.Errorf("InFlight = %d, want at most 2", n)
		}
	})

	results := b.Run(context.Background(), []Item{
		{ID: "first", Source: resources.RemoteURL{URL: "https://example.com/a.mp3"}},
		{Source: resources.RemoteURL{URL: "https://example.com/b.mp3"}},
		{ID: "third", Source: resources.RemoteURL{URL: "https://example.com/missing.mp3"}},
	})

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}

	first := results[0]
	if first.ItemID != "first" || first.Err != nil {
		t.Errorf("results[0] = %+v", first)
	}
	if first.Transcript == nil || first.Transcript.Text == nil || *first.Transcript.Text != "First file." {
		t.Errorf("results[0].Transcript = %+v", first.Transcript)
	}

	second := results[1]
	if _, err := uuid.Parse(second.ItemID); err != nil {
		t.Errorf("results[1].ItemID = %q, want a generated UUID", second.ItemID)
	}
	if !errors.Is(second.Err, ErrTranscriptFailed) {
		t.Errorf("results[1].Err = %v, want ErrTranscriptFailed", second.Err)
	}
	if second.Transcript == nil || second.Transcript.ID != "tb" {
		t.Errorf("results[1].Transcript = %+v", second.Transcript)
	}

	third := results[2]
	if !httpx.IsValidationError(third.Err) {
		t.Errorf("results[2].Err = %v, want ValidationError", third.Err)
	}
	if third.Transcript != nil {
		t.Errorf("results[2].Transcript = %+v, want nil", third.Transcript)
	}

	mu.Lock()
	defer mu.Unlock()
	if counts[EventItemSubmitted] != 2 || counts[EventItemCompleted] != 1 || counts[EventItemFailed] != 2 {
		t.Errorf("event counts = %v", counts)
	}
	if b.InFlight() != 0 {
		t.Errorf("InFlight after Run = %d", b.InFlight())
	}
}

func TestTranscriber_PollTimeout(t *testing.T) {
	ms, transcripts := newTestTranscripts(t)
	routeByAudioURL(ms, map[string]string{"https://example.com/slow.mp3": "slow"})
	ms.HandleJSON(http.MethodGet, "/v2/transcript/slow", http.StatusOK, map[string]any{"id": "slow", "status": "processing"})

	b := NewTranscriber(transcripts, Options{
		Poll: &resources.PollOptions{Interval: 10 * time.Millisecond, Timeout: 50 * time.Millisecond},
	})
	results := b.Run(context.Background(), []Item{{Source: resources.RemoteURL{URL: "https://example.com/slow.mp3"}}})

	if !errors.Is(results[0].Err, resources.ErrPollingTimeout) {
		t.Fatalf("Err = %v, want polling timeout", results[0].Err)
	}
	if results[0].Transcript == nil || results[0].Transcript.ID != "slow" {
		t.Errorf("Transcript = %+v, want the submitted transcript", results[0].Transcript)
	}
}

func TestTranscriber_CancelledBeforeStart(t *testing.T) {
	ms, transcripts := newTestTranscripts(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	owned := &countingCloser{Reader: strings.NewReader("audio")}
	callerOwned := &countingCloser{Reader: strings.NewReader("audio")}
	results := NewTranscriber(transcripts, DefaultOptions()).Run(ctx, []Item{
		{ID: "a", Source: resources.RemoteURL{URL: "https://example.com/a.mp3"}},
		{ID: "b", Source: resources.Stream{Reader: owned, DisposeAfterRead: true}},
		{ID: "c", Source: resources.Stream{Reader: callerOwned}},
	})

	for _, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("%s: Err = %v, want context.Canceled", r.ItemID, r.Err)
		}
	}
	ms.AssertRequestCount(t, 0)
	if n := owned.closes.Load(); n != 1 {
		t.Errorf("skipped DisposeAfterRead stream closed %d times, want 1", n)
	}
	if n := callerOwned.closes.Load(); n != 0 {
		t.Errorf("skipped caller-owned stream closed %d times, want 0", n)
	}
}

type countingCloser struct {
	io.Reader
	closes atomic.Int32
}

func (c *countingCloser) Close() error {
	c.closes.Add(1)
	return nil
}

func TestNewTranscriber_Defaults(t *testing.T) {
	_, transcripts := newTestTranscripts(t)
	b := NewTranscriber(transcripts, Options{Concurrency: -1})
	if b.opts.Concurrency != 5 {
		t.Errorf("Concurrency = %d, want 5", b.opts.Concurrency)
	}
}
