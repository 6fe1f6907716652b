package realtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const testSessionID = "5b0f5d3b-3c1a-4a4e-9a39-6a2b1b8cfe0d"

type handshake struct {
	query         url.Values
	authorization string
}

// newSessionServer serves one scripted session per connection and reports
// each handshake on the returned channel.
func newSessionServer(t *testing.T, script func(ctx context.Context, t *testing.T, conn *websocket.Conn)) (string, <-chan handshake) {
	t.Helper()
	handshakes := make(chan handshake, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handshakes <- handshake{query: r.URL.Query(), authorization: r.Header.Get("Authorization")}
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept: %v", err)
			return
		}
		defer conn.Close(websocket.StatusInternalError, "script ended")
		script(r.Context(), t, conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http"), handshakes
}

func beginSession(ctx context.Context, t *testing.T, conn *websocket.Conn) {
	t.Helper()
	err := wsjson.Write(ctx, conn, map[string]any{
		"message_type": "SessionBegins",
		"session_id":   testSessionID,
		"expires_at":   "2024-03-01T10:05:00.123456",
	})
	if err != nil {
		t.Errorf("write SessionBegins: %v", err)
	}
}

// expectCommand reads the next text frame and checks it carries key.
func expectCommand(ctx context.Context, t *testing.T, conn *websocket.Conn, key string) map[string]any {
	t.Helper()
	var cmd map[string]any
	if err := wsjson.Read(ctx, conn, &cmd); err != nil {
		t.Errorf("read %s: %v", key, err)
		return nil
	}
	if _, ok := cmd[key]; !ok {
		t.Errorf("command = %v, want key %s", cmd, key)
	}
	return cmd
}

func terminate(ctx context.Context, t *testing.T, conn *websocket.Conn) {
	t.Helper()
	expectCommand(ctx, t, conn, "terminate_session")
	if err := wsjson.Write(ctx, conn, map[string]string{"message_type": "SessionTerminated"}); err != nil {
		t.Errorf("write SessionTerminated: %v", err)
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

func TestTranscriber_Session(t *testing.T) {
	wsURL, handshakes := newSessionServer(t, func(ctx context.Context, t *testing.T, conn *websocket.Conn) {
		beginSession(ctx, t, conn)

		typ, data, err := conn.Read(ctx)
		if err != nil {
			t.Errorf("read audio: %v", err)
			return
		}
		if typ != websocket.MessageBinary || string(data) != "pcm-chunk" {
			t.Errorf("audio frame = %v %q", typ, data)
		}

		wsjson.Write(ctx, conn, map[string]any{
			"message_type": "PartialTranscript",
			"audio_start":  0, "audio_end": 1500, "confidence": 0.8,
			"text": "smoke from", "words": []any{}, "created": "2024-03-01T10:00:01.000001",
		})
		wsjson.Write(ctx, conn, map[string]any{
			"message_type": "FinalTranscript",
			"audio_start":  0, "audio_end": 1500, "confidence": 0.95,
			"text": "Smoke from wildfires.", "punctuated": true, "text_formatted": true,
			"words": []map[string]any{{"start": 0, "end": 400, "confidence": 0.97, "text": "Smoke"}},
		})

		if cmd := expectCommand(ctx, t, conn, "end_utterance_silence_threshold"); cmd != nil {
			if cmd["end_utterance_silence_threshold"] != float64(300) {
				t.Errorf("threshold = %v, want 300", cmd["end_utterance_silence_threshold"])
			}
		}
		expectCommand(ctx, t, conn, "force_end_utterance")
		wsjson.Write(ctx, conn, map[string]any{"message_type": "SessionInformation", "audio_duration_seconds": 1.5})
		terminate(ctx, t, conn)
	})

	tr := NewTranscriber(Options{
		URL:                           wsURL,
		APIKey:                        "test-key",
		SampleRate:                    8000,
		Encoding:                      EncodingPCMMulaw,
		WordBoost:                     []string{"wildfires", "air quality"},
		EnableExtraSessionInformation: true,
	})

	var (
		mu       sync.Mutex
		partials []PartialTranscript
		finals   []FinalTranscript
		infos    []SessionInformation
		states   []ConnectionState
		closes   []int
	)
	tr.OnPartialTranscript(func(p PartialTranscript) { mu.Lock(); partials = append(partials, p); mu.Unlock() })
	tr.OnFinalTranscript(func(f FinalTranscript) { mu.Lock(); finals = append(finals, f); mu.Unlock() })
	tr.OnSessionInformation(func(i SessionInformation) { mu.Lock(); infos = append(infos, i); mu.Unlock() })
	tr.OnStateChange(func(s ConnectionState) { mu.Lock(); states = append(states, s); mu.Unlock() })
	tr.OnClose(func(code int, _ string) { mu.Lock(); closes = append(closes, code); mu.Unlock() })
	tr.OnError(func(err error) { t.Errorf("unexpected error: %v", err) })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := tr.Connect(ctx); err != nil {
		t.Fatalf("Connect error: %v", err)
	}
	if got := tr.Session().SessionID.String(); got != testSessionID {
		t.Errorf("SessionID = %s", got)
	}
	if exp, err := tr.Session().Expires(); err != nil || exp.Minute() != 5 {
		t.Errorf("Expires() = %v, %v", exp, err)
	}

	hs := <-handshakes
	if hs.authorization != "test-key" {
		t.Errorf("Authorization = %q, want raw API key", hs.authorization)
	}
	if hs.query.Get("sample_rate") != "8000" || hs.query.Get("encoding") != "pcm_mulaw" {
		t.Errorf("query = %v", hs.query)
	}
	if hs.query.Get("word_boost") != `["wildfires","air quality"]` {
		t.Errorf("word_boost = %q", hs.query.Get("word_boost"))
	}
	if hs.query.Has("token") {
		t.Error("token should not be sent with API key auth")
	}

	if err := tr.SendAudio(ctx, []byte("pcm-chunk")); err != nil {
		t.Fatalf("SendAudio error: %v", err)
	}
	if err := tr.ConfigureEndUtteranceSilenceThreshold(ctx, 300); err != nil {
		t.Fatalf("ConfigureEndUtteranceSilenceThreshold error: %v", err)
	}
	if err := tr.ForceEndUtterance(ctx); err != nil {
		t.Fatalf("ForceEndUtterance error: %v", err)
	}
	if err := tr.Close(ctx); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(partials) != 1 || partials[0].Text != "smoke from" {
		t.Errorf("partials = %+v", partials)
	}
	if len(finals) != 1 || finals[0].Text != "Smoke from wildfires." || !finals[0].Punctuated || len(finals[0].Words) != 1 {
		t.Errorf("finals = %+v", finals)
	}
	if len(infos) != 1 || infos[0].AudioDurationSeconds != 1.5 {
		t.Errorf("infos = %+v", infos)
	}
	wantStates := []ConnectionState{StateConnecting, StateConnected, StateClosing, StateDisconnected}
	if strings.Join(stateNames(states), ",") != strings.Join(stateNames(wantStates), ",") {
		t.Errorf("states = %v, want %v", states, wantStates)
	}
	if len(closes) != 1 {
		t.Errorf("close codes = %v", closes)
	}
	if tr.State() != StateDisconnected || tr.Err() != nil {
		t.Errorf("after Close: state %s, err %v", tr.State(), tr.Err())
	}
}

func TestTranscriber_TemporaryToken(t *testing.T) {
	wsURL, handshakes := newSessionServer(t, func(ctx context.Context, t *testing.T, conn *websocket.Conn) {
		beginSession(ctx, t, conn)
		terminate(ctx, t, conn)
	})

	tr := NewTranscriber(Options{URL: wsURL, Token: "tmp-token", APIKey: "ignored"})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := tr.Connect(ctx); err != nil {
		t.Fatalf("Connect error: %v", err)
	}
	hs := <-handshakes
	if hs.query.Get("token") != "tmp-token" {
		t.Errorf("token = %q", hs.query.Get("token"))
	}
	if hs.query.Get("sample_rate") != "16000" {
		t.Errorf("sample_rate = %q, want default 16000", hs.query.Get("sample_rate"))
	}
	if hs.authorization != "" {
		t.Errorf("Authorization = %q, want none with a token", hs.authorization)
	}
	if err := tr.Close(ctx); err != nil {
		t.Fatalf("Close error: %v", err)
	}
}

func TestTranscriber_RejectedSession(t *testing.T) {
	tests := []struct {
		name       string
		reason     string
		wantReason string
	}{
		{"server reason", "Not authorized", "Not authorized"},
		{"documented reason", "", "not authorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wsURL, _ := newSessionServer(t, func(ctx context.Context, t *testing.T, conn *websocket.Conn) {
				conn.Close(websocket.StatusCode(4001), tt.reason)
			})

			tr := NewTranscriber(Options{URL: wsURL, APIKey: "bad-key"})
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			err := tr.Connect(ctx)
			var closeErr *CloseError
			if !errors.As(err, &closeErr) {
				t.Fatalf("Expected CloseError, got %v", err)
			}
			if closeErr.Code != 4001 || closeErr.Reason != tt.wantReason {
				t.Errorf("CloseError = %+v", closeErr)
			}
			if tr.State() != StateDisconnected {
				t.Errorf("State = %s", tr.State())
			}
		})
	}
}

func TestTranscriber_ServerErrorMessage(t *testing.T) {
	wsURL, _ := newSessionServer(t, func(ctx context.Context, t *testing.T, conn *websocket.Conn) {
		beginSession(ctx, t, conn)
		wsjson.Write(ctx, conn, map[string]string{"error": "Audio duration is too short"})
		conn.Close(websocket.StatusCode(4032), "")
	})

	tr := NewTranscriber(Options{URL: wsURL, APIKey: "test-key"})
	errs := make(chan error, 4)
	tr.OnError(func(err error) { errs <- err })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tr.Connect(ctx); err != nil {
		t.Fatalf("Connect error: %v", err)
	}

	var sessionErr *SessionError
	select {
	case err := <-errs:
		if !errors.As(err, &sessionErr) || sessionErr.Message != "Audio duration is too short" {
			t.Errorf("first error = %v", err)
		}
	case <-ctx.Done():
		t.Fatal("no SessionError delivered")
	}

	var closeErr *CloseError
	select {
	case err := <-errs:
		if !errors.As(err, &closeErr) || closeErr.Code != 4032 || closeErr.Reason != "audio too short" {
			t.Errorf("second error = %v", err)
		}
	case <-ctx.Done():
		t.Fatal("no CloseError delivered")
	}
}

func TestTranscriber_NotConnected(t *testing.T) {
	ctx := context.Background()
	tr := NewTranscriber(Options{APIKey: "test-key"})

	if err := tr.SendAudio(ctx, []byte("x")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("SendAudio() = %v, want ErrNotConnected", err)
	}
	if err := tr.ForceEndUtterance(ctx); !errors.Is(err, ErrNotConnected) {
		t.Errorf("ForceEndUtterance() = %v, want ErrNotConnected", err)
	}
	if err := tr.Close(ctx); err != nil {
		t.Errorf("Close() on idle transcriber = %v", err)
	}
	if err := tr.ConfigureEndUtteranceSilenceThreshold(ctx, 20001); err == nil || errors.Is(err, ErrNotConnected) {
		t.Errorf("out of range threshold = %v, want range error", err)
	}
	if err := NewTranscriber(Options{}).Connect(ctx); !errors.Is(err, ErrNoAuth) {
		t.Errorf("Connect() without auth = %v, want ErrNoAuth", err)
	}
}

func TestTranscriber_BuildURL(t *testing.T) {
	tr := NewTranscriber(Options{
		URL:                       "wss://api.assemblyai.com/v2/realtime/ws",
		APIKey:                    "k",
		DisablePartialTranscripts: true,
	})
	raw, err := tr.buildURL()
	if err != nil {
		t.Fatalf("buildURL() error = %v", err)
	}
	for _, want := range []string{"sample_rate=16000", "disable_partial_transcripts=true"} {
		if !strings.Contains(raw, want) {
			t.Errorf("buildURL() = %q, want to contain %q", raw, want)
		}
	}
	for _, unwanted := range []string{"encoding=", "word_boost=", "token="} {
		if strings.Contains(raw, unwanted) {
			t.Errorf("buildURL() = %q, should not contain %q", raw, unwanted)
		}
	}
}

func stateNames(states []ConnectionState) []string {
	names := make([]string, len(states))
	for i, s := range states {
		names[i] = string(s)
	}
	return names
}
