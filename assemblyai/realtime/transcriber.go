package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/assemblyai/assemblyai-go-sdk/internal/version"
)

const (
	// DefaultURL is the real-time transcription endpoint.
	DefaultURL = "wss://api.assemblyai.com/v2/realtime/ws"
	// DefaultSampleRate is used when Options.SampleRate is zero.
	DefaultSampleRate = 16000

	maxMessageSize         = 1 << 20
	maxEndUtteranceSilence = 20000
)

var (
	// ErrNotConnected is returned when audio or commands are sent outside an
	// active session.
	ErrNotConnected = errors.New("realtime: not connected")
	// ErrNoAuth is returned by Connect when neither an API key nor a
	// temporary token is set.
	ErrNoAuth = errors.New("realtime: no API key or temporary token configured")

	errClosedBeforeBegin = errors.New("realtime: connection closed before the session began")
)

// Logger is the interface for debug logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
}

// Options configures a Transcriber.
type Options struct {
	// URL is the WebSocket endpoint (default: DefaultURL).
	URL string
	// APIKey authenticates with the Authorization header. Ignored when
	// Token is set.
	APIKey string
	// Token is a temporary token from CreateTemporaryToken, sent as a query
	// parameter. Use it where the API key must not be exposed.
	Token string

	// SampleRate of the audio in Hz (default: 16000).
	SampleRate int
	// Encoding of the audio (default: pcm_s16le, chosen by the server).
	Encoding AudioEncoding
	// WordBoost lists words the model should favour.
	WordBoost []string
	// DisablePartialTranscripts turns off PartialTranscript messages.
	DisablePartialTranscripts bool
	// EnableExtraSessionInformation asks for a SessionInformation message
	// before the session terminates.
	EnableExtraSessionInformation bool

	// HTTPClient is used for the WebSocket handshake.
	HTTPClient *http.Client
	Logger     Logger
}

// session is the state of one connection.
type session struct {
	conn       *websocket.Conn
	cancel     context.CancelFunc
	done       chan struct{}
	begun      chan error
	beginOnce  sync.Once
	terminated chan struct{}
	termOnce   sync.Once
	closing    atomic.Bool
}

func (s *session) resolveBegin(err error) {
	s.beginOnce.Do(func() { s.begun <- err })
}

// Transcriber streams audio over a single real-time session. Handlers run on
// the read goroutine in the order messages arrive; a slow handler delays the
// ones after it.
type Transcriber struct {
	opts Options

	mu      sync.RWMutex
	state   ConnectionState
	sess    *session
	begins  SessionBegins
	lastErr error

	beginHandlers   []func(SessionBegins)
	partialHandlers []func(PartialTranscript)
	finalHandlers   []func(FinalTranscript)
	infoHandlers    []func(SessionInformation)
	errorHandlers   []func(error)
	closeHandlers   []func(code int, reason string)
	stateHandlers   []func(ConnectionState)
}

// NewTranscriber creates a Transcriber. Nothing is dialled until Connect.
func NewTranscriber(opts Options) *Transcriber {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.SampleRate == 0 {
		opts.SampleRate = DefaultSampleRate
	}
	return &Transcriber{opts: opts, state: StateDisconnected}
}

// Connect dials the endpoint and blocks until the server sends
// SessionBegins. If the server rejects the session the returned error is a
// *CloseError or *SessionError.
func (t *Transcriber) Connect(ctx context.Context) error {
	if t.opts.APIKey == "" && t.opts.Token == "" {
		return ErrNoAuth
	}
	if t.opts.SampleRate < 0 {
		return fmt.Errorf("realtime: sample rate must be positive, got %d", t.opts.SampleRate)
	}

	t.mu.Lock()
	if t.state != StateDisconnected {
		t.mu.Unlock()
		return nil
	}
	t.lastErr = nil
	notify := t.setStateLocked(StateConnecting)
	t.mu.Unlock()
	notify()

	wsURL, err := t.buildURL()
	if err != nil {
		t.markDisconnected(nil)
		return err
	}

	t.log("connecting", "url", t.opts.URL, "sample_rate", t.opts.SampleRate)
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPClient: t.opts.HTTPClient,
		HTTPHeader: t.headers(),
	})
	if err != nil {
		t.markDisconnected(nil)
		return fmt.Errorf("realtime: dial: %w", err)
	}
	conn.SetReadLimit(maxMessageSize)

	readCtx, cancel := context.WithCancel(context.Background())
	s := &session{
		conn:       conn,
		cancel:     cancel,
		done:       make(chan struct{}),
		begun:      make(chan error, 1),
		terminated: make(chan struct{}),
	}
	t.mu.Lock()
	t.sess = s
	t.mu.Unlock()

	go t.readLoop(readCtx, s)

	select {
	case err := <-s.begun:
		return err
	case <-ctx.Done():
		s.closing.Store(true)
		_ = conn.Close(websocket.StatusNormalClosure, "")
		<-s.done
		cancel()
		return ctx.Err()
	}
}

// SendAudio sends one chunk of raw audio in the session's encoding.
func (t *Transcriber) SendAudio(ctx context.Context, audio []byte) error {
	s, err := t.active()
	if err != nil {
		return err
	}
	if err := s.conn.Write(ctx, websocket.MessageBinary, audio); err != nil {
		return fmt.Errorf("realtime: send audio: %w", err)
	}
	return nil
}

// ForceEndUtterance makes the server finalize the current utterance now.
func (t *Transcriber) ForceEndUtterance(ctx context.Context) error {
	return t.sendJSON(ctx, forceEndUtterance{ForceEndUtterance: true})
}

// ConfigureEndUtteranceSilenceThreshold sets how many milliseconds of
// silence end an utterance, between 0 and 20000.
func (t *Transcriber) ConfigureEndUtteranceSilenceThreshold(ctx context.Context, ms int) error {
	if ms < 0 || ms > maxEndUtteranceSilence {
		return fmt.Errorf("realtime: end utterance silence threshold must be between 0 and %d ms, got %d", maxEndUtteranceSilence, ms)
	}
	return t.sendJSON(ctx, endUtteranceSilenceThreshold{EndUtteranceSilenceThreshold: ms})
}

// Close asks the server to terminate the session, waits for
// SessionTerminated (or ctx) and closes the connection. Transcripts for
// audio already sent are delivered before Close returns.
func (t *Transcriber) Close(ctx context.Context) error {
	t.mu.Lock()
	s := t.sess
	if s == nil {
		t.mu.Unlock()
		return nil
	}
	notify := t.setStateLocked(StateClosing)
	t.mu.Unlock()
	notify()

	s.closing.Store(true)
	defer s.cancel()

	if err := wsjson.Write(ctx, s.conn, terminateSession{TerminateSession: true}); err != nil {
		_ = s.conn.Close(websocket.StatusNormalClosure, "")
		<-s.done
		return fmt.Errorf("realtime: terminate session: %w", err)
	}

	terminated := false
	select {
	case <-s.terminated:
		terminated = true
	case <-s.done:
	case <-ctx.Done():
		_ = s.conn.Close(websocket.StatusNormalClosure, "")
		<-s.done
		return ctx.Err()
	}

	closeErr := s.conn.Close(websocket.StatusNormalClosure, "")
	<-s.done

	if terminated {
		return nil
	}
	if err := t.Err(); err != nil {
		return err
	}
	if closeErr != nil && websocket.CloseStatus(closeErr) != websocket.StatusNormalClosure {
		return fmt.Errorf("realtime: close: %w", closeErr)
	}
	return nil
}

// State returns the current connection state.
func (t *Transcriber) State() ConnectionState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Session returns the SessionBegins message of the current or last session.
func (t *Transcriber) Session() SessionBegins {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.begins
}

// Err returns the error that ended the last session, or nil if it ended
// normally.
func (t *Transcriber) Err() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastErr
}

// OnSessionBegins registers a handler for the start of a session.
func (t *Transcriber) OnSessionBegins(handler func(SessionBegins)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.beginHandlers = append(t.beginHandlers, handler)
}

// OnPartialTranscript registers a handler for interim transcripts.
func (t *Transcriber) OnPartialTranscript(handler func(PartialTranscript)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.partialHandlers = append(t.partialHandlers, handler)
}

// OnFinalTranscript registers a handler for finalized utterances.
func (t *Transcriber) OnFinalTranscript(handler func(FinalTranscript)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finalHandlers = append(t.finalHandlers, handler)
}

// OnSessionInformation registers a handler for session information.
func (t *Transcriber) OnSessionInformation(handler func(SessionInformation)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.infoHandlers = append(t.infoHandlers, handler)
}

// OnError registers a handler for server error messages and abnormal
// closes of an established session.
func (t *Transcriber) OnError(handler func(error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errorHandlers = append(t.errorHandlers, handler)
}

// OnClose registers a handler called once the connection is gone. code is
// -1 when the connection dropped without a close frame.
func (t *Transcriber) OnClose(handler func(code int, reason string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeHandlers = append(t.closeHandlers, handler)
}

// OnStateChange registers a handler for state changes.
func (t *Transcriber) OnStateChange(handler func(ConnectionState)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stateHandlers = append(t.stateHandlers, handler)
}

func (t *Transcriber) readLoop(ctx context.Context, s *session) {
	defer close(s.done)

	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			t.finish(s, err)
			return
		}
		t.handleMessage(s, data)
	}
}

func (t *Transcriber) handleMessage(s *session, data []byte) {
	var msg serverMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.log("unparseable message", "error", err)
		return
	}

	if msg.Error != "" {
		err := &SessionError{Message: msg.Error}
		t.log("server error", "error", msg.Error)
		s.resolveBegin(err)
		t.dispatchError(err)
		return
	}

	switch msg.MessageType {
	case MessageSessionBegins:
		var begins SessionBegins
		if !t.decode(data, &begins) {
			return
		}
		t.mu.Lock()
		t.begins = begins
		notify := t.setStateLocked(StateConnected)
		handlers := t.beginHandlers
		t.mu.Unlock()
		notify()
		t.log("session began", "session_id", begins.SessionID, "expires_at", begins.ExpiresAt)
		s.resolveBegin(nil)
		for _, h := range handlers {
			t.safely("session begins", func() { h(begins) })
		}

	case MessagePartialTranscript:
		var partial PartialTranscript
		if !t.decode(data, &partial) {
			return
		}
		t.mu.RLock()
		handlers := t.partialHandlers
		t.mu.RUnlock()
		for _, h := range handlers {
			t.safely("partial transcript", func() { h(partial) })
		}

	case MessageFinalTranscript:
		var final FinalTranscript
		if !t.decode(data, &final) {
			return
		}
		t.mu.RLock()
		handlers := t.finalHandlers
		t.mu.RUnlock()
		for _, h := range handlers {
			t.safely("final transcript", func() { h(final) })
		}

	case MessageSessionInformation:
		var info SessionInformation
		if !t.decode(data, &info) {
			return
		}
		t.mu.RLock()
		handlers := t.infoHandlers
		t.mu.RUnlock()
		for _, h := range handlers {
			t.safely("session information", func() { h(info) })
		}

	case MessageSessionTerminated:
		t.log("session terminated")
		s.termOnce.Do(func() { close(s.terminated) })

	default:
		t.log("unknown message type", "message_type", msg.MessageType)
	}
}

// finish records how the connection ended and notifies handlers.
func (t *Transcriber) finish(s *session, readErr error) {
	code := int(websocket.CloseStatus(readErr))
	reason := ""
	var wsErr websocket.CloseError
	if errors.As(readErr, &wsErr) {
		reason = wsErr.Reason
	}

	var err error
	switch {
	case code == int(websocket.StatusNormalClosure):
	case s.closing.Load() && code < 4000:
	case code != -1:
		err = newCloseError(code, reason)
	case !s.closing.Load():
		err = fmt.Errorf("realtime: read: %w", readErr)
	}

	t.log("connection closed", "code", code, "reason", reason)
	t.markDisconnected(err)

	began := true
	s.beginOnce.Do(func() {
		began = false
		if err == nil {
			s.begun <- errClosedBeforeBegin
		} else {
			s.begun <- err
		}
	})
	if err != nil && began {
		t.dispatchError(err)
	}

	t.mu.RLock()
	handlers := t.closeHandlers
	t.mu.RUnlock()
	for _, h := range handlers {
		t.safely("close", func() { h(code, reason) })
	}
}

func (t *Transcriber) markDisconnected(err error) {
	t.mu.Lock()
	t.sess = nil
	if err != nil {
		t.lastErr = err
	}
	notify := t.setStateLocked(StateDisconnected)
	t.mu.Unlock()
	notify()
}

func (t *Transcriber) active() (*session, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.sess == nil || t.state != StateConnected {
		return nil, ErrNotConnected
	}
	return t.sess, nil
}

func (t *Transcriber) sendJSON(ctx context.Context, v any) error {
	s, err := t.active()
	if err != nil {
		return err
	}
	if err := wsjson.Write(ctx, s.conn, v); err != nil {
		return fmt.Errorf("realtime: send: %w", err)
	}
	return nil
}

func (t *Transcriber) buildURL() (string, error) {
	u, err := url.Parse(t.opts.URL)
	if err != nil {
		return "", fmt.Errorf("realtime: parse url: %w", err)
	}

	q := u.Query()
	q.Set("sample_rate", strconv.Itoa(t.opts.SampleRate))
	if t.opts.Encoding != "" {
		q.Set("encoding", string(t.opts.Encoding))
	}
	if len(t.opts.WordBoost) > 0 {
		boost, err := json.Marshal(t.opts.WordBoost)
		if err != nil {
			return "", fmt.Errorf("realtime: encode word boost: %w", err)
		}
		q.Set("word_boost", string(boost))
	}
	if t.opts.DisablePartialTranscripts {
		q.Set("disable_partial_transcripts", "true")
	}
	if t.opts.EnableExtraSessionInformation {
		q.Set("enable_extra_session_information", "true")
	}
	if t.opts.Token != "" {
		q.Set("token", t.opts.Token)
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (t *Transcriber) headers() http.Header {
	h := http.Header{}
	h.Set("User-Agent", version.UserAgent())
	if t.opts.Token == "" {
		h.Set("Authorization", t.opts.APIKey)
	}
	return h
}

func (t *Transcriber) decode(data []byte, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		t.log("malformed message", "error", err)
		return false
	}
	return true
}

func (t *Transcriber) dispatchError(err error) {
	t.mu.RLock()
	handlers := t.errorHandlers
	t.mu.RUnlock()
	for _, h := range handlers {
		t.safely("error", func() { h(err) })
	}
}

// setStateLocked must be called with mu held. The returned func runs the
// state handlers and must be called after mu is released.
func (t *Transcriber) setStateLocked(state ConnectionState) func() {
	if t.state == state {
		return func() {}
	}
	t.state = state
	handlers := make([]func(ConnectionState), len(t.stateHandlers))
	copy(handlers, t.stateHandlers)
	return func() {
		for _, h := range handlers {
			t.safely("state change", func() { h(state) })
		}
	}
}

func (t *Transcriber) safely(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			t.log("handler panic", "handler", name, "panic", r)
		}
	}()
	fn()
}

func (t *Transcriber) log(msg string, keysAndValues ...any) {
	if t.opts.Logger != nil {
		t.opts.Logger.Debug("realtime: "+msg, keysAndValues...)
	}
}
