// Package realtime streams audio to the AssemblyAI real-time transcription
// WebSocket and dispatches the transcripts it returns.
package realtime

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ConnectionState represents the state of a realtime session.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateClosing      ConnectionState = "closing"
)

// AudioEncoding is the encoding of the audio sent with SendAudio.
type AudioEncoding string

const (
	EncodingPCMS16LE AudioEncoding = "pcm_s16le"
	EncodingPCMMulaw AudioEncoding = "pcm_mulaw"
)

// MessageType is the message_type field of a server message.
type MessageType string

const (
	MessageSessionBegins      MessageType = "SessionBegins"
	MessagePartialTranscript  MessageType = "PartialTranscript"
	MessageFinalTranscript    MessageType = "FinalTranscript"
	MessageSessionInformation MessageType = "SessionInformation"
	MessageSessionTerminated  MessageType = "SessionTerminated"
)

// SessionBegins is the first message of every session.
type SessionBegins struct {
	SessionID uuid.UUID `json:"session_id"`
	// ExpiresAt is the server timestamp after which the session is closed.
	ExpiresAt string `json:"expires_at"`
}

// Expires parses ExpiresAt. The server omits the zone; it is UTC.
func (s SessionBegins) Expires() (time.Time, error) {
	return parseServerTime(s.ExpiresAt)
}

// Word is a single word of a realtime transcript. Times are milliseconds
// from the start of the session audio.
type Word struct {
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
	Text       string  `json:"text"`
}

// PartialTranscript is an interim hypothesis for the current utterance.
type PartialTranscript struct {
	AudioStart int     `json:"audio_start"`
	AudioEnd   int     `json:"audio_end"`
	Confidence float64 `json:"confidence"`
	Text       string  `json:"text"`
	Words      []Word  `json:"words"`
	Created    string  `json:"created"`
}

// FinalTranscript is the settled transcript of an utterance.
type FinalTranscript struct {
	PartialTranscript
	Punctuated    bool `json:"punctuated"`
	TextFormatted bool `json:"text_formatted"`
}

// SessionInformation is sent before SessionTerminated when extra session
// information is enabled.
type SessionInformation struct {
	AudioDurationSeconds float64 `json:"audio_duration_seconds"`
}

// SessionError is an error message sent by the server without closing the
// connection.
type SessionError struct {
	Message string
}

func (e *SessionError) Error() string {
	return "realtime: " + e.Message
}

// CloseError is returned when the server closes the session with an
// AssemblyAI close code.
type CloseError struct {
	Code   int
	Reason string
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("realtime: session closed (%d): %s", e.Code, e.Reason)
}

// closeReasons maps AssemblyAI close codes to their documented meaning. The
// server's own reason text wins when present.
var closeReasons = map[int]string{
	1013: "reconnect attempts exhausted",
	4000: "sample rate must be a positive integer",
	4001: "not authorized",
	4002: "insufficient funds",
	4003: "free tier user",
	4004: "nonexistent session id",
	4008: "session expired",
	4010: "closed session",
	4029: "rate limited",
	4030: "unique session violation",
	4031: "session times out",
	4032: "audio too short",
	4033: "audio too long",
	4034: "audio too small to transcode",
	4100: "bad json",
	4101: "bad schema",
	4102: "too many streams",
	4103: "reconnected",
}

func newCloseError(code int, reason string) *CloseError {
	if strings.TrimSpace(reason) == "" {
		reason = closeReasons[code]
	}
	return &CloseError{Code: code, Reason: reason}
}

type serverMessage struct {
	MessageType MessageType `json:"message_type"`
	Error       string      `json:"error"`
}

type terminateSession struct {
	TerminateSession bool `json:"terminate_session"`
}

type forceEndUtterance struct {
	ForceEndUtterance bool `json:"force_end_utterance"`
}

type endUtteranceSilenceThreshold struct {
	EndUtteranceSilenceThreshold int `json:"end_utterance_silence_threshold"`
}

var serverTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

func parseServerTime(s string) (time.Time, error) {
	for _, layout := range serverTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("realtime: unrecognised timestamp %q", s)
}
