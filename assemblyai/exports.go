package assemblyai

import (
	"context"

	"github.com/assemblyai/assemblyai-go-sdk/assemblyai/resources"
)

// Commonly used resource types, re-exported so most programs only import
// this package.
type (
	Transcript               = resources.Transcript
	TranscriptStatus         = resources.TranscriptStatus
	TranscriptParams         = resources.TranscriptParams
	TranscriptOptionalParams = resources.TranscriptOptionalParams
	ListTranscriptParams     = resources.ListTranscriptParams
	SubtitleFormat           = resources.SubtitleFormat
	PollOptions              = resources.PollOptions

	AudioSource  = resources.AudioSource
	LocalFile    = resources.LocalFile
	Stream       = resources.Stream
	RemoteURL    = resources.RemoteURL
	UploadedFile = resources.UploadedFile
)

const (
	TranscriptStatusQueued     = resources.TranscriptStatusQueued
	TranscriptStatusProcessing = resources.TranscriptStatusProcessing
	TranscriptStatusCompleted  = resources.TranscriptStatusCompleted
	TranscriptStatusError      = resources.TranscriptStatusError

	SubtitleFormatSRT = resources.SubtitleFormatSRT
	SubtitleFormatVTT = resources.SubtitleFormatVTT
)

// String returns a pointer to v, for optional parameters.
func String(v string) *string { return resources.String(v) }

// Int returns a pointer to v, for optional parameters.
func Int(v int) *int { return resources.Int(v) }

// Bool returns a pointer to v, for optional parameters.
func Bool(v bool) *bool { return resources.Bool(v) }

// Float64 returns a pointer to v, for optional parameters.
func Float64(v float64) *float64 { return resources.Float64(v) }

// CreateClient creates a new AssemblyAI client with default configuration.
//
// This is a convenience function equivalent to:
//
//	client, err := assemblyai.NewClient(assemblyai.WithAPIKey(apiKey))
func CreateClient(apiKey string) (*Client, error) {
	return NewClient(WithAPIKey(apiKey))
}

// TranscribeURL transcribes audio the API can download and waits for the
// result using the client's polling defaults.
//
// Example:
//
//	transcript, err := assemblyai.TranscribeURL(ctx, client, "https://example.com/call.mp3", &assemblyai.TranscriptOptionalParams{
//		SpeakerLabels: assemblyai.Bool(true),
//	})
func TranscribeURL(ctx context.Context, client *Client, audioURL string, params *TranscriptOptionalParams) (*Transcript, error) {
	return client.Transcripts().Transcribe(ctx, RemoteURL{URL: audioURL}, params)
}

// TranscribeFile uploads a local audio file, transcribes it and waits for
// the result.
func TranscribeFile(ctx context.Context, client *Client, path string, params *TranscriptOptionalParams) (*Transcript, error) {
	return client.Transcripts().Transcribe(ctx, LocalFile{Path: path}, params)
}

// GetTranscript retrieves a transcript by ID.
func GetTranscript(ctx context.Context, client *Client, id string) (*Transcript, error) {
	return client.Transcripts().Get(ctx, id)
}

// ParseListURL parses the filters of a page_details URL returned by
// Transcripts().List.
func ParseListURL(listURL string) (*ListTranscriptParams, error) {
	return resources.ParseListURL(listURL)
}
