package resources

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultPollInterval is the wait between status fetches in WaitUntilReady.
const DefaultPollInterval = 3 * time.Second

// PollOptions control WaitUntilReady. Zero fields fall back to the
// resource defaults; a zero Timeout means wait indefinitely.
type PollOptions struct {
	Interval time.Duration
	Timeout  time.Duration
}

// DefaultPollOptions returns a 3 second interval and no timeout.
func DefaultPollOptions() PollOptions {
	return PollOptions{Interval: DefaultPollInterval}
}

// TranscriptsResource provides access to transcript operations.
type TranscriptsResource struct {
	base  *Base
	files *FilesResource
	poll  PollOptions
}

// NewTranscriptsResource creates a new TranscriptsResource. files is used
// to upload local audio before submission; poll holds the defaults of
// WaitUntilReady.
func NewTranscriptsResource(base *Base, files *FilesResource, poll PollOptions) *TranscriptsResource {
	if poll.Interval <= 0 {
		poll.Interval = DefaultPollInterval
	}
	if poll.Timeout < 0 {
		poll.Timeout = 0
	}
	return &TranscriptsResource{base: base, files: files, poll: poll}
}

// PollDefaults returns the polling options used when none are given.
func (r *TranscriptsResource) PollDefaults() PollOptions {
	return r.poll
}

// Create submits a transcription job.
func (r *TranscriptsResource) Create(ctx context.Context, params *TranscriptParams) (*Transcript, error) {
	if params == nil {
		return nil, &ParamsError{Field: "audio_url", Reason: "is required"}
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	var result Transcript
	if err := r.base.Post(ctx, "/v2/transcript", params, &result); err != nil {
		return nil, err
	}
	r.base.debug("transcript created", "id", result.ID, "status", result.Status)
	return &result, nil
}

// Get retrieves a transcript by ID.
func (r *TranscriptsResource) Get(ctx context.Context, id string) (*Transcript, error) {
	path, err := transcriptPath(id)
	if err != nil {
		return nil, err
	}
	var result Transcript
	if err := r.base.Get(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Delete removes the transcript's data. The returned transcript has its
// content fields cleared.
func (r *TranscriptsResource) Delete(ctx context.Context, id string) (*Transcript, error) {
	path, err := transcriptPath(id)
	if err != nil {
		return nil, err
	}
	var result Transcript
	if err := r.base.Delete(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// List retrieves a page of transcripts, newest first. params may be nil.
func (r *TranscriptsResource) List(ctx context.Context, params *ListTranscriptParams) (*TranscriptList, error) {
	var result TranscriptList
	if err := r.base.GetWithQuery(ctx, "/v2/transcript", params.Query(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetSubtitles exports the transcript in SRT or VTT format.
func (r *TranscriptsResource) GetSubtitles(ctx context.Context, id string, format SubtitleFormat, params *GetSubtitlesParams) (string, error) {
	path, err := transcriptPath(id)
	if err != nil {
		return "", err
	}
	switch format {
	case SubtitleFormatSRT, SubtitleFormatVTT:
	default:
		return "", &ParamsError{Field: "subtitle_format", Reason: fmt.Sprintf("unsupported format %q", format)}
	}

	query := url.Values{}
	if params != nil && params.CharsPerCaption != nil {
		query.Set("chars_per_caption", strconv.Itoa(*params.CharsPerCaption))
	}
	return r.base.GetText(ctx, path+"/"+string(format), query)
}

// GetSubtitlesWithCharsPerCaption is GetSubtitles with only the caption
// width set.
func (r *TranscriptsResource) GetSubtitlesWithCharsPerCaption(ctx context.Context, id string, format SubtitleFormat, charsPerCaption int) (string, error) {
	return r.GetSubtitles(ctx, id, format, &GetSubtitlesParams{CharsPerCaption: &charsPerCaption})
}

// GetSentences returns the transcript split into sentences.
func (r *TranscriptsResource) GetSentences(ctx context.Context, id string) (*SentencesResponse, error) {
	path, err := transcriptPath(id)
	if err != nil {
		return nil, err
	}
	var result SentencesResponse
	if err := r.base.Get(ctx, path+"/sentences", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetParagraphs returns the transcript split into paragraphs.
func (r *TranscriptsResource) GetParagraphs(ctx context.Context, id string) (*ParagraphsResponse, error) {
	path, err := transcriptPath(id)
	if err != nil {
		return nil, err
	}
	var result ParagraphsResponse
	if err := r.base.Get(ctx, path+"/paragraphs", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// WordSearch finds occurrences of words in a completed transcript.
func (r *TranscriptsResource) WordSearch(ctx context.Context, id string, words []string) (*WordSearchResponse, error) {
	path, err := transcriptPath(id)
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, &ParamsError{Field: "words", Reason: "at least one word is required"}
	}
	query := url.Values{}
	query.Set("words", strings.Join(words, ","))

	var result WordSearchResponse
	if err := r.base.GetWithQuery(ctx, path+"/word-search", query, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetRedactedAudio returns the location of the PII-redacted audio of a
// transcript created with redact_pii_audio.
func (r *TranscriptsResource) GetRedactedAudio(ctx context.Context, id string) (*RedactedAudioResponse, error) {
	path, err := transcriptPath(id)
	if err != nil {
		return nil, err
	}
	var result RedactedAudioResponse
	if err := r.base.Get(ctx, path+"/redacted-audio", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetRedactedAudioFile downloads the PII-redacted audio. The caller must
// close the returned reader.
func (r *TranscriptsResource) GetRedactedAudioFile(ctx context.Context, id string) (io.ReadCloser, error) {
	redacted, err := r.GetRedactedAudio(ctx, id)
	if err != nil {
		return nil, err
	}
	if redacted.RedactedAudioURL == "" {
		return nil, fmt.Errorf("assemblyai: redacted audio of %s is not available (status %q)", id, redacted.Status)
	}
	return r.base.Download(ctx, redacted.RedactedAudioURL)
}

func transcriptPath(id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("transcript id: %w", ErrMissingArgument)
	}
	return "/v2/transcript/" + url.PathEscape(id), nil
}
