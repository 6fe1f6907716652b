package resources

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

// TranscriptStatus is the processing status of a transcript.
type TranscriptStatus string

const (
	TranscriptStatusQueued     TranscriptStatus = "queued"
	TranscriptStatusProcessing TranscriptStatus = "processing"
	TranscriptStatusCompleted  TranscriptStatus = "completed"
	TranscriptStatusError      TranscriptStatus = "error"
)

// IsTerminal reports whether no further status change is expected. Only
// completed and error are terminal; unknown values are not.
func (s TranscriptStatus) IsTerminal() bool {
	return s == TranscriptStatusCompleted || s == TranscriptStatusError
}

// ParseTranscriptStatus parses a status name, ignoring case.
func ParseTranscriptStatus(s string) (TranscriptStatus, error) {
	switch st := TranscriptStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case TranscriptStatusQueued, TranscriptStatusProcessing, TranscriptStatusCompleted, TranscriptStatusError:
		return st, nil
	}
	return "", fmt.Errorf("unknown transcript status %q", s)
}

// SubtitleFormat is the export format of GetSubtitles.
type SubtitleFormat string

const (
	SubtitleFormatSRT SubtitleFormat = "srt"
	SubtitleFormatVTT SubtitleFormat = "vtt"
)

// CustomSpelling maps one or more spoken forms to a written form.
type CustomSpelling struct {
	From []string `json:"from"`
	To   string   `json:"to"`
}

// TranscriptOptionalParams are the optional settings of a transcription
// request. Only fields that are set are sent.
type TranscriptOptionalParams struct {
	SpeechModel       *string  `json:"speech_model,omitempty"`
	LanguageCode      *string  `json:"language_code,omitempty"`
	LanguageDetection *bool    `json:"language_detection,omitempty"`
	Punctuate         *bool    `json:"punctuate,omitempty"`
	FormatText        *bool    `json:"format_text,omitempty"`
	Disfluencies      *bool    `json:"disfluencies,omitempty"`
	DualChannel       *bool    `json:"dual_channel,omitempty"`
	SpeakerLabels     *bool    `json:"speaker_labels,omitempty"`
	SpeakersExpected  *int     `json:"speakers_expected,omitempty"`
	AudioStartFrom    *int     `json:"audio_start_from,omitempty"`
	AudioEndAt        *int     `json:"audio_end_at,omitempty"`
	SpeechThreshold   *float64 `json:"speech_threshold,omitempty"`

	WordBoost      []string         `json:"word_boost,omitempty"`
	BoostParam     *string          `json:"boost_param,omitempty"`
	CustomSpelling []CustomSpelling `json:"custom_spelling,omitempty"`
	CustomTopics   *bool            `json:"custom_topics,omitempty"`
	Topics         []string         `json:"topics,omitempty"`

	FilterProfanity       *bool    `json:"filter_profanity,omitempty"`
	RedactPII             *bool    `json:"redact_pii,omitempty"`
	RedactPIIAudio        *bool    `json:"redact_pii_audio,omitempty"`
	RedactPIIAudioQuality *string  `json:"redact_pii_audio_quality,omitempty"`
	RedactPIIPolicies     []string `json:"redact_pii_policies,omitempty"`
	RedactPIISub          *string  `json:"redact_pii_sub,omitempty"`

	AutoChapters      *bool   `json:"auto_chapters,omitempty"`
	AutoHighlights    *bool   `json:"auto_highlights,omitempty"`
	ContentSafety     *bool   `json:"content_safety,omitempty"`
	IABCategories     *bool   `json:"iab_categories,omitempty"`
	SentimentAnalysis *bool   `json:"sentiment_analysis,omitempty"`
	EntityDetection   *bool   `json:"entity_detection,omitempty"`
	Summarization     *bool   `json:"summarization,omitempty"`
	SummaryModel      *string `json:"summary_model,omitempty"`
	SummaryType       *string `json:"summary_type,omitempty"`

	WebhookURL             *string `json:"webhook_url,omitempty"`
	WebhookAuthHeaderName  *string `json:"webhook_auth_header_name,omitempty"`
	WebhookAuthHeaderValue *string `json:"webhook_auth_header_value,omitempty"`
}

// TranscriptParams is a complete transcription request.
type TranscriptParams struct {
	AudioURL string `json:"audio_url"`
	TranscriptOptionalParams
}

// Validate checks the request before it is sent.
func (p *TranscriptParams) Validate() error {
	if strings.TrimSpace(p.AudioURL) == "" {
		return &ParamsError{Field: "audio_url", Reason: "is required"}
	}
	return p.TranscriptOptionalParams.Validate()
}

// Validate checks the settings that do not depend on the audio source.
func (p *TranscriptOptionalParams) Validate() error {
	if p == nil {
		return nil
	}
	if p.LanguageCode != nil {
		if _, err := language.Parse(*p.LanguageCode); err != nil {
			return &ParamsError{Field: "language_code", Reason: fmt.Sprintf("%q is not a language code", *p.LanguageCode), Err: err}
		}
	}
	if p.SpeakersExpected != nil && (p.SpeakerLabels == nil || !*p.SpeakerLabels) {
		return &ParamsError{Field: "speakers_expected", Reason: "requires speaker_labels"}
	}
	if p.WebhookAuthHeaderValue != nil && p.WebhookAuthHeaderName == nil {
		return &ParamsError{Field: "webhook_auth_header_value", Reason: "requires webhook_auth_header_name"}
	}
	return nil
}

// TranscriptWord is a single recognized word. Times are in milliseconds.
type TranscriptWord struct {
	Text       string  `json:"text"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
	Speaker    *string `json:"speaker,omitempty"`
	Channel    *string `json:"channel,omitempty"`
}

// TranscriptUtterance is a run of speech by one speaker.
type TranscriptUtterance struct {
	Speaker    string           `json:"speaker"`
	Text       string           `json:"text"`
	Start      int              `json:"start"`
	End        int              `json:"end"`
	Confidence float64          `json:"confidence"`
	Words      []TranscriptWord `json:"words"`
}

// Chapter is an auto-generated chapter.
type Chapter struct {
	Gist     string `json:"gist"`
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
}

// Entity is a detected named entity.
type Entity struct {
	EntityType string `json:"entity_type"`
	Text       string `json:"text"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
}

// SentimentResult is the sentiment of one sentence.
type SentimentResult struct {
	Text       string  `json:"text"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
	Speaker    *string `json:"speaker,omitempty"`
}

// Timestamp is a start/end pair in milliseconds.
type Timestamp struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// AutoHighlightResult is one key phrase.
type AutoHighlightResult struct {
	Count      int         `json:"count"`
	Rank       float64     `json:"rank"`
	Text       string      `json:"text"`
	Timestamps []Timestamp `json:"timestamps"`
}

// AutoHighlightsResult holds the key phrases of a transcript.
type AutoHighlightsResult struct {
	Status  string                `json:"status"`
	Results []AutoHighlightResult `json:"results"`
}

// Transcript is a transcription job. It is only ever refreshed by fetching
// it again.
type Transcript struct {
	ID                string                `json:"id"`
	Status            TranscriptStatus      `json:"status"`
	AudioURL          string                `json:"audio_url"`
	Text              *string               `json:"text,omitempty"`
	Words             []TranscriptWord      `json:"words,omitempty"`
	Utterances        []TranscriptUtterance `json:"utterances,omitempty"`
	Confidence        *float64              `json:"confidence,omitempty"`
	AudioDuration     *float64              `json:"audio_duration,omitempty"`
	LanguageCode      *string               `json:"language_code,omitempty"`
	SpeechModel       *string               `json:"speech_model,omitempty"`
	Error             *string               `json:"error,omitempty"`
	WebhookURL        *string               `json:"webhook_url,omitempty"`
	WebhookStatusCode *int                  `json:"webhook_status_code,omitempty"`

	Summary                  *string               `json:"summary,omitempty"`
	Chapters                 []Chapter             `json:"chapters,omitempty"`
	Entities                 []Entity              `json:"entities,omitempty"`
	SentimentAnalysisResults []SentimentResult     `json:"sentiment_analysis_results,omitempty"`
	AutoHighlightsResult     *AutoHighlightsResult `json:"auto_highlights_result,omitempty"`

	raw json.RawMessage
}

// UnmarshalJSON keeps the raw document so fields without a typed
// counterpart remain reachable through Raw.
func (t *Transcript) UnmarshalJSON(data []byte) error {
	type plain Transcript
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*t = Transcript(p)
	t.raw = append(json.RawMessage(nil), data...)
	return nil
}

// Raw returns the JSON document the transcript was decoded from.
func (t *Transcript) Raw() json.RawMessage {
	return t.raw
}

// ListTranscriptParams filters GET /v2/transcript.
type ListTranscriptParams struct {
	Limit         *int              `json:"limit,omitempty"`
	Status        *TranscriptStatus `json:"status,omitempty"`
	CreatedOn     *string           `json:"created_on,omitempty"`
	BeforeID      *string           `json:"before_id,omitempty"`
	AfterID       *string           `json:"after_id,omitempty"`
	ThrottledOnly *bool             `json:"throttled_only,omitempty"`
}

// Query encodes the params as a query string.
func (p *ListTranscriptParams) Query() url.Values {
	q := url.Values{}
	if p == nil {
		return q
	}
	if p.Limit != nil {
		q.Set("limit", strconv.Itoa(*p.Limit))
	}
	if p.Status != nil {
		q.Set("status", string(*p.Status))
	}
	if p.CreatedOn != nil {
		q.Set("created_on", *p.CreatedOn)
	}
	if p.BeforeID != nil {
		q.Set("before_id", *p.BeforeID)
	}
	if p.AfterID != nil {
		q.Set("after_id", *p.AfterID)
	}
	if p.ThrottledOnly != nil {
		q.Set("throttled_only", strconv.FormatBool(*p.ThrottledOnly))
	}
	return q
}

// PageDetails describes one page of a list response.
type PageDetails struct {
	Limit       int     `json:"limit"`
	ResultCount int     `json:"result_count"`
	CurrentURL  string  `json:"current_url"`
	PrevURL     *string `json:"prev_url"`
	NextURL     *string `json:"next_url"`
}

// TranscriptListItem is the summary of a transcript in a list response.
type TranscriptListItem struct {
	ID          string           `json:"id"`
	ResourceURL string           `json:"resource_url"`
	Status      TranscriptStatus `json:"status"`
	Created     string           `json:"created"`
	Completed   *string          `json:"completed,omitempty"`
	AudioURL    string           `json:"audio_url"`
	Error       *string          `json:"error,omitempty"`
}

// TranscriptList is one page of transcripts.
type TranscriptList struct {
	PageDetails PageDetails          `json:"page_details"`
	Transcripts []TranscriptListItem `json:"transcripts"`
}

// GetSubtitlesParams are the options of a subtitle export.
type GetSubtitlesParams struct {
	CharsPerCaption *int `json:"chars_per_caption,omitempty"`
}

// TranscriptSentence is a sentence or paragraph of a transcript.
type TranscriptSentence struct {
	Text       string           `json:"text"`
	Start      int              `json:"start"`
	End        int              `json:"end"`
	Confidence float64          `json:"confidence"`
	Words      []TranscriptWord `json:"words"`
	Speaker    *string          `json:"speaker,omitempty"`
}

// SentencesResponse is the response of GetSentences.
type SentencesResponse struct {
	ID            string               `json:"id"`
	Confidence    float64              `json:"confidence"`
	AudioDuration float64              `json:"audio_duration"`
	Sentences     []TranscriptSentence `json:"sentences"`
}

// ParagraphsResponse is the response of GetParagraphs.
type ParagraphsResponse struct {
	ID            string               `json:"id"`
	Confidence    float64              `json:"confidence"`
	AudioDuration float64              `json:"audio_duration"`
	Paragraphs    []TranscriptSentence `json:"paragraphs"`
}

// WordSearchMatch is one searched word and where it occurs.
type WordSearchMatch struct {
	Text    string `json:"text"`
	Count   int    `json:"count"`
	Indexes []int  `json:"indexes"`
	// Timestamps are [start, end] pairs in milliseconds.
	Timestamps [][]int `json:"timestamps"`
}

// WordSearchResponse is the response of WordSearch.
type WordSearchResponse struct {
	ID         string            `json:"id"`
	TotalCount int               `json:"total_count"`
	Matches    []WordSearchMatch `json:"matches"`
}

// RedactedAudioResponse is the response of GetRedactedAudio.
type RedactedAudioResponse struct {
	Status           string `json:"status"`
	RedactedAudioURL string `json:"redacted_audio_url"`
}
