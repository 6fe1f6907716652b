package resources

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// LemurModel selects the model LeMUR answers with.
type LemurModel string

const (
	LemurModelDefault        LemurModel = "default"
	LemurModelBasic          LemurModel = "basic"
	LemurModelClaude35Sonnet LemurModel = "anthropic/claude-3-5-sonnet"
	LemurModelClaude3Opus    LemurModel = "anthropic/claude-3-opus"
)

// LemurBaseParams are shared by every LeMUR endpoint. Either TranscriptIDs
// or InputText must be set.
type LemurBaseParams struct {
	TranscriptIDs []string    `json:"transcript_ids,omitempty"`
	InputText     *string     `json:"input_text,omitempty"`
	Context       *string     `json:"context,omitempty"`
	FinalModel    *LemurModel `json:"final_model,omitempty"`
	MaxOutputSize *int        `json:"max_output_size,omitempty"`
	Temperature   *float64    `json:"temperature,omitempty"`
}

// Validate checks the params before they are sent.
func (p *LemurBaseParams) Validate() error {
	if len(p.TranscriptIDs) == 0 && (p.InputText == nil || *p.InputText == "") {
		return &ParamsError{Field: "transcript_ids", Reason: "transcript_ids or input_text is required"}
	}
	for i, id := range p.TranscriptIDs {
		if strings.TrimSpace(id) == "" {
			return &ParamsError{Field: "transcript_ids", Reason: fmt.Sprintf("entry %d is empty", i)}
		}
	}
	if p.Temperature != nil && (*p.Temperature < 0 || *p.Temperature > 1) {
		return &ParamsError{Field: "temperature", Reason: "must be between 0 and 1"}
	}
	return nil
}

// LemurUsage is the token consumption of a LeMUR request.
type LemurUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// LemurTaskParams ask LeMUR to follow a free-form prompt.
type LemurTaskParams struct {
	LemurBaseParams
	Prompt string `json:"prompt"`
}

// Validate checks the params before they are sent.
func (p *LemurTaskParams) Validate() error {
	if strings.TrimSpace(p.Prompt) == "" {
		return &ParamsError{Field: "prompt", Reason: "is required"}
	}
	return p.LemurBaseParams.Validate()
}

// LemurStringResponse is the response of Task, Summary and ActionItems.
type LemurStringResponse struct {
	RequestID string     `json:"request_id"`
	Response  string     `json:"response"`
	Usage     LemurUsage `json:"usage"`
}

// LemurSummaryParams ask for a summary.
type LemurSummaryParams struct {
	LemurBaseParams
	AnswerFormat *string `json:"answer_format,omitempty"`
}

// LemurActionItemsParams ask for action items.
type LemurActionItemsParams struct {
	LemurBaseParams
	AnswerFormat *string `json:"answer_format,omitempty"`
}

// LemurQuestion is one question of a question-answer request.
type LemurQuestion struct {
	Question      string   `json:"question"`
	Context       *string  `json:"context,omitempty"`
	AnswerFormat  *string  `json:"answer_format,omitempty"`
	AnswerOptions []string `json:"answer_options,omitempty"`
}

// LemurQuestionAnswerParams ask a list of questions.
type LemurQuestionAnswerParams struct {
	LemurBaseParams
	Questions []LemurQuestion `json:"questions"`
}

// Validate checks the params before they are sent.
func (p *LemurQuestionAnswerParams) Validate() error {
	if len(p.Questions) == 0 {
		return &ParamsError{Field: "questions", Reason: "at least one question is required"}
	}
	for i, q := range p.Questions {
		if strings.TrimSpace(q.Question) == "" {
			return &ParamsError{Field: "questions", Reason: fmt.Sprintf("question %d is empty", i)}
		}
		if q.AnswerFormat != nil && len(q.AnswerOptions) > 0 {
			return &ParamsError{Field: "questions", Reason: fmt.Sprintf("question %d sets both answer_format and answer_options", i)}
		}
	}
	return p.LemurBaseParams.Validate()
}

// LemurQuestionAnswer is the answer to one question.
type LemurQuestionAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// LemurQuestionAnswerResponse is the response of QuestionAnswer.
type LemurQuestionAnswerResponse struct {
	RequestID string                `json:"request_id"`
	Response  []LemurQuestionAnswer `json:"response"`
	Usage     LemurUsage            `json:"usage"`
}

// LemurPurgeResponse is the response of PurgeRequestData.
type LemurPurgeResponse struct {
	RequestID        string `json:"request_id"`
	RequestIDToPurge string `json:"request_id_to_purge"`
	Deleted          bool   `json:"deleted"`
}

// LemurResource provides access to LeMUR, the LLM framework over
// transcripts.
type LemurResource struct {
	base *Base
}

// NewLemurResource creates a new LemurResource.
func NewLemurResource(base *Base) *LemurResource {
	return &LemurResource{base: base}
}

// Task runs a free-form prompt.
func (r *LemurResource) Task(ctx context.Context, params *LemurTaskParams) (*LemurStringResponse, error) {
	if params == nil {
		return nil, &ParamsError{Field: "prompt", Reason: "is required"}
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	var result LemurStringResponse
	if err := r.base.Post(ctx, "/lemur/v3/generate/task", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// TaskForTranscripts runs prompt-only params over the given transcripts.
// The transcript IDs replace any set in params.
func (r *LemurResource) TaskForTranscripts(ctx context.Context, transcriptIDs []string, params *LemurTaskParams) (*LemurStringResponse, error) {
	full, err := BuildParams[LemurTaskParams]("transcript_ids", transcriptIDs, params)
	if err != nil {
		return nil, err
	}
	return r.Task(ctx, full)
}

// Summary summarizes the transcripts.
func (r *LemurResource) Summary(ctx context.Context, params *LemurSummaryParams) (*LemurStringResponse, error) {
	if params == nil {
		params = &LemurSummaryParams{}
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	var result LemurStringResponse
	if err := r.base.Post(ctx, "/lemur/v3/generate/summary", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// QuestionAnswer answers questions about the transcripts.
func (r *LemurResource) QuestionAnswer(ctx context.Context, params *LemurQuestionAnswerParams) (*LemurQuestionAnswerResponse, error) {
	if params == nil {
		params = &LemurQuestionAnswerParams{}
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	var result LemurQuestionAnswerResponse
	if err := r.base.Post(ctx, "/lemur/v3/generate/question-answer", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ActionItems extracts action items from the transcripts.
func (r *LemurResource) ActionItems(ctx context.Context, params *LemurActionItemsParams) (*LemurStringResponse, error) {
	if params == nil {
		params = &LemurActionItemsParams{}
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	var result LemurStringResponse
	if err := r.base.Post(ctx, "/lemur/v3/generate/action-items", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetResponse retrieves a previous LeMUR response. Task, summary and
// action-item responses have a string Response; decode into
// *LemurQuestionAnswerResponse for question-answer requests.
func (r *LemurResource) GetResponse(ctx context.Context, requestID string, result any) error {
	path, err := lemurPath(requestID)
	if err != nil {
		return err
	}
	return r.base.Get(ctx, path, result)
}

// PurgeRequestData deletes the data of a LeMUR request.
func (r *LemurResource) PurgeRequestData(ctx context.Context, requestID string) (*LemurPurgeResponse, error) {
	path, err := lemurPath(requestID)
	if err != nil {
		return nil, err
	}
	var result LemurPurgeResponse
	if err := r.base.Delete(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func lemurPath(requestID string) (string, error) {
	if strings.TrimSpace(requestID) == "" {
		return "", fmt.Errorf("lemur request id: %w", ErrMissingArgument)
	}
	return "/lemur/v3/" + url.PathEscape(requestID), nil
}
