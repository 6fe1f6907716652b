package resources

import (
	"context"
	"time"
)

// Temporary token lifetimes accepted by the API.
const (
	MinTokenExpiry = 60 * time.Second
	MaxTokenExpiry = 360000 * time.Second
)

// RealtimeResource issues temporary tokens for streaming clients that must
// not hold the API key, such as browsers.
type RealtimeResource struct {
	base *Base
}

// NewRealtimeResource creates a new RealtimeResource.
func NewRealtimeResource(base *Base) *RealtimeResource {
	return &RealtimeResource{base: base}
}

type createTokenRequest struct {
	ExpiresIn int `json:"expires_in"`
}

// RealtimeToken is a temporary streaming token.
type RealtimeToken struct {
	Token string `json:"token"`
}

// CreateTemporaryToken issues a token valid for expiresIn, rounded down to
// whole seconds.
func (r *RealtimeResource) CreateTemporaryToken(ctx context.Context, expiresIn time.Duration) (*RealtimeToken, error) {
	if expiresIn < MinTokenExpiry || expiresIn > MaxTokenExpiry {
		return nil, &ParamsError{Field: "expires_in", Reason: "must be between 60 and 360000 seconds"}
	}
	var result RealtimeToken
	req := createTokenRequest{ExpiresIn: int(expiresIn / time.Second)}
	if err := r.base.PostIdempotent(ctx, "/v2/realtime/token", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
