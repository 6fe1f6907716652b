package resources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/oapi-codegen/runtime"
)

// ListURLOption changes how ParseListURL reads a URL.
type ListURLOption func(*listURLConfig)

type listURLConfig struct {
	statusKey string
}

// WithStatusFromLimitKey reads the status filter from the limit key, as
// older SDK releases did. It exists only so code that depended on that
// behaviour can keep it. The status filter is still set only when the URL
// has a status key, so "?limit=10" parses as usual while
// "?limit=10&status=completed" fails with a *ParseError.
func WithStatusFromLimitKey() ListURLOption {
	return func(c *listURLConfig) { c.statusKey = "limit" }
}

// ParseListURL turns a pagination URL, such as PageDetails.NextURL, back into
// list params.
//
// The query is the text after the first '?' (the whole string when there is
// none), split on '&' into key=value pairs; pairs without exactly one '='
// are skipped. Keys match case-insensitively and the first occurrence of a
// key wins. Values are percent-decoded. Unknown keys are ignored.
// throttled_only must be "true" or "false" in any letter case. An empty URL
// returns ErrMissingArgument; a malformed value returns *ParseError.
func ParseListURL(listURL string, opts ...ListURLOption) (*ListTranscriptParams, error) {
	if strings.TrimSpace(listURL) == "" {
		return nil, fmt.Errorf("list url: %w", ErrMissingArgument)
	}

	cfg := listURLConfig{statusKey: "status"}
	for _, opt := range opts {
		opt(&cfg)
	}

	query, err := splitListQuery(listURL)
	if err != nil {
		return nil, err
	}

	var params ListTranscriptParams
	bind := func(key string, dest any) error {
		if err := runtime.BindQueryParameter("form", true, false, key, query, dest); err != nil {
			return &ParseError{Key: key, Value: query.Get(key), Err: err}
		}
		return nil
	}

	if err := bind("limit", &params.Limit); err != nil {
		return nil, err
	}
	if err := bind("created_on", &params.CreatedOn); err != nil {
		return nil, err
	}
	if err := bind("before_id", &params.BeforeID); err != nil {
		return nil, err
	}
	if err := bind("after_id", &params.AfterID); err != nil {
		return nil, err
	}

	var rawThrottled *string
	if err := bind("throttled_only", &rawThrottled); err != nil {
		return nil, err
	}
	if rawThrottled != nil {
		throttled, err := parseStrictBool(*rawThrottled)
		if err != nil {
			return nil, &ParseError{Key: "throttled_only", Value: *rawThrottled, Err: err}
		}
		params.ThrottledOnly = &throttled
	}

	var rawStatus *string
	if _, hasStatus := query["status"]; hasStatus {
		if err := bind(cfg.statusKey, &rawStatus); err != nil {
			return nil, err
		}
	}
	if rawStatus != nil {
		status, err := ParseTranscriptStatus(*rawStatus)
		if err != nil {
			return nil, &ParseError{Key: cfg.statusKey, Value: *rawStatus, Err: err}
		}
		params.Status = &status
	}

	return &params, nil
}

// parseStrictBool accepts only "true" and "false", ignoring case.
func parseStrictBool(v string) (bool, error) {
	switch {
	case strings.EqualFold(v, "true"):
		return true, nil
	case strings.EqualFold(v, "false"):
		return false, nil
	}
	return false, fmt.Errorf("%q is not true or false", v)
}

// splitListQuery extracts lower-cased keys with their first decoded value.
func splitListQuery(listURL string) (url.Values, error) {
	raw := listURL
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	}

	values := url.Values{}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		parts := strings.Split(pair, "=")
		if len(parts) != 2 {
			continue
		}
		key := strings.ToLower(parts[0])
		if _, seen := values[key]; seen {
			continue
		}
		value, err := url.PathUnescape(parts[1])
		if err != nil {
			return nil, &ParseError{Key: key, Value: parts[1], Err: err}
		}
		values.Set(key, value)
	}
	return values, nil
}

// ListByURL fetches the page a pagination URL points at.
func (r *TranscriptsResource) ListByURL(ctx context.Context, listURL string, opts ...ListURLOption) (*TranscriptList, error) {
	params, err := ParseListURL(listURL, opts...)
	if err != nil {
		return nil, err
	}
	return r.List(ctx, params)
}
