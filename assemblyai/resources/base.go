// Package resources provides the REST resources of the AssemblyAI API.
package resources

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/assemblyai/assemblyai-go-sdk/internal/httpx"
)

// Base provides common functionality for all resources.
type Base struct {
	transport *httpx.Transport
}

// NewBase creates a new Base resource.
func NewBase(transport *httpx.Transport) *Base {
	return &Base{transport: transport}
}

// Get performs a GET request.
func (b *Base) Get(ctx context.Context, path string, result any) error {
	return b.GetWithQuery(ctx, path, nil, result)
}

// GetWithQuery performs a GET request with query parameters.
func (b *Base) GetWithQuery(ctx context.Context, path string, query url.Values, result any) error {
	resp, err := b.transport.Do(ctx, &httpx.Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  valuesToMap(query),
	})
	if err != nil {
		return err
	}
	return decodeResponse(resp, result)
}

// GetText performs a GET request for a plain-text document.
func (b *Base) GetText(ctx context.Context, path string, query url.Values) (string, error) {
	resp, err := b.transport.Do(ctx, &httpx.Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  valuesToMap(query),
		Accept: "text/plain",
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// Post performs a POST request.
func (b *Base) Post(ctx context.Context, path string, body any, result any) error {
	resp, err := b.transport.Do(ctx, &httpx.Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
	})
	if err != nil {
		return err
	}
	return decodeResponse(resp, result)
}

// PostIdempotent performs a POST request that is safe to retry.
func (b *Base) PostIdempotent(ctx context.Context, path string, body any, result any) error {
	resp, err := b.transport.Do(ctx, &httpx.Request{
		Method:     http.MethodPost,
		Path:       path,
		Body:       body,
		Idempotent: true,
	})
	if err != nil {
		return err
	}
	return decodeResponse(resp, result)
}

// PostStream performs a POST request whose body is streamed from r.
func (b *Base) PostStream(ctx context.Context, path string, r io.Reader, result any) error {
	resp, err := b.transport.Do(ctx, &httpx.Request{
		Method:     http.MethodPost,
		Path:       path,
		BodyReader: r,
	})
	if err != nil {
		return err
	}
	return decodeResponse(resp, result)
}

// PostBytes performs a POST request with data as the raw body. The body can
// be replayed, so the request is retried when retries are enabled.
func (b *Base) PostBytes(ctx context.Context, path string, data []byte, result any) error {
	resp, err := b.transport.Do(ctx, &httpx.Request{
		Method:     http.MethodPost,
		Path:       path,
		RawBody:    data,
		Idempotent: true,
	})
	if err != nil {
		return err
	}
	return decodeResponse(resp, result)
}

// Delete performs a DELETE request.
func (b *Base) Delete(ctx context.Context, path string, result any) error {
	resp, err := b.transport.Do(ctx, &httpx.Request{
		Method: http.MethodDelete,
		Path:   path,
	})
	if err != nil {
		return err
	}
	return decodeResponse(resp, result)
}

// Download opens an absolute URL, such as a pre-signed media URL, without
// sending the API key.
func (b *Base) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	return b.transport.Stream(ctx, rawURL)
}

func (b *Base) debug(msg string, keysAndValues ...any) {
	b.transport.Debug(msg, keysAndValues...)
}

// decodeResponse decodes a response into the result if result is not nil.
func decodeResponse(resp *httpx.Response, result any) error {
	return resp.JSON(result)
}

// valuesToMap converts url.Values to map[string]string (taking first value).
func valuesToMap(v url.Values) map[string]string {
	if len(v) == 0 {
		return nil
	}
	m := make(map[string]string, len(v))
	for k := range v {
		if val := v.Get(k); val != "" {
			m[k] = val
		}
	}
	return m
}
