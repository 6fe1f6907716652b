package resources

import (
	"context"
	"io"
	"os"
)

// FilesResource uploads local media for transcription.
type FilesResource struct {
	base *Base
}

// NewFilesResource creates a new FilesResource.
func NewFilesResource(base *Base) *FilesResource {
	return &FilesResource{base: base}
}

// UploadedFile is the response of an upload. UploadURL is only usable by
// the API itself, as the audio_url of a transcript.
type UploadedFile struct {
	UploadURL string `json:"upload_url"`
}

// Upload streams r to the API. The reader is consumed but not closed.
// Failures are returned as *UploadError.
func (r *FilesResource) Upload(ctx context.Context, audio io.Reader) (*UploadedFile, error) {
	return r.upload(ctx, "stream", audio)
}

// UploadBytes uploads audio already held in memory. Unlike Upload, the
// request is retried when retries are enabled.
func (r *FilesResource) UploadBytes(ctx context.Context, audio []byte) (*UploadedFile, error) {
	if len(audio) == 0 {
		return nil, &UploadError{Source: "bytes", Err: ErrMissingArgument}
	}
	var result UploadedFile
	err := r.base.PostBytes(ctx, "/v2/upload", audio, &result)
	return r.uploaded("bytes", &result, err)
}

// UploadFile uploads the file at path.
func (r *FilesResource) UploadFile(ctx context.Context, path string) (*UploadedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &UploadError{Source: path, Err: err}
	}
	defer f.Close()
	return r.upload(ctx, path, f)
}

func (r *FilesResource) upload(ctx context.Context, source string, audio io.Reader) (*UploadedFile, error) {
	if audio == nil {
		return nil, &UploadError{Source: source, Err: ErrMissingArgument}
	}

	var result UploadedFile
	err := r.base.PostStream(ctx, "/v2/upload", audio, &result)
	return r.uploaded(source, &result, err)
}

func (r *FilesResource) uploaded(source string, result *UploadedFile, err error) (*UploadedFile, error) {
	if err != nil {
		return nil, &UploadError{Source: source, Err: err}
	}
	if result.UploadURL == "" {
		return nil, &UploadError{Source: source, Err: errEmptyUploadURL}
	}
	r.base.debug("uploaded audio", "source", source)
	return result, nil
}
