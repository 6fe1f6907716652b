package resources

import (
	"errors"
	"fmt"
	"time"
)

// ErrMissingArgument is returned when a required argument is empty.
var ErrMissingArgument = errors.New("assemblyai: missing required argument")

// ErrPollingTimeout matches a PollingTimeoutError with errors.Is.
var ErrPollingTimeout = errors.New("assemblyai: polling timed out")

var errEmptyUploadURL = errors.New("response has no upload_url")

// ParamsError is returned before any request is made when request
// parameters are incomplete or malformed.
type ParamsError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ParamsError) Error() string {
	if e.Field == "" {
		return "assemblyai: invalid params: " + e.Reason
	}
	return fmt.Sprintf("assemblyai: invalid params: %s: %s", e.Field, e.Reason)
}

func (e *ParamsError) Unwrap() error { return e.Err }

// UploadError is returned when audio could not be read or uploaded.
type UploadError struct {
	// Source names what was being uploaded: a file path or "stream".
	Source string
	Err    error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("assemblyai: upload of %s failed: %v", e.Source, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// PollingTimeoutError is returned by WaitUntilReady when the transcript did
// not reach a terminal status within the polling timeout. It is always a
// local determination.
type PollingTimeoutError struct {
	TranscriptID string
	Timeout      time.Duration
	// LastStatus is the status reported by the most recent fetch.
	LastStatus TranscriptStatus
	Cause      error
}

func (e *PollingTimeoutError) Error() string {
	return fmt.Sprintf("assemblyai: transcript %s still %s after %v", e.TranscriptID, e.LastStatus, e.Timeout)
}

func (e *PollingTimeoutError) Unwrap() error { return e.Cause }

// Is reports ErrPollingTimeout as a match.
func (e *PollingTimeoutError) Is(target error) bool { return target == ErrPollingTimeout }

// ParseError is returned when a list URL carries a malformed value.
type ParseError struct {
	Key   string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("assemblyai: cannot parse %s=%q: %v", e.Key, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
