package resources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// AudioSource is the audio a transcript is created from: a LocalFile, a
// Stream, a RemoteURL or an *UploadedFile.
type AudioSource interface {
	audioSource()
}

// LocalFile is audio on the local filesystem. It is uploaded before the
// transcript is created.
type LocalFile struct {
	Path string
}

// Stream is audio read from an io.Reader. It is uploaded before the
// transcript is created. When DisposeAfterRead is set and Reader is an
// io.Closer, Submit closes it exactly once, as soon as the upload completes
// or fails (or when params are rejected before any upload).
type Stream struct {
	Reader           io.Reader
	DisposeAfterRead bool
}

// RemoteURL is audio the API can fetch itself.
type RemoteURL struct {
	URL string
}

func (LocalFile) audioSource()     {}
func (Stream) audioSource()        {}
func (RemoteURL) audioSource()     {}
func (*UploadedFile) audioSource() {}

var errPollingDeadline = errors.New("polling timeout elapsed")

// Submit creates a transcript from source without waiting for it to
// finish. Local files and streams are uploaded first; a failed upload is
// returned as *UploadError. params may be nil.
func (r *TranscriptsResource) Submit(ctx context.Context, source AudioSource, params *TranscriptOptionalParams) (*Transcript, error) {
	audioURL, err := r.uploadSource(ctx, source, params)
	if err != nil {
		return nil, err
	}
	full, err := BuildParams[TranscriptParams]("audio_url", audioURL, params)
	if err != nil {
		return nil, err
	}
	return r.Create(ctx, full)
}

// uploadSource validates params and resolves source to an audio URL. An
// owned stream is closed before it returns, so it is released as soon as
// the upload completes or fails.
func (r *TranscriptsResource) uploadSource(ctx context.Context, source AudioSource, params *TranscriptOptionalParams) (string, error) {
	defer DisposeSource(source)
	if err := params.Validate(); err != nil {
		return "", err
	}
	return r.resolveAudioURL(ctx, source)
}

func (r *TranscriptsResource) resolveAudioURL(ctx context.Context, source AudioSource) (string, error) {
	switch src := source.(type) {
	case LocalFile:
		uploaded, err := r.files.UploadFile(ctx, src.Path)
		if err != nil {
			return "", err
		}
		return uploaded.UploadURL, nil
	case *LocalFile:
		if src == nil {
			break
		}
		return r.resolveAudioURL(ctx, *src)
	case Stream:
		uploaded, err := r.files.Upload(ctx, src.Reader)
		if err != nil {
			return "", err
		}
		return uploaded.UploadURL, nil
	case *Stream:
		if src == nil {
			break
		}
		return r.resolveAudioURL(ctx, *src)
	case RemoteURL:
		return src.URL, nil
	case *RemoteURL:
		if src == nil {
			break
		}
		return src.URL, nil
	case *UploadedFile:
		if src == nil {
			break
		}
		return src.UploadURL, nil
	}
	return "", fmt.Errorf("audio source %T: %w", source, ErrMissingArgument)
}

// DisposeSource closes the reader of a Stream with DisposeAfterRead set;
// any other source is left alone. Submit calls it on every path, so only
// code that decides not to submit a source needs to.
func DisposeSource(source AudioSource) error {
	if c := disposable(source); c != nil {
		return c.Close()
	}
	return nil
}

// disposable returns the closer Submit owns, if any.
func disposable(source AudioSource) io.Closer {
	var s Stream
	switch src := source.(type) {
	case Stream:
		s = src
	case *Stream:
		if src == nil {
			return nil
		}
		s = *src
	default:
		return nil
	}
	if !s.DisposeAfterRead {
		return nil
	}
	c, _ := s.Reader.(io.Closer)
	return c
}

// WaitUntilReady fetches the transcript until its status is completed or
// error and returns it.
//
// The transcript is fetched once straight away, then again after every
// poll interval. If opts (or the resource defaults) set a timeout and it
// elapses first, a *PollingTimeoutError is returned and no further fetch is
// made. Fetch errors are returned immediately; they are not retried.
// Cancelling ctx returns ctx.Err().
func (r *TranscriptsResource) WaitUntilReady(ctx context.Context, id string, opts *PollOptions) (*Transcript, error) {
	poll := r.pollOptions(opts)

	waitCtx := ctx
	if poll.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeoutCause(ctx, poll.Timeout, errPollingDeadline)
		defer cancel()
	}

	transcript, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	for !transcript.Status.IsTerminal() {
		if waitCtx.Err() != nil {
			return nil, waitError(ctx, waitCtx, transcript, poll.Timeout)
		}

		r.base.debug("transcript not ready", "id", id, "status", transcript.Status, "next_poll", poll.Interval)
		timer := time.NewTimer(poll.Interval)
		select {
		case <-waitCtx.Done():
			timer.Stop()
			return nil, waitError(ctx, waitCtx, transcript, poll.Timeout)
		case <-timer.C:
		}

		transcript, err = r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
	}

	r.base.debug("transcript ready", "id", id, "status", transcript.Status)
	return transcript, nil
}

// waitError tells the caller's own cancellation apart from the polling
// timeout.
func waitError(ctx, waitCtx context.Context, last *Transcript, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if errors.Is(context.Cause(waitCtx), errPollingDeadline) {
		return &PollingTimeoutError{
			TranscriptID: last.ID,
			Timeout:      timeout,
			LastStatus:   last.Status,
			Cause:        waitCtx.Err(),
		}
	}
	return waitCtx.Err()
}

func (r *TranscriptsResource) pollOptions(opts *PollOptions) PollOptions {
	poll := r.poll
	if opts == nil {
		return poll
	}
	if opts.Interval > 0 {
		poll.Interval = opts.Interval
	}
	if opts.Timeout > 0 {
		poll.Timeout = opts.Timeout
	}
	return poll
}

// Transcribe submits source and waits for the transcript to finish using
// the default polling options.
func (r *TranscriptsResource) Transcribe(ctx context.Context, source AudioSource, params *TranscriptOptionalParams) (*Transcript, error) {
	return r.TranscribeWithPolling(ctx, source, params, nil)
}

// TranscribeWithPolling is Transcribe with explicit polling options.
func (r *TranscriptsResource) TranscribeWithPolling(ctx context.Context, source AudioSource, params *TranscriptOptionalParams, poll *PollOptions) (*Transcript, error) {
	transcript, err := r.Submit(ctx, source, params)
	if err != nil {
		return nil, err
	}
	return r.WaitUntilReady(ctx, transcript.ID, poll)
}

// TranscribeParams creates a transcript from complete params and waits for
// it to finish.
func (r *TranscriptsResource) TranscribeParams(ctx context.Context, params *TranscriptParams) (*Transcript, error) {
	transcript, err := r.Create(ctx, params)
	if err != nil {
		return nil, err
	}
	return r.WaitUntilReady(ctx, transcript.ID, nil)
}
