// Package assemblyai provides a Go client for the AssemblyAI speech-to-text API.
//
// The SDK covers asynchronous transcription, file upload, LeMUR and
// real-time streaming. On top of the REST endpoints it adds the helpers
// most programs need: upload-then-submit, waiting for a transcript to
// finish, subtitle export and parsing pagination URLs.
//
// # Basic Usage
//
// Create a client with your API key:
//
//	client, err := assemblyai.NewClient(
//		assemblyai.WithAPIKey(os.Getenv("ASSEMBLYAI_API_KEY")),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
// # Transcribing Audio
//
// Transcribe uploads local files and streams before creating the
// transcript, then polls every three seconds until it is completed or
// failed:
//
//	ctx := context.Background()
//	transcript, err := client.Transcripts().Transcribe(ctx,
//		assemblyai.LocalFile{Path: "meeting.mp3"},
//		&assemblyai.TranscriptOptionalParams{SpeakerLabels: assemblyai.Bool(true)},
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if transcript.Status == assemblyai.TranscriptStatusError {
//		log.Fatalf("transcription failed: %s", *transcript.Error)
//	}
//	fmt.Println(*transcript.Text)
//
// A completed request with status error is not a Go error; check Status.
//
// # Configuration Options
//
//	client, err := assemblyai.NewClient(
//		assemblyai.WithAPIKey("..."),
//		assemblyai.WithTimeout(30*time.Second),
//		assemblyai.WithPolling(5*time.Second, 10*time.Minute),
//		assemblyai.WithRetry(assemblyai.RetryConfig{MaxRetries: 3, BaseDelay: time.Second}),
//		assemblyai.WithDebug(true),
//	)
//
// # Error Handling
//
//	_, err := client.Transcripts().Get(ctx, "transcript-id")
//	switch {
//	case assemblyai.IsNotFoundError(err):
//		fmt.Println("no such transcript")
//	case assemblyai.IsPollingTimeout(err):
//		fmt.Println("still processing")
//	case assemblyai.IsRateLimitError(err):
//		var rateLimitErr *assemblyai.RateLimitError
//		if errors.As(err, &rateLimitErr) {
//			fmt.Printf("rate limited, retry after %s\n", rateLimitErr.RetryAfter)
//		}
//	case err != nil:
//		log.Fatal(err)
//	}
//
// # Resources
//
//   - Files: upload local audio
//   - Transcripts: create, get, list, delete, wait, subtitles, sentences, paragraphs, word search, redacted audio
//   - Lemur: tasks, summaries, question answering, action items over transcripts
//   - Realtime: temporary streaming tokens; see NewRealtimeTranscriber for streaming
package assemblyai
