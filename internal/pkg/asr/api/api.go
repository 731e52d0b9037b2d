package api

import "context"

// ReasonFileTooLarge is used when audio size exceeds the configured limit
const ReasonFileTooLarge = "file_too_large"

// Result is one of Success, Skipped or Error
type Result interface {
	asrResult()
}

// Client transcribes audio available at URL
type Client interface {
	Transcribe(ctx context.Context, audioURL string, sizeBytes int64) Result
}

// Success - vendor returned a transcript
type Success struct {
	Text      string
	WordCount int
}

// Skipped - vendor was not invoked or refused to work
type Skipped struct {
	Reason string
}

// Error - vendor call failed
type Error struct {
	Message string
}

func (Success) asrResult() {}
func (Skipped) asrResult() {}
func (Error) asrResult()   {}
