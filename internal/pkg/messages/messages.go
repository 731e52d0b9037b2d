package messages

import (
	amessages "github.com/airenas/async-api/pkg/messages"
)

const (
	st = "PODSCRIPT/"
	// Run queue name, manual run requests
	Run = st + "Run"
	// TranscriptReady queue name
	TranscriptReady = st + "TranscriptReady"
)

// RunMessage asks worker to run a job
type RunMessage struct {
	amessages.QueueMessage
	Job string `json:"job"`
}

// TranscriptReadyMessage is sent after a transcript is stored
type TranscriptReadyMessage struct {
	amessages.QueueMessage
	Source    string `json:"source"`
	WordCount int    `json:"wordCount"`
}

// NewTranscriptReady creates message for an episode
func NewTranscriptReady(episodeID, source string, wordCount int) *TranscriptReadyMessage {
	return &TranscriptReadyMessage{QueueMessage: amessages.QueueMessage{ID: episodeID}, Source: source, WordCount: wordCount}
}
