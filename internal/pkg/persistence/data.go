package persistence

import (
	"strings"
	"time"

	"github.com/airenas/podscript/internal/pkg/status"
)

type (

	//Episode table, read only for transcript work
	Episode struct {
		ID          string
		FeedURL     string
		GUID        string
		AudioURL    string
		PublishedAt time.Time
		DeletedAt   *time.Time
	}

	//Outcome is a transcript result stored once per episode
	Outcome struct {
		EpisodeID    string
		Status       status.Status
		Text         string
		WordCount    int
		Source       string
		ErrCategory  status.ErrCategory
		ErrorMessage string
		Credits      int
		ASRInvoked   bool
		Updated      time.Time
	}

	// RunSummary is the aggregate result of one worker run
	RunSummary struct {
		RunID            string         `json:"runID"`
		Job              string         `json:"job"`
		LockSkipped      bool           `json:"lockSkipped,omitempty"`
		Candidates       int            `json:"candidates"`
		Processed        int            `json:"processed"`
		Succeeded        int            `json:"succeeded"`
		FallbackInvoked  int            `json:"fallbackInvoked"`
		Failed           int            `json:"failed"`
		FailedByCategory map[string]int `json:"failedByCategory,omitempty"`
		APICalls         int            `json:"apiCalls"`
		Credits          int            `json:"credits"`
		Started          time.Time      `json:"started"`
		Elapsed          time.Duration  `json:"elapsed"`
	}

	// Selection tells which episodes to load for a run
	Selection struct {
		// Lookback window used in normal mode
		Lookback time.Duration
		// Override selects the Count most recent episodes regardless of window or stored outcome
		Override bool
		Count    int
	}
)

// Eligible returns true if episode can be sent for transcript lookup
func (e *Episode) Eligible() bool {
	return e.DeletedAt == nil && strings.TrimSpace(e.FeedURL) != "" && strings.TrimSpace(e.GUID) != ""
}

// Valid checks outcome invariant: done iff text is present
func (o *Outcome) Valid() bool {
	if o.Status == status.Done {
		return strings.TrimSpace(o.Text) != ""
	}
	return o.Status == status.Error && o.ErrorMessage != ""
}
