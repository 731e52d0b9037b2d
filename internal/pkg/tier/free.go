package tier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/podscript/internal/pkg/tier/api"
)

// FreeName tier name, also used as outcome source
const FreeName = "free"

// Free does a single lookup query, it can't generate transcripts
type Free struct {
	caller
	url     string
	timeout time.Duration
}

type freeResponse struct {
	Matched    bool `json:"matched"`
	Transcript *struct {
		Text     string `json:"text"`
		Complete *bool  `json:"complete,omitempty"`
	} `json:"transcript"`
	Credits int `json:"credits"`
}

// NewFree creates free tier client
func NewFree(urlStr, apiKey string) (*Free, error) {
	if err := validateURL("free URL", urlStr); err != nil {
		return nil, err
	}
	return &Free{caller: newCaller(apiKey), url: strings.TrimSuffix(urlStr, "/"), timeout: time.Second * 10}, nil
}

// Name returns tier name
func (c *Free) Name() string {
	return FreeName
}

// FetchTranscript looks up the transcript of an episode
func (c *Free) FetchTranscript(ctx context.Context, feedURL, guid string) api.LookupResult {
	var resp freeResponse
	code, err := c.getJSON(ctx, fmt.Sprintf("%s/lookup?%s", c.url,
		url.Values{"feed_url": []string{feedURL}, "guid": []string{guid}}.Encode()), c.timeout, &resp)
	if err != nil {
		goapp.Log.Warn().Str("component", "tier").Str("tier", FreeName).Err(err).Msg("lookup failed")
		return toError(code, err)
	}
	credits := resp.Credits
	if credits < 0 {
		credits = 0
	}
	if code == http.StatusNotFound || !resp.Matched {
		return api.NoMatch{CreditsConsumed: credits}
	}
	if resp.Transcript == nil || strings.TrimSpace(resp.Transcript.Text) == "" {
		return api.NotFound{CreditsConsumed: credits}
	}
	text := strings.TrimSpace(resp.Transcript.Text)
	if resp.Transcript.Complete != nil && !*resp.Transcript.Complete {
		return api.Partial{Text: text, WordCount: api.CountWords(text), CreditsConsumed: credits, Reason: "incomplete"}
	}
	return api.Full{Text: text, WordCount: api.CountWords(text), CreditsConsumed: credits}
}
