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

const (
	// BusinessName tier name, also used as outcome source
	BusinessName = "business"

	stProcessing = "PROCESSING"
	stFailed     = "FAILED"
	stPartial    = "PARTIAL"
)

// Business resolves transcripts in three steps: series by feed, episode by guid, transcript by episode
type Business struct {
	caller
	url           string
	lookupTimeout time.Duration
	fetchTimeout  time.Duration
}

type (
	idItem struct {
		ID string `json:"id"`
	}
	seriesResponse struct {
		Series []idItem `json:"series"`
	}
	episodesResponse struct {
		Episodes []idItem `json:"episodes"`
	}
	fragment struct {
		Speaker string `json:"speaker,omitempty"`
		Text    string `json:"text"`
	}
	transcriptResponse struct {
		Status    string     `json:"status"`
		Fragments []fragment `json:"fragments"`
		Credits   int        `json:"credits"`
	}
)

// NewBusiness creates business tier client
func NewBusiness(urlStr, apiKey string) (*Business, error) {
	if err := validateURL("business URL", urlStr); err != nil {
		return nil, err
	}
	res := &Business{caller: newCaller(apiKey), url: strings.TrimSuffix(urlStr, "/")}
	res.lookupTimeout = time.Second * 10
	res.fetchTimeout = time.Second * 30
	return res, nil
}

// Name returns tier name
func (c *Business) Name() string {
	return BusinessName
}

// FetchTranscript resolves the transcript of an episode
func (c *Business) FetchTranscript(ctx context.Context, feedURL, guid string) api.LookupResult {
	seriesID, res := findID(ctx, c, fmt.Sprintf("%s/series?%s", c.url, url.Values{"feed_url": []string{feedURL}}.Encode()),
		func(r *seriesResponse) []idItem { return r.Series })
	if res != nil {
		return res
	}
	episodeID, res := findID(ctx, c, fmt.Sprintf("%s/series/%s/episodes?%s", c.url, url.PathEscape(seriesID),
		url.Values{"guid": []string{guid}}.Encode()),
		func(r *episodesResponse) []idItem { return r.Episodes })
	if res != nil {
		return charged(res)
	}
	var tr transcriptResponse
	code, err := c.getJSON(ctx, fmt.Sprintf("%s/episodes/%s/transcript", c.url, url.PathEscape(episodeID)), c.fetchTimeout, &tr)
	if err != nil {
		goapp.Log.Warn().Str("component", "tier").Str("tier", BusinessName).Err(err).Msg("transcript fetch failed")
		return charged(toError(code, err))
	}
	if code == http.StatusNotFound {
		return api.NoMatch{CreditsConsumed: 1}
	}
	return classify(&tr)
}

func findID[T any](ctx context.Context, c *Business, urlStr string, take func(*T) []idItem) (string, api.LookupResult) {
	var r T
	code, err := c.getJSON(ctx, urlStr, c.lookupTimeout, &r)
	if err != nil {
		goapp.Log.Warn().Str("component", "tier").Str("tier", BusinessName).Err(err).Msg("lookup failed")
		return "", toError(code, err)
	}
	for _, it := range take(&r) {
		if strings.TrimSpace(it.ID) != "" {
			return it.ID, nil
		}
	}
	return "", api.NoMatch{CreditsConsumed: 1}
}

// charged marks an error after a resolved series, the series lookup is already billed
func charged(res api.LookupResult) api.LookupResult {
	if e, ok := res.(api.Error); ok && e.CreditsConsumed < 1 {
		e.CreditsConsumed = 1
		return e
	}
	return res
}

// classify maps transcript response to the result, status goes before the content
func classify(tr *transcriptResponse) api.LookupResult {
	credits := tr.Credits
	if credits < 1 {
		credits = 1
	}
	st := strings.ToUpper(strings.TrimSpace(tr.Status))
	switch st {
	case stProcessing:
		return api.Processing{CreditsConsumed: credits}
	case stFailed:
		return api.NotFound{CreditsConsumed: credits}
	}
	text := assemble(tr.Fragments)
	if text == "" {
		return api.NotFound{CreditsConsumed: credits}
	}
	// PARTIAL is the only incompleteness signal, everything else is complete
	if st == stPartial {
		return api.Partial{Text: text, WordCount: api.CountWords(text), CreditsConsumed: credits, Reason: "partial_status"}
	}
	return api.Full{Text: text, WordCount: api.CountWords(text), CreditsConsumed: credits}
}

func assemble(fragments []fragment) string {
	res := make([]string, 0, len(fragments))
	for _, f := range fragments {
		t := strings.TrimSpace(f.Text)
		if t == "" {
			continue
		}
		if sp := strings.TrimSpace(f.Speaker); sp != "" {
			t = sp + ": " + t
		}
		res = append(res, t)
	}
	return strings.Join(res, "\n")
}
