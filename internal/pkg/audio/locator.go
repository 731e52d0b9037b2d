package audio

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/podscript/internal/pkg/persistence"
	"github.com/mmcdole/gofeed"
)

// Resource is an audio file location, Size is 0 when unknown
type Resource struct {
	URL  string
	Size int64
}

// Locator finds episode audio and its size
type Locator struct {
	httpclient  *http.Client
	feedParser  *gofeed.Parser
	headTimeout time.Duration
	feedTimeout time.Duration
}

// NewLocator creates locator
func NewLocator() *Locator {
	res := &Locator{headTimeout: time.Second * 10, feedTimeout: time.Second * 30}
	res.httpclient = &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	res.feedParser = gofeed.NewParser()
	res.feedParser.Client = res.httpclient
	return res
}

// Locate returns episode audio URL and size.
// Stored audio URL is used when present, otherwise the feed item enclosure with the same GUID.
func (l *Locator) Locate(ctx context.Context, ep *persistence.Episode) (*Resource, error) {
	res := &Resource{URL: strings.TrimSpace(ep.AudioURL)}
	if res.URL == "" {
		enc, err := l.fromFeed(ctx, ep.FeedURL, ep.GUID)
		if err != nil {
			return nil, err
		}
		res.URL = enc.URL
		res.Size, _ = strconv.ParseInt(strings.TrimSpace(enc.Length), 10, 64)
	}
	size, err := l.head(ctx, res.URL)
	if err != nil {
		goapp.Log.Warn().Err(err).Str("ID", ep.ID).Str("url", res.URL).Msg("can't get audio size")
	} else if size > 0 {
		res.Size = size
	}
	if res.Size < 0 {
		res.Size = 0
	}
	return res, nil
}

func (l *Locator) fromFeed(ctx context.Context, feedURL, guid string) (*gofeed.Enclosure, error) {
	ctx, cancelF := context.WithTimeout(ctx, l.feedTimeout)
	defer cancelF()
	feed, err := l.feedParser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("can't parse feed: %w", err)
	}
	for _, item := range feed.Items {
		if item == nil || strings.TrimSpace(item.GUID) != strings.TrimSpace(guid) {
			continue
		}
		for _, enc := range item.Enclosures {
			if enc != nil && enc.URL != "" {
				return enc, nil
			}
		}
		return nil, fmt.Errorf("no enclosure for item '%s'", guid)
	}
	return nil, fmt.Errorf("no item '%s' in feed", guid)
}

func (l *Locator) head(ctx context.Context, urlStr string) (int64, error) {
	ctx, cancelF := context.WithTimeout(ctx, l.headTimeout)
	defer cancelF()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, urlStr, nil)
	if err != nil {
		return 0, fmt.Errorf("can't prepare request: %w", err)
	}
	resp, err := l.httpclient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("can't call: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("resp code: %d", resp.StatusCode)
	}
	return resp.ContentLength, nil
}
