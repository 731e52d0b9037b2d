package asr

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/podscript/internal/pkg/asr/api"
	"github.com/go-resty/resty/v2"
)

const (
	vendorCompleted = "completed"
	vendorFailed    = "failed"
	vendorSkipped   = "skipped"
)

// Client calls the paid ASR vendor
type Client struct {
	client      *resty.Client
	url         string
	model       string
	baseTimeout time.Duration
	perMB       time.Duration
	maxTimeout  time.Duration
}

type vendorRequest struct {
	AudioURL string `json:"audio_url"`
	Model    string `json:"model,omitempty"`
}

type vendorResponse struct {
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// NewClient creates ASR vendor client
func NewClient(urlStr, apiKey, model string) (*Client, error) {
	if urlStr == "" {
		return nil, fmt.Errorf("no ASR URL")
	}
	if !strings.HasPrefix(urlStr, "http") {
		return nil, fmt.Errorf("no http in ASR URL")
	}
	res := &Client{url: strings.TrimSuffix(urlStr, "/") + "/transcriptions", model: model}
	res.baseTimeout = time.Minute * 2
	res.perMB = time.Second * 3
	res.maxTimeout = time.Minute * 60
	res.client = resty.New()
	if apiKey != "" {
		res.client.SetAuthToken(apiKey)
	}
	res.client.SetHeader("Content-Type", "application/json")
	res.client.SetTimeout(res.maxTimeout)
	goapp.Log.Info().Str("url", res.url).Str("model", model).Msg("ASR client")
	return res, nil
}

// Transcribe invokes the vendor, the call timeout scales with the audio size
func (c *Client) Transcribe(ctx context.Context, audioURL string, sizeBytes int64) api.Result {
	if strings.TrimSpace(audioURL) == "" {
		return api.Skipped{Reason: "no_audio_url"}
	}
	ctx, cancelF := context.WithTimeout(ctx, c.timeout(sizeBytes))
	defer cancelF()

	defer goapp.Estimate("asr call")()
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(vendorRequest{AudioURL: audioURL, Model: c.model}).
		Post(c.url)
	if err != nil {
		return api.Error{Message: fmt.Sprintf("can't call ASR: %v", err)}
	}
	if resp.IsError() {
		return api.Error{Message: fmt.Sprintf("ASR resp code: %d, %s", resp.StatusCode(), limit(strings.TrimSpace(resp.String()), 200))}
	}
	var vr vendorResponse
	if err := json.Unmarshal(resp.Body(), &vr); err != nil {
		return api.Error{Message: fmt.Sprintf("can't decode ASR response: %v", err)}
	}
	switch strings.ToLower(vr.Status) {
	case vendorSkipped:
		return api.Skipped{Reason: vr.Reason}
	case vendorFailed:
		return api.Error{Message: defaultS(vr.Error, "ASR failed")}
	case vendorCompleted, "":
	default:
		return api.Error{Message: fmt.Sprintf("unexpected ASR status '%s'", vr.Status)}
	}
	text := strings.TrimSpace(vr.Text)
	if text == "" {
		return api.Error{Message: "empty ASR transcript"}
	}
	return api.Success{Text: text, WordCount: len(strings.Fields(text))}
}

func (c *Client) timeout(sizeBytes int64) time.Duration {
	res := c.baseTimeout
	if sizeBytes > 0 {
		res += time.Duration(sizeBytes/(1024*1024)) * c.perMB
	}
	if res > c.maxTimeout {
		return c.maxTimeout
	}
	return res
}

func limit(s string, l int) string {
	if len(s) > l {
		return s[:l] + "..."
	}
	return s
}

func defaultS(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
