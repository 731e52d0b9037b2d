package tier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/podscript/internal/pkg/tier/api"
	"github.com/cenkalti/backoff/v4"
)

const apiKeyHeader = "X-Api-Key"

// caller does GET json calls with one retry on transport failure
type caller struct {
	httpclient *http.Client
	apiKey     string
	backoff    func() backoff.BackOff
}

func newCaller(apiKey string) caller {
	return caller{httpclient: &http.Client{Transport: newTransport()}, apiKey: apiKey, backoff: newSimpleBackoff}
}

// httpError keeps a non 2xx response
type httpError struct {
	code int
	body string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("resp code: %d, %s", e.code, e.body)
}

// getJSON calls urlStr and decodes the response into res.
// Returns http code, 404 is not an error - res stays untouched.
func (c *caller) getJSON(ctx context.Context, urlStr string, timeout time.Duration, res interface{}) (int, error) {
	code := 0
	_, err := goapp.InvokeWithBackoff(ctx, func() (interface{}, bool, error) {
		ctx, cancelF := context.WithTimeout(ctx, timeout)
		defer cancelF()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, false, err
		}
		if c.apiKey != "" {
			req.Header.Set(apiKeyHeader, c.apiKey)
		}
		req.Header.Set("Accept", "application/json")
		code = 0
		resp, err := c.httpclient.Do(req)
		if err != nil {
			// any transport failure gets one more attempt while the call is not canceled
			return nil, goapp.IsRetryableErr(err) || ctx.Err() == nil, fmt.Errorf("can't call: %w", err)
		}
		defer func() {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 10000))
			_ = resp.Body.Close()
		}()
		code = resp.StatusCode
		if code == http.StatusNotFound {
			return nil, false, nil
		}
		if code < 200 || code > 299 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
			return nil, isRetryableCode(code), fmt.Errorf("can't invoke '%s': %w", req.URL.String(),
				&httpError{code: code, body: strings.TrimSpace(string(b))})
		}
		if err := json.NewDecoder(resp.Body).Decode(res); err != nil {
			return nil, false, fmt.Errorf("can't decode response: %w", err)
		}
		return nil, false, nil
	}, c.backoff())
	return code, err
}

var quotaPhrases = []string{"credits exceeded", "quota exceeded", "rate limit", "too many requests"}

// isQuota detects provider quota exhaustion by http code or error text
func isQuota(code int, err error) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	for _, p := range quotaPhrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// toError classifies a failed call
func toError(code int, err error) api.Error {
	if isQuota(code, err) {
		return api.Error{Message: api.CreditsExceeded}
	}
	return api.Error{Message: err.Error()}
}

func isRetryableCode(code int) bool {
	return code >= 500 || code == http.StatusRequestTimeout
}

func newTransport() http.RoundTripper {
	res := http.DefaultTransport.(*http.Transport).Clone()
	res.MaxConnsPerHost = 100
	res.MaxIdleConns = 50
	res.MaxIdleConnsPerHost = 50
	res.IdleConnTimeout = 90 * time.Second
	return res
}

// newSimpleBackoff allows 2 attempts in total
func newSimpleBackoff() backoff.BackOff {
	res := backoff.NewExponentialBackOff()
	res.InitialInterval = time.Second
	return backoff.WithMaxRetries(res, 1)
}

func validateURL(name, u string) error {
	if u == "" {
		return fmt.Errorf("no %s", name)
	}
	if !strings.HasPrefix(u, "http") {
		return fmt.Errorf("no http in %s", name)
	}
	return nil
}
