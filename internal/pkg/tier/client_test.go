package tier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
)

type testResp struct {
	code int
	resp string
}

func newTestR(code int, resp string) testResp {
	return testResp{code: code, resp: resp}
}

func initTestServer(t *testing.T, rData map[string]testResp) (caller, string, *[]string) {
	t.Helper()
	resRequest := make([]string, 0)
	rLock := &sync.Mutex{}
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		rLock.Lock()
		defer rLock.Unlock()
		resRequest = append(resRequest, req.URL.String())
		resp, f := rData[req.URL.String()]
		if f {
			rw.WriteHeader(resp.code)
			_, _ = rw.Write([]byte(resp.resp))
		} else {
			rw.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(func() { server.Close() })
	c := caller{httpclient: server.Client(), apiKey: "key",
		backoff: func() backoff.BackOff { return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 1) }}
	return c, server.URL, &resRequest
}

func TestIsQuota(t *testing.T) {
	tests := []struct {
		name string
		code int
		err  error
		want bool
	}{
		{name: "429", code: 429, want: true},
		{name: "429 with err", code: 429, err: errors.New("olia"), want: true},
		{name: "credits", code: 400, err: errors.New("Credits Exceeded for account"), want: true},
		{name: "quota", code: 403, err: errors.New("QUOTA EXCEEDED"), want: true},
		{name: "rate", err: errors.New("rate limit hit"), want: true},
		{name: "many", err: fmt.Errorf("wrap: %w", errors.New("Too Many Requests")), want: true},
		{name: "other", code: 500, err: errors.New("internal"), want: false},
		{name: "none", code: 200, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isQuota(tt.code, tt.err))
		})
	}
}

func TestIsRetryableCode(t *testing.T) {
	assert.True(t, isRetryableCode(500))
	assert.True(t, isRetryableCode(503))
	assert.True(t, isRetryableCode(408))
	assert.False(t, isRetryableCode(429))
	assert.False(t, isRetryableCode(400))
	assert.False(t, isRetryableCode(404))
}

func TestNewSimpleBackoff_TwoAttempts(t *testing.T) {
	b := newSimpleBackoff()
	assert.NotEqual(t, backoff.Stop, b.NextBackOff())
	assert.Equal(t, backoff.Stop, b.NextBackOff())
}

func TestGetJSON_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		select {
		case <-req.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()
	c := caller{httpclient: server.Client(), backoff: func() backoff.BackOff { return &backoff.StopBackOff{} }}
	var res map[string]interface{}
	_, err := c.getJSON(testCtx(t), server.URL, time.Millisecond*20, &res)
	assert.NotNil(t, err)
}

func TestValidateURL(t *testing.T) {
	assert.Nil(t, validateURL("u", "http://olia"))
	assert.NotNil(t, validateURL("u", ""))
	assert.NotNil(t, validateURL("u", "ftp://olia"))
}

func failingOnceTransport(calls *int, failErr error) http.RoundTripper {
	return roundTripFunc(func(r *http.Request) (*http.Response, error) {
		*calls++
		if *calls == 1 {
			return nil, failErr
		}
		return &http.Response{StatusCode: http.StatusOK, Header: http.Header{},
			Body: io.NopCloser(strings.NewReader(`{"v":"olia"}`)), Request: r}, nil
	})
}

func TestGetJSON_RetriesTransportErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "conn refused", err: &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}},
		{name: "dns", err: &net.DNSError{Err: "no such host", Name: "olia.invalid", IsNotFound: true}},
		{name: "tls", err: errors.New("tls: handshake failure")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			c := caller{httpclient: &http.Client{Transport: failingOnceTransport(&calls, tt.err)},
				backoff: func() backoff.BackOff { return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 1) }}
			var res struct {
				V string `json:"v"`
			}
			code, err := c.getJSON(testCtx(t), "http://olia.invalid/lookup", time.Second, &res)
			assert.Nil(t, err)
			assert.Equal(t, 2, calls)
			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, "olia", res.V)
		})
	}
}

func TestGetJSON_NoRetryWhenCanceled(t *testing.T) {
	ctx, cf := context.WithCancel(testCtx(t))
	calls := 0
	c := caller{httpclient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		cf()
		return nil, errors.New("tls: handshake failure")
	})}, backoff: func() backoff.BackOff { return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 1) }}
	var res map[string]interface{}
	_, err := c.getJSON(ctx, "http://olia.invalid/lookup", time.Second, &res)
	assert.NotNil(t, err)
	assert.Equal(t, 1, calls)
}
