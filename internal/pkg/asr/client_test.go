package asr

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/airenas/podscript/internal/pkg/asr/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cf := context.WithTimeout(context.Background(), time.Second*20)
	t.Cleanup(cf)
	return ctx
}

func initTestServer(t *testing.T, code int, body string) (*Client, *[]vendorRequest, *[]string) {
	t.Helper()
	reqs := make([]vendorRequest, 0)
	auths := make([]string, 0)
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		var vr vendorRequest
		_ = json.Unmarshal(b, &vr)
		reqs = append(reqs, vr)
		auths = append(auths, req.Header.Get("Authorization"))
		rw.WriteHeader(code)
		_, _ = rw.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	c, err := NewClient(server.URL, "secret", "m1")
	require.Nil(t, err)
	return c, &reqs, &auths
}

func TestTranscribe(t *testing.T) {
	c, reqs, auths := initTestServer(t, http.StatusOK, `{"status":"completed","text":" hello world "}`)

	r := c.Transcribe(testCtx(t), "http://audio/1.mp3", 100)

	assert.Equal(t, api.Success{Text: "hello world", WordCount: 2}, r)
	require.Equal(t, 1, len(*reqs))
	assert.Equal(t, vendorRequest{AudioURL: "http://audio/1.mp3", Model: "m1"}, (*reqs)[0])
	assert.Equal(t, "Bearer secret", (*auths)[0])
}

func TestTranscribe_Results(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
		want api.Result
	}{
		{name: "no status", code: 200, body: `{"text":"olia"}`, want: api.Success{Text: "olia", WordCount: 1}},
		{name: "skipped", code: 200, body: `{"status":"skipped","reason":"music"}`, want: api.Skipped{Reason: "music"}},
		{name: "failed", code: 200, body: `{"status":"failed","error":"bad audio"}`, want: api.Error{Message: "bad audio"}},
		{name: "failed no msg", code: 200, body: `{"status":"failed"}`, want: api.Error{Message: "ASR failed"}},
		{name: "empty", code: 200, body: `{"status":"completed","text":"  "}`, want: api.Error{Message: "empty ASR transcript"}},
		{name: "unknown", code: 200, body: `{"status":"olia"}`, want: api.Error{Message: "unexpected ASR status 'olia'"}},
		{name: "code", code: 500, body: `boom`, want: api.Error{Message: "ASR resp code: 500, boom"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := initTestServer(t, tt.code, tt.body)
			assert.Equal(t, tt.want, c.Transcribe(testCtx(t), "http://audio/1.mp3", 0))
		})
	}
}

func TestTranscribe_WrongJSON(t *testing.T) {
	c, _, _ := initTestServer(t, http.StatusOK, `olia`)

	r := c.Transcribe(testCtx(t), "http://audio/1.mp3", 0)

	e, ok := r.(api.Error)
	require.True(t, ok)
	assert.Contains(t, e.Message, "can't decode")
}

func TestTranscribe_NoURL(t *testing.T) {
	c, reqs, _ := initTestServer(t, http.StatusOK, `{}`)

	assert.Equal(t, api.Skipped{Reason: "no_audio_url"}, c.Transcribe(testCtx(t), " ", 0))
	assert.Equal(t, 0, len(*reqs))
}

func TestTranscribe_Unreachable(t *testing.T) {
	c, err := NewClient("http://127.0.0.1:1", "", "")
	require.Nil(t, err)

	r := c.Transcribe(testCtx(t), "http://audio/1.mp3", 0)

	_, ok := r.(api.Error)
	assert.True(t, ok)
}

func TestTimeout(t *testing.T) {
	c := &Client{baseTimeout: time.Minute, perMB: time.Second, maxTimeout: time.Minute * 3}
	assert.Equal(t, time.Minute, c.timeout(0))
	assert.Equal(t, time.Minute, c.timeout(1024))
	assert.Equal(t, time.Minute+10*time.Second, c.timeout(10*1024*1024))
	assert.Equal(t, time.Minute*3, c.timeout(1024*1024*1024))
}

func TestNewClient(t *testing.T) {
	_, err := NewClient("", "", "")
	assert.NotNil(t, err)
	_, err = NewClient("olia", "", "")
	assert.NotNil(t, err)
	c, err := NewClient("http://olia/", "", "")
	require.Nil(t, err)
	assert.Equal(t, "http://olia/transcriptions", c.url)
}
