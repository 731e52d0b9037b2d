package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/airenas/podscript/internal/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method, path string
}

func initServer(t *testing.T, code int, body string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, recorded{method: r.Method, path: r.URL.Path})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRun(t *testing.T) {
	b, _ := json.Marshal(persistence.RunSummary{RunID: "r-1", Job: "transcripts", Processed: 3, Succeeded: 2,
		Failed: 1, FailedByCategory: map[string]int{"not_found": 1}})
	srv, calls := initServer(t, http.StatusOK, string(b))

	out, err := runCLI(t, "--url", srv.URL, "run", "transcripts")

	require.Nil(t, err)
	assert.Equal(t, []recorded{{method: http.MethodPost, path: "/run/transcripts"}}, *calls)
	assert.Contains(t, out, "r-1")
	assert.Contains(t, out, "Succeeded")
	assert.Contains(t, out, "not_found")
}

func TestRun_JSON(t *testing.T) {
	srv, _ := initServer(t, http.StatusOK, `{"runID":"r-2"}`)

	out, err := runCLI(t, "--url", srv.URL, "--json", "run", "transcripts")

	require.Nil(t, err)
	assert.Equal(t, `{"runID":"r-2"}`, strings.TrimSpace(out))
}

func TestRun_Fail(t *testing.T) {
	srv, _ := initServer(t, http.StatusNotFound, `{"message":"Unknown job"}`)

	_, err := runCLI(t, "--url", srv.URL, "run", "olia")

	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestRun_NoArgs(t *testing.T) {
	_, err := runCLI(t, "run")
	assert.NotNil(t, err)
}

func TestEnqueue(t *testing.T) {
	srv, calls := initServer(t, http.StatusAccepted, `{"id":"id1","job":"transcripts"}`)

	out, err := runCLI(t, "--url", srv.URL+"/", "enqueue", "transcripts")

	require.Nil(t, err)
	assert.Equal(t, []recorded{{method: http.MethodPost, path: "/enqueue/transcripts"}}, *calls)
	assert.Equal(t, "Enqueued transcripts: id1\n", out)
}

func TestStatus(t *testing.T) {
	srv, calls := initServer(t, http.StatusOK, `{"state":"idle"}`)

	out, err := runCLI(t, "--url", srv.URL, "status")

	require.Nil(t, err)
	assert.Equal(t, []recorded{{method: http.MethodGet, path: "/status"}}, *calls)
	assert.Equal(t, "idle\n", out)
}

func TestWrongURL(t *testing.T) {
	_, err := runCLI(t, "--url", "olia", "status")
	assert.NotNil(t, err)
}

func TestRenderCategories_Sorted(t *testing.T) {
	out := renderCategories(map[string]int{"no_match": 2, "error": 1})
	assert.Less(t, strings.Index(out, "error"), strings.Index(out, "no_match"))
}
