package audio

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/airenas/podscript/internal/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedTmpl = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Show</title>
<item>
  <title>Ep 1</title>
  <guid>g1</guid>
  <enclosure url="%s/audio/1.mp3" length="1234" type="audio/mpeg"/>
</item>
<item>
  <title>Ep 2</title>
  <guid>g2</guid>
</item>
</channel>
</rss>`

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cf := context.WithTimeout(context.Background(), time.Second*20)
	t.Cleanup(cf)
	return ctx
}

func initServer(t *testing.T, audioLen int) (*httptest.Server, *[]string) {
	t.Helper()
	calls := make([]string, 0)
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		calls = append(calls, req.Method+" "+req.URL.Path)
		switch req.URL.Path {
		case "/feed":
			rw.Header().Set("Content-Type", "application/rss+xml")
			_, _ = rw.Write([]byte(fmt.Sprintf(feedTmpl, server.URL)))
		case "/audio/1.mp3":
			if audioLen < 0 {
				rw.WriteHeader(http.StatusNotFound)
				return
			}
			rw.Header().Set("Content-Length", fmt.Sprintf("%d", audioLen))
			rw.WriteHeader(http.StatusOK)
		default:
			rw.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestLocate_Stored(t *testing.T) {
	server, calls := initServer(t, 5000)
	l := NewLocator()

	r, err := l.Locate(testCtx(t), &persistence.Episode{ID: "1", AudioURL: server.URL + "/audio/1.mp3"})

	require.Nil(t, err)
	assert.Equal(t, &Resource{URL: server.URL + "/audio/1.mp3", Size: 5000}, r)
	assert.Equal(t, []string{"HEAD /audio/1.mp3"}, *calls)
}

func TestLocate_Feed(t *testing.T) {
	server, calls := initServer(t, 5000)
	l := NewLocator()

	r, err := l.Locate(testCtx(t), &persistence.Episode{ID: "1", FeedURL: server.URL + "/feed", GUID: "g1"})

	require.Nil(t, err)
	assert.Equal(t, &Resource{URL: server.URL + "/audio/1.mp3", Size: 5000}, r)
	assert.Equal(t, []string{"GET /feed", "HEAD /audio/1.mp3"}, *calls)
}

func TestLocate_FeedLength(t *testing.T) {
	server, _ := initServer(t, -1)
	l := NewLocator()

	r, err := l.Locate(testCtx(t), &persistence.Episode{ID: "1", FeedURL: server.URL + "/feed", GUID: "g1"})

	require.Nil(t, err)
	assert.Equal(t, int64(1234), r.Size)
}

func TestLocate_UnknownSize(t *testing.T) {
	server, _ := initServer(t, -1)
	l := NewLocator()

	r, err := l.Locate(testCtx(t), &persistence.Episode{ID: "1", AudioURL: server.URL + "/audio/1.mp3"})

	require.Nil(t, err)
	assert.Equal(t, int64(0), r.Size)
}

func TestLocate_Fail(t *testing.T) {
	server, _ := initServer(t, 10)
	tests := []struct {
		name string
		ep   persistence.Episode
	}{
		{name: "no enclosure", ep: persistence.Episode{FeedURL: server.URL + "/feed", GUID: "g2"}},
		{name: "no item", ep: persistence.Episode{FeedURL: server.URL + "/feed", GUID: "g3"}},
		{name: "no feed", ep: persistence.Episode{FeedURL: server.URL + "/other", GUID: "g1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLocator()
			_, err := l.Locate(testCtx(t), &tt.ep)
			assert.NotNil(t, err)
		})
	}
}
