package persistence

import (
	"testing"
	"time"

	"github.com/airenas/podscript/internal/pkg/status"
	"github.com/stretchr/testify/assert"
)

func TestEpisode_Eligible(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		e    Episode
		want bool
	}{
		{name: "OK", e: Episode{ID: "1", FeedURL: "http://f", GUID: "g"}, want: true},
		{name: "Deleted", e: Episode{ID: "1", FeedURL: "http://f", GUID: "g", DeletedAt: &now}, want: false},
		{name: "No feed", e: Episode{ID: "1", GUID: "g"}, want: false},
		{name: "Blank feed", e: Episode{ID: "1", FeedURL: "  ", GUID: "g"}, want: false},
		{name: "No guid", e: Episode{ID: "1", FeedURL: "http://f"}, want: false},
		{name: "Blank guid", e: Episode{ID: "1", FeedURL: "http://f", GUID: "\t"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.e.Eligible())
		})
	}
}

func TestOutcome_Valid(t *testing.T) {
	assert.True(t, (&Outcome{Status: status.Done, Text: "olia"}).Valid())
	assert.False(t, (&Outcome{Status: status.Done, Text: " "}).Valid())
	assert.True(t, (&Outcome{Status: status.Error, ErrorMessage: "err"}).Valid())
	assert.False(t, (&Outcome{Status: status.Error}).Valid())
	assert.False(t, (&Outcome{}).Valid())
}
