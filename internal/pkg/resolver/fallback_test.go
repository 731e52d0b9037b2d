package resolver

import (
	"testing"

	"github.com/airenas/podscript/internal/pkg/tier/api"
	"github.com/stretchr/testify/assert"
)

func TestShouldEscalate(t *testing.T) {
	all := []api.Variant{api.VFull, api.VPartial, api.VProcessing, api.VNotFound, api.VNoMatch, api.VError}
	tests := []struct {
		name   string
		p      *Policy
		lr     api.LookupResult
		left   bool
		expect bool
	}{
		{name: "not found", p: &Policy{Enabled: true, Triggers: DefaultTriggers}, lr: api.NotFound{}, left: true, expect: true},
		{name: "no match", p: &Policy{Enabled: true, Triggers: DefaultTriggers}, lr: api.NoMatch{}, left: true, expect: true},
		{name: "error", p: &Policy{Enabled: true, Triggers: DefaultTriggers}, lr: api.Error{Message: "olia"}, left: true, expect: true},
		{name: "quota", p: &Policy{Enabled: true, Triggers: DefaultTriggers}, lr: api.Error{Message: api.CreditsExceeded}, left: true},
		{name: "disabled", p: &Policy{Triggers: DefaultTriggers}, lr: api.NotFound{}, left: true},
		{name: "nil", lr: api.NotFound{}, left: true},
		{name: "no budget", p: &Policy{Enabled: true, Triggers: DefaultTriggers}, lr: api.NotFound{}},
		{name: "not in triggers", p: &Policy{Enabled: true, Triggers: []api.Variant{api.VNoMatch}}, lr: api.NotFound{}, left: true},
		{name: "full", p: &Policy{Enabled: true, Triggers: all}, lr: api.Full{Text: "a"}, left: true},
		{name: "partial", p: &Policy{Enabled: true, Triggers: all}, lr: api.Partial{Text: "a"}, left: true},
		{name: "processing", p: &Policy{Enabled: true, Triggers: all}, lr: api.Processing{}, left: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, tt.p.ShouldEscalate(tt.lr, tt.left))
		})
	}
}

func TestTooLarge(t *testing.T) {
	p := &Policy{MaxFileSize: 100}
	assert.False(t, p.TooLarge(0))
	assert.False(t, p.TooLarge(100))
	assert.True(t, p.TooLarge(101))
	assert.False(t, (&Policy{}).TooLarge(1000))
}
