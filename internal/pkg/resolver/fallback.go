package resolver

import (
	"github.com/airenas/podscript/internal/pkg/tier/api"
)

// Policy configures ASR escalation
type Policy struct {
	Enabled bool
	// Triggers holds LookupResult variant names allowed to escalate
	Triggers []api.Variant
	// MaxFileSize in bytes, 0 - no limit
	MaxFileSize int64
}

// DefaultTriggers used when none configured
var DefaultTriggers = []api.Variant{api.VNoMatch, api.VNotFound, api.VError}

// ShouldEscalate decides if the tier result may go to ASR.
// Only failure results are considered, a quota error never escalates.
func (p *Policy) ShouldEscalate(lr api.LookupResult, fallbackLeft bool) bool {
	if p == nil || !p.Enabled || !fallbackLeft || !failed(lr) {
		return false
	}
	if e, ok := lr.(api.Error); ok && e.Quota() {
		return false
	}
	for _, t := range p.Triggers {
		if t == lr.Variant() {
			return true
		}
	}
	return false
}

// TooLarge returns true if known size exceeds the limit
func (p *Policy) TooLarge(size int64) bool {
	return p.MaxFileSize > 0 && size > p.MaxFileSize
}

func failed(lr api.LookupResult) bool {
	switch lr.(type) {
	case api.NotFound, api.NoMatch, api.Error:
		return true
	}
	return false
}
