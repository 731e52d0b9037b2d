package budget

import "sync"

// RunBudget keeps per run call counters, safe for concurrent use
type RunBudget struct {
	lock sync.Mutex

	apiCallsMade     int
	apiCallsMax      int
	asrFallbacksUsed int
	asrFallbacksMax  int
	credits          int
	quotaHit         bool
}

// Snapshot is a copy of counters
type Snapshot struct {
	APICallsMade     int
	APICallsMax      int
	ASRFallbacksUsed int
	ASRFallbacksMax  int
	Credits          int
	QuotaHit         bool
}

// New creates budget for one run, negative max values are treated as 0
func New(apiCallsMax, asrFallbacksMax int) *RunBudget {
	return &RunBudget{apiCallsMax: nonNegative(apiCallsMax), asrFallbacksMax: nonNegative(asrFallbacksMax)}
}

// TryReserveAPICall increments api call counter if limit is not reached
func (b *RunBudget) TryReserveAPICall() bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.apiCallsMade >= b.apiCallsMax {
		return false
	}
	b.apiCallsMade++
	return true
}

// CanFallback reports if at least one ASR fallback is still available
func (b *RunBudget) CanFallback() bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.asrFallbacksUsed < b.asrFallbacksMax
}

// TryReserveFallback increments fallback counter if limit is not reached
func (b *RunBudget) TryReserveFallback() bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.asrFallbacksUsed >= b.asrFallbacksMax {
		return false
	}
	b.asrFallbacksUsed++
	return true
}

// AddCredits adds consumed credits to the run tally
func (b *RunBudget) AddCredits(c int) {
	if c <= 0 {
		return
	}
	b.lock.Lock()
	defer b.lock.Unlock()
	b.credits += c
}

// MarkQuota records that provider reported credits exceeded
func (b *RunBudget) MarkQuota() {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.quotaHit = true
}

// QuotaHit returns true after MarkQuota
func (b *RunBudget) QuotaHit() bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.quotaHit
}

// Snapshot returns a copy of counters
func (b *RunBudget) Snapshot() Snapshot {
	b.lock.Lock()
	defer b.lock.Unlock()
	return Snapshot{APICallsMade: b.apiCallsMade, APICallsMax: b.apiCallsMax,
		ASRFallbacksUsed: b.asrFallbacksUsed, ASRFallbacksMax: b.asrFallbacksMax,
		Credits: b.credits, QuotaHit: b.quotaHit}
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
