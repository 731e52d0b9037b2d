package status

// Status represents persisted transcript outcome status
type Status int

const (
	// Done - transcript text is stored
	Done Status = iota + 1
	// Error - no transcript, error message is stored
	Error
)

var (
	statusName = map[Status]string{Done: "done", Error: "error"}
	nameStatus = map[string]Status{"done": Done, "error": Error}
)

func (st Status) String() string {
	return statusName[st]
}

// From returns status obj from string
func From(st string) Status {
	return nameStatus[st]
}

// ErrCategory classifies why an episode has no transcript
type ErrCategory int

const (
	// ECIneligible - episode fails preconditions, no call made
	ECIneligible ErrCategory = iota + 1
	// ECBudgetExhausted - run level api call cap reached
	ECBudgetExhausted
	// ECQuotaExceeded - provider reported credits/quota exhaustion
	ECQuotaExceeded
	// ECNotFound - provider has no transcript
	ECNotFound
	// ECNoMatch - provider can't match the episode
	ECNoMatch
	// ECProcessing - provider is generating the transcript
	ECProcessing
	// ECTransportError - call failed after retries
	ECTransportError
	// ECFileTooLarge - fallback skipped because of the audio size
	ECFileTooLarge
	// ECDatabaseError - outcome could not be persisted
	ECDatabaseError
)

var (
	ecName = map[ErrCategory]string{ECIneligible: "ineligible", ECBudgetExhausted: "budget_exhausted",
		ECQuotaExceeded: "quota_exceeded", ECNotFound: "not_found", ECNoMatch: "no_match",
		ECProcessing: "processing", ECTransportError: "transport_error", ECFileTooLarge: "file_too_large",
		ECDatabaseError: "database_error"}
	nameEC = map[string]ErrCategory{}
)

func init() {
	for k, v := range ecName {
		nameEC[v] = k
	}
}

func (ec ErrCategory) String() string {
	return ecName[ec]
}

// ECFrom returns error category from string
func ECFrom(s string) ErrCategory {
	return nameEC[s]
}
