package worker

// State is a coordinator run state
type State int32

const (
	Idle State = iota
	LockAcquiring
	Loading
	Processing
	Persisting
	Completed
	Failed
)

var stateName = map[State]string{Idle: "idle", LockAcquiring: "lock_acquiring", Loading: "loading",
	Processing: "processing", Persisting: "persisting", Completed: "completed", Failed: "failed"}

func (s State) String() string {
	return stateName[s]
}
