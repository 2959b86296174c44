package dial

// State is the dialer run state.
type State string

const (
	StateIdle     State = "idle"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StatePaused   State = "paused"
	StateFinished State = "finished"
	StateFailed   State = "failed"
)

// Running returns true while a run is active, paused included.
func (s State) Running() bool {
	return s == StateStarting || s == StateRunning || s == StatePaused
}

// Snapshot is an immutable view of the dialer state.
type Snapshot struct {
	RunID  string
	State  State
	Status string
	// Code and Phone are the current call, empty when there is none.
	Code  string
	Phone string
	// AwaitingOutcome is true while the loop waits for the operator.
	AwaitingOutcome bool
	Processed       int
	Total           int
	PendingPriority int
	// Fatal is the error that ended the run, if any.
	Fatal string
}
