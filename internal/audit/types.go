package audit

import "time"

// Outcome is how a command ended up being handled.
type Outcome string

const (
	OutcomeOK    Outcome = "ok"
	OutcomeError Outcome = "error"
)

// Record is a single command audit entry. It is write-only diagnostic
// history: nothing in internal/integrator or internal/dispatcher ever
// reads a Record back into a playback decision, preserving the
// no-persisted-playback-state-across-restarts invariant.
type Record struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Command   string    `json:"command"` // play, pause, stop
	Target    string    `json:"target,omitempty"`
	Renderer  string    `json:"renderer,omitempty"`
	Outcome   Outcome   `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
}

// WriteRecordInput is the input to Service.RecordCommand.
type WriteRecordInput struct {
	Command  string
	Target   string
	Renderer string
	Outcome  Outcome
	Detail   string
}
