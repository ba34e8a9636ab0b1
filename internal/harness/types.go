package harness

import (
	"context"

	"github.com/google/uuid"
)

// OutcomeStatus classifies an evaluated expectation.
type OutcomeStatus string

const (
	// StatusPass means the engine's count matched the expected count.
	StatusPass OutcomeStatus = "PASS"

	// StatusFail means the counts differed.
	StatusFail OutcomeStatus = "FAIL"

	// StatusSkip means the invocation failed; no count was obtained.
	StatusSkip OutcomeStatus = "SKIP"
)

// Outcome is the result of evaluating one expectation.
//
// Actual is only meaningful when Status is StatusPass or StatusFail;
// Diagnostic is only set when Status is StatusSkip.
type Outcome struct {
	Position   string
	Depth      int
	Expected   uint64
	Actual     uint64
	Status     OutcomeStatus
	Diagnostic string
}

// Tally accumulates per-expectation results over a run.
//
// Every outcome increments exactly one bucket. Skipped counts invocation
// failures, so the summary makes visible how much of the corpus was
// actually evaluated.
type Tally struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`

	// Nodes is the sum of actual counts over evaluated expectations.
	Nodes uint64 `json:"nodes"`
}

// Evaluated returns the number of expectations that produced a count.
func (t Tally) Evaluated() int {
	return t.Passed + t.Failed
}

// Merge adds another tally into this one. Used by suite runs to build a
// combined summary.
func (t *Tally) Merge(other Tally) {
	t.Passed += other.Passed
	t.Failed += other.Failed
	t.Skipped += other.Skipped
	t.Nodes += other.Nodes
}

// Recorder receives outcomes as a run progresses, for persistence.
//
// Recorder failures are recoverable: the harness logs them and keeps going,
// so a broken history database never aborts a verification pass.
type Recorder interface {
	RecordOutcome(ctx context.Context, runID string, o Outcome) error
}

// RunIDGenerator produces identifiers for persisted runs.
type RunIDGenerator interface {
	NewRunID() string
}

// UUIDv7Generator generates time-ordered UUIDs, so run IDs sort by start
// time in the history listing.
type UUIDv7Generator struct{}

// NewRunID implements RunIDGenerator.
func (UUIDv7Generator) NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}
