package harness

import (
	"github.com/roach88/mealdb/internal/lifecycle"
	"github.com/roach88/mealdb/internal/store"
)

// TraceEvent is one progress entry as it was emitted, tagged with the step
// that produced it.
type TraceEvent struct {
	Step  int    `json:"step"`
	Op    string `json:"op"`
	Seq   int64  `json:"seq"`
	Text  string `json:"text"`
	Reset bool   `json:"reset,omitempty"`
}

// StepResult is the outcome of a single step.
type StepResult struct {
	Index int    `json:"index"`
	Op    string `json:"op"`

	// ErrKind is the lifecycle.ErrorKind of the step's error, empty on success.
	ErrKind string `json:"err_kind,omitempty"`

	// Err is the full error message, empty on success.
	Err string `json:"err,omitempty"`

	Events []TraceEvent `json:"events"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	Name string `json:"name"`

	// Pass indicates overall test success.
	// True if every step and expectation matched.
	Pass bool `json:"pass"`

	Steps []StepResult `json:"steps"`

	// Trace is every emitted entry across all steps, in emission order.
	Trace []TraceEvent `json:"trace"`

	// Snapshot is the progress view after the last step.
	Snapshot []string `json:"snapshot"`

	State       lifecycle.State        `json:"state"`
	Transitions []lifecycle.Transition `json:"-"`
	Stats       store.Stats            `json:"stats"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(name string) *Result {
	return &Result{
		Name:   name,
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Texts returns the text of every traced entry.
func (r *Result) Texts() []string {
	out := make([]string, len(r.Trace))
	for i, ev := range r.Trace {
		out[i] = ev.Text
	}
	return out
}
