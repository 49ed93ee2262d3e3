package harness

// Lookup outcomes recorded in the trace.
const (
	OutcomeFound = "found"
	OutcomeNone  = "none"
	OutcomeError = "error"
)

// TraceEntry is the observable result of one lookup.
type TraceEntry struct {
	Name      string `json:"name"`
	Direction string `json:"direction"`
	// Reference is "project/event", empty for an absent reference.
	Reference string `json:"reference,omitempty"`
	Outcome   string `json:"outcome"`
	// Neighbour is "project/event" when Outcome is found.
	Neighbour string `json:"neighbour,omitempty"`
	// Error is the eventstore error code when Outcome is error.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every lookup met its expectation.
	Pass bool `json:"pass"`

	// Backend names the store the scenario ran against.
	Backend string `json:"backend"`

	// Trace holds one entry per lookup, in scenario order.
	Trace []TraceEntry `json:"trace"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(backend string) *Result {
	return &Result{
		Pass:    true,
		Backend: backend,
		Trace:   []TraceEntry{},
		Errors:  []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
