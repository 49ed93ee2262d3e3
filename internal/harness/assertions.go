package harness

import (
	"fmt"
	"strings"
)

// ExpectationError is returned when a lookup outcome differs from the
// scenario's expectation.
type ExpectationError struct {
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *ExpectationError) Error() string {
	return fmt.Sprintf("expected %s, got %s", e.Expected, e.Actual)
}

// checkExpectation compares one trace entry with its lookup's expectation.
func checkExpectation(step LookupStep, entry TraceEntry) error {
	var expected string
	switch {
	case step.ExpectNone:
		if entry.Outcome == OutcomeNone {
			return nil
		}
		expected = "no neighbour"
	case step.ExpectError != "":
		if entry.Outcome == OutcomeError && strings.EqualFold(entry.Error, step.ExpectError) {
			return nil
		}
		expected = "error " + strings.ToUpper(step.ExpectError)
	default:
		if entry.Outcome == OutcomeFound && entry.Neighbour == step.Expect {
			return nil
		}
		expected = step.Expect
	}

	actual := describe(entry)
	if entry.Outcome == OutcomeNone {
		actual = "no neighbour"
	}
	return &ExpectationError{Expected: expected, Actual: actual}
}
