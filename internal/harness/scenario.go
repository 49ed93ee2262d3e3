package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/eventnav/internal/eventstore"
	"github.com/roach88/eventnav/internal/queryir"
)

// DefaultNow is the clock reading used when a scenario does not set one.
var DefaultNow = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Scenario defines a set of events and the lookups to run over them.
type Scenario struct {
	// Name uniquely identifies this scenario; it names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Now fixes the clock (RFC 3339). Defaults to DefaultNow.
	Now string `yaml:"now,omitempty"`

	// RetentionDays clamps the default window. Zero means unbounded.
	RetentionDays int `yaml:"retention_days,omitempty"`

	// Events are written to the store before any lookup runs.
	Events []EventSpec `yaml:"events"`

	// Lookups run in order against the populated store.
	Lookups []LookupStep `yaml:"lookups"`
}

// LookupStep is one neighbour lookup and its expected outcome.
type LookupStep struct {
	Name string `yaml:"name"`

	// Ref is the event id of the reference event. Empty means the
	// reference is absent.
	Ref string `yaml:"ref,omitempty"`

	// RefProject disambiguates Ref when several projects share the id.
	RefProject int64 `yaml:"ref_project,omitempty"`

	// Direction is "next" or "prev".
	Direction string `yaml:"direction"`

	// FilterKeys restricts columns to allowed values.
	FilterKeys map[string][]any `yaml:"filter_keys,omitempty"`

	// Conditions use the "<column> <op> <value>" syntax.
	Conditions []string `yaml:"conditions,omitempty"`

	// Start and End narrow the window (offset or RFC 3339).
	Start string `yaml:"start,omitempty"`
	End   string `yaml:"end,omitempty"`

	// Exactly one of Expect, ExpectNone and ExpectError must be set.
	Expect      string `yaml:"expect,omitempty"`
	ExpectNone  bool   `yaml:"expect_none,omitempty"`
	ExpectError string `yaml:"expect_error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML held in memory.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "lookup:" vs "lookups:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// clock returns the scenario's fixed clock reading.
func (s *Scenario) clock() (time.Time, error) {
	if s.Now == "" {
		return DefaultNow, nil
	}
	t, err := time.Parse(time.RFC3339, s.Now)
	if err != nil {
		return time.Time{}, fmt.Errorf("now: %w", err)
	}
	return t.UTC(), nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Lookups) == 0 {
		return fmt.Errorf("lookups list is required and must be non-empty")
	}

	if s.RetentionDays < 0 {
		return fmt.Errorf("retention_days must be >= 0")
	}

	if _, err := s.clock(); err != nil {
		return err
	}

	ids := make(map[string]int)
	for i, e := range s.Events {
		if err := e.validate(); err != nil {
			return fmt.Errorf("events[%d]: %w", i, err)
		}
		if e.ID != "" {
			ids[e.ID]++
		}
	}

	for i, l := range s.Lookups {
		if err := validateLookup(l, s.Events, ids); err != nil {
			return fmt.Errorf("lookups[%d]: %w", i, err)
		}
	}

	return nil
}

func validateLookup(l LookupStep, events []EventSpec, ids map[string]int) error {
	if l.Name == "" {
		return fmt.Errorf("name is required")
	}

	if _, err := eventstore.ParseDirection(l.Direction); err != nil {
		return err
	}

	set := 0
	if l.Expect != "" {
		set++
	}
	if l.ExpectNone {
		set++
	}
	if l.ExpectError != "" {
		set++
	}
	if set != 1 {
		return fmt.Errorf("exactly one of expect, expect_none, expect_error is required")
	}

	if l.Ref != "" {
		if _, err := findRef(events, l.Ref, l.RefProject); err != nil {
			return err
		}
		if l.RefProject == 0 && ids[l.Ref] > 1 {
			return fmt.Errorf("ref %q is ambiguous, set ref_project", l.Ref)
		}
	}

	if _, err := queryir.ParseConditions(l.Conditions); err != nil {
		return err
	}
	for col, vals := range l.FilterKeys {
		if !queryir.ValidIdentifier(col) {
			return fmt.Errorf("filter_keys: invalid column %q", col)
		}
		if _, err := filterValues(vals); err != nil {
			return fmt.Errorf("filter_keys.%s: %w", col, err)
		}
	}
	for _, bound := range []string{l.Start, l.End} {
		if bound == "" {
			continue
		}
		if _, err := ParseTime(bound, DefaultNow); err != nil {
			return err
		}
	}
	return nil
}

// findRef locates the event a lookup refers to.
func findRef(events []EventSpec, id string, project int64) (int, error) {
	for i, e := range events {
		if e.ID == id && (project == 0 || e.Project == project) {
			return i, nil
		}
	}
	if project != 0 {
		return -1, fmt.Errorf("ref %d/%s is not a scenario event", project, id)
	}
	return -1, fmt.Errorf("ref %q is not a scenario event", id)
}
