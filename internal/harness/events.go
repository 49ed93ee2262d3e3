package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/eventnav/internal/ir"
)

// EventSpec describes one event in a scenario or an ingest file.
type EventSpec struct {
	// ID is the event id. Empty ids are generated.
	ID string `yaml:"id,omitempty"`

	Project int64 `yaml:"project"`

	// At is the event time: a signed offset from now ("-2m", "0s") or an
	// RFC 3339 timestamp. Sub-second precision is dropped.
	At string `yaml:"at"`

	// Group sets group_id directly. Fingerprint derives it instead.
	Group       string   `yaml:"group,omitempty"`
	Fingerprint []string `yaml:"fingerprint,omitempty"`

	Attrs map[string]any `yaml:"attrs,omitempty"`
}

// EventFile is the top-level shape of an ingest file.
type EventFile struct {
	Events []EventSpec `yaml:"events"`
}

func (e EventSpec) validate() error {
	if e.Project == 0 {
		return fmt.Errorf("project is required")
	}
	if e.At == "" {
		return fmt.Errorf("at is required")
	}
	if _, err := ParseTime(e.At, DefaultNow); err != nil {
		return err
	}
	if e.Group != "" && len(e.Fingerprint) > 0 {
		return fmt.Errorf("group and fingerprint are mutually exclusive")
	}
	for name := range e.Attrs {
		if ir.IsReservedColumn(name) {
			return fmt.Errorf("attrs: %q is a reserved column", name)
		}
	}
	return nil
}

// ParseTime resolves an offset ("-90s", "+1h") against now, or parses an
// RFC 3339 timestamp. The result is UTC, truncated to the second.
func ParseTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return now.Add(d).UTC().Truncate(time.Second), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: want an offset like -2m or RFC 3339", s)
	}
	return t.UTC().Truncate(time.Second), nil
}

// BuildEvents resolves specs into events. newID supplies ids for specs
// without one.
func BuildEvents(specs []EventSpec, now time.Time, newID func() string) ([]ir.Event, error) {
	events := make([]ir.Event, 0, len(specs))
	for i, spec := range specs {
		e, err := spec.build(now, newID)
		if err != nil {
			return nil, fmt.Errorf("events[%d]: %w", i, err)
		}
		events = append(events, e)
	}
	return events, nil
}

func (e EventSpec) build(now time.Time, newID func() string) (ir.Event, error) {
	if err := e.validate(); err != nil {
		return ir.Event{}, err
	}
	ts, err := ParseTime(e.At, now)
	if err != nil {
		return ir.Event{}, err
	}
	attrs, err := ir.ObjectFromMap(e.Attrs)
	if err != nil {
		return ir.Event{}, fmt.Errorf("attrs: %w", err)
	}

	group := e.Group
	if len(e.Fingerprint) > 0 {
		group, err = ir.GroupHash(e.Project, e.Fingerprint)
		if err != nil {
			return ir.Event{}, fmt.Errorf("fingerprint: %w", err)
		}
	}

	id := e.ID
	if id == "" {
		id = newID()
	}

	return ir.Event{
		ProjectID: e.Project,
		EventID:   id,
		GroupID:   group,
		Timestamp: ts,
		Attrs:     attrs,
	}, nil
}

// LoadEvents reads an ingest file and resolves its events against now.
func LoadEvents(path string, now time.Time, newID func() string) ([]ir.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read events file: %w", err)
	}

	var file EventFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return BuildEvents(file.Events, now, newID)
}
