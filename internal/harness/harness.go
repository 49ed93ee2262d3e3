package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/eventnav/internal/eventstore"
	"github.com/roach88/eventnav/internal/ir"
	"github.com/roach88/eventnav/internal/memstore"
	"github.com/roach88/eventnav/internal/queryir"
	"github.com/roach88/eventnav/internal/store"
	"github.com/roach88/eventnav/internal/testutil"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Target is an event store a scenario can run against.
type Target interface {
	eventstore.Querier
	WriteEvents(ctx context.Context, events ...ir.Event) error
}

// Backend opens a fresh, empty Target. The returned close function
// releases it.
type Backend struct {
	Name string
	Open func(ctx context.Context) (Target, func() error, error)
}

// MemoryBackend is the in-memory reference store.
func MemoryBackend() Backend {
	return Backend{
		Name: BackendMemory,
		Open: func(context.Context) (Target, func() error, error) {
			return memstore.New(), func() error { return nil }, nil
		},
	}
}

// SQLiteBackend is a private in-memory SQLite database.
func SQLiteBackend() Backend {
	return Backend{
		Name: BackendSQLite,
		Open: func(context.Context) (Target, func() error, error) {
			st, err := store.Open(":memory:")
			if err != nil {
				return nil, nil, fmt.Errorf("failed to create in-memory store: %w", err)
			}
			return st, st.Close, nil
		},
	}
}

// DefaultBackends are the backends RunAll cross-checks.
func DefaultBackends() []Backend {
	return []Backend{MemoryBackend(), SQLiteBackend()}
}

// Harness runs lookups against one populated target.
type Harness struct {
	storage *eventstore.EventStorage
	clock   *testutil.FixedClock
	events  []ir.Event
}

// Run executes a scenario against one backend and returns the result.
//
// Execution flow:
//  1. Open a fresh target
//  2. Resolve and write the scenario events
//  3. Run each lookup and record its trace entry
//  4. Check each entry against the lookup's expectation
//
// A returned error means the scenario could not be executed; failed
// expectations are reported in the Result.
func Run(ctx context.Context, scenario *Scenario, backend Backend) (*Result, error) {
	now, err := scenario.clock()
	if err != nil {
		return nil, err
	}
	clock := testutil.NewFixedClock(now)

	events, err := BuildEvents(scenario.Events, clock.Now(), testutil.NewSequentialIDs("evt").Next)
	if err != nil {
		return nil, err
	}

	target, closeTarget, err := backend.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer closeTarget()

	if err := target.WriteEvents(ctx, events...); err != nil {
		return nil, fmt.Errorf("write scenario events: %w", err)
	}

	h := &Harness{
		storage: eventstore.New(target,
			eventstore.WithClock(clock.Now),
			eventstore.WithRetentionDays(scenario.RetentionDays),
			eventstore.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		),
		clock:  clock,
		events: events,
	}

	result := NewResult(backend.Name)
	for i, step := range scenario.Lookups {
		entry, err := h.lookup(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("lookups[%d] %q: %w", i, step.Name, err)
		}
		result.Trace = append(result.Trace, entry)
		if err := checkExpectation(step, entry); err != nil {
			result.AddError(fmt.Sprintf("[%s] %s: %v", backend.Name, step.Name, err))
		}
	}
	return result, nil
}

// RunAll runs the scenario on every default backend and cross-checks the
// traces. The returned result is the reference (memory) result with any
// failures from the other backends merged in.
func RunAll(ctx context.Context, scenario *Scenario) (*Result, error) {
	return RunBackends(ctx, scenario, DefaultBackends()...)
}

// RunBackends is RunAll over an explicit backend list; the first backend is
// the reference.
func RunBackends(ctx context.Context, scenario *Scenario, backends ...Backend) (*Result, error) {
	if len(backends) == 0 {
		return nil, errors.New("no backends")
	}

	ref, err := Run(ctx, scenario, backends[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", backends[0].Name, err)
	}

	for _, b := range backends[1:] {
		other, err := Run(ctx, scenario, b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name, err)
		}
		for _, msg := range other.Errors {
			ref.AddError(msg)
		}
		for _, msg := range diffTraces(ref.Backend, ref.Trace, other.Backend, other.Trace) {
			ref.AddError(msg)
		}
	}
	return ref, nil
}

func (h *Harness) lookup(ctx context.Context, step LookupStep) (TraceEntry, error) {
	dir, err := eventstore.ParseDirection(step.Direction)
	if err != nil {
		return TraceEntry{}, err
	}
	filter, err := h.filter(step)
	if err != nil {
		return TraceEntry{}, err
	}

	entry := TraceEntry{Name: step.Name, Direction: dir.String()}

	var ref *ir.Event
	if step.Ref != "" {
		e, err := h.findEvent(step.Ref, step.RefProject)
		if err != nil {
			return TraceEntry{}, err
		}
		ref = &e
		entry.Reference = fmt.Sprintf("%d/%s", e.ProjectID, e.EventID)
	}

	neighbour, err := h.storage.GetAdjacentEventID(ctx, ref, dir, filter)
	switch {
	case err != nil:
		var se *eventstore.Error
		if !errors.As(err, &se) {
			return TraceEntry{}, err
		}
		entry.Outcome = OutcomeError
		entry.Error = string(se.Code)
	case neighbour == nil:
		entry.Outcome = OutcomeNone
	default:
		entry.Outcome = OutcomeFound
		entry.Neighbour = neighbour.String()
	}
	return entry, nil
}

func (h *Harness) filter(step LookupStep) (eventstore.Filter, error) {
	var f eventstore.Filter

	conds, err := queryir.ParseConditions(step.Conditions)
	if err != nil {
		return f, err
	}
	f.Conditions = conds

	if len(step.FilterKeys) > 0 {
		f.FilterKeys = make(map[string][]ir.IRValue, len(step.FilterKeys))
		for col, raw := range step.FilterKeys {
			vals, err := filterValues(raw)
			if err != nil {
				return f, fmt.Errorf("filter_keys.%s: %w", col, err)
			}
			f.FilterKeys[col] = vals
		}
	}

	now := h.clock.Now()
	if step.Start != "" {
		if f.Start, err = ParseTime(step.Start, now); err != nil {
			return f, err
		}
	}
	if step.End != "" {
		if f.End, err = ParseTime(step.End, now); err != nil {
			return f, err
		}
	}
	return f, nil
}

func (h *Harness) findEvent(id string, project int64) (ir.Event, error) {
	for _, e := range h.events {
		if e.EventID == id && (project == 0 || e.ProjectID == project) {
			return e, nil
		}
	}
	return ir.Event{}, fmt.Errorf("ref %q is not a scenario event", id)
}

func filterValues(raw []any) ([]ir.IRValue, error) {
	vals := make([]ir.IRValue, 0, len(raw))
	for i, v := range raw {
		irv, err := ir.FromAny(v)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		vals = append(vals, irv)
	}
	return vals, nil
}

// diffTraces reports lookups on which two backends disagree.
func diffTraces(refName string, ref []TraceEntry, otherName string, other []TraceEntry) []string {
	if len(ref) != len(other) {
		return []string{fmt.Sprintf("%s ran %d lookups, %s ran %d", refName, len(ref), otherName, len(other))}
	}
	var diffs []string
	for i := range ref {
		if ref[i] != other[i] {
			diffs = append(diffs, fmt.Sprintf("%s: %s says %s, %s says %s",
				ref[i].Name, refName, describe(ref[i]), otherName, describe(other[i])))
		}
	}
	return diffs
}

func describe(e TraceEntry) string {
	switch e.Outcome {
	case OutcomeFound:
		return e.Neighbour
	case OutcomeError:
		return "error " + e.Error
	default:
		return e.Outcome
	}
}
