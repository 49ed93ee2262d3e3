// Package memstore is an in-memory event store that answers queryir
// queries by evaluating them directly over a slice of events.
//
// It is the reference backend: the SQL stores are checked against it in
// tests and in the conformance harness.
package memstore

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/roach88/eventnav/internal/ir"
	"github.com/roach88/eventnav/internal/queryir"
)

// ErrNotFound is returned by ReadEvent when no event matches.
var ErrNotFound = errors.New("event not found")

type key struct {
	projectID int64
	eventID   string
}

// Store holds events in memory.
//
// Thread-safety: Store is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	events []ir.Event
	index  map[key]int
}

// New returns an empty store.
func New() *Store {
	return &Store{index: make(map[key]int)}
}

// WriteEvents appends events, ignoring any whose (project_id, event_id)
// already exists. A batch containing an invalid event writes nothing.
func (s *Store) WriteEvents(ctx context.Context, events ...ir.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, e := range events {
		if e.EventID == "" {
			return fmt.Errorf("event in project %d has empty event_id", e.ProjectID)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range events {
		k := key{e.ProjectID, e.EventID}
		if _, ok := s.index[k]; ok {
			continue
		}
		e.Attrs = maps.Clone(e.Attrs)
		s.index[k] = len(s.events)
		s.events = append(s.events, e)
	}
	return nil
}

// ReadEvent returns the event with the given key or ErrNotFound.
func (s *Store) ReadEvent(ctx context.Context, projectID int64, eventID string) (ir.Event, error) {
	if err := ctx.Err(); err != nil {
		return ir.Event{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[key{projectID, eventID}]
	if !ok {
		return ir.Event{}, fmt.Errorf("read event %d/%s: %w", projectID, eventID, ErrNotFound)
	}
	e := s.events[i]
	e.Attrs = maps.Clone(e.Attrs)
	return e, nil
}

// Len returns the number of stored events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// RawQuery evaluates q over the stored events.
func (s *Store) RawQuery(ctx context.Context, q queryir.Query) (queryir.Result, error) {
	if err := ctx.Err(); err != nil {
		return queryir.Result{}, err
	}
	if err := queryir.Validate(q).Err(); err != nil {
		return queryir.Result{}, err
	}

	s.mu.RLock()
	rows := make([]ir.IRObject, 0, len(s.events))
	for _, e := range s.events {
		rows = append(rows, e.Fields())
	}
	s.mu.RUnlock()

	start, end := q.Window.StartUnix(), q.Window.EndUnix()
	matched := rows[:0]
	for _, row := range rows {
		ts := int64(row[ir.ColumnTimestamp].(ir.IRInt))
		if ts < start || ts > end {
			continue
		}
		if !matchFilterKeys(q.FilterKeys, row) {
			continue
		}
		ok, err := queryir.MatchAll(q.Conditions, row)
		if err != nil {
			return queryir.Result{}, fmt.Errorf("evaluate conditions: %w", err)
		}
		if ok {
			matched = append(matched, row)
		}
	}

	slices.SortStableFunc(matched, func(a, b ir.IRObject) int {
		return compareRows(q.OrderBy, a, b)
	})

	if len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	result := queryir.Result{Rows: make([]ir.IRObject, 0, len(matched))}
	for _, row := range matched {
		projected := make(ir.IRObject, len(q.Columns))
		for _, col := range q.Columns {
			if v, ok := row[col]; ok {
				projected[col] = v
			} else {
				projected[col] = ir.IRNull{}
			}
		}
		result.Rows = append(result.Rows, projected)
	}
	return result, nil
}

func matchFilterKeys(keys map[string][]ir.IRValue, row ir.IRObject) bool {
	for col, allowed := range keys {
		v, ok := row[col]
		if !ok || !queryir.In(v, allowed) {
			return false
		}
	}
	return true
}

// compareRows orders rows by terms. Missing values and nulls sort first,
// values of different types sort by type name.
func compareRows(terms []queryir.OrderBy, a, b ir.IRObject) int {
	for _, term := range terms {
		c := compareValues(a[term.Column], b[term.Column])
		if term.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

func compareValues(a, b ir.IRValue) int {
	aNull := a == nil || isNull(a)
	bNull := b == nil || isNull(b)
	switch {
	case aNull && bNull:
		return 0
	case aNull:
		return -1
	case bNull:
		return 1
	}
	c, err := ir.Compare(a, b)
	if err != nil {
		return cmp.Compare(ir.TypeName(a), ir.TypeName(b))
	}
	return c
}

func isNull(v ir.IRValue) bool {
	_, ok := v.(ir.IRNull)
	return ok
}
