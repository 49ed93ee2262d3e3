package eventstore

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/roach88/eventnav/internal/ir"
	"github.com/roach88/eventnav/internal/queryir"
)

// Referrer is attached to every adjacency query.
const Referrer = "eventstore.get_next_or_prev_event_id"

// Direction selects the neighbour to resolve.
type Direction int

const (
	// Next is the nearest event after the reference.
	Next Direction = iota
	// Prev is the nearest event before the reference.
	Prev
)

func (d Direction) String() string {
	switch d {
	case Next:
		return "next"
	case Prev:
		return "prev"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection accepts "next" and "prev" (or "previous").
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "next":
		return Next, nil
	case "prev", "previous":
		return Prev, nil
	default:
		return 0, fmt.Errorf("unknown direction %q: must be next or prev", s)
	}
}

// Filter restricts which events qualify as neighbours.
type Filter struct {
	// Conditions are appended to the query before the builder's own
	// conditions, in order and unmodified.
	Conditions []queryir.Condition

	// FilterKeys restricts columns to allowed values,
	// e.g. {"project_id": [1, 2]}.
	FilterKeys map[string][]ir.IRValue

	// Start and End optionally narrow the retention window. Zero means
	// unbounded on that side.
	Start time.Time
	End   time.Time
}

// BuildAdjacentQuery builds the query resolving the neighbour of event in
// direction dir.
//
// A nil event yields (nil, nil): there is nothing to look up and the caller
// must report "no neighbour". The window is the retention window intersected
// with the filter bounds and cut at the reference timestamp; if that leaves
// start after end an *Error with CodeInvalidWindow is returned.
//
// For Next the builder appends
//
//	timestamp >= ts
//	timestamp > ts OR event_id > id
//
// and orders ascending; Prev mirrors both. The first condition is implied
// by the second but lets stores prune by time range.
func BuildAdjacentQuery(event *ir.Event, dir Direction, filter Filter, retention queryir.Window) (*queryir.Query, error) {
	return buildAdjacentQuery(event, dir, filter, retention, Referrer)
}

func buildAdjacentQuery(event *ir.Event, dir Direction, filter Filter, retention queryir.Window, referrer string) (*queryir.Query, error) {
	if event == nil {
		return nil, nil
	}

	ts := ir.IRInt(event.Unix())
	id := ir.IRString(event.EventID)
	refTime := time.Unix(event.Unix(), 0).UTC()

	window := intersect(retention, filter)

	var (
		timeConditions []queryir.Condition
		orderBy        []queryir.OrderBy
	)
	switch dir {
	case Next:
		if refTime.After(window.Start) {
			window.Start = refTime
		}
		timeConditions = []queryir.Condition{
			queryir.Gte(ir.ColumnTimestamp, ts),
			queryir.Or{Conditions: []queryir.Condition{
				queryir.Gt(ir.ColumnTimestamp, ts),
				queryir.Gt(ir.ColumnEventID, id),
			}},
		}
		orderBy = []queryir.OrderBy{queryir.Asc(ir.ColumnTimestamp), queryir.Asc(ir.ColumnEventID)}
	case Prev:
		if refTime.Before(window.End) {
			window.End = refTime
		}
		timeConditions = []queryir.Condition{
			queryir.Lte(ir.ColumnTimestamp, ts),
			queryir.Or{Conditions: []queryir.Condition{
				queryir.Lt(ir.ColumnTimestamp, ts),
				queryir.Lt(ir.ColumnEventID, id),
			}},
		}
		orderBy = []queryir.OrderBy{queryir.Desc(ir.ColumnTimestamp), queryir.Desc(ir.ColumnEventID)}
	default:
		return nil, newInvalidQueryError(referrer, fmt.Errorf("unknown direction %d", int(dir)))
	}

	if !window.Valid() {
		return nil, newInvalidWindowError(referrer, fmt.Sprintf("%s window starts at %s after it ends at %s",
			dir, window.Start.UTC().Format(time.RFC3339), window.End.UTC().Format(time.RFC3339)))
	}

	conditions := make([]queryir.Condition, 0, len(filter.Conditions)+len(timeConditions))
	conditions = append(conditions, filter.Conditions...)
	conditions = append(conditions, timeConditions...)

	q := &queryir.Query{
		Columns:    []string{ir.ColumnEventID, ir.ColumnProjectID},
		Conditions: conditions,
		FilterKeys: maps.Clone(filter.FilterKeys),
		Window:     window,
		OrderBy:    orderBy,
		Limit:      1,
		Referrer:   referrer,
	}

	if err := queryir.Validate(*q).Err(); err != nil {
		return nil, newInvalidQueryError(referrer, err)
	}
	return q, nil
}

// intersect narrows the retention window by the filter's optional bounds.
func intersect(retention queryir.Window, filter Filter) queryir.Window {
	w := retention
	if !filter.Start.IsZero() && filter.Start.After(w.Start) {
		w.Start = filter.Start
	}
	if !filter.End.IsZero() && filter.End.Before(w.End) {
		w.End = filter.End
	}
	return w
}
