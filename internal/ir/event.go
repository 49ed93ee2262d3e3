package ir

import "time"

// Column names every event exposes to queries.
const (
	ColumnProjectID = "project_id"
	ColumnEventID   = "event_id"
	ColumnGroupID   = "group_id"
	ColumnTimestamp = "timestamp"
)

// Event is an immutable, timestamped, project-scoped record.
//
// The pair (Timestamp, EventID) is the total order used for neighbour
// lookups: events sharing a timestamp are ordered by EventID byte-wise.
// Timestamps have second precision.
type Event struct {
	ProjectID int64     `json:"project_id"`
	EventID   string    `json:"event_id"`
	GroupID   string    `json:"group_id"`
	Timestamp time.Time `json:"timestamp"`
	Attrs     IRObject  `json:"attrs"`
}

// Unix returns the event timestamp in unix seconds, the unit queries use.
func (e Event) Unix() int64 {
	return e.Timestamp.Unix()
}

// Fields returns the event as a flat row of IR values: the reserved
// columns plus every attribute. Reserved columns win over attributes of
// the same name.
func (e Event) Fields() IRObject {
	row := make(IRObject, len(e.Attrs)+4)
	for k, v := range e.Attrs {
		row[k] = v
	}
	row[ColumnProjectID] = IRInt(e.ProjectID)
	row[ColumnEventID] = IRString(e.EventID)
	row[ColumnGroupID] = IRString(e.GroupID)
	row[ColumnTimestamp] = IRInt(e.Unix())
	return row
}

// IsReservedColumn reports whether name is one of the event's own columns
// rather than an attribute.
func IsReservedColumn(name string) bool {
	switch name {
	case ColumnProjectID, ColumnEventID, ColumnGroupID, ColumnTimestamp:
		return true
	}
	return false
}

// EventRef identifies an event by its canonical (project, event) strings.
type EventRef struct {
	ProjectID string `json:"project_id"`
	EventID   string `json:"event_id"`
}

// String renders the reference as "project/event".
func (r EventRef) String() string {
	return r.ProjectID + "/" + r.EventID
}
