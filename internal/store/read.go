package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/eventnav/internal/ir"
)

// ErrNotFound is returned by ReadEvent when no event matches.
var ErrNotFound = errors.New("event not found")

// ReadEvent returns the event identified by (projectID, eventID).
// Returns an error wrapping ErrNotFound if it does not exist.
func (s *Store) ReadEvent(ctx context.Context, projectID int64, eventID string) (ir.Event, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT project_id, event_id, group_id, timestamp, attrs
		FROM events
		WHERE project_id = ? AND event_id = ?
	`, projectID, eventID)

	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Event{}, fmt.Errorf("read event %d/%s: %w", projectID, eventID, ErrNotFound)
	}
	if err != nil {
		return ir.Event{}, fmt.Errorf("read event %d/%s: %w", projectID, eventID, err)
	}
	return e, nil
}

// ReadAll returns every stored event ordered by (timestamp, event_id).
//
// Returns an empty slice (not nil) if the store is empty.
func (s *Store) ReadAll(ctx context.Context) ([]ir.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT project_id, event_id, group_id, timestamp, attrs
		FROM events
		ORDER BY timestamp ASC, event_id COLLATE BINARY ASC, project_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []ir.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// Count returns the number of stored events.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(sc scanner) (ir.Event, error) {
	var (
		e     ir.Event
		ts    int64
		attrs string
	)
	if err := sc.Scan(&e.ProjectID, &e.EventID, &e.GroupID, &ts, &attrs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ir.Event{}, err
		}
		return ir.Event{}, fmt.Errorf("scan event: %w", err)
	}
	obj, err := unmarshalAttrs(attrs)
	if err != nil {
		return ir.Event{}, fmt.Errorf("scan event %s: %w", e.EventID, err)
	}
	e.Timestamp = time.Unix(ts, 0).UTC()
	e.Attrs = obj
	return e, nil
}
