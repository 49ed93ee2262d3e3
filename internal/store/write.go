package store

import (
	"context"
	"fmt"

	"github.com/roach88/eventnav/internal/ir"
)

// WriteEvent inserts a single event. See WriteEvents.
func (s *Store) WriteEvent(ctx context.Context, e ir.Event) error {
	return s.WriteEvents(ctx, e)
}

// WriteEvents inserts events in one transaction.
// Uses ON CONFLICT DO NOTHING for idempotency - an event whose
// (project_id, event_id) already exists is silently ignored, and the stored
// copy is kept.
//
// Attributes are serialized to canonical JSON per RFC 8785.
func (s *Store) WriteEvents(ctx context.Context, events ...ir.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write events: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (project_id, event_id, group_id, timestamp, attrs)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(project_id, event_id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write events: prepare: %w", err)
	}
	defer stmt.Close()

	written := 0
	for _, e := range events {
		if e.EventID == "" {
			return fmt.Errorf("write events: event in project %d has empty event_id", e.ProjectID)
		}
		attrs, err := marshalAttrs(e.Attrs)
		if err != nil {
			return fmt.Errorf("write events: %s: %w", e.EventID, err)
		}
		res, err := stmt.ExecContext(ctx, e.ProjectID, e.EventID, e.GroupID, e.Unix(), attrs)
		if err != nil {
			return fmt.Errorf("write events: %s: %w", e.EventID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			written += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write events: commit: %w", err)
	}

	s.logger.Debug("wrote events", "requested", len(events), "written", written)
	return nil
}
