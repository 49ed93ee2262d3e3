// Package pgstore is a Postgres-backed event store.
//
// It shares the events table layout, write semantics and query compiler
// with internal/store; only the SQL dialect differs. Attributes are stored
// as jsonb and compared as jsonb.
package pgstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/roach88/eventnav/internal/ir"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned by ReadEvent when no event matches.
var ErrNotFound = errors.New("event not found")

// Store is an event store on a Postgres database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for queries.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// Open connects to the database at dsn and creates the events table if it
// does not exist. Caller must call Close when done.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	s := &Store{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s.db = db
	return s, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// WriteEvents inserts events in one transaction. Events whose
// (project_id, event_id) already exists are ignored.
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
		INSERT INTO events (project_id, event_id, group_id, "timestamp", attrs)
		VALUES ($1, $2, $3, $4, $5::jsonb)
		ON CONFLICT (project_id, event_id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write events: prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if e.EventID == "" {
			return fmt.Errorf("write events: event in project %d has empty event_id", e.ProjectID)
		}
		attrs := "{}"
		if len(e.Attrs) > 0 {
			data, err := ir.MarshalCanonical(e.Attrs)
			if err != nil {
				return fmt.Errorf("write events: %s: marshal attrs: %w", e.EventID, err)
			}
			attrs = string(data)
		}
		if _, err := stmt.ExecContext(ctx, e.ProjectID, e.EventID, e.GroupID, e.Unix(), attrs); err != nil {
			return fmt.Errorf("write events: %s: %w", e.EventID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write events: commit: %w", err)
	}
	s.logger.Debug("wrote events", "count", len(events))
	return nil
}

// ReadEvent returns the event identified by (projectID, eventID).
func (s *Store) ReadEvent(ctx context.Context, projectID int64, eventID string) (ir.Event, error) {
	var (
		e     ir.Event
		ts    int64
		attrs string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT project_id, event_id, group_id, "timestamp", attrs::text
		FROM events
		WHERE project_id = $1 AND event_id = $2
	`, projectID, eventID).Scan(&e.ProjectID, &e.EventID, &e.GroupID, &ts, &attrs)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Event{}, fmt.Errorf("read event %d/%s: %w", projectID, eventID, ErrNotFound)
	}
	if err != nil {
		return ir.Event{}, fmt.Errorf("read event %d/%s: %w", projectID, eventID, err)
	}

	obj, err := decodeJSON([]byte(attrs))
	if err != nil {
		return ir.Event{}, fmt.Errorf("read event %d/%s: attrs: %w", projectID, eventID, err)
	}
	o, ok := obj.(ir.IRObject)
	if !ok {
		return ir.Event{}, fmt.Errorf("read event %d/%s: attrs is %s, not object", projectID, eventID, ir.TypeName(obj))
	}
	e.Timestamp = time.Unix(ts, 0).UTC()
	e.Attrs = o
	return e, nil
}
