package eventstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/eventnav/internal/ir"
	"github.com/roach88/eventnav/internal/queryir"
)

const tracerName = "github.com/roach88/eventnav/internal/eventstore"

// Querier is the single primitive an event store must provide.
//
// RawQuery executes q and returns its rows, each holding at least the
// selected columns. A store-level failure is returned as an error; an empty
// result is not an error.
type Querier interface {
	RawQuery(ctx context.Context, q queryir.Query) (queryir.Result, error)
}

// EventStorage resolves neighbouring events through a Querier.
//
// Thread-safety: EventStorage is immutable after New and safe for
// concurrent use.
type EventStorage struct {
	querier       Querier
	now           func() time.Time
	retentionDays int
	referrer      string
	logger        *slog.Logger
	tracer        trace.Tracer
}

// Option configures an EventStorage.
type Option func(*EventStorage)

// WithClock sets the clock that defines the end of the retention window.
func WithClock(now func() time.Time) Option {
	return func(s *EventStorage) { s.now = now }
}

// WithRetentionDays clamps the start of the default window to now minus
// days. Zero or negative means the window starts at the unix epoch.
func WithRetentionDays(days int) Option {
	return func(s *EventStorage) { s.retentionDays = days }
}

// WithReferrer overrides the referrer attached to queries.
func WithReferrer(referrer string) Option {
	return func(s *EventStorage) { s.referrer = referrer }
}

// WithLogger sets the logger; defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *EventStorage) { s.logger = logger }
}

// WithTracerProvider sets the tracer provider; defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *EventStorage) { s.tracer = tp.Tracer(tracerName) }
}

// New creates an EventStorage over q.
func New(q Querier, opts ...Option) *EventStorage {
	s := &EventStorage{
		querier:  q,
		now:      time.Now,
		referrer: Referrer,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s
}

// Retention returns the default window: [epoch or now-retention, now].
func (s *EventStorage) Retention() queryir.Window {
	now := s.now().UTC()
	start := time.Unix(0, 0).UTC()
	if s.retentionDays > 0 {
		start = now.AddDate(0, 0, -s.retentionDays)
	}
	return queryir.Window{Start: start, End: now}
}

// BuildQuery builds the adjacency query this storage would dispatch.
// A nil event yields (nil, nil).
func (s *EventStorage) BuildQuery(event *ir.Event, dir Direction, filter Filter) (*queryir.Query, error) {
	return buildAdjacentQuery(event, dir, filter, s.Retention(), s.referrer)
}

// GetNextEventID returns the (project_id, event_id) of the event after
// event. Returns (nil, nil) if event is nil or no next event exists.
func (s *EventStorage) GetNextEventID(ctx context.Context, event *ir.Event, filter Filter) (*ir.EventRef, error) {
	return s.GetAdjacentEventID(ctx, event, Next, filter)
}

// GetPrevEventID returns the (project_id, event_id) of the event before
// event. Returns (nil, nil) if event is nil or no previous event exists.
func (s *EventStorage) GetPrevEventID(ctx context.Context, event *ir.Event, filter Filter) (*ir.EventRef, error) {
	return s.GetAdjacentEventID(ctx, event, Prev, filter)
}

// GetAdjacentEventID resolves the neighbour of event in direction dir.
func (s *EventStorage) GetAdjacentEventID(ctx context.Context, event *ir.Event, dir Direction, filter Filter) (*ir.EventRef, error) {
	if event == nil {
		return nil, nil
	}

	q, err := s.BuildQuery(event, dir, filter)
	if err != nil {
		s.logger.Debug("adjacency query not dispatched",
			"referrer", s.referrer, "direction", dir.String(), "error", err)
		return nil, err
	}

	return s.getNextOrPrevEventID(ctx, *q, dir)
}

// getNextOrPrevEventID performs the single round trip and normalises the
// outcome.
func (s *EventStorage) getNextOrPrevEventID(ctx context.Context, q queryir.Query, dir Direction) (*ir.EventRef, error) {
	ctx, span := s.tracer.Start(ctx, q.Referrer, trace.WithAttributes(
		attribute.String("eventnav.direction", dir.String()),
		attribute.Int64("eventnav.window.start", q.Window.StartUnix()),
		attribute.Int64("eventnav.window.end", q.Window.EndUnix()),
		attribute.Int("eventnav.conditions", len(q.Conditions)),
	))
	defer span.End()

	result, err := s.querier.RawQuery(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		s.logger.Debug("adjacency query failed",
			"referrer", q.Referrer, "direction", dir.String(), "error", err)
		return nil, newQueryFailedError(q.Referrer, "store query failed", err)
	}

	if len(result.Rows) == 0 {
		span.SetAttributes(attribute.Bool("eventnav.found", false))
		s.logger.Debug("no adjacent event",
			"referrer", q.Referrer, "direction", dir.String())
		return nil, nil
	}

	ref, err := refFromRow(result.Rows[0])
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed row")
		return nil, newQueryFailedError(q.Referrer, "malformed result row", err)
	}

	span.SetAttributes(attribute.Bool("eventnav.found", true))
	s.logger.Debug("adjacent event found",
		"referrer", q.Referrer, "direction", dir.String(),
		"project_id", ref.ProjectID, "event_id", ref.EventID)
	return ref, nil
}

// refFromRow projects a result row onto its canonical key pair.
func refFromRow(row ir.IRObject) (*ir.EventRef, error) {
	projectID, err := rowKey(row, ir.ColumnProjectID)
	if err != nil {
		return nil, err
	}
	eventID, err := rowKey(row, ir.ColumnEventID)
	if err != nil {
		return nil, err
	}
	return &ir.EventRef{ProjectID: projectID, EventID: eventID}, nil
}

func rowKey(row ir.IRObject, column string) (string, error) {
	v, ok := row[column]
	if !ok {
		return "", fmt.Errorf("row has no %s column", column)
	}
	s, err := ir.KeyString(v)
	if err != nil {
		return "", fmt.Errorf("%s: %w", column, err)
	}
	return s, nil
}
