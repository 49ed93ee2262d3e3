package eventstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/roach88/eventnav/internal/ir"
	"github.com/roach88/eventnav/internal/queryir"
)

// spyQuerier records every query and replies with canned results.
type spyQuerier struct {
	mu      sync.Mutex
	queries []queryir.Query
	result  queryir.Result
	err     error
}

func (s *spyQuerier) RawQuery(_ context.Context, q queryir.Query) (queryir.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	return s.result, s.err
}

func (s *spyQuerier) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

func newTestStorage(q Querier, opts ...Option) *EventStorage {
	base := []Option{
		WithClock(func() time.Time { return now }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return New(q, append(base, opts...)...)
}

func row(project ir.IRValue, event ir.IRValue) ir.IRObject {
	return ir.IRObject{"project_id": project, "event_id": event}
}

func TestGetAdjacentEventID_NilEventMakesNoCall(t *testing.T) {
	spy := &spyQuerier{}
	s := newTestStorage(spy)
	ctx := context.Background()

	ref, err := s.GetNextEventID(ctx, nil, Filter{})
	require.NoError(t, err)
	assert.Nil(t, ref)

	ref, err = s.GetPrevEventID(ctx, nil, Filter{})
	require.NoError(t, err)
	assert.Nil(t, ref)

	assert.Zero(t, spy.calls())
}

func TestGetAdjacentEventID_SingleRoundTrip(t *testing.T) {
	spy := &spyQuerier{result: queryir.Result{Rows: []ir.IRObject{row(ir.IRInt(2), ir.IRString("c"))}}}
	s := newTestStorage(spy)

	ref, err := s.GetNextEventID(context.Background(), refEvent(), Filter{})
	require.NoError(t, err)
	assert.Equal(t, &ir.EventRef{ProjectID: "2", EventID: "c"}, ref)

	require.Equal(t, 1, spy.calls())
	want, err := s.BuildQuery(refEvent(), Next, Filter{})
	require.NoError(t, err)
	assert.Equal(t, *want, spy.queries[0])
}

func TestGetAdjacentEventID_FirstRowWins(t *testing.T) {
	spy := &spyQuerier{result: queryir.Result{Rows: []ir.IRObject{
		row(ir.IRInt(1), ir.IRString("a")),
		row(ir.IRInt(9), ir.IRString("z")),
	}}}

	ref, err := newTestStorage(spy).GetPrevEventID(context.Background(), refEvent(), Filter{})
	require.NoError(t, err)
	assert.Equal(t, "1/a", ref.String())
}

func TestGetAdjacentEventID_StringKeysPassThrough(t *testing.T) {
	spy := &spyQuerier{result: queryir.Result{Rows: []ir.IRObject{row(ir.IRString("42"), ir.IRString("e"))}}}

	ref, err := newTestStorage(spy).GetNextEventID(context.Background(), refEvent(), Filter{})
	require.NoError(t, err)
	assert.Equal(t, "42", ref.ProjectID)
}

func TestGetAdjacentEventID_EmptyResult(t *testing.T) {
	spy := &spyQuerier{}

	ref, err := newTestStorage(spy).GetNextEventID(context.Background(), refEvent(), Filter{})
	require.NoError(t, err)
	assert.Nil(t, ref)
	assert.Equal(t, 1, spy.calls())
}

func TestGetAdjacentEventID_QueryFailed(t *testing.T) {
	cause := errors.New("connection reset")
	spy := &spyQuerier{err: cause}

	ref, err := newTestStorage(spy).GetPrevEventID(context.Background(), refEvent(), Filter{})
	require.Error(t, err)
	assert.Nil(t, ref)
	assert.True(t, IsQueryFailed(err))
	assert.ErrorIs(t, err, ErrQueryFailed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, spy.calls(), "no retries")

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, Referrer, e.Referrer)
}

func TestGetAdjacentEventID_MalformedRow(t *testing.T) {
	tests := []struct {
		name string
		row  ir.IRObject
	}{
		{"missing project", ir.IRObject{"event_id": ir.IRString("a")}},
		{"missing event", ir.IRObject{"project_id": ir.IRInt(1)}},
		{"null project", row(ir.IRNull{}, ir.IRString("a"))},
		{"bool event", row(ir.IRInt(1), ir.IRBool(true))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := &spyQuerier{result: queryir.Result{Rows: []ir.IRObject{tt.row}}}
			_, err := newTestStorage(spy).GetNextEventID(context.Background(), refEvent(), Filter{})
			assert.True(t, IsQueryFailed(err))
		})
	}
}

func TestGetAdjacentEventID_InvalidWindowNotDispatched(t *testing.T) {
	spy := &spyQuerier{}
	s := newTestStorage(spy)

	// A reference newer than "now" has no room for a next event.
	future := &ir.Event{ProjectID: 1, EventID: "f", Timestamp: now.Add(time.Hour)}
	_, err := s.GetNextEventID(context.Background(), future, Filter{})
	assert.True(t, IsInvalidWindow(err))
	assert.Zero(t, spy.calls())
}

// Failures are returned to the caller, not logged above debug level.
func TestGetAdjacentEventID_FailuresLoggedAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	failing := newTestStorage(&spyQuerier{err: errors.New("down")}, WithLogger(logger))
	_, err := failing.GetNextEventID(context.Background(), refEvent(), Filter{})
	require.Error(t, err)

	future := &ir.Event{ProjectID: 1, EventID: "f", Timestamp: now.Add(time.Hour)}
	_, err = newTestStorage(&spyQuerier{}, WithLogger(logger)).GetNextEventID(context.Background(), future, Filter{})
	require.Error(t, err)

	assert.Empty(t, buf.String())
}

func TestRetention(t *testing.T) {
	s := newTestStorage(&spyQuerier{})
	w := s.Retention()
	assert.Equal(t, int64(0), w.StartUnix())
	assert.Equal(t, now.Unix(), w.EndUnix())

	s = newTestStorage(&spyQuerier{}, WithRetentionDays(30))
	w = s.Retention()
	assert.Equal(t, now.AddDate(0, 0, -30).Unix(), w.StartUnix())
}

func TestRetentionClampsPrevLookups(t *testing.T) {
	spy := &spyQuerier{}
	s := newTestStorage(spy, WithRetentionDays(1))

	_, err := s.GetPrevEventID(context.Background(), refEvent(), Filter{})
	require.NoError(t, err)
	require.Equal(t, 1, spy.calls())
	assert.Equal(t, now.AddDate(0, 0, -1).Unix(), spy.queries[0].Window.StartUnix())
}

func TestWithReferrer(t *testing.T) {
	spy := &spyQuerier{err: errors.New("boom")}
	s := newTestStorage(spy, WithReferrer("custom.referrer"))

	_, err := s.GetNextEventID(context.Background(), refEvent(), Filter{})
	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "custom.referrer", e.Referrer)
	assert.Equal(t, "custom.referrer", spy.queries[0].Referrer)
}

func TestGetAdjacentEventID_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	ok := &spyQuerier{result: queryir.Result{Rows: []ir.IRObject{row(ir.IRInt(1), ir.IRString("a"))}}}
	_, err := newTestStorage(ok, WithTracerProvider(tp)).GetNextEventID(context.Background(), refEvent(), Filter{})
	require.NoError(t, err)

	failing := &spyQuerier{err: errors.New("boom")}
	_, err = newTestStorage(failing, WithTracerProvider(tp)).GetPrevEventID(context.Background(), refEvent(), Filter{})
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, Referrer, spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Len(t, spans[1].Events(), 1, "error recorded on span")
}

func TestEventStorageConcurrentUse(t *testing.T) {
	spy := &spyQuerier{result: queryir.Result{Rows: []ir.IRObject{row(ir.IRInt(1), ir.IRString("a"))}}}
	s := newTestStorage(spy)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.GetNextEventID(context.Background(), refEvent(), Filter{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 16, spy.calls())
}
