package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eventnav/internal/ir"
	"github.com/roach88/eventnav/internal/queryir"
)

var base = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func event(project int64, id string, offset time.Duration, attrs ir.IRObject) ir.Event {
	return ir.Event{
		ProjectID: project,
		EventID:   id,
		GroupID:   "g",
		Timestamp: base.Add(offset),
		Attrs:     attrs,
	}
}

func window() queryir.Window {
	return queryir.Window{Start: base.Add(-time.Hour), End: base.Add(time.Hour)}
}

func query(conds ...queryir.Condition) queryir.Query {
	return queryir.Query{
		Columns:    []string{ir.ColumnEventID, ir.ColumnProjectID},
		Conditions: conds,
		Window:     window(),
		OrderBy:    []queryir.OrderBy{queryir.Asc(ir.ColumnTimestamp), queryir.Asc(ir.ColumnEventID)},
		Limit:      10,
	}
}

func ids(res queryir.Result) []string {
	out := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		out = append(out, string(row[ir.ColumnEventID].(ir.IRString)))
	}
	return out
}

func TestWriteEventsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.WriteEvents(ctx, event(1, "a", 0, nil), event(1, "a", time.Minute, nil)))
	require.NoError(t, s.WriteEvents(ctx, event(1, "a", 0, nil), event(2, "a", 0, nil)))

	assert.Equal(t, 2, s.Len())

	got, err := s.ReadEvent(ctx, 1, "a")
	require.NoError(t, err)
	assert.Equal(t, base, got.Timestamp, "first write wins")
}

func TestWriteEventsRejectsEmptyID(t *testing.T) {
	err := New().WriteEvents(context.Background(), event(1, "", 0, nil))
	assert.Error(t, err)
}

func TestWriteEventsRejectsEmptyIDAtomically(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.WriteEvents(ctx, event(1, "good", 0, nil), event(1, "", time.Second, nil))
	require.Error(t, err)
	assert.Equal(t, 0, s.Len())

	_, err = s.ReadEvent(ctx, 1, "good")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoredEventsAreImmutable(t *testing.T) {
	ctx := context.Background()
	s := New()

	attrs := ir.IRObject{"platform": ir.IRString("go")}
	require.NoError(t, s.WriteEvents(ctx, event(1, "a", 0, attrs)))
	attrs["platform"] = ir.IRString("python")

	got, err := s.ReadEvent(ctx, 1, "a")
	require.NoError(t, err)
	assert.Equal(t, ir.IRString("go"), got.Attrs["platform"])

	got.Attrs["platform"] = ir.IRString("rust")
	res, err := s.RawQuery(ctx, query(queryir.Eq("platform", ir.IRString("go"))))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(res))
}

func TestReadEventNotFound(t *testing.T) {
	_, err := New().ReadEvent(context.Background(), 1, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRawQueryOrdersAndLimits(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.WriteEvents(ctx,
		event(1, "c", 0, nil),
		event(1, "a", time.Minute, nil),
		event(1, "b", 0, nil),
	))

	res, err := s.RawQuery(ctx, query())
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, ids(res))

	q := query()
	q.OrderBy = []queryir.OrderBy{queryir.Desc(ir.ColumnTimestamp), queryir.Desc(ir.ColumnEventID)}
	q.Limit = 2
	res, err = s.RawQuery(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids(res))
}

func TestRawQueryProjectsColumns(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.WriteEvents(ctx, event(7, "x", 0, ir.IRObject{"platform": ir.IRString("go")})))

	res, err := s.RawQuery(ctx, query())
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, ir.IRObject{
		ir.ColumnEventID:   ir.IRString("x"),
		ir.ColumnProjectID: ir.IRInt(7),
	}, res.Rows[0])
}

func TestRawQueryWindowInclusive(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.WriteEvents(ctx,
		event(1, "start", -time.Hour, nil),
		event(1, "end", time.Hour, nil),
		event(1, "outside", time.Hour+time.Second, nil),
	))

	res, err := s.RawQuery(ctx, query())
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "end"}, ids(res))
}

func TestRawQueryFilterKeys(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.WriteEvents(ctx,
		event(1, "a", 0, nil),
		event(2, "b", 0, nil),
		event(3, "c", 0, nil),
	))

	q := query()
	q.FilterKeys = map[string][]ir.IRValue{ir.ColumnProjectID: {ir.IRInt(1), ir.IRInt(3)}}
	res, err := s.RawQuery(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids(res))

	q.FilterKeys = map[string][]ir.IRValue{ir.ColumnProjectID: {}}
	res, err = s.RawQuery(ctx, q)
	require.NoError(t, err)
	assert.Empty(t, res.Rows, "empty key list matches nothing")
}

func TestRawQueryConditionsOnAttributes(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.WriteEvents(ctx,
		event(1, "a", 0, ir.IRObject{"platform": ir.IRString("python")}),
		event(1, "b", time.Second, ir.IRObject{"platform": ir.IRString("go")}),
		event(1, "c", 2*time.Second, nil),
	))

	res, err := s.RawQuery(ctx, query(queryir.Eq("platform", ir.IRString("go"))))
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids(res))

	res, err = s.RawQuery(ctx, query(queryir.Compare{Column: "platform", Op: queryir.OpNeq, Value: ir.IRString("go")}))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(res), "missing attribute never matches")
}

func TestRawQueryRejectsInvalidQuery(t *testing.T) {
	q := query()
	q.Limit = 0
	_, err := New().RawQuery(context.Background(), q)
	assert.Error(t, err)
}

func TestRawQueryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().RawQuery(ctx, query())
	assert.ErrorIs(t, err, context.Canceled)
}
