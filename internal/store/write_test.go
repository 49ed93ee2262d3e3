package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eventnav/internal/ir"
)

func TestWriteEvents_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	e := createTestEvent(7, "abc", -time.Minute)
	e.Attrs = ir.IRObject{
		"platform": ir.IRString("python"),
		"level":    ir.IRInt(9007199254740993),
		"handled":  ir.IRBool(false),
		"tags":     ir.IRArray{ir.IRString("a"), ir.IRString("b")},
	}
	require.NoError(t, s.WriteEvent(ctx, e))

	got, err := s.ReadEvent(ctx, 7, "abc")
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestWriteEvents_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := createTestEvent(1, "a", 0)
	dup := createTestEvent(1, "a", time.Hour)

	require.NoError(t, s.WriteEvents(ctx, first, dup))
	require.NoError(t, s.WriteEvents(ctx, dup))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.ReadEvent(ctx, 1, "a")
	require.NoError(t, err)
	assert.Equal(t, first.Timestamp, got.Timestamp, "stored copy is kept")
}

func TestWriteEvents_SameIDDifferentProject(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteEvents(ctx, createTestEvent(1, "a", 0), createTestEvent(2, "a", 0)))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestWriteEvents_RejectsEmptyIDAtomically(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	err := s.WriteEvents(ctx, createTestEvent(1, "ok", 0), createTestEvent(1, "", 0))
	require.Error(t, err)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "failed batch must roll back")
}

func TestWriteEvents_Empty(t *testing.T) {
	s := createTestStore(t)
	assert.NoError(t, s.WriteEvents(context.Background()))
}

func TestReadEvent_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadEvent(context.Background(), 1, "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestReadAll_Ordered(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	empty, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	require.NoError(t, s.WriteEvents(ctx,
		createTestEvent(1, "c", 0),
		createTestEvent(2, "a", time.Minute),
		createTestEvent(1, "b", 0),
	))

	events, err := s.ReadAll(ctx)
	require.NoError(t, err)
	var ids []string
	for _, e := range events {
		ids = append(ids, e.EventID)
	}
	assert.Equal(t, []string{"b", "c", "a"}, ids)
}
