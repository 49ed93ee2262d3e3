package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/eventnav/internal/ir"
)

var testNow = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestEvent creates an event offset from testNow.
func createTestEvent(projectID int64, eventID string, offset time.Duration) ir.Event {
	return ir.Event{
		ProjectID: projectID,
		EventID:   eventID,
		GroupID:   "group-" + eventID,
		Timestamp: testNow.Add(offset),
		Attrs:     ir.IRObject{},
	}
}
