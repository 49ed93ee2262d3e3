// Package store provides SQLite-backed durable storage for events.
//
// The store is append-only: events are written once and never updated.
// Writes are idempotent on (project_id, event_id).
//
// Store implements eventstore.Querier by compiling queryir queries with
// querysql's SQLite dialect and executing them in a single round trip.
//
// # Ordering
//
//   - Events are ordered by (timestamp, event_id)
//   - event_id compares with COLLATE BINARY, never locale-aware
//   - Every query carries ORDER BY, so results are deterministic
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Attributes are stored as RFC 8785 canonical JSON (see ir.MarshalCanonical)
// and queried with json_extract.
package store
