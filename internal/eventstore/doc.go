// Package eventstore resolves the event immediately before or after a
// reference event.
//
// Events are ordered by (timestamp, event_id); events sharing a timestamp
// are ordered by event_id byte-wise, so every event has at most one
// neighbour in each direction.
//
// A lookup is two steps:
//
//	BuildAdjacentQuery  pure: reference + direction + filter → queryir.Query
//	EventStorage        one Querier.RawQuery round trip → *ir.EventRef
//
// The Querier is injected. internal/store (SQLite), internal/pgstore
// (Postgres) and internal/memstore (in-memory) all implement it.
//
// # Outcomes
//
//   - nil reference event  → (nil, nil), the Querier is never called
//   - no matching event    → (nil, nil)
//   - Querier error        → *Error with CodeQueryFailed
//   - inverted time window → *Error with CodeInvalidWindow, never dispatched
//
// EventStorage holds no mutable state and is safe for concurrent use. It
// performs no retries; cancellation and timeouts come from the context.
package eventstore
