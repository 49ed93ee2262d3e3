// Package queryir provides the abstract query descriptor eventnav hands to
// event stores.
//
// QueryIR is the boundary between the adjacency builder and the backends
// that execute it:
//
//	[eventstore builder] → [Query IR] → [SQLite backend]   (internal/store)
//	                                  → [Postgres backend] (internal/pgstore)
//	                                  → [in-memory]        (internal/memstore)
//
// A Query is a single-table range read: selected columns, a window on the
// timestamp column, filter keys (column IN values), a list of conditions
// that must all hold, an ordering and a limit.
//
// # Sealed conditions
//
// Condition is a sealed interface using the marker method pattern. Only
// Compare, And and Or implement it, which lets every backend use an
// exhaustive type switch:
//
//	switch c := cond.(type) {
//	case Compare:
//	    // column <op> value
//	case And:
//	    // all sub-conditions hold
//	case Or:
//	    // at least one sub-condition holds
//	}
//
// # Values
//
// All literal values are ir.IRValue (no floats). Timestamps in conditions
// and windows are unix seconds.
//
// # Null semantics
//
// A row without a column behaves like SQL NULL: every comparison against it
// is false, including !=.
package queryir
