package querysql

import (
	"github.com/roach88/eventnav/internal/ir"
	"github.com/roach88/eventnav/internal/queryir"
)

// Column maps a logical column to its SQL expression.
type Column struct {
	Expr string
	// Text marks columns whose ordering must be byte-wise.
	Text bool
}

// Schema describes the table a compiler targets.
type Schema struct {
	Table string
	// Columns holds the physical columns; any other identifier is read from
	// the JSON attribute column.
	Columns map[string]Column
	// TimeColumn is the column the query window applies to.
	TimeColumn string
	// DefaultOrder is used when a query carries no ordering.
	DefaultOrder []queryir.OrderBy
}

// EventsSchema returns the schema of the events table shared by the SQLite
// and Postgres stores.
func EventsSchema() Schema {
	return Schema{
		Table: "events",
		Columns: map[string]Column{
			ir.ColumnProjectID: {Expr: quoteIdent(ir.ColumnProjectID)},
			ir.ColumnEventID:   {Expr: quoteIdent(ir.ColumnEventID), Text: true},
			ir.ColumnGroupID:   {Expr: quoteIdent(ir.ColumnGroupID), Text: true},
			ir.ColumnTimestamp: {Expr: quoteIdent(ir.ColumnTimestamp)},
		},
		TimeColumn: ir.ColumnTimestamp,
		DefaultOrder: []queryir.OrderBy{
			queryir.Asc(ir.ColumnTimestamp),
			queryir.Asc(ir.ColumnEventID),
		},
	}
}
