package queryir

import (
	"fmt"
	"time"

	"github.com/roach88/eventnav/internal/ir"
)

// Condition represents a filter condition in the QueryIR.
//
// This is a sealed interface - only Compare, And and Or implement it.
type Condition interface {
	conditionNode() // Marker method - seals interface to this package
}

// Op is a comparison operator.
type Op string

// Supported comparison operators.
const (
	OpEq  Op = "="
	OpNeq Op = "!="
	OpLt  Op = "<"
	OpLte Op = "<="
	OpGt  Op = ">"
	OpGte Op = ">="
	OpIn  Op = "IN"
)

// Valid reports whether op is one of the supported operators.
func (op Op) Valid() bool {
	switch op {
	case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte, OpIn:
		return true
	}
	return false
}

// Ordered reports whether op needs an order between values (< <= > >=).
func (op Op) Ordered() bool {
	switch op {
	case OpLt, OpLte, OpGt, OpGte:
		return true
	}
	return false
}

// Compare represents a column-op-literal condition.
//
// Semantics:
//
//	<column> <op> <value>
//
// For OpIn, Value must be an ir.IRArray of candidates.
type Compare struct {
	Column string
	Op     Op
	Value  ir.IRValue
}

func (Compare) conditionNode() {}

func (c Compare) String() string {
	return fmt.Sprintf("%s %s %v", c.Column, c.Op, c.Value)
}

// And holds when every sub-condition holds. Empty And is rejected by Validate.
type And struct {
	Conditions []Condition
}

func (And) conditionNode() {}

// Or holds when at least one sub-condition holds. Empty Or is rejected by
// Validate.
type Or struct {
	Conditions []Condition
}

func (Or) conditionNode() {}

// Eq builds a Compare with OpEq.
func Eq(column string, v ir.IRValue) Compare { return Compare{Column: column, Op: OpEq, Value: v} }

// Lt builds a Compare with OpLt.
func Lt(column string, v ir.IRValue) Compare { return Compare{Column: column, Op: OpLt, Value: v} }

// Lte builds a Compare with OpLte.
func Lte(column string, v ir.IRValue) Compare { return Compare{Column: column, Op: OpLte, Value: v} }

// Gt builds a Compare with OpGt.
func Gt(column string, v ir.IRValue) Compare { return Compare{Column: column, Op: OpGt, Value: v} }

// Gte builds a Compare with OpGte.
func Gte(column string, v ir.IRValue) Compare { return Compare{Column: column, Op: OpGte, Value: v} }

// Window bounds the timestamp column, both ends inclusive.
type Window struct {
	Start time.Time
	End   time.Time
}

// StartUnix returns the window start in unix seconds.
func (w Window) StartUnix() int64 { return w.Start.Unix() }

// EndUnix returns the window end in unix seconds.
func (w Window) EndUnix() int64 { return w.End.Unix() }

// Valid reports whether start <= end at second precision.
func (w Window) Valid() bool {
	return w.StartUnix() <= w.EndUnix()
}

// OrderBy is one ordering term.
type OrderBy struct {
	Column string
	Desc   bool
}

// Asc returns an ascending ordering term.
func Asc(column string) OrderBy { return OrderBy{Column: column} }

// Desc returns a descending ordering term.
func Desc(column string) OrderBy { return OrderBy{Column: column, Desc: true} }

// Query is a fully specified single-table range read.
//
// Semantics:
//
//	SELECT <columns> FROM events
//	WHERE timestamp BETWEEN <window>
//	  AND <column> IN <filter keys>   (for every filter key)
//	  AND <condition> ...             (for every condition)
//	ORDER BY <order by>
//	LIMIT <limit>
//
// A Query is treated as immutable once built.
type Query struct {
	Columns    []string
	Conditions []Condition
	FilterKeys map[string][]ir.IRValue
	Window     Window
	OrderBy    []OrderBy
	Limit      int
	// Referrer names the caller for logs and store-side attribution.
	Referrer string
}

// Result is what an event store returns for a Query.
type Result struct {
	Rows []ir.IRObject
}
