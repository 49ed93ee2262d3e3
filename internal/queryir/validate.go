package queryir

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/eventnav/internal/ir"
)

// identRE matches column names a backend may splice into SQL text.
var identRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name is safe to use as a column name.
func ValidIdentifier(name string) bool {
	return identRE.MatchString(name)
}

// ValidationResult lists the structural problems found in a query.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems describes every rule the query breaks, in traversal order.
	Problems []string
}

// Err returns the problems as a single error, or nil when the query is valid.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return errors.New("invalid query: " + strings.Join(r.Problems, "; "))
}

// Validate checks a query before it is dispatched.
//
// Rules:
//  1. At least one selected column; every column name is a plain identifier
//  2. Limit >= 1
//  3. Window start <= end
//  4. Operators are known; IN takes an array, the others a scalar
//  5. Ordered operators (< <= > >=) never compare against null
//  6. And / Or have at least one sub-condition
//
// Validate is a pure function with no side effects.
func Validate(q Query) ValidationResult {
	v := &validator{problems: []string{}}
	v.validateQuery(q)

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) checkColumn(where, name string) {
	if !ValidIdentifier(name) {
		v.addProblem("%s: invalid column name %q", where, name)
	}
}

func (v *validator) validateQuery(q Query) {
	if len(q.Columns) == 0 {
		v.addProblem("no columns selected")
	}
	for _, c := range q.Columns {
		v.checkColumn("columns", c)
	}

	if q.Limit < 1 {
		v.addProblem("limit must be >= 1, got %d", q.Limit)
	}

	if !q.Window.Valid() {
		v.addProblem("window start %s is after end %s",
			q.Window.Start.UTC().Format("2006-01-02T15:04:05Z"),
			q.Window.End.UTC().Format("2006-01-02T15:04:05Z"))
	}

	for col, values := range q.FilterKeys {
		v.checkColumn("filter keys", col)
		v.checkValueType("filter keys", col, ir.IRArray(values))
	}

	for _, o := range q.OrderBy {
		v.checkColumn("order by", o.Column)
	}

	for _, c := range q.Conditions {
		v.validateCondition(c)
	}
}

func (v *validator) validateCondition(c Condition) {
	if c == nil {
		v.addProblem("nil condition")
		return
	}

	switch cond := c.(type) {
	case Compare:
		v.validateCompare(cond)
	case *Compare:
		v.validateCompare(*cond)
	case And:
		v.validateGroup("AND", cond.Conditions)
	case *And:
		v.validateGroup("AND", cond.Conditions)
	case Or:
		v.validateGroup("OR", cond.Conditions)
	case *Or:
		v.validateGroup("OR", cond.Conditions)
	default:
		v.addProblem("unknown condition type: %T", c)
	}
}

func (v *validator) validateCompare(c Compare) {
	v.checkColumn("condition", c.Column)

	if !c.Op.Valid() {
		v.addProblem("condition on %q: unknown operator %q", c.Column, c.Op)
		return
	}

	if c.Value == nil {
		v.addProblem("condition on %q: missing value", c.Column)
		return
	}

	_, isArray := c.Value.(ir.IRArray)
	switch {
	case c.Op == OpIn && !isArray:
		v.addProblem("condition on %q: IN needs an array, got %s", c.Column, ir.TypeName(c.Value))
	case c.Op != OpIn && isArray:
		v.addProblem("condition on %q: %s needs a scalar, got array", c.Column, c.Op)
	case c.Op.Ordered():
		if _, isNull := c.Value.(ir.IRNull); isNull {
			v.addProblem("condition on %q: cannot order against null", c.Column)
		}
	}
	if _, isObject := c.Value.(ir.IRObject); isObject {
		v.addProblem("condition on %q: object values are not comparable", c.Column)
	}
	v.checkValueType("condition", c.Column, c.Value)
}

// reservedTypes are the value types of the events table's own columns.
var reservedTypes = map[string]string{
	ir.ColumnProjectID: "int",
	ir.ColumnTimestamp: "int",
	ir.ColumnEventID:   "string",
	ir.ColumnGroupID:   "string",
}

// checkValueType rejects literals whose type can never match a reserved
// column. SQL engines would coerce such literals; in-memory evaluation
// would not.
func (v *validator) checkValueType(where, column string, value ir.IRValue) {
	want, ok := reservedTypes[column]
	if !ok {
		return
	}
	values := []ir.IRValue{value}
	if arr, isArray := value.(ir.IRArray); isArray {
		values = arr
	}
	for _, x := range values {
		if got := ir.TypeName(x); got != want && got != "null" {
			v.addProblem("%s on %q: expected %s value, got %s", where, column, want, got)
			return
		}
	}
}

func (v *validator) validateGroup(kind string, conds []Condition) {
	if len(conds) == 0 {
		v.addProblem("empty %s group", kind)
		return
	}
	for _, sub := range conds {
		v.validateCondition(sub)
	}
}
