package querysql

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/eventnav/internal/ir"
	"github.com/roach88/eventnav/internal/queryir"
)

// SQLCompiler compiles a queryir.Query to parameterized SQL.
//
// CRITICAL: ALL queries include ORDER BY for deterministic results.
// CRITICAL: All values are parameterized (never interpolated). Column names
// are spliced into the SQL text only after queryir.Validate has accepted
// them as plain identifiers.
type SQLCompiler struct {
	Dialect Dialect
	Schema  Schema
}

// NewSQLCompiler creates a compiler for the events table in the given dialect.
func NewSQLCompiler(d Dialect) *SQLCompiler {
	return &SQLCompiler{
		Dialect: d,
		Schema:  EventsSchema(),
	}
}

// Compile converts a query to parameterized SQL.
// Returns (sql, params, error) tuple.
//
// Shape:
//
//	SELECT <col> AS <alias>, ... FROM <table>
//	WHERE <time> >= ? AND <time> <= ?
//	  [AND <filter key> IN (...)]...
//	  [AND <condition>]...
//	ORDER BY <terms>
//	LIMIT <n>
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if err := queryir.Validate(q).Err(); err != nil {
		return "", nil, err
	}

	b := &builder{compiler: c}

	selectClause := b.columns(q.Columns)

	where := []string{
		fmt.Sprintf("%s >= %s", b.column(c.Schema.TimeColumn), b.bind(q.Window.StartUnix())),
		fmt.Sprintf("%s <= %s", b.column(c.Schema.TimeColumn), b.bind(q.Window.EndUnix())),
	}

	filterSQL, err := b.filterKeys(q.FilterKeys)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter keys: %w", err)
	}
	where = append(where, filterSQL...)

	for i, cond := range q.Conditions {
		sql, err := b.condition(cond)
		if err != nil {
			return "", nil, fmt.Errorf("compile condition %d: %w", i, err)
		}
		where = append(where, sql)
	}

	// MANDATORY: Always add ORDER BY
	orderBy := q.OrderBy
	if len(orderBy) == 0 {
		orderBy = c.Schema.DefaultOrder
	}

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s LIMIT %d",
		selectClause,
		c.Schema.Table,
		strings.Join(where, " AND "),
		b.orderBy(orderBy),
		q.Limit)

	return sql, b.params, nil
}

// builder accumulates parameters for one compilation so placeholders are
// numbered in the order they appear in the SQL text.
type builder struct {
	compiler *SQLCompiler
	params   []any
}

func (b *builder) bind(v any) string {
	b.params = append(b.params, v)
	return b.compiler.Dialect.Placeholder(len(b.params))
}

func (b *builder) isAttr(name string) bool {
	_, ok := b.compiler.Schema.Columns[name]
	return !ok
}

func (b *builder) column(name string) string {
	if col, ok := b.compiler.Schema.Columns[name]; ok {
		return col.Expr
	}
	return b.compiler.Dialect.AttrExpr(name)
}

// bindValue binds a literal compared against column name.
func (b *builder) bindValue(name string, v ir.IRValue) (string, error) {
	if b.isAttr(name) {
		param, err := b.compiler.Dialect.AttrParam(v)
		if err != nil {
			return "", fmt.Errorf("convert value for %q: %w", name, err)
		}
		return b.compiler.Dialect.AttrBind(b.bind(param)), nil
	}
	param, err := irValueToParam(v)
	if err != nil {
		return "", fmt.Errorf("convert value for %q: %w", name, err)
	}
	return b.bind(param), nil
}

// columns converts the selected columns to a SELECT list.
// Example: ["event_id"] → `"event_id" AS "event_id"`
func (b *builder) columns(cols []string) string {
	parts := make([]string, len(cols))
	for i, name := range cols {
		parts[i] = fmt.Sprintf("%s AS %s", b.column(name), quoteIdent(name))
	}
	return strings.Join(parts, ", ")
}

// filterKeys compiles column IN (...) restrictions.
// Keys are sorted for deterministic output.
func (b *builder) filterKeys(keys map[string][]ir.IRValue) ([]string, error) {
	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make([]string, 0, len(names))
	for _, name := range names {
		sql, err := b.in(name, keys[name])
		if err != nil {
			return nil, err
		}
		out = append(out, sql)
	}
	return out, nil
}

// in compiles column IN (...). An empty candidate list matches nothing.
//
// Attribute candidates are split by type, each group under its own type
// guard, so a candidate only matches attributes of the same type.
func (b *builder) in(name string, values []ir.IRValue) (string, error) {
	if len(values) == 0 {
		return "1 = 0", nil
	}
	if !b.isAttr(name) {
		return b.inList(name, values)
	}

	var order []string
	groups := make(map[string][]ir.IRValue)
	for _, v := range values {
		t := ir.TypeName(v)
		if _, seen := groups[t]; !seen {
			order = append(order, t)
		}
		groups[t] = append(groups[t], v)
	}

	parts := make([]string, 0, len(order))
	for _, t := range order {
		sql, err := b.inList(name, groups[t])
		if err != nil {
			return "", err
		}
		parts = append(parts, b.guard(name, groups[t][0], sql))
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, " OR ") + ")", nil
}

func (b *builder) inList(name string, values []ir.IRValue) (string, error) {
	marks := make([]string, len(values))
	for i, v := range values {
		mark, err := b.bindValue(name, v)
		if err != nil {
			return "", err
		}
		marks[i] = mark
	}
	return fmt.Sprintf("%s IN (%s)", b.column(name), strings.Join(marks, ", ")), nil
}

// guard ANDs the dialect's type guard onto an attribute comparison.
// Physical columns are typed by the schema and need none.
func (b *builder) guard(name string, v ir.IRValue, sql string) string {
	if !b.isAttr(name) {
		return sql
	}
	g := b.compiler.Dialect.AttrTypeGuard(name, v)
	if g == "" {
		return sql
	}
	return "(" + sql + " AND " + g + ")"
}

// condition compiles a condition to a WHERE fragment.
// CRITICAL: Values NEVER interpolated - always placeholders.
func (b *builder) condition(cond queryir.Condition) (string, error) {
	switch c := cond.(type) {
	case queryir.Compare:
		return b.compare(c)
	case *queryir.Compare:
		return b.compare(*c)
	case queryir.And:
		return b.group("AND", c.Conditions)
	case *queryir.And:
		return b.group("AND", c.Conditions)
	case queryir.Or:
		return b.group("OR", c.Conditions)
	case *queryir.Or:
		return b.group("OR", c.Conditions)
	default:
		return "", fmt.Errorf("unsupported condition type: %T", cond)
	}
}

func (b *builder) compare(c queryir.Compare) (string, error) {
	if c.Op == queryir.OpIn {
		arr, ok := c.Value.(ir.IRArray)
		if !ok {
			return "", fmt.Errorf("IN on %q needs an array", c.Column)
		}
		return b.in(c.Column, arr)
	}

	mark, err := b.bindValue(c.Column, c.Value)
	if err != nil {
		return "", err
	}
	sql := fmt.Sprintf("%s %s %s", b.column(c.Column), sqlOp(c.Op), mark)
	return b.guard(c.Column, c.Value, sql), nil
}

func (b *builder) group(kind string, conds []queryir.Condition) (string, error) {
	parts := make([]string, len(conds))
	for i, sub := range conds {
		sql, err := b.condition(sub)
		if err != nil {
			return "", err
		}
		parts[i] = sql
	}
	return "(" + strings.Join(parts, " "+kind+" ") + ")", nil
}

func (b *builder) orderBy(terms []queryir.OrderBy) string {
	parts := make([]string, len(terms))
	for i, o := range terms {
		term := b.column(o.Column)
		if col, ok := b.compiler.Schema.Columns[o.Column]; ok && col.Text {
			term += b.compiler.Dialect.OrderSuffix()
		}
		if o.Desc {
			term += " DESC"
		} else {
			term += " ASC"
		}
		parts[i] = term
	}
	return strings.Join(parts, ", ")
}

func sqlOp(op queryir.Op) string {
	if op == queryir.OpNeq {
		return "<>"
	}
	return string(op)
}
