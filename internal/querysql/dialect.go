package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/eventnav/internal/ir"
)

// Dialect captures the SQL differences between the supported backends.
type Dialect interface {
	// Name identifies the dialect in errors and logs.
	Name() string

	// Placeholder returns the bind marker for the n-th parameter (1-based).
	Placeholder(n int) string

	// AttrExpr returns the expression reading attribute name from the
	// attrs JSON column.
	AttrExpr(name string) string

	// AttrBind wraps a placeholder compared against an attribute expression.
	AttrBind(placeholder string) string

	// AttrParam converts a literal compared against an attribute.
	AttrParam(v ir.IRValue) (any, error)

	// AttrTypeGuard returns a predicate that holds only when attribute name
	// has the JSON type of v, or "" when v needs no guard (null).
	AttrTypeGuard(name string, v ir.IRValue) string

	// OrderSuffix is appended to ORDER BY terms on text columns.
	OrderSuffix() string
}

// SQLite is the dialect of the embedded store (mattn/go-sqlite3).
//
// Attributes are read with json_extract, which yields native SQLite values,
// so attribute literals bind exactly like column literals.
type SQLite struct{}

// Name implements Dialect.
func (SQLite) Name() string { return "sqlite" }

// Placeholder implements Dialect.
func (SQLite) Placeholder(int) string { return "?" }

// AttrExpr implements Dialect.
func (SQLite) AttrExpr(name string) string {
	return fmt.Sprintf(`json_extract("attrs", '$.%s')`, name)
}

// AttrBind implements Dialect.
func (SQLite) AttrBind(placeholder string) string { return placeholder }

// AttrParam implements Dialect.
func (SQLite) AttrParam(v ir.IRValue) (any, error) { return irValueToParam(v) }

// AttrTypeGuard implements Dialect.
// json_type reports booleans as 'true' or 'false'.
func (SQLite) AttrTypeGuard(name string, v ir.IRValue) string {
	expr := fmt.Sprintf(`json_type("attrs", '$.%s')`, name)
	switch v.(type) {
	case ir.IRInt:
		return expr + " = 'integer'"
	case ir.IRString:
		return expr + " = 'text'"
	case ir.IRBool:
		return expr + " IN ('true', 'false')"
	}
	return ""
}

// OrderSuffix implements Dialect.
// COLLATE BINARY pins byte-wise ordering regardless of connection defaults.
func (SQLite) OrderSuffix() string { return " COLLATE BINARY" }

// Postgres is the dialect of the remote store (jackc/pgx).
//
// Attributes live in a jsonb column and are compared as jsonb, so literals
// are bound as canonical JSON text and cast. Text columns are declared
// COLLATE "C" in the schema, which makes ordering byte-wise without a
// per-query collation.
type Postgres struct{}

// Name implements Dialect.
func (Postgres) Name() string { return "postgres" }

// Placeholder implements Dialect.
func (Postgres) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

// AttrExpr implements Dialect.
func (Postgres) AttrExpr(name string) string {
	return fmt.Sprintf(`("attrs" -> '%s')`, name)
}

// AttrBind implements Dialect.
func (Postgres) AttrBind(placeholder string) string { return placeholder + "::jsonb" }

// AttrParam implements Dialect.
func (Postgres) AttrParam(v ir.IRValue) (any, error) {
	if _, isNull := v.(ir.IRNull); isNull {
		return nil, nil
	}
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// AttrTypeGuard implements Dialect.
func (Postgres) AttrTypeGuard(name string, v ir.IRValue) string {
	expr := fmt.Sprintf(`jsonb_typeof("attrs" -> '%s')`, name)
	switch v.(type) {
	case ir.IRInt:
		return expr + " = 'number'"
	case ir.IRString:
		return expr + " = 'string'"
	case ir.IRBool:
		return expr + " = 'boolean'"
	}
	return ""
}

// OrderSuffix implements Dialect.
func (Postgres) OrderSuffix() string { return "" }

// quoteIdent double-quotes an identifier; both dialects accept this form.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// irValueToParam converts an ir.IRValue to a Go native type for SQL parameter.
// Arrays and objects are not directly supported as SQL parameters.
func irValueToParam(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return int64(val), nil
	case ir.IRBool:
		return bool(val), nil
	case ir.IRNull:
		return nil, nil
	case ir.IRArray:
		return nil, fmt.Errorf("IRArray cannot be used as SQL parameter directly")
	case ir.IRObject:
		return nil, fmt.Errorf("IRObject cannot be used as SQL parameter directly")
	default:
		return nil, fmt.Errorf("unsupported IRValue type for SQL parameter: %T", v)
	}
}
