package pgstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/eventnav/internal/ir"
	"github.com/roach88/eventnav/internal/queryir"
	"github.com/roach88/eventnav/internal/querysql"
)

var compiler = querysql.NewSQLCompiler(querysql.Postgres{})

// RawQuery compiles q to Postgres SQL and executes it.
func (s *Store) RawQuery(ctx context.Context, q queryir.Query) (queryir.Result, error) {
	sqlText, params, err := compiler.Compile(q)
	if err != nil {
		return queryir.Result{}, fmt.Errorf("compile query: %w", err)
	}

	s.logger.Debug("raw query", "referrer", q.Referrer, "sql", sqlText)

	rows, err := s.db.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return queryir.Result{}, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	result := queryir.Result{Rows: []ir.IRObject{}}
	values := make([]any, len(q.Columns))
	dest := make([]any, len(q.Columns))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return queryir.Result{}, fmt.Errorf("scan row: %w", err)
		}
		row := make(ir.IRObject, len(q.Columns))
		for i, col := range q.Columns {
			v, err := columnValue(col, values[i])
			if err != nil {
				return queryir.Result{}, fmt.Errorf("column %s: %w", col, err)
			}
			row[col] = v
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return queryir.Result{}, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

// columnValue converts a scanned value. Physical columns arrive as native
// values; attribute columns arrive as raw jsonb.
func columnValue(col string, v any) (ir.IRValue, error) {
	if v == nil {
		return ir.IRNull{}, nil
	}
	if !ir.IsReservedColumn(col) {
		switch raw := v.(type) {
		case []byte:
			return decodeJSON(raw)
		case string:
			return decodeJSON([]byte(raw))
		}
	}
	switch val := v.(type) {
	case int64:
		return ir.IRInt(val), nil
	case int32:
		return ir.IRInt(val), nil
	case string:
		return ir.IRString(val), nil
	case []byte:
		return ir.IRString(string(val)), nil
	case bool:
		return ir.IRBool(val), nil
	default:
		return nil, fmt.Errorf("unsupported column type %T", v)
	}
}

// decodeJSON parses a JSON document into an IR value, keeping integers
// exact. Floats are rejected by ir.FromAny.
func decodeJSON(data []byte) (ir.IRValue, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return ir.FromAny(raw)
}
