package store

import (
	"context"
	"fmt"

	"github.com/roach88/eventnav/internal/ir"
	"github.com/roach88/eventnav/internal/queryir"
	"github.com/roach88/eventnav/internal/querysql"
)

var compiler = querysql.NewSQLCompiler(querysql.SQLite{})

// RawQuery compiles q to SQLite SQL and executes it.
// Each result row holds exactly the columns named in q.Columns.
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
			v, err := sqlValueToIR(values[i])
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
