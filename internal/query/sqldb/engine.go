package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/text2sql/text2sql/internal/query"
)

// Engine executes statements on a database/sql handle. Every call borrows
// one connection and releases it before returning.
type Engine struct {
	DB *sql.DB
}

func NewEngine(db *sql.DB) *Engine {
	return &Engine{DB: db}
}

func (e *Engine) Execute(ctx context.Context, statement string) (query.Result, error) {
	if strings.TrimSpace(statement) == "" {
		return query.Result{}, &query.ExecutionError{Err: fmt.Errorf("sql is required")}
	}
	if e.DB == nil {
		return query.Result{}, &query.ExecutionError{SQL: statement, Err: fmt.Errorf("database handle is required")}
	}

	start := time.Now()
	conn, err := e.DB.Conn(ctx)
	if err != nil {
		return query.Result{}, &query.ExecutionError{SQL: statement, Err: fmt.Errorf("acquire connection: %w", err)}
	}
	defer func() { _ = conn.Close() }()

	result, err := run(ctx, conn, statement)
	if err != nil {
		return query.Result{}, &query.ExecutionError{SQL: statement, Err: err}
	}
	result.Duration = time.Since(start)
	return result, nil
}

func run(ctx context.Context, conn *sql.Conn, statement string) (query.Result, error) {
	rows, err := conn.QueryContext(ctx, statement)
	if err != nil {
		return query.Result{}, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return query.Result{}, fmt.Errorf("query columns: %w", err)
	}
	dateColumns := make([]bool, len(columns))
	if types, err := rows.ColumnTypes(); err == nil {
		for i, columnType := range types {
			dateColumns[i] = strings.EqualFold(columnType.DatabaseTypeName(), "DATE")
		}
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return query.Result{}, fmt.Errorf("scan row: %w", err)
		}
		resultRows = append(resultRows, normalizeValues(values, dateColumns))
	}
	if err := rows.Err(); err != nil {
		return query.Result{}, fmt.Errorf("iterate rows: %w", err)
	}

	return query.Result{Columns: columns, Rows: resultRows}, nil
}

// normalizeValues copies driver-owned byte slices, which are only valid
// until the next Scan, and marks times read from DATE columns.
func normalizeValues(values []any, dateColumns []bool) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		case time.Time:
			if dateColumns[i] {
				normalized[i] = query.Date(typed)
			} else {
				normalized[i] = typed
			}
		default:
			normalized[i] = typed
		}
	}
	return normalized
}
