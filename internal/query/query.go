package query

import (
	"context"
	"time"
)

// NoRowsMessage replaces the table when a statement yields no rows.
const NoRowsMessage = "Query executed successfully. No results returned."

type Result struct {
	Columns  []string
	Rows     [][]any
	Duration time.Duration
}

func (r Result) Empty() bool {
	return len(r.Rows) == 0
}

// Date is a calendar day read from a DATE column. It renders without a
// time of day, unlike a time.Time.
type Date time.Time

func (d Date) String() string {
	return time.Time(d).Format(time.DateOnly)
}

// Engine runs a statement exactly as given. It does not restrict the
// statement kind, so a write statement mutates the database.
type Engine interface {
	Execute(ctx context.Context, sql string) (Result, error)
}

// ExecutionError means the database rejected or failed the statement.
type ExecutionError struct {
	SQL string
	Err error
}

func (e *ExecutionError) Error() string {
	if e == nil || e.Err == nil {
		return "sql execution failed"
	}
	return e.Err.Error()
}

func (e *ExecutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
