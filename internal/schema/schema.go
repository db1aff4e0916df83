package schema

import (
	"context"
	"strings"
)

type Column struct {
	Name string
	Type string
}

type Table struct {
	Name    string
	Columns []Column
}

// Introspector renders the database's tables and columns as prompt text.
type Introspector interface {
	Describe(ctx context.Context) (string, error)
}

// IntrospectionError means the metadata catalog could not be read.
type IntrospectionError struct {
	Err error
}

func (e *IntrospectionError) Error() string {
	if e == nil || e.Err == nil {
		return "schema introspection failed"
	}
	return "schema introspection failed: " + e.Err.Error()
}

func (e *IntrospectionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Render produces one "Table: <name>" line per table followed by one
// "  - <column>: <type>" line per column, in the order given.
func Render(tables []Table) string {
	var sb strings.Builder
	for i, table := range tables {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("Table: ")
		sb.WriteString(table.Name)
		for _, column := range table.Columns {
			sb.WriteString("\n  - ")
			sb.WriteString(column.Name)
			sb.WriteString(": ")
			sb.WriteString(column.Type)
		}
	}
	return sb.String()
}
