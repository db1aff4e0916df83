package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/text2sql/text2sql/internal/database"
)

type catalogQueries struct {
	tables  string
	columns string
}

var queriesByDialect = map[database.Dialect]catalogQueries{
	database.DialectSQLite: {
		tables: `
SELECT name
FROM sqlite_master
WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
ORDER BY name`,
		columns: `
SELECT name, type
FROM pragma_table_info(?)
ORDER BY cid`,
	},
	database.DialectPostgres: {
		tables: `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
ORDER BY table_name`,
		columns: `
SELECT column_name, data_type
FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1
ORDER BY ordinal_position`,
	},
	database.DialectDuckDB: {
		tables: `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
ORDER BY table_name`,
		columns: `
SELECT column_name, data_type
FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1
ORDER BY ordinal_position`,
	},
}

// Catalog reads table and column metadata from the database's own catalog.
// Each call borrows one connection and returns it before finishing.
type Catalog struct {
	db      *sql.DB
	queries catalogQueries
}

func NewCatalog(db *sql.DB, dialect database.Dialect) (*Catalog, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	queries, ok := queriesByDialect[dialect]
	if !ok {
		return nil, fmt.Errorf("schema introspection is not supported for dialect %q", dialect)
	}
	return &Catalog{db: db, queries: queries}, nil
}

func (c *Catalog) Describe(ctx context.Context) (string, error) {
	tables, err := c.Tables(ctx)
	if err != nil {
		return "", err
	}
	return Render(tables), nil
}

func (c *Catalog) Tables(ctx context.Context) ([]Table, error) {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return nil, &IntrospectionError{Err: fmt.Errorf("acquire connection: %w", err)}
	}
	defer func() { _ = conn.Close() }()

	names, err := listTableNames(ctx, conn, c.queries.tables)
	if err != nil {
		return nil, &IntrospectionError{Err: err}
	}

	tables := make([]Table, 0, len(names))
	for _, name := range names {
		columns, err := listColumns(ctx, conn, c.queries.columns, name)
		if err != nil {
			return nil, &IntrospectionError{Err: err}
		}
		tables = append(tables, Table{Name: name, Columns: columns})
	}
	return tables, nil
}

func listTableNames(ctx context.Context, conn *sql.Conn, query string) ([]string, error) {
	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table rows: %w", err)
	}
	return names, nil
}

func listColumns(ctx context.Context, conn *sql.Conn, query, table string) ([]Column, error) {
	rows, err := conn.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("list columns of %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	columns := make([]Column, 0)
	for rows.Next() {
		var column Column
		var columnType sql.NullString
		if err := rows.Scan(&column.Name, &columnType); err != nil {
			return nil, fmt.Errorf("scan column row of %q: %w", table, err)
		}
		column.Type = strings.ToUpper(strings.TrimSpace(columnType.String))
		if column.Type == "" {
			column.Type = "NULL"
		}
		columns = append(columns, column)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column rows of %q: %w", table, err)
	}
	return columns, nil
}
