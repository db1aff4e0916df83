package database

import (
	"fmt"
	"net/url"
	"strings"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgresql"
	DialectDuckDB   Dialect = "duckdb"
)

// Target is a parsed connection URL: the database/sql driver to load and
// the DSN that driver understands.
type Target struct {
	Dialect Dialect
	Driver  string
	DSN     string
	// Path is the database file for the file-based dialects, without options.
	Path string
}

func (t Target) InMemory() bool {
	switch t.Dialect {
	case DialectSQLite:
		return t.Path == ":memory:"
	case DialectDuckDB:
		return t.Path == ""
	default:
		return false
	}
}

// ParseURL accepts dialect-qualified URLs of the form dialect[+driver]://...
//
//	sqlite:///relative/path.db     sqlite:////absolute/path.db    sqlite:///:memory:
//	sqlite:///a.db?mode=ro         (query passed on as SQLite URI parameters)
//	duckdb:///path.duckdb          duckdb:///:memory:             duckdb:///a.duckdb?access_mode=read_only
//	postgresql://user:pw@host/db   postgresql+pq://...            postgres://...
func ParseURL(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, fmt.Errorf("database url is required")
	}
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok || scheme == "" {
		return Target{}, fmt.Errorf("database url %q is missing a dialect scheme", redact(raw))
	}
	dialect, driver, _ := strings.Cut(strings.ToLower(scheme), "+")

	switch dialect {
	case "sqlite", "sqlite3":
		if driver != "" && driver != "sqlite3" && driver != "pysqlite" {
			return Target{}, fmt.Errorf("unsupported sqlite driver %q", driver)
		}
		path, query := filePath(rest)
		dsn := path
		if query != "" {
			dsn = "file:" + path + "?" + query
		}
		return Target{Dialect: DialectSQLite, Driver: "sqlite3", DSN: dsn, Path: path}, nil
	case "duckdb":
		if driver != "" {
			return Target{}, fmt.Errorf("unsupported duckdb driver %q", driver)
		}
		path, query := filePath(rest)
		if path == ":memory:" {
			path = ""
		}
		dsn := path
		if query != "" {
			dsn = path + "?" + query
		}
		return Target{Dialect: DialectDuckDB, Driver: "duckdb", DSN: dsn, Path: path}, nil
	case "postgresql", "postgres":
		dsn := "postgres://" + rest
		if _, err := url.Parse(dsn); err != nil {
			return Target{}, fmt.Errorf("parse postgres url: %w", err)
		}
		switch driver {
		case "", "pgx", "psycopg", "psycopg2", "asyncpg":
			return Target{Dialect: DialectPostgres, Driver: "pgx", DSN: dsn}, nil
		case "pq":
			return Target{Dialect: DialectPostgres, Driver: "postgres", DSN: dsn}, nil
		default:
			return Target{}, fmt.Errorf("unsupported postgresql driver %q", driver)
		}
	default:
		return Target{}, fmt.Errorf("unsupported database dialect %q", dialect)
	}
}

// filePath turns the part after "scheme://" into a filesystem path. The
// leading slash separates the empty host from the path, so "/./a.db" is the
// relative path "./a.db" and "//abs/a.db" is "/abs/a.db". The raw query
// string is returned separately.
func filePath(rest string) (string, string) {
	rest, query, _ := strings.Cut(rest, "?")
	if strings.HasPrefix(rest, "/") {
		rest = rest[1:]
	}
	if rest == "" {
		return ":memory:", query
	}
	return rest, query
}

func redact(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.User == nil {
		return raw
	}
	return parsed.Redacted()
}
