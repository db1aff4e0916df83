package database

import (
	"strings"
	"testing"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		raw     string
		dialect Dialect
		driver  string
		dsn     string
	}{
		{"sqlite:///./sample.db", DialectSQLite, "sqlite3", "./sample.db"},
		{"sqlite:////var/lib/shop.db", DialectSQLite, "sqlite3", "/var/lib/shop.db"},
		{"sqlite:///:memory:", DialectSQLite, "sqlite3", ":memory:"},
		{"sqlite://", DialectSQLite, "sqlite3", ":memory:"},
		{"sqlite+pysqlite:///shop.db?timeout=5", DialectSQLite, "sqlite3", "file:shop.db?timeout=5"},
		{"sqlite:///a.db?mode=ro", DialectSQLite, "sqlite3", "file:a.db?mode=ro"},
		{"duckdb:///a.duckdb?access_mode=read_only", DialectDuckDB, "duckdb", "a.duckdb?access_mode=read_only"},
		{"duckdb:///warehouse.duckdb", DialectDuckDB, "duckdb", "warehouse.duckdb"},
		{"duckdb:///:memory:", DialectDuckDB, "duckdb", ""},
		{"postgresql://u:p@db:5432/shop?sslmode=disable", DialectPostgres, "pgx", "postgres://u:p@db:5432/shop?sslmode=disable"},
		{"postgres://db/shop", DialectPostgres, "pgx", "postgres://db/shop"},
		{"postgresql+psycopg2://db/shop", DialectPostgres, "pgx", "postgres://db/shop"},
		{"postgresql+pq://db/shop", DialectPostgres, "postgres", "postgres://db/shop"},
	}
	for _, tt := range tests {
		got, err := ParseURL(tt.raw)
		if err != nil {
			t.Fatalf("ParseURL(%q) error = %v", tt.raw, err)
		}
		if got.Dialect != tt.dialect || got.Driver != tt.driver || got.DSN != tt.dsn {
			t.Fatalf("ParseURL(%q) = %+v", tt.raw, got)
		}
	}
}

func TestParseURLRejectsUnknownDialects(t *testing.T) {
	for _, raw := range []string{"", "sample.db", "mysql://db/shop", "postgresql+odbc://db/shop", "duckdb+x:///a"} {
		if _, err := ParseURL(raw); err == nil {
			t.Fatalf("ParseURL(%q) expected error", raw)
		}
	}
}

func TestParseURLRedactsPasswordInErrors(t *testing.T) {
	_, err := ParseURL("oracle//scott:tiger@db")
	if err == nil {
		t.Fatal("expected error")
	}
	_, err = ParseURL("mssql://scott:tiger@db/shop")
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Contains(err.Error(), "tiger") {
		t.Fatalf("error leaks password: %v", err)
	}
}

func TestTargetInMemory(t *testing.T) {
	mem, _ := ParseURL("sqlite:///:memory:")
	file, _ := ParseURL("sqlite:///./a.db")
	duck, _ := ParseURL("duckdb:///:memory:")
	if !mem.InMemory() || file.InMemory() || !duck.InMemory() {
		t.Fatalf("InMemory() = %v/%v/%v", mem.InMemory(), file.InMemory(), duck.InMemory())
	}
	shared, _ := ParseURL("sqlite:///:memory:?cache=shared")
	if !shared.InMemory() || shared.DSN != "file::memory:?cache=shared" {
		t.Fatalf("shared = %+v", shared)
	}
}
