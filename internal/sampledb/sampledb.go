package sampledb

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

//go:embed sql/*.sql
var embeddedFS embed.FS

const versionTable = "text2sql_schema_migrations"

var scriptNamePattern = regexp.MustCompile(`^([0-9]+)_.+\.(up|down)\.sql$`)

// Seeder creates and fills the sample shop database (users, products,
// orders) through versioned up/down scripts. Applied versions are tracked
// in text2sql_schema_migrations, so Up is safe to repeat.
type Seeder struct {
	fsys fs.FS
}

func NewSeeder() *Seeder {
	return &Seeder{fsys: embeddedFS}
}

type script struct {
	Version int64
	Name    string
	Up      []string
	Down    []string
}

func (s *Seeder) Up(ctx context.Context, db *sql.DB, steps int) (int, error) {
	scripts, err := loadScripts(s.fsys)
	if err != nil {
		return 0, err
	}
	if err := ensureVersionTable(ctx, db); err != nil {
		return 0, err
	}
	applied, err := appliedVersions(ctx, db, "ASC")
	if err != nil {
		return 0, err
	}
	done := make(map[int64]bool, len(applied))
	for _, version := range applied {
		done[version] = true
	}

	count := 0
	for _, item := range scripts {
		if done[item.Version] {
			continue
		}
		if steps > 0 && count >= steps {
			break
		}
		if err := runScript(ctx, db, item.Up, `INSERT INTO `+versionTable+` (version) VALUES ($1)`, item.Version); err != nil {
			return count, fmt.Errorf("apply %06d_%s: %w", item.Version, item.Name, err)
		}
		count++
	}
	return count, nil
}

// Down reverts the newest applied versions; steps <= 0 reverts one.
func (s *Seeder) Down(ctx context.Context, db *sql.DB, steps int) (int, error) {
	if steps <= 0 {
		steps = 1
	}
	scripts, err := loadScripts(s.fsys)
	if err != nil {
		return 0, err
	}
	if err := ensureVersionTable(ctx, db); err != nil {
		return 0, err
	}
	applied, err := appliedVersions(ctx, db, "DESC")
	if err != nil {
		return 0, err
	}
	byVersion := make(map[int64]script, len(scripts))
	for _, item := range scripts {
		byVersion[item.Version] = item
	}

	count := 0
	for _, version := range applied {
		if count >= steps {
			break
		}
		item, ok := byVersion[version]
		if !ok {
			return count, fmt.Errorf("applied version %d has no script", version)
		}
		if err := runScript(ctx, db, item.Down, `DELETE FROM `+versionTable+` WHERE version = $1`, item.Version); err != nil {
			return count, fmt.Errorf("revert %06d_%s: %w", item.Version, item.Name, err)
		}
		count++
	}
	return count, nil
}

// Applied lists the applied versions in ascending order.
func (s *Seeder) Applied(ctx context.Context, db *sql.DB) ([]int64, error) {
	if err := ensureVersionTable(ctx, db); err != nil {
		return nil, err
	}
	return appliedVersions(ctx, db, "ASC")
}

func ensureVersionTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS `+versionTable+` (
	version BIGINT PRIMARY KEY,
	applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`)
	if err != nil {
		return fmt.Errorf("ensure version table: %w", err)
	}
	return nil
}

// runScript executes the statements and the bookkeeping statement in one
// transaction.
func runScript(ctx context.Context, db *sql.DB, statements []string, bookkeeping string, version int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, statement := range statements {
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, bookkeeping, version); err != nil {
		return fmt.Errorf("record version %d: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func appliedVersions(ctx context.Context, db *sql.DB, order string) ([]int64, error) {
	rows, err := db.QueryContext(ctx, `SELECT version FROM `+versionTable+` ORDER BY version `+order)
	if err != nil {
		return nil, fmt.Errorf("query applied versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	versions := make([]int64, 0)
	for rows.Next() {
		var version int64
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, version)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}
	return versions, nil
}

func loadScripts(fsys fs.FS) ([]script, error) {
	entries, err := fs.ReadDir(fsys, "sql")
	if err != nil {
		return nil, fmt.Errorf("read script dir: %w", err)
	}

	byVersion := map[int64]script{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		matches := scriptNamePattern.FindStringSubmatch(entry.Name())
		if len(matches) != 3 {
			continue
		}
		version, err := strconv.ParseInt(matches[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse version of %q: %w", entry.Name(), err)
		}
		body, err := fs.ReadFile(fsys, path.Join("sql", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read script %q: %w", entry.Name(), err)
		}

		item := byVersion[version]
		item.Version = version
		item.Name = scriptName(entry.Name())
		if matches[2] == "up" {
			item.Up = SplitStatements(string(body))
		} else {
			item.Down = SplitStatements(string(body))
		}
		byVersion[version] = item
	}

	scripts := make([]script, 0, len(byVersion))
	for _, item := range byVersion {
		if len(item.Up) == 0 {
			return nil, fmt.Errorf("version %d missing up SQL", item.Version)
		}
		if len(item.Down) == 0 {
			return nil, fmt.Errorf("version %d missing down SQL", item.Version)
		}
		scripts = append(scripts, item)
	}
	sort.Slice(scripts, func(i, j int) bool { return scripts[i].Version < scripts[j].Version })
	return scripts, nil
}

func scriptName(file string) string {
	name := strings.TrimSuffix(strings.TrimSuffix(file, ".up.sql"), ".down.sql")
	if _, rest, ok := strings.Cut(name, "_"); ok {
		return rest
	}
	return name
}

// SplitStatements splits a script on semicolons that end a line. Scripts
// must not put a semicolon at the end of a line inside a string literal.
func SplitStatements(body string) []string {
	statements := make([]string, 0)
	var current strings.Builder
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
		if strings.HasSuffix(trimmed, ";") {
			appendStatement(&statements, current.String())
			current.Reset()
		}
	}
	appendStatement(&statements, current.String())
	return statements
}

func appendStatement(statements *[]string, raw string) {
	statement := strings.TrimSuffix(strings.TrimSpace(raw), ";")
	if strings.TrimSpace(statement) != "" {
		*statements = append(*statements, strings.TrimSpace(statement))
	}
}
