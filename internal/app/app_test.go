package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/text2sql/text2sql/internal/config"
	"github.com/text2sql/text2sql/internal/nl2sql"
	"github.com/text2sql/text2sql/internal/sampledb"
)

func TestNewWiresStubPipelineAgainstSQLite(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, map[string]string{
		"TEXT2SQL_DATABASE_URL": "sqlite:///" + filepath.Join(dir, "shop.db"),
	})

	application, err := New(context.Background(), cfg, nil, Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = application.Close() }()

	if _, ok := application.Generator.(nl2sql.StubGenerator); !ok {
		t.Fatalf("Generator = %T, want StubGenerator", application.Generator)
	}
	if application.Archive != nil {
		t.Fatal("archive should be disabled for the none backend")
	}
	if _, err := sampledb.NewSeeder().Up(context.Background(), application.DB.DB, 0); err != nil {
		t.Fatalf("seed: %v", err)
	}

	output, err := application.Runner.Run(context.Background(), "show five users")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.HasPrefix(output, "User Question:\nshow five users\n\nGenerated SQL:\n"+nl2sql.StubSQL+"\n\nQuery Results:\nid\tname\temail\tage\tcity\n") {
		t.Fatalf("output = %q", output)
	}
}

func TestNewWiresLocalArchive(t *testing.T) {
	dir := t.TempDir()
	archiveDir := filepath.Join(dir, "runs")
	cfg := testConfig(t, map[string]string{
		"TEXT2SQL_DATABASE_URL":    "sqlite:///" + filepath.Join(dir, "shop.db"),
		"TEXT2SQL_ARCHIVE_BACKEND": "local",
		"TEXT2SQL_ARCHIVE_DIR":     archiveDir,
	})

	application, err := New(context.Background(), cfg, nil, Options{Generator: fixedGenerator("SELECT 1 AS one")})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = application.Close() }()
	if application.Archive == nil {
		t.Fatal("expected archive recorder")
	}

	if _, err := application.Runner.Run(context.Background(), "one"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	records, err := application.Archive.List(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 1 || records[0].SQL != "SELECT 1 AS one" || records[0].ResultRows != 1 {
		t.Fatalf("records = %+v", records)
	}
	if _, err := os.Stat(archiveDir); err != nil {
		t.Fatalf("archive dir: %v", err)
	}
}

func TestNewRejectsBadDatabaseURL(t *testing.T) {
	cfg := testConfig(t, map[string]string{"TEXT2SQL_DATABASE_URL": "mysql://localhost/shop"})
	if _, err := New(context.Background(), cfg, nil, Options{}); err == nil {
		t.Fatal("expected unsupported dialect error")
	}
}

func TestOpenArchiveStoreNoneReturnsNil(t *testing.T) {
	store, err := OpenArchiveStore(context.Background(), config.ArchiveConfig{Backend: "none"})
	if err != nil || store != nil {
		t.Fatalf("store/err = %v/%v", store, err)
	}
}

func TestOpenArchiveStoreRejectsUnknownBackend(t *testing.T) {
	if _, err := OpenArchiveStore(context.Background(), config.ArchiveConfig{Backend: "gcs"}); err == nil {
		t.Fatal("expected unsupported backend error")
	}
}

func TestOpenArchiveStoreS3RequiresEndpoint(t *testing.T) {
	if _, err := OpenArchiveStore(context.Background(), config.ArchiveConfig{Backend: "s3", Bucket: "runs"}); err == nil {
		t.Fatal("expected endpoint error")
	}
}

func testConfig(t *testing.T, overrides map[string]string) config.Config {
	t.Helper()
	values := map[string]string{"TEXT2SQL_PROFILE": "test"}
	for key, value := range overrides {
		values[key] = value
	}
	cfg, err := config.Load("text2sql-test", config.MapLookup(values))
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	return cfg
}

type fixedGenerator string

func (f fixedGenerator) Generate(context.Context, string, string) (string, error) {
	return string(f), nil
}
