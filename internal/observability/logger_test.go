package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/text2sql/text2sql/internal/config"
)

func TestNewLoggerJSONCarriesServiceAttributes(t *testing.T) {
	cfg, err := config.Load("text2sql-api", config.MapLookup(map[string]string{"TEXT2SQL_LOG_JSON": "true"}))
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	var buf bytes.Buffer
	logger := NewLogger(cfg, &buf)
	logger.Info("pipeline started", slog.String("run_id", "r1"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if entry["service"] != "text2sql-api" {
		t.Fatalf("service = %#v", entry["service"])
	}
	if entry["profile"] != "dev" {
		t.Fatalf("profile = %#v", entry["profile"])
	}
	if entry["run_id"] != "r1" {
		t.Fatalf("run_id = %#v", entry["run_id"])
	}
}

func TestNewLoggerTextRespectsLevel(t *testing.T) {
	cfg, err := config.Load("text2sql", config.MapLookup(map[string]string{"TEXT2SQL_LOG_LEVEL": "warn"}))
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	var buf bytes.Buffer
	logger := NewLogger(cfg, &buf)
	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered: %s", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn line missing: %s", out)
	}
}

func TestNewLoggerNilWriterDiscards(t *testing.T) {
	cfg, err := config.Load("text2sql", config.MapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	NewLogger(cfg, nil).Info("nothing")
}
