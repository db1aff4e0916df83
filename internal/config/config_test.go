package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsForDevProfile(t *testing.T) {
	cfg, err := Load("text2sql", MapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.Database.URL != "sqlite:///./sample.db" {
		t.Fatalf("Database.URL = %q", cfg.Database.URL)
	}
	if cfg.LLM.Provider != ProviderOpenAI {
		t.Fatalf("LLM.Provider = %q", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "gpt-3.5-turbo" {
		t.Fatalf("LLM.Model = %q", cfg.LLM.Model)
	}
	if cfg.LLM.Temperature != 0 {
		t.Fatalf("LLM.Temperature = %f", cfg.LLM.Temperature)
	}
	if cfg.Archive.Backend != "none" {
		t.Fatalf("Archive.Backend = %q", cfg.Archive.Backend)
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Auth.Required {
		t.Fatal("Auth.Required should default to false in dev")
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	cfg, err := Load("text2sql-api", MapLookup(map[string]string{"TEXT2SQL_PROFILE": "prod"}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Auth.Required {
		t.Fatal("Auth.Required should default to true in prod")
	}
	if !cfg.Observability.LogJSON {
		t.Fatal("LogJSON should default to true in prod")
	}
	if cfg.Archive.AutoCreate {
		t.Fatal("Archive.AutoCreate should default to false in prod")
	}
}

func TestLoadTestProfileUsesStub(t *testing.T) {
	cfg, err := Load("text2sql", MapLookup(map[string]string{"TEXT2SQL_PROFILE": "test"}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLM.Provider != ProviderStub {
		t.Fatalf("LLM.Provider = %q", cfg.LLM.Provider)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	cfg, err := Load("text2sql", MapLookup(map[string]string{
		"DATABASE_URL":                     "postgresql://u:p@db:5432/shop",
		"TEXT2SQL_DATABASE_MAX_OPEN_CONNS": "9",
		"TEXT2SQL_HTTP_ADDR":               ":9999",
		"TEXT2SQL_HTTP_READ_TIMEOUT":       "2s",
		"TEXT2SQL_LLM_PROVIDER":            "OpenAI",
		"TEXT2SQL_LLM_MODEL":               "deepseek-chat",
		"TEXT2SQL_LLM_TEMPERATURE":         "0.3",
		"TEXT2SQL_LLM_BASE_URL":            "https://api.deepseek.com/v1",
		"DEEPSEEK_API_KEY":                 "ds-key",
		"TEXT2SQL_ARCHIVE_BACKEND":         "S3",
		"TEXT2SQL_ARCHIVE_BUCKET":          "runs",
		"TEXT2SQL_LOG_LEVEL":               "error",
		"TEXT2SQL_AUTH_STATIC_KEYS":        "k1:alice:asker",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.URL != "postgresql://u:p@db:5432/shop" {
		t.Fatalf("Database.URL = %q", cfg.Database.URL)
	}
	if cfg.Database.MaxOpenConns != 9 {
		t.Fatalf("Database.MaxOpenConns = %d", cfg.Database.MaxOpenConns)
	}
	if cfg.HTTP.Address != ":9999" || cfg.HTTP.ReadTimeout != 2*time.Second {
		t.Fatalf("HTTP = %+v", cfg.HTTP)
	}
	if cfg.LLM.Provider != ProviderOpenAI {
		t.Fatalf("LLM.Provider = %q", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "deepseek-chat" {
		t.Fatalf("LLM.Model = %q", cfg.LLM.Model)
	}
	if cfg.LLM.Temperature != 0.3 {
		t.Fatalf("LLM.Temperature = %f", cfg.LLM.Temperature)
	}
	if cfg.LLM.BaseURL != "https://api.deepseek.com/v1" {
		t.Fatalf("LLM.BaseURL = %q", cfg.LLM.BaseURL)
	}
	if cfg.LLM.APIKey != "ds-key" {
		t.Fatalf("LLM.APIKey = %q", cfg.LLM.APIKey)
	}
	if cfg.Archive.Backend != "s3" || cfg.Archive.Bucket != "runs" {
		t.Fatalf("Archive = %+v", cfg.Archive)
	}
	if cfg.Observability.LogLevel != slog.LevelError {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Auth.StaticKeys != "k1:alice:asker" {
		t.Fatalf("StaticKeys = %q", cfg.Auth.StaticKeys)
	}
}

func TestLoadPrefersExplicitAPIKey(t *testing.T) {
	cfg, err := Load("text2sql", MapLookup(map[string]string{
		"TEXT2SQL_LLM_API_KEY": "explicit",
		"OPENAI_API_KEY":       "from-openai",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLM.APIKey != "explicit" {
		t.Fatalf("LLM.APIKey = %q", cfg.LLM.APIKey)
	}
}

func TestLoadUseMockForcesStub(t *testing.T) {
	cfg, err := Load("text2sql", MapLookup(map[string]string{
		"TEXT2SQL_LLM_PROVIDER": "anthropic",
		"TEXT2SQL_USE_MOCK":     "true",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLM.Provider != ProviderStub {
		t.Fatalf("LLM.Provider = %q", cfg.LLM.Provider)
	}
}

func TestLoadErrorsOnInvalidValues(t *testing.T) {
	tests := []map[string]string{
		{"TEXT2SQL_PROFILE": "oops"},
		{"TEXT2SQL_HTTP_READ_TIMEOUT": "NaN"},
		{"TEXT2SQL_DATABASE_MAX_OPEN_CONNS": "oops"},
		{"TEXT2SQL_LLM_TEMPERATURE": "bad"},
		{"TEXT2SQL_LLM_PROVIDER": "palm"},
		{"TEXT2SQL_ARCHIVE_BACKEND": "ftp"},
		{"TEXT2SQL_AUTH_REQUIRED": "not-bool"},
		{"TEXT2SQL_LOG_LEVEL": "verbose"},
		{"DATABASE_URL": ""},
	}
	for _, env := range tests {
		_, err := Load("text2sql", MapLookup(env))
		if err == nil {
			t.Fatalf("Load() expected error for env %#v", env)
		}
	}
}

func TestLoadFileLayersUnderEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "text2sql.yaml")
	data := []byte("DATABASE_URL: duckdb:///./shop.duckdb\nTEXT2SQL_LLM_TEMPERATURE: 0.5\nTEXT2SQL_LLM_MODEL: from-file\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	fileLookup, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	env := MapLookup(map[string]string{"TEXT2SQL_LLM_MODEL": "from-env"})

	cfg, err := LoadLayers("text2sql", env, fileLookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.URL != "duckdb:///./shop.duckdb" {
		t.Fatalf("Database.URL = %q", cfg.Database.URL)
	}
	if cfg.LLM.Temperature != 0.5 {
		t.Fatalf("LLM.Temperature = %f", cfg.LLM.Temperature)
	}
	if cfg.LLM.Model != "from-env" {
		t.Fatalf("LLM.Model = %q", cfg.LLM.Model)
	}
}

func TestLoadEnvironmentAliasBeatsFileValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "text2sql.yaml")
	data := []byte("TEXT2SQL_DATABASE_URL: sqlite:///from-file.db\nTEXT2SQL_LLM_API_KEY: file-key\nTEXT2SQL_LLM_BASE_URL: http://file.example\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	fileLookup, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	env := MapLookup(map[string]string{
		"DATABASE_URL":    "sqlite:///from-env.db",
		"OPENAI_API_KEY":  "env-key",
		"OPENAI_BASE_URL": "http://env.example",
	})

	cfg, err := LoadLayers("text2sql", env, fileLookup)
	if err != nil {
		t.Fatalf("LoadLayers() error = %v", err)
	}
	if cfg.Database.URL != "sqlite:///from-env.db" {
		t.Fatalf("Database.URL = %q", cfg.Database.URL)
	}
	if cfg.LLM.APIKey != "env-key" {
		t.Fatalf("LLM.APIKey = %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.BaseURL != "http://env.example" {
		t.Fatalf("LLM.BaseURL = %q", cfg.LLM.BaseURL)
	}
}

func TestLoadFileKeyAppliesWhenEnvironmentHasOtherProviderKey(t *testing.T) {
	file := MapLookup(map[string]string{"TEXT2SQL_LLM_API_KEY": "file-key"})
	env := MapLookup(map[string]string{"ANTHROPIC_API_KEY": "unused"})

	cfg, err := LoadLayers("text2sql", env, file)
	if err != nil {
		t.Fatalf("LoadLayers() error = %v", err)
	}
	if cfg.LLM.Provider != ProviderOpenAI || cfg.LLM.APIKey != "file-key" {
		t.Fatalf("LLM = %+v", cfg.LLM)
	}
}

func TestLoadSameLayerPrefersPrefixedDatabaseURL(t *testing.T) {
	cfg, err := Load("text2sql", MapLookup(map[string]string{
		"DATABASE_URL":          "sqlite:///plain.db",
		"TEXT2SQL_DATABASE_URL": "sqlite:///prefixed.db",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.URL != "sqlite:///prefixed.db" {
		t.Fatalf("Database.URL = %q", cfg.Database.URL)
	}
}

func TestLoadFileRejectsNestedValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("DATABASE_URL:\n  nested: true\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for nested value")
	}
}
