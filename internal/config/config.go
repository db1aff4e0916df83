package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
	ProviderStub      = "stub"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Database      DatabaseConfig
	LLM           LLMConfig
	Archive       ArchiveConfig
	Observability ObservabilityConfig
	Auth          AuthConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

type LLMConfig struct {
	Provider    string
	Model       string
	Temperature float64
	APIKey      string
	BaseURL     string
	// Timeout bounds one model call; zero leaves it to the caller's context.
	Timeout time.Duration
	UseMock bool
}

type ArchiveConfig struct {
	Backend         string
	LocalDir        string
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	Prefix          string
	AutoCreate      bool
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

type AuthConfig struct {
	Required   bool
	StaticKeys string
}

// LoadFromEnv reads an optional .env file and an optional YAML file named by
// TEXT2SQL_CONFIG_FILE before applying the process environment.
func LoadFromEnv(serviceName string) (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}
	lookup := LookupFunc(os.LookupEnv)
	if path, ok := os.LookupEnv("TEXT2SQL_CONFIG_FILE"); ok && strings.TrimSpace(path) != "" {
		fileLookup, err := LoadFile(strings.TrimSpace(path))
		if err != nil {
			return Config{}, err
		}
		return LoadLayers(serviceName, lookup, fileLookup)
	}
	return Load(serviceName, lookup)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	return LoadLayers(serviceName, lookup)
}

// LoadLayers builds a Config from lookups ordered from highest to lowest
// precedence. Each layer is applied as a whole over the layers below it, so
// a key set in a higher layer wins over every alias of that key set lower
// down (DATABASE_URL in the environment beats TEXT2SQL_DATABASE_URL in a
// config file).
func LoadLayers(serviceName string, layers ...LookupFunc) (Config, error) {
	present := make([]LookupFunc, 0, len(layers))
	for _, layer := range layers {
		if layer != nil {
			present = append(present, layer)
		}
	}
	if len(present) == 0 {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	for _, layer := range present {
		if raw, ok := layer("TEXT2SQL_PROFILE"); ok {
			profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
			break
		}
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid TEXT2SQL_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	for i := len(present) - 1; i >= 0; i-- {
		if err := applyLayer(present[i], &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.LLM.Provider = strings.ToLower(cfg.LLM.Provider)
	if cfg.LLM.UseMock {
		cfg.LLM.Provider = ProviderStub
	}
	if !isValidProvider(cfg.LLM.Provider) {
		return Config{}, fmt.Errorf("invalid TEXT2SQL_LLM_PROVIDER: %q", cfg.LLM.Provider)
	}
	for _, layer := range present {
		if key := firstNonEmpty(layer, "TEXT2SQL_LLM_API_KEY"); key != "" {
			cfg.LLM.APIKey = key
			break
		}
		if key := providerAPIKey(layer, cfg.LLM.Provider); key != "" {
			cfg.LLM.APIKey = key
			break
		}
	}
	for _, layer := range present {
		if url := firstNonEmpty(layer, "TEXT2SQL_LLM_BASE_URL"); url != "" {
			cfg.LLM.BaseURL = url
			break
		}
		if cfg.LLM.Provider != ProviderOpenAI {
			continue
		}
		if url := firstNonEmpty(layer, "OPENAI_BASE_URL", "OPENAI_API_BASE"); url != "" {
			cfg.LLM.BaseURL = url
			break
		}
	}
	if cfg.LLM.Timeout < 0 {
		return Config{}, fmt.Errorf("invalid TEXT2SQL_LLM_TIMEOUT: must be >= 0")
	}
	cfg.Archive.Backend = strings.ToLower(cfg.Archive.Backend)
	if !isValidArchiveBackend(cfg.Archive.Backend) {
		return Config{}, fmt.Errorf("invalid TEXT2SQL_ARCHIVE_BACKEND: %q", cfg.Archive.Backend)
	}

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("database url is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	return cfg, nil
}

// applyLayer overwrites cfg with every key the layer sets. Within a layer
// the TEXT2SQL_ name wins over its plain alias.
func applyLayer(lookup LookupFunc, cfg *Config) error {
	steps := []func() error{
		func() error { return applyString(lookup, "TEXT2SQL_SERVICE_NAME", &cfg.Service.Name) },
		func() error { return applyString(lookup, "TEXT2SQL_HTTP_ADDR", &cfg.HTTP.Address) },
		func() error { return applyDuration(lookup, "TEXT2SQL_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout) },
		func() error { return applyDuration(lookup, "TEXT2SQL_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout) },
		func() error { return applyDuration(lookup, "TEXT2SQL_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout) },
		func() error { return applyString(lookup, "DATABASE_URL", &cfg.Database.URL) },
		func() error { return applyString(lookup, "TEXT2SQL_DATABASE_URL", &cfg.Database.URL) },
		func() error { return applyInt(lookup, "TEXT2SQL_DATABASE_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns) },
		func() error { return applyInt(lookup, "TEXT2SQL_DATABASE_MAX_IDLE_CONNS", &cfg.Database.MaxIdleConns) },
		func() error {
			return applyDuration(lookup, "TEXT2SQL_DATABASE_CONN_MAX_IDLE_TIME", &cfg.Database.ConnMaxIdleTime)
		},
		func() error {
			return applyDuration(lookup, "TEXT2SQL_DATABASE_CONN_MAX_LIFETIME", &cfg.Database.ConnMaxLifetime)
		},
		func() error { return applyString(lookup, "TEXT2SQL_LLM_PROVIDER", &cfg.LLM.Provider) },
		func() error { return applyString(lookup, "TEXT2SQL_LLM_MODEL", &cfg.LLM.Model) },
		func() error { return applyFloat(lookup, "TEXT2SQL_LLM_TEMPERATURE", &cfg.LLM.Temperature) },
		func() error { return applyDuration(lookup, "TEXT2SQL_LLM_TIMEOUT", &cfg.LLM.Timeout) },
		func() error { return applyBool(lookup, "TEXT2SQL_USE_MOCK", &cfg.LLM.UseMock) },
		func() error { return applyString(lookup, "TEXT2SQL_ARCHIVE_BACKEND", &cfg.Archive.Backend) },
		func() error { return applyString(lookup, "TEXT2SQL_ARCHIVE_DIR", &cfg.Archive.LocalDir) },
		func() error { return applyString(lookup, "TEXT2SQL_ARCHIVE_ENDPOINT", &cfg.Archive.Endpoint) },
		func() error { return applyString(lookup, "TEXT2SQL_ARCHIVE_REGION", &cfg.Archive.Region) },
		func() error { return applyString(lookup, "TEXT2SQL_ARCHIVE_BUCKET", &cfg.Archive.Bucket) },
		func() error { return applyString(lookup, "TEXT2SQL_ARCHIVE_ACCESS_KEY", &cfg.Archive.AccessKeyID) },
		func() error { return applyString(lookup, "TEXT2SQL_ARCHIVE_SECRET_KEY", &cfg.Archive.SecretAccessKey) },
		func() error { return applyBool(lookup, "TEXT2SQL_ARCHIVE_USE_SSL", &cfg.Archive.UseSSL) },
		func() error { return applyString(lookup, "TEXT2SQL_ARCHIVE_PREFIX", &cfg.Archive.Prefix) },
		func() error { return applyBool(lookup, "TEXT2SQL_ARCHIVE_AUTO_CREATE_BUCKET", &cfg.Archive.AutoCreate) },
		func() error { return applyBool(lookup, "TEXT2SQL_LOG_JSON", &cfg.Observability.LogJSON) },
		func() error { return applyLogLevel(lookup, "TEXT2SQL_LOG_LEVEL", &cfg.Observability.LogLevel) },
		func() error { return applyBool(lookup, "TEXT2SQL_AUTH_REQUIRED", &cfg.Auth.Required) },
		func() error { return applyString(lookup, "TEXT2SQL_AUTH_STATIC_KEYS", &cfg.Auth.StaticKeys) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "text2sql"},
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			URL:             "sqlite:///./sample.db",
			MaxOpenConns:    4,
			MaxIdleConns:    4,
			ConnMaxIdleTime: 5 * time.Minute,
			ConnMaxLifetime: 30 * time.Minute,
		},
		LLM: LLMConfig{
			Provider:    ProviderOpenAI,
			Model:       "gpt-3.5-turbo",
			Temperature: 0,
		},
		Archive: ArchiveConfig{
			Backend:    "none",
			LocalDir:   "./runs",
			Region:     "us-east-1",
			Bucket:     "text2sql",
			AutoCreate: true,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  false,
		},
		Auth: AuthConfig{
			Required:   false,
			StaticKeys: "",
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18080"
		cfg.Observability.LogLevel = slog.LevelWarn
		cfg.LLM.Provider = ProviderStub
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Observability.LogJSON = true
		cfg.Auth.Required = true
		cfg.Archive.UseSSL = true
		cfg.Archive.AutoCreate = false
	}

	return cfg
}

func providerAPIKey(lookup LookupFunc, provider string) string {
	var keys []string
	switch provider {
	case ProviderOpenAI:
		keys = []string{"OPENAI_API_KEY", "DEEPSEEK_API_KEY"}
	case ProviderAnthropic:
		keys = []string{"ANTHROPIC_API_KEY"}
	case ProviderGoogle:
		keys = []string{"GOOGLE_API_KEY", "GEMINI_API_KEY"}
	}
	return firstNonEmpty(lookup, keys...)
}

func firstNonEmpty(lookup LookupFunc, keys ...string) string {
	for _, key := range keys {
		if raw, ok := lookup(key); ok && strings.TrimSpace(raw) != "" {
			return strings.TrimSpace(raw)
		}
	}
	return ""
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func isValidProvider(provider string) bool {
	switch provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGoogle, ProviderStub:
		return true
	default:
		return false
	}
}

func isValidArchiveBackend(backend string) bool {
	switch backend {
	case "none", "local", "s3":
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyFloat(lookup LookupFunc, key string, dst *float64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
