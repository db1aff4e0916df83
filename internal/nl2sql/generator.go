package nl2sql

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
	ProviderStub      = "stub"
)

// Generator turns a question plus a schema description into one SQL statement.
// Implementations return a *GenerationError on failure and never retry.
type Generator interface {
	Generate(ctx context.Context, question, schema string) (string, error)
}

type Config struct {
	Provider    string
	Model       string
	Temperature float64
	APIKey      string
	// BaseURL points the OpenAI client at a compatible third-party endpoint.
	BaseURL string
	Timeout time.Duration
}

// GenerationError means the model call failed or returned nothing usable.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	if e == nil || e.Err == nil {
		return "sql generation failed"
	}
	return e.Err.Error()
}

func (e *GenerationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(cfg Config, logger *slog.Logger) (Generator, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderOpenAI
	}

	var (
		generator Generator
		err       error
	)
	switch provider {
	case ProviderOpenAI:
		generator, err = NewOpenAIGenerator(cfg)
	case ProviderAnthropic:
		generator, err = NewAnthropicGenerator(cfg)
	case ProviderGoogle:
		generator, err = NewGoogleGenerator(context.Background(), cfg)
	case ProviderStub:
		logger.Warn("using stub sql generator", slog.String("sql", StubSQL))
		return StubGenerator{}, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("sql generator ready",
		slog.String("provider", provider),
		slog.String("model", cfg.Model),
		slog.Float64("temperature", cfg.Temperature),
	)
	return generator, nil
}

// finish applies CleanSQL to raw model output and rejects an empty statement.
func finish(provider, raw string) (string, error) {
	sql := CleanSQL(raw)
	if sql == "" {
		return "", &GenerationError{Provider: provider, Err: fmt.Errorf("%s model returned empty SQL", provider)}
	}
	return sql, nil
}
