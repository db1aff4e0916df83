package nl2sql

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicModel     = "claude-sonnet-4-20250514"
	defaultAnthropicMaxTokens = 1024
)

type AnthropicGenerator struct {
	client      anthropic.Client
	model       string
	temperature float64
}

func NewAnthropicGenerator(cfg Config) (*AnthropicGenerator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" || strings.HasPrefix(model, "gpt-") {
		model = defaultAnthropicModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(baseURL, "/")+"/"))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}

	return &AnthropicGenerator{
		client:      anthropic.NewClient(opts...),
		model:       model,
		temperature: cfg.Temperature,
	}, nil
}

func (g *AnthropicGenerator) Generate(ctx context.Context, question, schema string) (string, error) {
	resp, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(g.model),
		MaxTokens:   defaultAnthropicMaxTokens,
		Temperature: anthropic.Float(g.temperature),
		System: []anthropic.TextBlockParam{
			{Text: SystemPrompt(schema)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(question)),
		},
	})
	if err != nil {
		return "", &GenerationError{Provider: ProviderAnthropic, Err: fmt.Errorf("anthropic API error: %w", err)}
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	return finish(ProviderAnthropic, content.String())
}
