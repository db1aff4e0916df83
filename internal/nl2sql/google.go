package nl2sql

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

const defaultGoogleModel = "gemini-2.0-flash"

type GoogleGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
}

func NewGoogleGenerator(ctx context.Context, cfg Config) (*GoogleGenerator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("google API key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" || strings.HasPrefix(model, "gpt-") {
		model = defaultGoogleModel
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		clientCfg.HTTPOptions.BaseURL = baseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create google client: %w", err)
	}

	return &GoogleGenerator{
		client:      client,
		model:       model,
		temperature: float32(cfg.Temperature),
	}, nil
}

func (g *GoogleGenerator) Generate(ctx context.Context, question, schema string) (string, error) {
	temperature := g.temperature
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(question), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemPrompt(schema), genai.RoleUser),
		Temperature:       &temperature,
	})
	if err != nil {
		return "", &GenerationError{Provider: ProviderGoogle, Err: fmt.Errorf("google API error: %w", err)}
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &GenerationError{Provider: ProviderGoogle, Err: fmt.Errorf("google returned no candidates")}
	}

	var content strings.Builder
	if resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part != nil && part.Text != "" {
				content.WriteString(part.Text)
			}
		}
	}
	return finish(ProviderGoogle, content.String())
}
