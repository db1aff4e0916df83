package nl2sql

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "gpt-3.5-turbo"

// OpenAIGenerator talks to the chat completions API of OpenAI or any
// compatible provider reachable through Config.BaseURL.
type OpenAIGenerator struct {
	client      openai.Client
	model       string
	temperature float64
}

func NewOpenAIGenerator(cfg Config) (*OpenAIGenerator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultOpenAIModel
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

	return &OpenAIGenerator{
		client:      openai.NewClient(opts...),
		model:       model,
		temperature: cfg.Temperature,
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, question, schema string) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt(schema)),
			openai.UserMessage(question),
		},
		Temperature: openai.Float(g.temperature),
	})
	if err != nil {
		return "", &GenerationError{Provider: ProviderOpenAI, Err: fmt.Errorf("openai API error: %w", err)}
	}
	if len(resp.Choices) == 0 {
		return "", &GenerationError{Provider: ProviderOpenAI, Err: fmt.Errorf("openai returned no choices")}
	}
	return finish(ProviderOpenAI, resp.Choices[0].Message.Content)
}
