package reasoning

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const systemInstruction = "You are a production incident analysis engine. " +
	"You must ONLY use the provided evidence. Respond strictly with one JSON object."

// LiveConfig configures a hosted reasoning provider.
type LiveConfig struct {
	Model       string
	APIKey      string
	MaxTokens   int
	Temperature float64
	// BaseURL overrides the provider endpoint, e.g. for a gateway.
	BaseURL string
}

// AnthropicProvider implements Provider using the Anthropic Messages API.
type AnthropicProvider struct {
	client anthropic.Client
	cfg    LiveConfig
}

// NewAnthropicProvider creates an Anthropic provider. An empty API key falls back to the
// ANTHROPIC_API_KEY environment variable read by the SDK.
func NewAnthropicProvider(cfg LiveConfig) (*AnthropicProvider, error) {
	if cfg.Model == "" {
		return nil, errors.New("anthropic model is required")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	// Retries belong to Client so attempts stay countable.
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &AnthropicProvider{client: anthropic.NewClient(opts...), cfg: cfg}, nil
}

// Name implements Provider.
func (p *AnthropicProvider) Name() string {
	return "anthropic/" + p.cfg.Model
}

// Run implements Provider.
func (p *AnthropicProvider) Run(ctx context.Context, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.cfg.Model),
		MaxTokens: int64(p.cfg.MaxTokens),
		System:    []anthropic.TextBlockParam{{Text: systemInstruction}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(p.cfg.Temperature),
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var textParts []string
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "text" {
			textParts = append(textParts, block.Text)
		}
	}
	if len(textParts) == 0 {
		return "", errors.New("anthropic response contained no text")
	}
	return strings.Join(textParts, ""), nil
}
