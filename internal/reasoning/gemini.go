package reasoning

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GeminiProvider implements Provider using the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	cfg    LiveConfig
}

// NewGeminiProvider creates a Gemini provider. An empty API key falls back to the
// GEMINI_API_KEY / GOOGLE_API_KEY environment variables read by the SDK.
func NewGeminiProvider(ctx context.Context, cfg LiveConfig) (*GeminiProvider, error) {
	if cfg.Model == "" {
		return nil, errors.New("gemini model is required")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{client: client, cfg: cfg}, nil
}

// Name implements Provider.
func (p *GeminiProvider) Name() string {
	return "gemini/" + p.cfg.Model
}

// Run implements Provider.
func (p *GeminiProvider) Run(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.cfg.Model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(float32(p.cfg.Temperature)),
		MaxOutputTokens:   int32(p.cfg.MaxTokens),
		ResponseMIMEType:  "application/json",
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	})
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini response contained no text")
	}
	return text, nil
}
