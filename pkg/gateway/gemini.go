package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const ProviderGemini = "gemini"

// Gemini calls the Gemini API through the genai client.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, baseURL, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: api key required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Gemini{client: client, model: model}, nil
}

func (p *Gemini) Complete(ctx context.Context, system, user string, params Params) (string, error) {
	temperature := float32(params.Temperature)
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       &temperature,
		MaxOutputTokens:   int32(params.MaxTokens),
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(user), config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &Error{Kind: kindForStatus(apiErr.Code), Provider: ProviderGemini, Err: err}
		}
		return "", wrap(ProviderGemini, err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", wrap(ProviderGemini, ErrEmptyCompletion)
	}
	return text, nil
}
