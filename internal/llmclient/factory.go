package llmclient

import (
	"context"
	"fmt"
	"strings"
)

// New builds the provider client selected by the provider flag. A missing
// credential surfaces as ErrNoCredential so the caller can degrade to
// NewMockClient instead of failing the request.
func New(ctx context.Context, provider, apiKey, model, baseURL string) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", "openai":
		return NewOpenAIClient(apiKey, model, baseURL)
	case "anthropic":
		return NewAnthropicClient(apiKey, model, baseURL)
	case "gemini":
		return NewGeminiClient(ctx, apiKey, model)
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("llmclient: unknown provider %q", provider)
	}
}
