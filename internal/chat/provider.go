package chat

import (
	"context"
	"fmt"
	"strings"
)

// ImageInput is one image handed to a multimodal model.
type ImageInput struct {
	Name     string // file name, for logging only
	MIMEType string
	Data     []byte
}

// Provider is a hosted language-model API. Implementations hold the endpoint
// and credentials; the model ID is chosen per call so one client can serve
// both describe and summarize steps.
type Provider interface {
	// Name returns the provider name, e.g. "openai" or "gemini".
	Name() string

	// DescribeImage sends one image plus a fixed instruction and returns the
	// model's free-text description.
	DescribeImage(ctx context.Context, model string, image ImageInput, instruction string) (string, error)

	// Generate sends a text prompt with an optional system instruction and
	// returns the model's free-text answer.
	Generate(ctx context.Context, model, system, prompt string) (string, error)
}

// Settings is the explicit connection configuration for a Provider.
type Settings struct {
	Provider string
	APIKey   string
	// BaseURL overrides the provider endpoint (proxies, local gateways, tests).
	BaseURL string
}

// NewProvider builds the Provider named in settings.
func NewProvider(ctx context.Context, settings Settings) (Provider, error) {
	switch strings.ToLower(settings.Provider) {
	case ProviderOpenAI:
		return NewOpenAIProvider(settings), nil
	case ProviderGemini:
		return NewGeminiProvider(ctx, settings)
	case ProviderStub:
		return NewStubProvider(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (expected openai, gemini or stub)", settings.Provider)
	}
}

// truncateString shortens s for log fields.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
