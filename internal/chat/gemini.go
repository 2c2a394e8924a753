package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// GeminiProvider talks to the Gemini API through google.golang.org/genai.
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates a Gemini client from explicit settings.
func NewGeminiProvider(ctx context.Context, settings Settings) (*GeminiProvider, error) {
	cfg := &genai.ClientConfig{
		APIKey:  settings.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if settings.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: settings.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiProvider{client: client}, nil
}

// Name implements Provider.
func (p *GeminiProvider) Name() string { return ProviderGemini }

// DescribeImage sends the image inline, followed by the instruction text.
func (p *GeminiProvider) DescribeImage(ctx context.Context, model string, image ImageInput, instruction string) (string, error) {
	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: image.MIMEType, Data: image.Data}},
		{Text: instruction},
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	log.Debug().
		Str("model", model).
		Str("file", image.Name).
		Int("image_bytes", len(image.Data)).
		Msg("Starting Gemini API call for slide description")

	callStart := time.Now()
	resp, err := p.client.Models.GenerateContent(ctx, model, contents, nil)
	duration := time.Since(callStart)
	if err != nil {
		log.Error().Err(err).Dur("duration", duration).Str("file", image.Name).Msg("Failed to describe slide with Gemini")
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return geminiText(resp, duration)
}

// Generate sends a text prompt with an optional system instruction.
func (p *GeminiProvider) Generate(ctx context.Context, model, system, prompt string) (string, error) {
	var config *genai.GenerateContentConfig
	if system != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{{Text: system}},
			},
		}
	}

	log.Debug().
		Str("model", model).
		Int("prompt_length", len(prompt)).
		Msg("Starting Gemini API call for text generation")

	callStart := time.Now()
	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	duration := time.Since(callStart)
	if err != nil {
		log.Error().Err(err).Dur("duration", duration).Msg("Failed to generate text with Gemini")
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return geminiText(resp, duration)
}

// geminiText extracts the answer. A response without candidates is an
// error; a candidate with blank text is a valid, empty answer.
func geminiText(resp *genai.GenerateContentResponse, duration time.Duration) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		log.Warn().Dur("duration", duration).Msg("Gemini returned blank text")
		return "", nil
	}
	log.Debug().
		Int("response_length", len(text)).
		Dur("duration", duration).
		Msg("Gemini API response received")
	return text, nil
}
