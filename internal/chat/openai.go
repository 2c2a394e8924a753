package chat

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/rs/zerolog/log"
)

// OpenAIProvider describes slides through Chat Completions (image parts are
// sent as base64 data URLs) and summarizes through the Responses API.
type OpenAIProvider struct {
	client openai.Client
}

// NewOpenAIProvider builds a client from explicit settings. SDK retries are
// disabled so a failing slide costs one call, matching the Gemini client.
func NewOpenAIProvider(settings Settings) *OpenAIProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(settings.APIKey),
		option.WithMaxRetries(0),
	}
	if settings.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(settings.BaseURL))
	}
	return &OpenAIProvider{client: openai.NewClient(opts...)}
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string { return ProviderOpenAI }

// DescribeImage sends the instruction and the image as one user message.
func (p *OpenAIProvider) DescribeImage(ctx context.Context, model string, image ImageInput, instruction string) (string, error) {
	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(instruction),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: dataURL(image.MIMEType, image.Data),
		}),
	}

	log.Debug().
		Str("model", model).
		Str("file", image.Name).
		Int("image_bytes", len(image.Data)).
		Msg("Starting OpenAI API call for slide description")

	callStart := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    model,
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(parts)},
	})
	duration := time.Since(callStart)
	if err != nil {
		log.Error().Err(err).Dur("duration", duration).Str("file", image.Name).Msg("Failed to describe slide with OpenAI")
		return "", fmt.Errorf("do request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		log.Warn().Str("file", image.Name).Dur("duration", duration).Msg("OpenAI returned a blank description")
		return "", nil
	}
	log.Debug().
		Int("response_length", len(text)).
		Dur("duration", duration).
		Str("preview", truncateString(text, 80)).
		Msg("OpenAI API response received")
	return text, nil
}

// Generate sends the prompt through the Responses API with the system text as
// instructions.
func (p *OpenAIProvider) Generate(ctx context.Context, model, system, prompt string) (string, error) {
	params := responses.ResponseNewParams{
		Model: model,
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(prompt),
		},
	}
	if system != "" {
		params.Instructions = openai.String(system)
	}

	log.Debug().
		Str("model", model).
		Int("prompt_length", len(prompt)).
		Msg("Starting OpenAI API call for text generation")

	callStart := time.Now()
	resp, err := p.client.Responses.New(ctx, params)
	duration := time.Since(callStart)
	if err != nil {
		log.Error().Err(err).Dur("duration", duration).Msg("Failed to generate text with OpenAI")
		return "", fmt.Errorf("do request: %w", err)
	}

	if len(resp.Output) == 0 {
		return "", fmt.Errorf("%w (status = %s)", ErrEmptyResponse, resp.Status)
	}
	text := strings.TrimSpace(resp.OutputText())
	if text == "" {
		log.Warn().Str("status", string(resp.Status)).Dur("duration", duration).Msg("OpenAI returned blank text")
		return "", nil
	}
	log.Debug().
		Int("response_length", len(text)).
		Dur("duration", duration).
		Msg("OpenAI API response received")
	return text, nil
}

func dataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
