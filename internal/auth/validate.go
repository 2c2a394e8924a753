package auth

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/slide-digest/internal/chat"
	"github.com/fpang/slide-digest/internal/metrics"
)

// ValidationError is a failed key check, categorized like provider failures.
type ValidationError struct {
	Kind    chat.FailureKind
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// validationMessages are the user-facing explanations per failure kind.
var validationMessages = map[chat.FailureKind]string{
	chat.FailureInvalidKey:    "API key is invalid, expired, or lacks permissions",
	chat.FailureQuota:         "API quota exceeded or rate limited - try again later",
	chat.FailureNetwork:       "Network error - check your internet connection",
	chat.FailureEmptyResponse: "API returned empty response",
}

// ValidateAPIKey makes a minimal text call with model to prove the
// provider's key works. It returns nil or a *ValidationError.
func ValidateAPIKey(ctx context.Context, provider chat.Provider, model string) error {
	log.Debug().Str("provider", provider.Name()).Str("model", model).Msg("Validating API key")

	start := time.Now()
	_, err := provider.Generate(ctx, model, "", "hi")
	elapsed := time.Since(start)

	outcome := "success"
	var valErr *ValidationError
	if err != nil {
		kind := chat.Classify(err)
		msg, ok := validationMessages[kind]
		if !ok {
			msg = "Failed to validate API key"
		}
		valErr = &ValidationError{Kind: kind, Message: msg, Err: err}
		outcome = kind.String()
	}

	metrics.New(metrics.Namespace).
		Dimension("Provider", provider.Name()).
		Dimension("Result", outcome).
		Metric("ApiKeyValidationMs", float64(elapsed.Milliseconds()), metrics.UnitMilliseconds).
		Count("ApiKeyValidationResult").
		Flush()

	if valErr != nil {
		log.Error().Err(err).Str("kind", outcome).Dur("duration", elapsed).Msg("API key validation failed")
		return valErr
	}

	log.Info().Str("provider", provider.Name()).Dur("duration", elapsed).Msg("API key validated successfully")
	return nil
}
