package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// ErrEmptyResponse is returned by providers when a call succeeds but carries
// no choice or candidate at all. Blank text is a valid, empty answer.
var ErrEmptyResponse = errors.New("received empty response from model provider")

// Classify analyzes a provider error and returns its FailureKind.
// Typed API errors from both SDKs are inspected first; anything else falls
// back to message patterns.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureUnknown
	}

	if errors.Is(err, ErrEmptyResponse) {
		return FailureEmptyResponse
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureNetwork
	}

	// genai returns APIError by value from the REST client; older paths wrap a pointer.
	var geminiVal genai.APIError
	if errors.As(err, &geminiVal) {
		return classifyGeminiStatus(geminiVal.Code)
	}
	var geminiPtr *genai.APIError
	if errors.As(err, &geminiPtr) {
		return classifyGeminiStatus(geminiPtr.Code)
	}
	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return classifyStatus(openaiErr.StatusCode)
	}

	errLower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errLower, "api key not valid") ||
		strings.Contains(errLower, "invalid api key") ||
		strings.Contains(errLower, "incorrect api key") ||
		strings.Contains(errLower, "api_key_invalid") ||
		strings.Contains(errLower, "permission denied"):
		return FailureInvalidKey

	case strings.Contains(errLower, "quota") ||
		strings.Contains(errLower, "resource exhausted") ||
		strings.Contains(errLower, "rate limit"):
		return FailureQuota

	case strings.Contains(errLower, "connection") ||
		strings.Contains(errLower, "network") ||
		strings.Contains(errLower, "timeout") ||
		strings.Contains(errLower, "dial") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "unreachable"):
		return FailureNetwork
	}

	log.Debug().Err(err).Msg("Provider error did not match a known category")
	return FailureUnknown
}

// classifyStatus maps an HTTP status code from either provider to a FailureKind.
func classifyStatus(code int) FailureKind {
	switch {
	case code == 401 || code == 403:
		return FailureInvalidKey
	case code == 429:
		return FailureQuota
	case code >= 500 && code <= 599:
		return FailureNetwork
	default:
		return FailureUnknown
	}
}

// classifyGeminiStatus differs from classifyStatus only in that Gemini answers
// a malformed key with 400 rather than 401.
func classifyGeminiStatus(code int) FailureKind {
	if code == 400 {
		return FailureInvalidKey
	}
	return classifyStatus(code)
}
