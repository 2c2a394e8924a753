package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/slide-digest/internal/assets"
	"github.com/fpang/slide-digest/internal/chat"
	"github.com/fpang/slide-digest/internal/metrics"
	"github.com/fpang/slide-digest/internal/store"
)

// Errors returned by Summarize before the provider is called.
var (
	ErrTranscriptMissing    = errors.New("no transcript yet, process images first")
	ErrTranscriptUnreadable = errors.New("failed to read transcript")
	ErrTranscriptEmpty      = errors.New("transcript is empty")
)

// SummaryRequest carries the free-text framing of a summary. All fields are
// optional and passed through unvalidated.
type SummaryRequest struct {
	Audience string `json:"audience"`
	Tone     string `json:"tone"`
	Example  string `json:"example"`
}

// Summarize reads the saved transcript, renders the profile's summary prompt
// and asks the provider for a summary. The summary is returned, not stored.
//
// A missing, unreadable or empty transcript is reported as an error and the
// provider is not called. Provider failures come back as a failed Result
// with a nil error.
func (p *Pipeline) Summarize(ctx context.Context, req SummaryRequest) (chat.Result, error) {
	transcript, err := p.store.Read(ctx, p.opts.TranscriptName)
	switch {
	case errors.Is(err, store.ErrNotFound):
		log.Warn().Str("artifact", p.store.Location(p.opts.TranscriptName)).Msg("Summary requested before any transcript was saved")
		return chat.Result{}, ErrTranscriptMissing
	case err != nil:
		log.Error().Err(err).Msg("Failed to read transcript")
		return chat.Result{}, fmt.Errorf("%w: %v", ErrTranscriptUnreadable, err)
	case transcript == "":
		return chat.Result{}, ErrTranscriptEmpty
	}

	prompt, err := p.profile.RenderSummaryPrompt(assets.SummaryPromptData{
		Transcript:     transcript,
		TranscriptName: p.opts.TranscriptName,
		Audience:       req.Audience,
		Tone:           req.Tone,
		Example:        req.Example,
	})
	if err != nil {
		return chat.LocalFailure(err), nil
	}

	log.Info().
		Str("provider", p.provider.Name()).
		Str("model", p.opts.SummaryModel).
		Str("profile", p.profile.Name).
		Int("transcript_length", len(transcript)).
		Int("prompt_length", len(prompt)).
		Msg("Generating summary")

	start := time.Now()
	text, err := p.provider.Generate(ctx, p.opts.SummaryModel, p.profile.SummarySystem, prompt)
	duration := time.Since(start)

	var result chat.Result
	if err != nil {
		result = chat.Failed(err)
		log.Warn().Str("kind", result.Failure.Kind.String()).Err(err).Dur("duration", duration).Msg("Summary generation failed")
	} else {
		result = chat.Success(text)
		log.Info().Int("length", len(text)).Dur("duration", duration).Msg("Summary generated")
	}
	metrics.ProviderCall("summarize", p.provider.Name(), p.opts.SummaryModel, outcome(result), duration)
	return result, nil
}
