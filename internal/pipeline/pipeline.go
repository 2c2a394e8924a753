// Package pipeline is the slide-batch orchestrator: it turns a folder of
// slide images into a combined transcript and turns that transcript into a
// summary framed by tone, audience and an example.
//
// The two steps are independent. ProcessImages persists the transcript
// through a store.TranscriptStore; Summarize reads it back from the store,
// never from memory, so a summary can be requested long after processing.
// Calls run one at a time in slide order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/slide-digest/internal/assets"
	"github.com/fpang/slide-digest/internal/chat"
	"github.com/fpang/slide-digest/internal/filehandler"
	"github.com/fpang/slide-digest/internal/metrics"
	"github.com/fpang/slide-digest/internal/store"
)

// DefaultTranscriptName is the artifact name used when Options leaves it empty.
const DefaultTranscriptName = "output.txt"

// Options are the per-deployment knobs of a Pipeline.
type Options struct {
	DescribeModel  string
	SummaryModel   string
	TranscriptName string

	// Mock skips the provider for the describe step and records
	// "Mock response for <file>" instead.
	Mock bool

	// MaxImageDimension downscales larger slides before upload; 0 disables.
	MaxImageDimension int
}

// Pipeline binds a provider, a store and a prompt profile.
type Pipeline struct {
	provider chat.Provider
	store    store.TranscriptStore
	profile  *assets.Profile
	opts     Options
}

// New returns a Pipeline. Empty model names fall back to the provider default.
func New(provider chat.Provider, st store.TranscriptStore, profile *assets.Profile, opts Options) *Pipeline {
	if opts.TranscriptName == "" {
		opts.TranscriptName = DefaultTranscriptName
	}
	if opts.DescribeModel == "" {
		opts.DescribeModel = chat.DefaultModel(provider.Name())
	}
	if opts.SummaryModel == "" {
		opts.SummaryModel = chat.DefaultModel(provider.Name())
	}
	return &Pipeline{provider: provider, store: st, profile: profile, opts: opts}
}

// TranscriptName returns the artifact name the pipeline reads and writes.
func (p *Pipeline) TranscriptName() string { return p.opts.TranscriptName }

// Provider returns the model provider.
func (p *Pipeline) Provider() chat.Provider { return p.provider }

// Store returns the transcript store.
func (p *Pipeline) Store() store.TranscriptStore { return p.store }

// SlideResult is the outcome for one image, in transcript order.
type SlideResult struct {
	Position int // 1-based, as in the "Slide N:" label
	File     string
	Result   chat.Result
}

// Run is the outcome of ProcessImages.
type Run struct {
	Slides     []SlideResult
	Transcript string
	// Artifact is where the transcript was written; empty when nothing was.
	Artifact string
	// SlideOrder is false when the directory listing order had to be kept.
	SlideOrder bool
}

// Failures counts slides whose description failed.
func (r *Run) Failures() int {
	n := 0
	for _, s := range r.Slides {
		if !s.Result.OK() {
			n++
		}
	}
	return n
}

// ProcessImages describes every slide image in dir and writes the combined
// transcript. Provider failures do not stop the run; they appear in the
// transcript as "Error: ..." for the affected slide.
//
// Errors: filehandler.ErrNoImages when dir holds no images (no provider call
// is made), ErrEmptyTranscript when nothing describable came back (nothing
// is written), the context error if ctx ends mid-run, or a storage error.
// The returned Run is non-nil whenever descriptions were produced.
func (p *Pipeline) ProcessImages(ctx context.Context, dir string) (*Run, error) {
	start := time.Now()

	images, err := filehandler.ScanDirectory(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	ordered, slideOrder := filehandler.OrderSlides(images)

	log.Info().
		Int("total_images", len(ordered)).
		Bool("slide_order", slideOrder).
		Bool("mock", p.opts.Mock).
		Str("provider", p.provider.Name()).
		Str("model", p.opts.DescribeModel).
		Str("profile", p.profile.Name).
		Msg("Processing slides")

	run := &Run{SlideOrder: slideOrder, Slides: make([]SlideResult, 0, len(ordered))}
	descriptions := make([]string, 0, len(ordered))
	for i, img := range ordered {
		if err := ctx.Err(); err != nil {
			return run, fmt.Errorf("processing stopped after %d of %d slides: %w", i, len(ordered), err)
		}
		result := p.describe(ctx, img)
		run.Slides = append(run.Slides, SlideResult{Position: i + 1, File: img.Name, Result: result})
		descriptions = append(descriptions, result.String())
	}

	transcript, err := AssembleTranscript(descriptions)
	if err != nil {
		log.Error().Err(err).Int("total_images", len(ordered)).Msg("No content generated from images")
		return run, err
	}
	run.Transcript = transcript

	if err := p.store.Write(ctx, p.opts.TranscriptName, transcript); err != nil {
		return run, fmt.Errorf("save transcript: %w", err)
	}
	run.Artifact = p.store.Location(p.opts.TranscriptName)

	duration := time.Since(start)
	metrics.SlideRun(p.provider.Name(), len(run.Slides), run.Failures(), slideOrder, duration)
	log.Info().
		Int("slides", len(run.Slides)).
		Int("failures", run.Failures()).
		Str("artifact", run.Artifact).
		Dur("duration", duration).
		Msg("Slides processed, transcript saved")

	return run, nil
}

// IsInputAbsent reports whether err means a step was triggered before its
// input existed (no images, no transcript yet). Callers show these as
// warnings rather than failures.
func IsInputAbsent(err error) bool {
	return errors.Is(err, filehandler.ErrNoImages) ||
		errors.Is(err, ErrTranscriptMissing) ||
		errors.Is(err, ErrTranscriptUnreadable) ||
		errors.Is(err, ErrTranscriptEmpty)
}
