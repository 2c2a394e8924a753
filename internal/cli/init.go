// Package cli holds the setup and prompt helpers shared by the binaries.
package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/fpang/slide-digest/internal/assets"
	"github.com/fpang/slide-digest/internal/auth"
	"github.com/fpang/slide-digest/internal/chat"
	"github.com/fpang/slide-digest/internal/config"
	"github.com/fpang/slide-digest/internal/pipeline"
	"github.com/fpang/slide-digest/internal/store"
)

// BuildPipeline wires a Pipeline from cfg using apiKey. It does not validate
// the key; see InitPipeline.
func BuildPipeline(ctx context.Context, cfg config.Config, apiKey string) (*pipeline.Pipeline, error) {
	provider, err := chat.NewProvider(ctx, chat.Settings{
		Provider: cfg.Provider,
		APIKey:   apiKey,
		BaseURL:  cfg.BaseURL,
	})
	if err != nil {
		return nil, err
	}

	profiles, err := assets.LoadProfiles(cfg.PromptProfilesFile)
	if err != nil {
		return nil, err
	}
	profile, err := profiles.Lookup(cfg.PromptProfile)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, store.Options{
		Backend: cfg.Storage,
		DataDir: cfg.DataDir,
		Bucket:  cfg.S3Bucket,
		Prefix:  cfg.S3Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("open transcript store: %w", err)
	}

	return pipeline.New(provider, st, profile, pipeline.Options{
		DescribeModel:     cfg.DescribeModel,
		SummaryModel:      cfg.SummaryModel,
		TranscriptName:    cfg.TranscriptName,
		Mock:              cfg.Mock,
		MaxImageDimension: cfg.MaxImageDimension,
	}), nil
}

// InitPipeline retrieves the API key, builds the pipeline and, when
// configured, validates the key with a minimal call. Exits fatally on failure.
func InitPipeline(ctx context.Context, cfg config.Config) *pipeline.Pipeline {
	apiKey, err := auth.GetAPIKey(cfg.Provider)
	if err != nil {
		if !cfg.Mock {
			log.Fatal().Err(err).Msg("failed to retrieve API key")
		}
		// Mock runs only need a key for summaries; let those fail per call.
		log.Warn().Err(err).Msg("No API key; continuing because mock mode is on")
	}

	p, err := BuildPipeline(ctx, cfg, apiKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize pipeline")
	}

	if cfg.ValidateKey && apiKey != "" && cfg.Provider != chat.ProviderStub {
		if err := auth.ValidateAPIKey(ctx, p.Provider(), cfg.SummaryModel); err != nil {
			HandleValidationError(err)
		}
		log.Info().Msg("API key validation complete - ready for operations")
	}

	return p
}
