// Package config loads runtime settings from the environment, with an
// optional .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/fpang/slide-digest/internal/chat"
)

// Storage backends.
const (
	StorageFile = "file"
	StorageS3   = "s3"
)

// Config is the explicit configuration handed to every component. Nothing
// downstream reads the environment directly.
type Config struct {
	Provider      string `env:"SLIDE_PROVIDER"          envDefault:"openai"`
	DescribeModel string `env:"SLIDE_DESCRIBE_MODEL"`
	SummaryModel  string `env:"SLIDE_SUMMARY_MODEL"`
	BaseURL       string `env:"SLIDE_PROVIDER_BASE_URL"`

	PromptProfile      string `env:"SLIDE_PROMPT_PROFILE"       envDefault:"market-trends"`
	PromptProfilesFile string `env:"SLIDE_PROMPT_PROFILES_FILE"`

	Mock              bool `env:"SLIDE_MOCK"`
	ValidateKey       bool `env:"SLIDE_VALIDATE_KEY"        envDefault:"true"`
	MaxImageDimension int  `env:"SLIDE_MAX_IMAGE_DIMENSION" envDefault:"2048"`

	Storage        string `env:"SLIDE_STORAGE"         envDefault:"file"`
	DataDir        string `env:"SLIDE_DATA_DIR"        envDefault:"."`
	TranscriptName string `env:"SLIDE_TRANSCRIPT_NAME" envDefault:"output.txt"`
	S3Bucket       string `env:"SLIDE_S3_BUCKET"`
	S3Prefix       string `env:"SLIDE_S3_PREFIX"`

	UploadFolder string `env:"UPLOAD_FOLDER"       envDefault:"./uploaded_images"`
	MaxUploadMB  int64  `env:"SLIDE_MAX_UPLOAD_MB" envDefault:"200"`

	EMFMetrics bool `env:"SLIDE_EMF_METRICS"`
}

// Load reads .env (if present) and the process environment, then validates.
func Load() (Config, error) {
	cfg, err := Parse()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse reads .env (if present) and the process environment without
// validating, so callers can apply flag overrides before Validate.
func Parse() (Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate normalizes the config in place and reports the first invalid field.
func (c *Config) Validate() error {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if !chat.IsKnownProvider(c.Provider) {
		return fmt.Errorf("SLIDE_PROVIDER %q is not one of openai, gemini, stub", c.Provider)
	}

	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	switch c.Storage {
	case StorageFile:
	case StorageS3:
		if c.S3Bucket == "" {
			return errors.New("SLIDE_S3_BUCKET is required when SLIDE_STORAGE=s3")
		}
	default:
		return fmt.Errorf("SLIDE_STORAGE %q is not one of file, s3", c.Storage)
	}

	if c.TranscriptName == "" || strings.ContainsAny(c.TranscriptName, `/\`) || c.TranscriptName == ".." {
		return fmt.Errorf("SLIDE_TRANSCRIPT_NAME %q must be a plain file name", c.TranscriptName)
	}
	if c.MaxImageDimension < 0 {
		return fmt.Errorf("SLIDE_MAX_IMAGE_DIMENSION must be >= 0, got %d", c.MaxImageDimension)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("SLIDE_MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}

	if c.DescribeModel == "" {
		c.DescribeModel = chat.DefaultModel(c.Provider)
	}
	if c.SummaryModel == "" {
		c.SummaryModel = chat.DefaultModel(c.Provider)
	}
	return nil
}

// MaxUploadBytes is MaxUploadMB in bytes.
func (c Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}
