// Package store persists the combined transcript, the only durable state
// of a slide run. A run overwrites the previous transcript; the summary step
// reads it back by name.
//
// Two backends exist: FileStore writes into a local directory and S3Store
// writes objects under a bucket prefix (used by the Lambda deployment,
// where the local disk does not outlive the container).
package store

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrNotFound is returned when a transcript or upload has not been written yet.
var ErrNotFound = errors.New("not found")

// TranscriptStore reads and writes named text artifacts.
//
// Write replaces any existing artifact of the same name. Read returns
// ErrNotFound (possibly wrapped) when the artifact does not exist.
type TranscriptStore interface {
	Write(ctx context.Context, name, content string) error
	Read(ctx context.Context, name string) (string, error)
	// Location describes where name is stored, for logs and UI messages.
	Location(name string) string
}

// Options selects and configures a backend for Open.
type Options struct {
	Backend  string // "file" or "s3"
	DataDir  string
	Bucket   string
	Prefix   string
	S3Client *s3.Client // optional; loaded from the default AWS config when nil
}

// Open builds the configured TranscriptStore.
func Open(ctx context.Context, opts Options) (TranscriptStore, error) {
	switch opts.Backend {
	case "", "file":
		return NewFileStore(opts.DataDir)
	case "s3":
		client := opts.S3Client
		if client == nil {
			cfg, err := awsconfig.LoadDefaultConfig(ctx)
			if err != nil {
				return nil, fmt.Errorf("load AWS config: %w", err)
			}
			client = s3.NewFromConfig(cfg)
		}
		return NewS3Store(client, opts.Bucket, opts.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
