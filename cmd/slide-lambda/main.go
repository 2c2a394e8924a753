// Package main runs the slide web API on AWS Lambda behind API Gateway
// (HTTP API, payload v2). The handler is the same one slide-web serves.
//
// Uploaded archives and transcripts are kept in S3 so that a process request
// can be served by any execution environment; uploads are extracted under
// /tmp, the only writable path in Lambda. The provider API key is read from
// SSM Parameter Store at cold start when it is not already in the environment.
package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/rs/zerolog/log"

	"github.com/fpang/slide-digest/internal/cli"
	"github.com/fpang/slide-digest/internal/lambdaboot"
	"github.com/fpang/slide-digest/internal/logging"
	"github.com/fpang/slide-digest/internal/metrics"
	"github.com/fpang/slide-digest/internal/store"
	"github.com/fpang/slide-digest/internal/web"
)

const lambdaTmp = "/tmp"

var handler *web.Server

func init() {
	initStart := time.Now()
	if os.Getenv("SLIDE_LOG_FORMAT") == "" {
		os.Setenv("SLIDE_LOG_FORMAT", "json")
	}
	logging.Init()
	metrics.SetOutput(os.Stdout)
	ctx := context.Background()

	cfg, err := lambdaboot.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	cfg.UploadFolder = underTmp(cfg.UploadFolder)

	clients := lambdaboot.InitAWS(ctx)
	if err := lambdaboot.LoadAPIKey(ctx, clients.SSM, cfg.Provider); err != nil {
		log.Fatal().Err(err).Msg("Failed to load API key")
	}

	// Cold starts skip the validation call; a bad key shows up per request.
	cfg.ValidateKey = false
	p := cli.InitPipeline(ctx, cfg)

	handler, err = web.NewServer(p, web.Options{
		UploadRoot:     cfg.UploadFolder,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Uploads:        store.NewS3UploadStore(clients.S3, cfg.S3Bucket, cfg.S3Prefix),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize web server")
	}

	lambdaboot.StartupLog("slide-lambda", cfg, initStart).
		Storage("uploads", "s3://"+cfg.S3Bucket+"/"+cfg.S3Prefix).
		Storage("extract", cfg.UploadFolder).
		Log()
}

// underTmp re-roots a relative path under /tmp.
func underTmp(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(lambdaTmp, path)
}

func main() {
	adapter := httpadapter.NewV2(handler.Handler())
	lambda.Start(adapter.ProxyWithContext)
}
