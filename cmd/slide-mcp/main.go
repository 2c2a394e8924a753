// Command slide-mcp exposes the slide pipeline as Model Context Protocol
// tools over stdio, so an assistant can process a slide folder and then
// ask for a summary of the saved transcript.
//
// Stdout carries the protocol; logs and metrics go to stderr.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/fpang/slide-digest/internal/cli"
	"github.com/fpang/slide-digest/internal/config"
	"github.com/fpang/slide-digest/internal/logging"
	"github.com/fpang/slide-digest/internal/metrics"
)

var version = "dev"

func main() {
	logging.Init()
	initStart := time.Now()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cfg.EMFMetrics {
		metrics.SetOutput(os.Stderr)
	}

	p := cli.InitPipeline(ctx, cfg)
	server := newServer(&tools{pipeline: p})

	logging.NewStartupLogger("slide-mcp").
		Version(version).
		InitDuration(time.Since(initStart)).
		Provider("name", cfg.Provider).
		Provider("describeModel", cfg.DescribeModel).
		Provider("summaryModel", cfg.SummaryModel).
		Storage("backend", cfg.Storage).
		Config("profile", cfg.PromptProfile).
		Feature("mock", cfg.Mock).
		Log()

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("MCP server stopped")
	}
}
