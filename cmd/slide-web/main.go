package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/slide-digest/internal/cli"
	"github.com/fpang/slide-digest/internal/config"
	"github.com/fpang/slide-digest/internal/logging"
	"github.com/fpang/slide-digest/internal/metrics"
	"github.com/fpang/slide-digest/internal/web"
)

var version = "dev"

var (
	portFlag int
	mockFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "slide-web",
	Short: "Web UI for slide transcripts and summaries",
	Long: `Slide Web starts a local web server: upload a zipped slide folder,
process it into a transcript, download the transcript, and generate a
summary for a chosen audience and tone.

Examples:
  slide-web
  slide-web --port 9090
  SLIDE_PROVIDER=gemini slide-web --mock`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().IntVar(&portFlag, "port", 8080, "Port to listen on")
	rootCmd.Flags().BoolVar(&mockFlag, "mock", false, "Skip the provider when describing slides")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	logging.Init()
	initStart := time.Now()

	cfg, err := config.Parse()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cmd.Flags().Changed("mock") {
		cfg.Mock = mockFlag
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cfg.EMFMetrics {
		metrics.SetOutput(os.Stdout)
	}

	ctx := context.Background()
	p := cli.InitPipeline(ctx, cfg)

	server, err := web.NewServer(p, web.Options{
		UploadRoot:     cfg.UploadFolder,
		MaxUploadBytes: cfg.MaxUploadBytes(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize web server")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", portFlag),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Processing a large deck is one long request.
		WriteTimeout: 30 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	logging.NewStartupLogger("slide-web").
		Version(version).
		InitDuration(time.Since(initStart)).
		Provider("name", cfg.Provider).
		Provider("describeModel", cfg.DescribeModel).
		Provider("summaryModel", cfg.SummaryModel).
		Storage("backend", cfg.Storage).
		Storage("dataDir", cfg.DataDir).
		Storage("uploads", cfg.UploadFolder).
		Config("profile", cfg.PromptProfile).
		Config("port", fmt.Sprint(portFlag)).
		Feature("mock", cfg.Mock).
		Log()
	fmt.Printf("\n  Slide Digest UI: http://localhost:%d\n\n", portFlag)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
