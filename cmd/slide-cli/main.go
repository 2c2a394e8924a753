package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/slide-digest/internal/config"
	"github.com/fpang/slide-digest/internal/logging"
	"github.com/fpang/slide-digest/internal/metrics"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// Persistent flags shared by every subcommand.
var (
	providerFlag      string
	profileFlag       string
	describeModelFlag string
	summaryModelFlag  string
	transcriptFlag    string
	dataDirFlag       string
	mockFlag          bool
)

var rootCmd = &cobra.Command{
	Use:   "slide-cli",
	Short: "Describe a folder of slide images and summarize the result",
	Long: `Slide CLI turns a folder of exported slides (Slide1.png, Slide2.png, ...)
into a text transcript with one AI description per slide, then writes a
summary of that transcript for a chosen audience and tone.

Settings come from SLIDE_* environment variables or a .env file; flags
override them.

Examples:
  slide-cli process -d ./ABCPharma
  slide-cli process --archive ABCPharma.zip --provider gemini
  slide-cli process --pick --mock
  slide-cli summarize --tone formal --audience "Pharmacists"`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init()
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&providerFlag, "provider", "", "Model provider: openai, gemini or stub")
	f.StringVar(&profileFlag, "profile", "", "Prompt profile (e.g. market-trends, general)")
	f.StringVar(&describeModelFlag, "describe-model", "", "Model used to describe each slide")
	f.StringVar(&summaryModelFlag, "summary-model", "", "Model used for the summary")
	f.StringVar(&transcriptFlag, "transcript", "", "Transcript file name (default output.txt)")
	f.StringVar(&dataDirFlag, "data-dir", "", "Directory the transcript is written to")
	f.BoolVar(&mockFlag, "mock", false, "Skip the provider and write placeholder descriptions")

	rootCmd.AddCommand(processCmd, summarizeCmd)
}

func main() {
	// Ctrl-C stops between slides; the partial run is not saved.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the environment, applies flag overrides and validates.
func loadConfig(cmd *cobra.Command) config.Config {
	cfg, err := config.Parse()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	flags := cmd.Flags()
	if flags.Changed("provider") {
		if cfg.Provider != providerFlag {
			// Models default per provider; drop defaults tied to the old one.
			cfg.DescribeModel, cfg.SummaryModel = "", ""
		}
		cfg.Provider = providerFlag
	}
	if flags.Changed("profile") {
		cfg.PromptProfile = profileFlag
	}
	if flags.Changed("describe-model") {
		cfg.DescribeModel = describeModelFlag
	}
	if flags.Changed("summary-model") {
		cfg.SummaryModel = summaryModelFlag
	}
	if flags.Changed("transcript") {
		cfg.TranscriptName = transcriptFlag
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = dataDirFlag
	}
	if flags.Changed("mock") {
		cfg.Mock = mockFlag
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cfg.EMFMetrics {
		metrics.SetOutput(os.Stdout)
	}

	logging.NewStartupLogger("slide-cli").
		Version(version).
		Provider("name", cfg.Provider).
		Provider("describeModel", cfg.DescribeModel).
		Provider("summaryModel", cfg.SummaryModel).
		Storage("backend", cfg.Storage).
		Storage("dataDir", cfg.DataDir).
		Config("profile", cfg.PromptProfile).
		Feature("mock", cfg.Mock).
		Log()
	return cfg
}
