package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/slide-digest/internal/cli"
	"github.com/fpang/slide-digest/internal/pipeline"
)

var (
	toneFlag        string
	audienceFlag    string
	exampleFlag     string
	exampleFileFlag string
	noPromptFlag    bool
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize the saved transcript",
	Long: `Summarize reads the transcript written by "process" and asks the model for
a summary in the requested tone, for the requested audience, optionally
following an example output. Fields not given as flags are asked for
interactively unless --no-prompt is set; every field may be left empty.`,
	Args: cobra.NoArgs,
	Run:  runSummarize,
}

func init() {
	f := summarizeCmd.Flags()
	f.StringVar(&toneFlag, "tone", "", "Tone of the summary (e.g. formal, casual)")
	f.StringVar(&audienceFlag, "audience", "", "Target audience (e.g. Pharmacist)")
	f.StringVar(&exampleFlag, "example", "", "Example output the summary should resemble")
	f.StringVar(&exampleFileFlag, "example-file", "", "Read the example output from a file")
	f.BoolVar(&noPromptFlag, "no-prompt", false, "Do not ask for fields missing from the flags")
	summarizeCmd.MarkFlagsMutuallyExclusive("example", "example-file")
}

func runSummarize(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)
	ctx := cmd.Context()

	req, err := summaryRequest(cmd)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid summary options")
	}

	p := cli.InitPipeline(ctx, cfg)
	result, err := p.Summarize(ctx, req)
	switch {
	case errors.Is(err, pipeline.ErrTranscriptMissing):
		log.Warn().Msgf("Please process images first to generate %s!", cfg.TranscriptName)
		return
	case pipeline.IsInputAbsent(err):
		log.Warn().Err(err).Msgf("Failed to read content from %s!", cfg.TranscriptName)
		return
	case err != nil:
		log.Fatal().Err(err).Msg("Summary failed")
	}

	fmt.Println()
	fmt.Println("Generated Summary:")
	fmt.Println(strings.Repeat("-", 60))
	fmt.Println(result.String())
	if !result.OK() {
		os.Exit(1)
	}
}

// summaryRequest builds the request from flags, prompting for the rest.
func summaryRequest(cmd *cobra.Command) (pipeline.SummaryRequest, error) {
	flags := cmd.Flags()
	req := pipeline.SummaryRequest{Tone: toneFlag, Audience: audienceFlag, Example: exampleFlag}

	if exampleFileFlag != "" {
		data, err := os.ReadFile(exampleFileFlag)
		if err != nil {
			return req, fmt.Errorf("read example file: %w", err)
		}
		req.Example = string(data)
	}
	if noPromptFlag {
		return req, nil
	}

	if !flags.Changed("tone") {
		req.Tone = cli.PromptForText("Tone of the summary", "formal, casual")
	}
	if !flags.Changed("audience") {
		req.Audience = cli.PromptForText("Target audience", "Pharmacist")
	}
	if !flags.Changed("example") && !flags.Changed("example-file") {
		req.Example = cli.PromptForText("Example output", "")
	}
	return req, nil
}
