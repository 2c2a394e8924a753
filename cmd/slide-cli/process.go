package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/slide-digest/internal/cli"
	"github.com/fpang/slide-digest/internal/filehandler"
	"github.com/fpang/slide-digest/internal/pipeline"
)

var (
	directoryFlag string
	archiveFlag   string
	pickFlag      bool
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Describe every slide image and save the transcript",
	Long: `Process scans a folder for .jpg, .jpeg and .png files, orders them by the
number after "Slide" in the file name, describes each one and writes the
combined transcript. When any file name lacks a slide number the folder's
own order is kept.

The folder comes from --directory, a zip given with --archive, a native
folder picker (--pick), or an interactive prompt.`,
	Args: cobra.NoArgs,
	Run:  runProcess,
}

func init() {
	processCmd.Flags().StringVarP(&directoryFlag, "directory", "d", "", "Folder containing slide images")
	processCmd.Flags().StringVarP(&archiveFlag, "archive", "a", "", "Zip archive of a slide folder")
	processCmd.Flags().BoolVar(&pickFlag, "pick", false, "Choose the folder with a native dialog")
	processCmd.MarkFlagsMutuallyExclusive("directory", "archive", "pick")
}

func runProcess(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)
	ctx := cmd.Context()

	p := cli.InitPipeline(ctx, cfg)

	dirPath, cleanup, err := resolveSlideFolder(filehandler.ExtractLimit(cfg.MaxUploadBytes()))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare slide folder")
	}

	// cleanup runs before any exit so an extracted archive never outlives the command.
	err = processFolder(ctx, p, dirPath)
	cleanup()
	if err != nil {
		log.Fatal().Err(err).Msg("Processing failed")
	}
}

// processFolder runs the pipeline over dirPath and prints the outcome.
// Only unexpected failures are returned; an empty folder or an empty
// transcript is reported and treated as done.
func processFolder(ctx context.Context, p *pipeline.Pipeline, dirPath string) error {
	fmt.Printf("Processing slides in %s\n", dirPath)
	start := time.Now()
	run, err := p.ProcessImages(ctx, dirPath)
	switch {
	case errors.Is(err, filehandler.ErrNoImages):
		log.Warn().Str("path", dirPath).Msg("No image files found.")
		return nil
	case errors.Is(err, pipeline.ErrEmptyTranscript):
		cli.PrintRun(os.Stdout, run, time.Since(start))
		log.Error().Msg("No content generated from images. Please check your API or input files.")
		return nil
	case err != nil:
		return err
	}

	cli.PrintRun(os.Stdout, run, time.Since(start))
	return nil
}

// resolveSlideFolder returns the folder to process and a cleanup func for
// any temporary extraction directory. maxBytes caps archive extraction.
func resolveSlideFolder(maxBytes int64) (string, func(), error) {
	noop := func() {}

	switch {
	case archiveFlag != "":
		return extractSlideArchive(archiveFlag, maxBytes)

	case pickFlag:
		dir, err := zenity.SelectFile(zenity.Title("Select slide folder"), zenity.Directory())
		if errors.Is(err, zenity.ErrCanceled) {
			log.Info().Msg("Folder selection canceled")
			os.Exit(0)
		}
		if err != nil {
			return "", noop, fmt.Errorf("folder picker: %w", err)
		}
		return cli.ValidateAndResolveDirectory(dir), noop, nil

	case directoryFlag != "":
		return cli.ValidateAndResolveDirectory(directoryFlag), noop, nil

	default:
		return cli.ValidateAndResolveDirectory(cli.PromptForDirectory()), noop, nil
	}
}

// extractSlideArchive unpacks archivePath into a new temporary directory.
// On error nothing is left behind; on success the caller must run cleanup.
func extractSlideArchive(archivePath string, maxBytes int64) (string, func(), error) {
	tmp, err := os.MkdirTemp("", "slide-cli-*")
	if err != nil {
		return "", func() {}, fmt.Errorf("create extraction directory: %w", err)
	}
	if err := filehandler.ExtractArchive(archivePath, tmp, maxBytes); err != nil {
		os.RemoveAll(tmp)
		return "", func() {}, fmt.Errorf("extract %s: %w", archivePath, err)
	}
	dir := filehandler.ResolveImageDir(tmp, filepath.Base(archivePath))
	return dir, func() { os.RemoveAll(tmp) }, nil
}
