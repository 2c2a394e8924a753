package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fpang/slide-digest/internal/filehandler"
	"github.com/fpang/slide-digest/internal/pipeline"
)

type processInput struct {
	Directory string `json:"directory" jsonschema:"absolute path of the folder holding the slide images"`
}

type slideOutput struct {
	Position    int    `json:"position"`
	File        string `json:"file"`
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

type processOutput struct {
	Artifact   string        `json:"artifact"`
	SlideOrder bool          `json:"slideOrder" jsonschema:"false when slide numbers could not be read and folder order was kept"`
	Failures   int           `json:"failures"`
	Slides     []slideOutput `json:"slides"`
	Transcript string        `json:"transcript"`
}

type summaryInput struct {
	Tone     string `json:"tone,omitempty" jsonschema:"tone of the summary, e.g. formal"`
	Audience string `json:"audience,omitempty" jsonschema:"target audience, e.g. Pharmacist"`
	Example  string `json:"example,omitempty" jsonschema:"example output the summary should resemble"`
}

type summaryOutput struct {
	Summary string `json:"summary"`
	OK      bool   `json:"ok"`
}

type tools struct {
	pipeline *pipeline.Pipeline
}

func newServer(t *tools) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "slide-digest", Version: version}, nil)
	mcp.AddTool(server, &mcp.Tool{
		Name: "process_slides",
		Description: "Describe every .jpg, .jpeg and .png slide in a folder, in slide-number order, " +
			"and save the combined transcript. Returns the transcript and per-slide results.",
	}, t.processSlides)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "summarize_transcript",
		Description: "Summarize the transcript saved by process_slides for the given tone and audience.",
	}, t.summarizeTranscript)
	return server
}

func (t *tools) processSlides(ctx context.Context, _ *mcp.CallToolRequest, in processInput) (*mcp.CallToolResult, processOutput, error) {
	if in.Directory == "" {
		return nil, processOutput{}, errors.New("directory is required")
	}
	dir := filepath.Clean(in.Directory)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, processOutput{}, fmt.Errorf("%s is not a readable directory", dir)
	}

	run, err := t.pipeline.ProcessImages(ctx, dir)
	switch {
	case errors.Is(err, filehandler.ErrNoImages):
		return nil, processOutput{}, fmt.Errorf("no image files found in %s", dir)
	case errors.Is(err, pipeline.ErrEmptyTranscript):
		return nil, processOutput{}, errors.New("no content generated from images; check the provider settings or input files")
	case err != nil:
		return nil, processOutput{}, err
	}

	out := processOutput{
		Artifact:   run.Artifact,
		SlideOrder: run.SlideOrder,
		Failures:   run.Failures(),
		Transcript: run.Transcript,
		Slides:     make([]slideOutput, 0, len(run.Slides)),
	}
	for _, s := range run.Slides {
		out.Slides = append(out.Slides, slideOutput{
			Position:    s.Position,
			File:        s.File,
			OK:          s.Result.OK(),
			Description: s.Result.String(),
		})
	}
	return nil, out, nil
}

func (t *tools) summarizeTranscript(ctx context.Context, _ *mcp.CallToolRequest, in summaryInput) (*mcp.CallToolResult, summaryOutput, error) {
	result, err := t.pipeline.Summarize(ctx, pipeline.SummaryRequest{
		Tone:     in.Tone,
		Audience: in.Audience,
		Example:  in.Example,
	})
	name := t.pipeline.TranscriptName()
	switch {
	case errors.Is(err, pipeline.ErrTranscriptMissing):
		return nil, summaryOutput{}, fmt.Errorf("please process images first to generate %s", name)
	case pipeline.IsInputAbsent(err):
		return nil, summaryOutput{}, fmt.Errorf("failed to read content from %s", name)
	case err != nil:
		return nil, summaryOutput{}, err
	}
	if !result.OK() {
		return nil, summaryOutput{}, errors.New(result.String())
	}
	return nil, summaryOutput{Summary: result.String(), OK: true}, nil
}
