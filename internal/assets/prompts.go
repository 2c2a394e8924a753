// Package assets provides the embedded prompt texts and the prompt profiles
// built from them.
//
// Prompt texts are stored under prompts/ and embedded at compile time.
package assets

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

// SummarySystemPrompt is the system instruction sent with every summary call
// of the built-in profiles.
//
//go:embed prompts/system.txt
var SummarySystemPrompt string

// Market-trends profile: per-slide chart analysis with a brand focus and a
// one-line takeaway.
var (
	//go:embed prompts/market-trends-describe.txt
	marketTrendsDescribe string

	//go:embed prompts/market-trends-summary.txt
	marketTrendsSummary string
)

// General profile: neutral slide description and summary.
var (
	//go:embed prompts/general-describe.txt
	generalDescribe string

	//go:embed prompts/general-summary.txt
	generalSummary string
)

// SummaryPromptData holds the dynamic data injected into summary templates.
// Audience, Tone and Example are free text and may be empty.
type SummaryPromptData struct {
	Transcript     string
	TranscriptName string
	Audience       string
	Tone           string
	Example        string
}

// parseSummaryTemplate compiles a summary template and rejects references to
// fields SummaryPromptData does not have, e.g. {{.Transcrpt}}.
func parseSummaryTemplate(name, text string) (*template.Template, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse summary template %q: %w", name, err)
	}
	if err := tmpl.Execute(&bytes.Buffer{}, SummaryPromptData{}); err != nil {
		return nil, fmt.Errorf("check summary template %q: %w", name, err)
	}
	return tmpl, nil
}

func renderTemplate(tmpl *template.Template, data SummaryPromptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render summary prompt: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
