package assets

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Built-in profile names.
const (
	ProfileMarketTrends = "market-trends"
	ProfileGeneral      = "general"
)

// Profile bundles the three prompt texts that make one variant of the tool.
type Profile struct {
	Name string

	// DescribeInstruction is sent with every slide image.
	DescribeInstruction string

	// SummarySystem is the system instruction of the summary call. May be empty.
	SummarySystem string

	summaryTemplate *template.Template
}

// RenderSummaryPrompt fills the profile's summary template.
func (p *Profile) RenderSummaryPrompt(data SummaryPromptData) (string, error) {
	return renderTemplate(p.summaryTemplate, data)
}

// NewProfile validates the texts and compiles the summary template.
func NewProfile(name, describe, system, summaryTemplate string) (*Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("profile name is required")
	}
	if strings.TrimSpace(describe) == "" {
		return nil, fmt.Errorf("profile %q: describe_instruction is required", name)
	}
	if strings.TrimSpace(summaryTemplate) == "" {
		return nil, fmt.Errorf("profile %q: summary_template is required", name)
	}
	tmpl, err := parseSummaryTemplate(name, summaryTemplate)
	if err != nil {
		return nil, err
	}
	return &Profile{
		Name:                name,
		DescribeInstruction: strings.TrimSpace(describe),
		SummarySystem:       strings.TrimSpace(system),
		summaryTemplate:     tmpl,
	}, nil
}

// Catalog maps profile names to profiles.
type Catalog map[string]*Profile

// BuiltinProfiles returns a fresh catalog with the embedded profiles.
func BuiltinProfiles() Catalog {
	return Catalog{
		ProfileMarketTrends: mustProfile(ProfileMarketTrends, marketTrendsDescribe, SummarySystemPrompt, marketTrendsSummary),
		ProfileGeneral:      mustProfile(ProfileGeneral, generalDescribe, SummarySystemPrompt, generalSummary),
	}
}

// mustProfile panics on malformed embedded prompts, catching them at startup.
func mustProfile(name, describe, system, summary string) *Profile {
	p, err := NewProfile(name, describe, system, summary)
	if err != nil {
		panic(err)
	}
	return p
}

// Lookup returns the named profile.
func (c Catalog) Lookup(name string) (*Profile, error) {
	p, ok := c[name]
	if !ok {
		return nil, fmt.Errorf("unknown prompt profile %q (available: %s)", name, strings.Join(c.Names(), ", "))
	}
	return p, nil
}

// Names returns the profile names in sorted order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// profileFile is the YAML layout of SLIDE_PROMPT_PROFILES_FILE:
//
//	profiles:
//	  - name: quarterly-review
//	    describe_instruction: |
//	      Describe this slide ...
//	    summary_system: You are a helpful assistant.
//	    summary_template: |
//	      Summarize {{.Transcript}} for {{.Audience}} ...
type profileFile struct {
	Profiles []struct {
		Name                string  `yaml:"name"`
		DescribeInstruction string  `yaml:"describe_instruction"`
		SummarySystem       *string `yaml:"summary_system"`
		SummaryTemplate     string  `yaml:"summary_template"`
	} `yaml:"profiles"`
}

// LoadProfiles returns the built-in profiles plus those defined in the YAML
// file at path. A file profile with a built-in name replaces it. An empty
// path yields the built-ins only.
func LoadProfiles(path string) (Catalog, error) {
	catalog := BuiltinProfiles()
	if path == "" {
		return catalog, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt profiles: %w", err)
	}

	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse prompt profiles %s: %w", path, err)
	}

	for _, entry := range file.Profiles {
		system := SummarySystemPrompt
		if entry.SummarySystem != nil {
			system = *entry.SummarySystem
		}
		p, err := NewProfile(entry.Name, entry.DescribeInstruction, system, entry.SummaryTemplate)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		catalog[p.Name] = p
	}
	return catalog, nil
}
