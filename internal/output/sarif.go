// Copyright 2026 The Goosereview Authors
// SPDX-License-Identifier: MIT

package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/issue"
	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/merge"
)

func init() {
	RegisterFormatter(NewSARIFFormatter())
}

// SARIFFormatter writes the result as a SARIF v2.1.0 JSON document, suitable
// for code-scanning upload.
type SARIFFormatter struct {
	// Version is the goosereview version to embed in the SARIF tool
	// component. If empty, "dev" is used.
	Version string
}

// Compile-time interface check.
var _ Formatter = (*SARIFFormatter)(nil)

// NewSARIFFormatter returns a new SARIFFormatter with default settings.
func NewSARIFFormatter() *SARIFFormatter {
	return &SARIFFormatter{}
}

// Name returns the format name.
func (f *SARIFFormatter) Name() string { return "sarif" }

// Format writes the result as a SARIF v2.1.0 document to w.
func (f *SARIFFormatter) Format(result *merge.Result, w io.Writer) error {
	doc := f.buildDocument(result)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sarif: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write sarif: %w", err)
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		return fmt.Errorf("write sarif trailing newline: %w", err)
	}
	return nil
}

// buildDocument assembles the SARIF document: one run, one rule per distinct
// rule id, one result per issue.
func (f *SARIFFormatter) buildDocument(result *merge.Result) sarifDocument {
	version := f.Version
	if version == "" {
		version = "dev"
	}

	var rules []sarifRule
	ruleIndex := make(map[string]int)
	results := make([]sarifResult, 0, len(result.Issues))

	for _, is := range result.Issues {
		ruleID := is.Rule
		if ruleID == "" {
			ruleID = fmt.Sprintf("goosereview/%s/%s", is.Source, is.Type)
		}

		idx, ok := ruleIndex[ruleID]
		if !ok {
			idx = len(rules)
			ruleIndex[ruleID] = idx
			rules = append(rules, sarifRule{
				ID:               ruleID,
				ShortDescription: sarifMessage{Text: string(is.Type)},
				DefaultConfig:    &sarifReportingConfig{Level: sarifLevel(is.Severity)},
			})
		}

		res := sarifResult{
			RuleID:    ruleID,
			RuleIndex: idx,
			Level:     sarifLevel(is.Severity),
			Rank:      sarifRank(is.Severity),
			Message:   sarifMessage{Text: is.Message},
		}
		if is.File != "" {
			loc := sarifLocation{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: is.File},
				},
			}
			if is.Line > 0 {
				loc.PhysicalLocation.Region = &sarifRegion{StartLine: is.Line}
			}
			res.Locations = []sarifLocation{loc}
		}
		results = append(results, res)
	}

	if rules == nil {
		rules = []sarifRule{}
	}

	return sarifDocument{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{
				Driver: sarifDriver{
					Name:    "goosereview",
					Version: version,
					Rules:   rules,
				},
			},
			Results: results,
		}},
	}
}

// sarifLevel maps a severity to a SARIF level.
func sarifLevel(sev issue.Severity) string {
	switch sev {
	case issue.SeverityBlocker, issue.SeverityCritical:
		return "error"
	case issue.SeverityMajor, issue.SeverityMinor:
		return "warning"
	default:
		return "note"
	}
}

// sarifRank maps a severity onto SARIF's 0-100 rank scale.
func sarifRank(sev issue.Severity) float64 {
	return float64(sev.Rank()) * 20
}

// SARIF document types.

type sarifDocument struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version,omitempty"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                `json:"id"`
	ShortDescription sarifMessage          `json:"shortDescription"`
	DefaultConfig    *sarifReportingConfig `json:"defaultConfiguration,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifReportingConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	RuleIndex int             `json:"ruleIndex"`
	Level     string          `json:"level"`
	Rank      float64         `json:"rank"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}
