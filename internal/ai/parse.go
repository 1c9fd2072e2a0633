// Copyright 2026 The Goosereview Authors
// SPDX-License-Identifier: MIT

package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/issue"
)

// findingsResponse is the JSON shape the prompt asks the model for.
type findingsResponse struct {
	Issues  []findingItem `json:"issues"`
	Summary string        `json:"summary"`
}

type findingItem struct {
	Severity string `json:"severity"`
	Type     string `json:"type"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Message  string `json:"message"`
	Effort   string `json:"effort"`
}

// parseFindings decodes a model response into issues tagged Source "ai".
// Responses wrapped in a fenced code block are tolerated; anything that is
// not a JSON object with an issues array is an error. Items with no message
// or an unknown severity are dropped rather than failing the whole batch.
func parseFindings(content string) ([]issue.Issue, string, error) {
	content = stripFences(content)

	var resp findingsResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		return nil, "", fmt.Errorf("ai: response is not valid findings JSON: %w", err)
	}

	var issues []issue.Issue
	for _, item := range resp.Issues {
		severity := issue.Severity(strings.ToUpper(strings.TrimSpace(item.Severity)))
		if severity.Rank() == 0 || item.Message == "" {
			continue
		}

		kind := issue.Type(strings.ToUpper(strings.TrimSpace(item.Type)))
		switch kind {
		case issue.TypeBug, issue.TypeVulnerability, issue.TypeCodeSmell, issue.TypeSecurityHotspot:
		default:
			kind = issue.TypeCodeSmell
		}

		line := item.Line
		if line < 0 {
			line = 0
		}

		issues = append(issues, issue.Issue{
			Source:   issue.SourceAI,
			Severity: severity,
			Type:     kind,
			File:     item.File,
			Line:     line,
			Message:  item.Message,
			Effort:   item.Effort,
		})
	}
	return issues, resp.Summary, nil
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag, since models add one despite instructions.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	content = strings.TrimPrefix(content, "```")
	if idx := strings.Index(content, "\n"); idx >= 0 {
		content = content[idx+1:]
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
