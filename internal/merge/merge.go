// Copyright 2026 The Goosereview Authors
// SPDX-License-Identifier: MIT

// Package merge combines the findings of the server analyzer and the AI
// reviewer into one ranked, deduplicated result with an impact analysis.
package merge

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/issue"
)

// Defaults for the duplicate-matching tunables. Two findings within three
// lines of each other whose messages score at least 0.75 similarity are
// treated as the same finding.
const (
	DefaultLineWindow          = 3
	DefaultSimilarityThreshold = 0.75
)

// Options tunes duplicate matching. Zero values take the documented defaults.
type Options struct {
	// LineWindow is the maximum line-number distance for two issues in the
	// same file to be considered the same finding.
	LineWindow int

	// SimilarityThreshold is the minimum MessageSimilarity score for a match.
	SimilarityThreshold float64
}

func (o Options) withDefaults() Options {
	if o.LineWindow <= 0 {
		o.LineWindow = DefaultLineWindow
	}
	if o.SimilarityThreshold <= 0 {
		o.SimilarityThreshold = DefaultSimilarityThreshold
	}
	return o
}

// FileAnalysis groups the merged issues of one file.
type FileAnalysis struct {
	File   string        `json:"file"`
	Issues []issue.Issue `json:"issues"`
}

// ImpactAnalysis is the aggregate risk view over a merged result.
type ImpactAnalysis struct {
	RiskLevel              string   `json:"risk_level"` // low, medium, high, critical
	AffectedModules        []string `json:"affected_modules"`
	BreakingChanges        []string `json:"breaking_changes"`
	TestingRecommendations []string `json:"testing_recommendations"`
	DeploymentRisks        []string `json:"deployment_risks"`
	QualityScore           int      `json:"quality_score"` // 0-100
}

// Result is the merged, deduplicated output of both analyzers.
type Result struct {
	RunID          string         `json:"run_id"`
	TotalIssues    int            `json:"total_issues"`  // inputs combined, before dedup
	UniqueIssues   int            `json:"unique_issues"` // after dedup
	DuplicateCount int            `json:"duplicate_count"`
	Issues         []issue.Issue  `json:"issues"` // ranked most severe first
	FileAnalyses   []FileAnalysis `json:"file_analyses"`
	Impact         ImpactAnalysis `json:"impact_analysis"`
}

// Merge deduplicates server findings against AI findings for the same change
// set. A matched pair is emitted once with Source merged and the more severe
// of the two severities; unmatched issues keep their original source tag.
// The output issue list is ranked most severe first.
func Merge(serverIssues, aiIssues []issue.Issue, opts Options) *Result {
	opts = opts.withDefaults()

	merged := make([]issue.Issue, 0, len(serverIssues)+len(aiIssues))
	aiMatched := make([]bool, len(aiIssues))
	duplicates := 0

	for _, si := range serverIssues {
		matched := false
		for j := range aiIssues {
			if aiMatched[j] {
				continue
			}
			if sameFinding(si, aiIssues[j], opts) {
				aiMatched[j] = true
				merged = append(merged, mergePair(si, aiIssues[j]))
				duplicates++
				matched = true
				break
			}
		}
		if !matched {
			merged = append(merged, si)
		}
	}
	for j, ai := range aiIssues {
		if !aiMatched[j] {
			merged = append(merged, ai)
		}
	}

	issue.SortBySeverity(merged)

	result := &Result{
		RunID:          uuid.NewString(),
		TotalIssues:    len(serverIssues) + len(aiIssues),
		UniqueIssues:   len(merged),
		DuplicateCount: duplicates,
		Issues:         merged,
		FileAnalyses:   groupByFile(merged),
		Impact:         analyzeImpact(merged),
	}

	slog.Debug("merge: combined analyzer findings",
		"server", len(serverIssues),
		"ai", len(aiIssues),
		"unique", result.UniqueIssues,
		"duplicates", duplicates)
	return result
}

// sameFinding reports whether two issues from different analyzers describe
// the same problem: same file, line numbers within the window, and
// sufficiently similar messages.
func sameFinding(a, b issue.Issue, opts Options) bool {
	if a.File != b.File {
		return false
	}
	delta := a.Line - b.Line
	if delta < 0 {
		delta = -delta
	}
	if delta > opts.LineWindow {
		return false
	}
	return MessageSimilarity(a.Message, b.Message) >= opts.SimilarityThreshold
}

// mergePair combines a matched server/AI pair into one merged issue. The
// server's message, rule, and effort win when present since they are tied to
// a stable rule catalog; severity takes the more severe of the two.
func mergePair(server, ai issue.Issue) issue.Issue {
	out := server
	out.Source = issue.SourceMerged
	out.Severity = issue.MoreSevere(server.Severity, ai.Severity)
	if out.Message == "" {
		out.Message = ai.Message
	}
	if out.Rule == "" {
		out.Rule = ai.Rule
	}
	if out.Effort == "" {
		out.Effort = ai.Effort
	}
	return out
}

// groupByFile buckets ranked issues per file, files ordered by their most
// severe issue (input order of the ranked list).
func groupByFile(ranked []issue.Issue) []FileAnalysis {
	index := make(map[string]int)
	var analyses []FileAnalysis
	for _, is := range ranked {
		i, ok := index[is.File]
		if !ok {
			i = len(analyses)
			index[is.File] = i
			analyses = append(analyses, FileAnalysis{File: is.File})
		}
		analyses[i].Issues = append(analyses[i].Issues, is)
	}
	return analyses
}

// severityPenalty weights issues for the quality score.
var severityPenalty = map[issue.Severity]int{
	issue.SeverityBlocker:  20,
	issue.SeverityCritical: 10,
	issue.SeverityMajor:    5,
	issue.SeverityMinor:    2,
	issue.SeverityInfo:     1,
}

// analyzeImpact derives the aggregate risk view from the merged issue list.
func analyzeImpact(issues []issue.Issue) ImpactAnalysis {
	impact := ImpactAnalysis{
		RiskLevel:    "low",
		QualityScore: 100,
	}
	if len(issues) == 0 {
		return impact
	}

	counts := issue.CountBySeverity(issues)
	switch {
	case counts[issue.SeverityBlocker] > 0:
		impact.RiskLevel = "critical"
	case counts[issue.SeverityCritical] > 0:
		impact.RiskLevel = "high"
	case counts[issue.SeverityMajor] > 0:
		impact.RiskLevel = "medium"
	}

	score := 100
	for _, is := range issues {
		score -= severityPenalty[is.Severity]
	}
	if score < 0 {
		score = 0
	}
	impact.QualityScore = score

	modules := make(map[string]bool)
	for _, is := range issues {
		modules[moduleOf(is.File)] = true
	}
	for module := range modules {
		impact.AffectedModules = append(impact.AffectedModules, module)
	}
	sort.Strings(impact.AffectedModules)

	for _, is := range issues {
		if is.Type == issue.TypeBug && is.Severity.Rank() >= issue.SeverityCritical.Rank() {
			impact.BreakingChanges = append(impact.BreakingChanges,
				fmt.Sprintf("%s: %s", location(is), is.Message))
		}
		if is.Type == issue.TypeVulnerability || is.Type == issue.TypeSecurityHotspot {
			impact.DeploymentRisks = append(impact.DeploymentRisks,
				fmt.Sprintf("security finding in %s: %s", location(is), is.Message))
		}
	}

	for _, module := range impact.AffectedModules {
		impact.TestingRecommendations = append(impact.TestingRecommendations,
			fmt.Sprintf("re-run tests covering %s", module))
	}

	return impact
}

// moduleOf maps a file path to its top-level directory, or the file name
// itself for root-level files.
func moduleOf(file string) string {
	file = strings.ReplaceAll(file, "\\", "/")
	if dir, _, ok := strings.Cut(file, "/"); ok {
		return dir
	}
	return file
}

// location renders file:line, or just the file for file-level issues.
func location(is issue.Issue) string {
	if is.Line > 0 {
		return fmt.Sprintf("%s:%d", is.File, is.Line)
	}
	return is.File
}
