package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/issue"
	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/merge"
)

func init() {
	RegisterFormatter(NewMarkdownFormatter())
}

// MarkdownFormatter writes the result as a Markdown document suitable for
// posting as a pull request comment.
type MarkdownFormatter struct{}

// Compile-time interface check.
var _ Formatter = (*MarkdownFormatter)(nil)

// NewMarkdownFormatter returns a new MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Name returns the format name.
func (m *MarkdownFormatter) Name() string { return "markdown" }

// severityEmoji decorates severities in Markdown output.
var severityEmoji = map[issue.Severity]string{
	issue.SeverityBlocker:  ":no_entry:",
	issue.SeverityCritical: ":red_circle:",
	issue.SeverityMajor:    ":orange_circle:",
	issue.SeverityMinor:    ":yellow_circle:",
	issue.SeverityInfo:     ":information_source:",
}

// Format writes the result as a grouped Markdown report to w.
//
// The output includes a summary header, a severity distribution table,
// per-file issue sections, and the impact analysis.
func (m *MarkdownFormatter) Format(result *merge.Result, w io.Writer) error {
	var b strings.Builder

	b.WriteString("## Code Review\n\n")
	fmt.Fprintf(&b, "**%d issue(s)** across %d file(s) · quality score **%d/100** · risk **%s**\n\n",
		result.UniqueIssues, len(result.FileAnalyses), result.Impact.QualityScore, result.Impact.RiskLevel)

	if result.DuplicateCount > 0 {
		fmt.Fprintf(&b, "_%d finding(s) reported by both analyzers were merged._\n\n", result.DuplicateCount)
	}

	if result.UniqueIssues == 0 {
		b.WriteString("No issues found. :white_check_mark:\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	writeSeverityTable(&b, result.Issues)

	for _, fa := range result.FileAnalyses {
		fmt.Fprintf(&b, "### `%s`\n\n", fa.File)
		for _, is := range fa.Issues {
			loc := ""
			if is.Line > 0 {
				loc = fmt.Sprintf(" (line %d)", is.Line)
			}
			fmt.Fprintf(&b, "- %s **%s**%s: %s", severityEmoji[is.Severity], is.Severity, loc, is.Message)
			if is.Rule != "" {
				fmt.Fprintf(&b, " _[%s]_", is.Rule)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	writeImpactMarkdown(&b, result.Impact)

	_, err := io.WriteString(w, b.String())
	return err
}

// writeSeverityTable renders the severity distribution table, skipping
// severities with no issues.
func writeSeverityTable(b *strings.Builder, issues []issue.Issue) {
	counts := issue.CountBySeverity(issues)
	order := []issue.Severity{
		issue.SeverityBlocker,
		issue.SeverityCritical,
		issue.SeverityMajor,
		issue.SeverityMinor,
		issue.SeverityInfo,
	}

	b.WriteString("| Severity | Count |\n|---|---|\n")
	for _, sev := range order {
		if n, ok := counts[sev]; ok {
			fmt.Fprintf(b, "| %s | %d |\n", sev, n)
		}
	}
	b.WriteString("\n")
}

// writeImpactMarkdown renders the impact analysis section.
func writeImpactMarkdown(b *strings.Builder, impact merge.ImpactAnalysis) {
	if len(impact.BreakingChanges) == 0 && len(impact.DeploymentRisks) == 0 &&
		len(impact.TestingRecommendations) == 0 {
		return
	}

	b.WriteString("### Impact\n\n")
	for _, bc := range impact.BreakingChanges {
		fmt.Fprintf(b, "- :boom: %s\n", bc)
	}
	for _, dr := range impact.DeploymentRisks {
		fmt.Fprintf(b, "- :warning: %s\n", dr)
	}
	for _, tr := range impact.TestingRecommendations {
		fmt.Fprintf(b, "- :test_tube: %s\n", tr)
	}
}
