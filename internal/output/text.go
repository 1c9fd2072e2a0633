package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/issue"
	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/merge"
)

func init() {
	RegisterFormatter(NewTextFormatter())
}

// TextFormatter writes a colored terminal report. Colors obey the package
// global color.NoColor, which the CLI sets from --no-color.
type TextFormatter struct{}

// Compile-time interface check.
var _ Formatter = (*TextFormatter)(nil)

// NewTextFormatter returns a new TextFormatter.
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{}
}

// Name returns the format name.
func (f *TextFormatter) Name() string { return "text" }

// severityPainter maps severities onto terminal colors.
var severityPainter = map[issue.Severity]*color.Color{
	issue.SeverityBlocker:  color.New(color.FgRed, color.Bold),
	issue.SeverityCritical: color.New(color.FgRed),
	issue.SeverityMajor:    color.New(color.FgYellow),
	issue.SeverityMinor:    color.New(color.FgCyan),
	issue.SeverityInfo:     color.New(color.FgWhite),
}

// Format writes the result as a sectioned terminal report to w.
func (f *TextFormatter) Format(result *merge.Result, w io.Writer) error {
	bold := color.New(color.Bold)

	if _, err := bold.Fprintln(w, "Code Review Results"); err != nil {
		return fmt.Errorf("writing text report: %w", err)
	}
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", 19))

	fmt.Fprintf(w, "Issues: %d unique (%d reported, %d duplicates merged)\n",
		result.UniqueIssues, result.TotalIssues, result.DuplicateCount)
	fmt.Fprintf(w, "Quality score: %s   Risk: %s\n\n",
		paintScore(result.Impact.QualityScore), paintRisk(result.Impact.RiskLevel))

	if len(result.Issues) == 0 {
		fmt.Fprintln(w, "No issues found.")
		return nil
	}

	for _, fa := range result.FileAnalyses {
		if _, err := bold.Fprintf(w, "%s (%d)\n", fa.File, len(fa.Issues)); err != nil {
			return fmt.Errorf("writing text report: %w", err)
		}
		for _, is := range fa.Issues {
			painter, ok := severityPainter[is.Severity]
			if !ok {
				painter = color.New()
			}
			loc := ""
			if is.Line > 0 {
				loc = fmt.Sprintf(":%d", is.Line)
			}
			fmt.Fprintf(w, "  %s %s%s %s [%s/%s]\n",
				painter.Sprintf("%-8s", is.Severity), fa.File, loc, is.Message, is.Source, is.Type)
		}
		fmt.Fprintln(w)
	}

	writeImpactText(w, result.Impact)
	return nil
}

// writeImpactText renders the impact section of the terminal report.
func writeImpactText(w io.Writer, impact merge.ImpactAnalysis) {
	if len(impact.AffectedModules) > 0 {
		fmt.Fprintf(w, "Affected modules: %s\n", strings.Join(impact.AffectedModules, ", "))
	}
	for _, bc := range impact.BreakingChanges {
		fmt.Fprintf(w, "Breaking: %s\n", bc)
	}
	for _, dr := range impact.DeploymentRisks {
		fmt.Fprintf(w, "Deployment risk: %s\n", dr)
	}
	for _, tr := range impact.TestingRecommendations {
		fmt.Fprintf(w, "Test: %s\n", tr)
	}
}

// paintScore colors a quality score green/yellow/red by band.
func paintScore(score int) string {
	switch {
	case score >= 80:
		return color.GreenString("%d/100", score)
	case score >= 50:
		return color.YellowString("%d/100", score)
	default:
		return color.RedString("%d/100", score)
	}
}

// paintRisk colors a risk level to match its weight.
func paintRisk(level string) string {
	switch level {
	case "critical", "high":
		return color.RedString(level)
	case "medium":
		return color.YellowString(level)
	default:
		return color.GreenString(level)
	}
}
