package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/merge"
	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/output"
)

// Issues-specific flag values.
var (
	issuesFormat     string
	issuesOutput     string
	issuesProjectKey string
)

// issuesCmd fetches the current server-side analysis without reviewing
// local changes.
var issuesCmd = &cobra.Command{
	Use:   "issues [path]",
	Short: "Fetch unresolved issues from the SonarQube server",
	Long: `Fetch unresolved issues, metrics, and the quality gate verdict for the
configured project from the SonarQube server, without collecting or
analyzing local changes. Requires server.url and project.key in the
config (or --project-key).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIssues,
}

func init() {
	issuesCmd.Flags().StringVarP(&issuesFormat, "format", "f", "text", "output format (text, json, markdown, sarif)")
	issuesCmd.Flags().StringVarP(&issuesOutput, "output", "o", "", "output file path (default: stdout)")
	issuesCmd.Flags().StringVarP(&issuesProjectKey, "project-key", "k", "", "SonarQube project key (default: project.key from config)")
}

func runIssues(cmd *cobra.Command, args []string) error {
	repoPath := "."
	if len(args) > 0 {
		repoPath = args[0]
	}
	absPath, _, err := resolveRepoPath(repoPath)
	if err != nil {
		return err
	}

	formatter, err := output.GetFormatter(issuesFormat)
	if err != nil {
		return exitError(ExitInvalidArgs, "goosereview: %v", err)
	}

	cfg, err := loadReviewConfig(absPath)
	if err != nil {
		return err
	}
	server, err := newServerClient(cfg)
	if err != nil {
		return exitError(ExitInvalidArgs, "goosereview: %v", err)
	}
	if server == nil {
		return exitError(ExitInvalidArgs, "goosereview: no SonarQube server configured (set server.url)")
	}

	projectKey := issuesProjectKey
	if projectKey == "" {
		projectKey = cfg.Project.Key
	}
	if projectKey == "" {
		return exitError(ExitInvalidArgs, "goosereview: no project key (set project.key or pass --project-key)")
	}

	ctx := cmd.Context()
	if probe := server.Probe(ctx); !probe.Success {
		return exitError(ExitAnalysisFailure, "goosereview: sonarqube server unavailable (%s)", probe.Err)
	}

	analysis, err := server.FetchAnalysisResult(ctx, projectKey)
	if err != nil {
		return exitError(ExitAnalysisFailure, "goosereview: fetching server analysis failed (%v)", err)
	}

	w := cmd.OutOrStdout()
	if issuesOutput != "" {
		f, err := cmdFS.Create(issuesOutput)
		if err != nil {
			return exitError(ExitInvalidArgs, "goosereview: cannot create output file %q (%v)", issuesOutput, err)
		}
		defer f.Close() //nolint:errcheck // best-effort close on output file
		w = f
	}

	// The text report gets a server-state header; structured formats stay
	// machine-parseable.
	if issuesFormat == "text" {
		bold := color.New(color.Bold)
		_, _ = bold.Fprintf(w, "Project %s\n", projectKey)
		_, _ = fmt.Fprintf(w, "Quality gate: %s\n", paintGate(analysis.QualityGate.Status))
		_, _ = fmt.Fprintf(w, "Bugs: %d  Vulnerabilities: %d  Code smells: %d  Coverage: %.1f%%\n\n",
			analysis.Metrics.Bugs, analysis.Metrics.Vulnerabilities,
			analysis.Metrics.CodeSmells, analysis.Metrics.Coverage)
	}

	result := merge.Merge(analysis.Issues, nil, merge.Options{})
	if err := formatter.Format(result, w); err != nil {
		return exitError(ExitAnalysisFailure, "goosereview: formatting failed (%v)", err)
	}
	return nil
}

// paintGate colorizes a quality gate verdict.
func paintGate(status string) string {
	switch status {
	case "OK":
		return color.GreenString(status)
	case "ERROR":
		return color.RedString(status)
	default:
		return color.YellowString(status)
	}
}
