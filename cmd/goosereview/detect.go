package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/detect"
)

// detectCmd resolves and prints the analysis mode for a repository.
var detectCmd = &cobra.Command{
	Use:   "detect [path]",
	Short: "Show which analysis providers are usable",
	Long: `Probe the configured SonarQube server and check for AI credentials, then
print the resolved analysis mode: HYBRID, SONARQUBE_ONLY, or AI_ONLY.

Exits non-zero when neither provider is usable.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDetect,
}

func runDetect(cmd *cobra.Command, args []string) error {
	repoPath := "."
	if len(args) > 0 {
		repoPath = args[0]
	}
	absPath, _, err := resolveRepoPath(repoPath)
	if err != nil {
		return err
	}

	cfg, err := loadReviewConfig(absPath)
	if err != nil {
		return err
	}
	server, err := newServerClient(cfg)
	if err != nil {
		return exitError(ExitInvalidArgs, "goosereview: %v", err)
	}

	result, err := newDetector(server).DetectMode(cmd.Context())
	if err != nil {
		return exitError(ExitInvalidArgs, "goosereview: %v", err)
	}

	w := cmd.OutOrStdout()
	bold := color.New(color.Bold)
	dim := color.New(color.Faint)

	_, _ = bold.Fprintf(w, "Analysis mode: %s\n", paintMode(result.Mode))
	if result.SonarQubeVersion != "" {
		_, _ = fmt.Fprintf(w, "SonarQube version: %s\n", result.SonarQubeVersion)
	}
	for _, msg := range result.Messages {
		_, _ = dim.Fprintf(w, "  - %s\n", msg)
	}
	return nil
}

// paintMode colorizes the resolved mode for terminal output.
func paintMode(mode detect.AnalysisMode) string {
	switch mode {
	case detect.ModeHybrid:
		return color.GreenString(string(mode))
	case detect.ModeSonarQubeOnly, detect.ModeAIOnly:
		return color.YellowString(string(mode))
	default:
		return color.RedString(string(mode))
	}
}

// aiConfigured reports whether an AI provider can be constructed.
func aiConfigured() bool {
	return os.Getenv("ANTHROPIC_API_KEY") != ""
}
