package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	goosereviewlog "github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/log"
)

// Global flag values.
var (
	verbose bool
	quiet   bool
	noColor bool
)

// rootCmd is the base command for goosereview.
var rootCmd = &cobra.Command{
	Use:   "goosereview",
	Short: "Hybrid SonarQube + AI code review for source changes",
	Long: `Goosereview reviews source-code changes with whatever analyzers are
reachable: a SonarQube server, an AI reviewer, or both. It collects changed
files from the working tree, a branch comparison, or a GitHub pull request,
runs the available analyzers, and merges their findings into one
deduplicated report.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		goosereviewlog.Setup(verbose, quiet)
		if noColor {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(issuesCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}
