package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/config"
	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/gitchange"
	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/testable"
)

// Init-specific flag values.
var initForce bool

// initCmd is the subcommand for bootstrapping goosereview in a repository.
var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Bootstrap goosereview in a repository",
	Long: `Initialize goosereview for a repository by detecting its characteristics
and generating a starter configuration. Seeds .goosereview.yaml from any
existing sonar-project.properties and the GitHub remote.

This command is non-destructive by default: it skips a config that already
exists. Use --force to regenerate .goosereview.yaml.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing .goosereview.yaml")
}

func runInit(cmd *cobra.Command, args []string) error {
	repoPath := "."
	if len(args) > 0 {
		repoPath = args[0]
	}

	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		return fmt.Errorf("goosereview: cannot resolve path %q (%v)", repoPath, err)
	}

	absPath, err = filepath.EvalSymlinks(absPath)
	if err != nil {
		return fmt.Errorf("goosereview: cannot resolve path %q (%v)", repoPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("goosereview: path %q does not exist", repoPath)
	}
	if !info.IsDir() {
		return fmt.Errorf("goosereview: %q is not a directory", repoPath)
	}

	slog.Info("initializing goosereview", "path", absPath)

	target := filepath.Join(absPath, config.FileName)
	operation := "created"
	if _, err := os.Stat(target); err == nil {
		if !initForce {
			operation = "skipped"
		} else {
			operation = "updated"
		}
	}

	var description string
	if operation == "skipped" {
		description = "already exists, use --force to regenerate"
	} else {
		cfg, detected := starterConfig(absPath)
		f, err := os.Create(target) //nolint:gosec // target lives inside the chosen repo
		if err != nil {
			return fmt.Errorf("goosereview: init failed (%v)", err)
		}
		if err := config.Write(f, cfg); err != nil {
			_ = f.Close()
			return fmt.Errorf("goosereview: init failed (%v)", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("goosereview: init failed (%v)", err)
		}
		description = "starter config"
		if detected != "" {
			description = "starter config, " + detected
		}
	}

	// Print summary to cobra's stdout so tests can capture it.
	w := cmd.OutOrStdout()
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	dim := color.New(color.Faint)

	_, _ = fmt.Fprintln(w)
	_, _ = bold.Fprintln(w, "goosereview init complete")
	_, _ = fmt.Fprintln(w)

	var prefix string
	switch operation {
	case "created":
		prefix = green.Sprint("  + ")
	case "updated":
		prefix = yellow.Sprint("  ~ ")
	default:
		prefix = dim.Sprint("  - ")
	}
	_, _ = fmt.Fprintf(w, "%s%-20s %s\n", prefix, config.FileName, dim.Sprintf("(%s)", description))

	if operation != "skipped" {
		_, _ = fmt.Fprintln(w)
		_, _ = bold.Fprintln(w, "Next steps:")
		_, _ = fmt.Fprintln(w, "  1. Review .goosereview.yaml and adjust server.url and project.key")
		_, _ = fmt.Fprintln(w, "  2. Export ANTHROPIC_API_KEY to enable AI review")
		_, _ = fmt.Fprintln(w, "  3. Run: goosereview review .")
	}

	_, _ = fmt.Fprintln(w)
	return nil
}

// starterConfig builds the initial config from what the repository already
// declares: sonar-project.properties and the GitHub origin remote. The
// returned string describes what was detected, for the init summary.
func starterConfig(absPath string) (*config.Config, string) {
	cfg := &config.Config{
		Output:  config.OutputConfig{Format: "text"},
		Project: config.ProjectConfig{Exclude: []string{"vendor/**", "node_modules/**"}},
	}

	detected := ""
	if props, err := config.LoadSonarProps(absPath); err == nil && props != nil {
		config.ApplySonarProps(cfg, props)
		if props.ProjectKey != "" || props.HostURL != "" {
			detected = "from " + config.SonarPropsFile
		}
	}
	if cfg.Server.URL == "" {
		cfg.Server.URL = "http://localhost:9000"
	}

	if cfg.Project.Key == "" {
		if remote := gitchange.DetectGitHubRemote(testable.DefaultGitOpener, absPath); remote != nil {
			cfg.Project.Key = remote.Owner + "-" + remote.Repo
			if detected == "" {
				detected = "project key from GitHub remote"
			}
		}
	}

	return cfg, detected
}
