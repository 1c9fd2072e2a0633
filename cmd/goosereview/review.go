// Copyright 2026 The Goosereview Authors
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/ai"
	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/config"
	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/detect"
	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/diffparse"
	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/ghpr"
	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/gitchange"
	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/issue"
	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/merge"
	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/output"
	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/redact"
	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/scanner"
	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/sonarqube"
	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/testable"
	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/tokens"
	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/watch"
)

// Review-specific flag values.
var (
	reviewSource      string
	reviewBase        string
	reviewHead        string
	reviewPR          int
	reviewFormat      string
	reviewOutput      string
	reviewInclude     []string
	reviewExclude     []string
	reviewFailOn      string
	reviewWatch       bool
	reviewPostComment bool
)

// reviewCmd is the subcommand for reviewing a change set.
var reviewCmd = &cobra.Command{
	Use:   "review [path]",
	Short: "Review source-code changes with every available analyzer",
	Long: `Review a change set and output merged, deduplicated findings. The change
set comes from the working tree by default; use --base/--head for a branch
comparison or --pr for a GitHub pull request.

Analyzers are picked automatically: a configured SonarQube server, an AI
reviewer when ANTHROPIC_API_KEY is set, or both. Use 'goosereview detect'
to see which analyzers a repository resolves to.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().StringVarP(&reviewSource, "source", "s", "", "change source (working-dir, branch:BASE..HEAD, pr:N)")
	reviewCmd.Flags().StringVar(&reviewBase, "base", "", "base branch for a branch comparison")
	reviewCmd.Flags().StringVar(&reviewHead, "head", "", "head ref for a branch comparison (default: HEAD)")
	reviewCmd.Flags().IntVar(&reviewPR, "pr", 0, "review a GitHub pull request by number")
	reviewCmd.Flags().StringVarP(&reviewFormat, "format", "f", "", "output format (text, json, markdown, sarif)")
	reviewCmd.Flags().StringVarP(&reviewOutput, "output", "o", "", "output file path (default: stdout)")
	reviewCmd.Flags().StringSliceVar(&reviewInclude, "include", nil, "glob patterns; only matching files are reviewed")
	reviewCmd.Flags().StringSliceVar(&reviewExclude, "exclude", nil, "glob patterns to skip (e.g. \"vendor/**,**/*_gen.go\")")
	reviewCmd.Flags().StringVar(&reviewFailOn, "fail-on", "", "exit non-zero on findings at or above this severity (INFO, MINOR, MAJOR, CRITICAL, BLOCKER)")
	reviewCmd.Flags().BoolVar(&reviewWatch, "watch", false, "re-run the review when watched files change")
	reviewCmd.Flags().BoolVar(&reviewPostComment, "post-comment", false, "post or update the summary comment on the reviewed pull request")
}

// newAIProvider builds the AI reviewer. Tests swap this out to avoid real
// API traffic.
var newAIProvider = func(cfg *config.Config) (ai.Provider, error) {
	var opts []ai.AnthropicOption
	if cfg.AI.Model != "" {
		opts = append(opts, ai.WithModel(cfg.AI.Model))
	}
	return ai.NewAnthropicProvider(opts...)
}

// reviewContext holds shared state across the review lifecycle, reducing
// parameter passing between stages.
type reviewContext struct {
	cmd       *cobra.Command
	absPath   string
	gitRoot   string
	cfg       *config.Config
	server    *sonarqube.Client
	source    gitchange.Source
	formatter output.Formatter
	detection detect.DetectionResult
	result    *merge.Result
}

func runReview(cmd *cobra.Command, args []string) error {
	// 1. Resolve the repository path and find the git root.
	repoPath := "."
	if len(args) > 0 {
		repoPath = args[0]
	}
	absPath, gitRoot, err := resolveRepoPath(repoPath)
	if err != nil {
		return err
	}

	// 2. Resolve the change source from flags.
	src, err := resolveReviewSource(gitRoot)
	if err != nil {
		return exitError(ExitInvalidArgs, "goosereview: %v", err)
	}
	if _, ok := src.(gitchange.PullRequest); !ok && reviewPostComment {
		return exitError(ExitInvalidArgs, "goosereview: --post-comment requires a pull request source (--pr)")
	}
	if reviewFailOn != "" && issue.Severity(strings.ToUpper(reviewFailOn)).Rank() == 0 {
		return exitError(ExitInvalidArgs,
			"goosereview: unknown severity %q for --fail-on (want INFO, MINOR, MAJOR, CRITICAL, or BLOCKER)", reviewFailOn)
	}

	// 3. Load and validate layered config, folding in filter flags.
	cfg, err := loadReviewConfig(absPath)
	if err != nil {
		return err
	}
	if cfg.Output.NoColor {
		color.NoColor = true
	}

	// 4. Validate the output format after config merge.
	format := reviewFormat
	if format == "" {
		format = cfg.Output.Format
	}
	if format == "" {
		format = "text"
	}
	formatter, err := output.GetFormatter(format)
	if err != nil {
		return exitError(ExitInvalidArgs, "goosereview: %v", err)
	}

	rc := &reviewContext{
		cmd:       cmd,
		absPath:   absPath,
		gitRoot:   gitRoot,
		cfg:       cfg,
		source:    src,
		formatter: formatter,
	}

	// 5. Resolve the analysis mode once; watch iterations reuse it.
	rc.server, err = newServerClient(cfg)
	if err != nil {
		return exitError(ExitInvalidArgs, "goosereview: %v", err)
	}
	rc.detection, err = newDetector(rc.server).DetectMode(cmd.Context())
	if err != nil {
		return exitError(ExitInvalidArgs, "goosereview: %v", err)
	}
	slog.Info("analysis mode resolved", "mode", rc.detection.Mode)

	// 6. Run once, or loop under the file watcher.
	if reviewWatch {
		if _, ok := src.(gitchange.WorkingDir); !ok {
			return exitError(ExitInvalidArgs, "goosereview: --watch requires the working-dir source")
		}
		return rc.watchLoop(cmd.Context())
	}
	return rc.runOnce(cmd.Context())
}

// runOnce executes one full review pass: collect, analyze, merge, report.
func (rc *reviewContext) runOnce(ctx context.Context) error {
	changes, err := rc.collectChanges(ctx)
	if err != nil {
		return exitError(ExitAnalysisFailure, "goosereview: collecting changes failed (%v)", err)
	}

	parsed, err := diffparse.ParseAll(changes)
	if err != nil {
		return exitError(ExitAnalysisFailure, "goosereview: parsing changes failed (%v)", err)
	}
	parsed = diffparse.FilterByPathPatterns(parsed, rc.cfg.Project.Include, rc.cfg.Project.Exclude)
	slog.Info("changes collected", "source", rc.source.String(), "files", len(parsed))

	var serverIssues, aiIssues []issue.Issue
	if rc.detection.SonarQubeAvailable {
		serverIssues, err = rc.serverAnalysis(ctx)
		if err != nil {
			return err
		}
	}
	if rc.detection.AIAvailable && len(parsed) > 0 {
		aiIssues, err = rc.aiAnalysis(ctx, parsed)
		if err != nil {
			return err
		}
	}

	rc.result = merge.Merge(serverIssues, aiIssues, merge.Options{})
	slog.Info("review complete",
		"total", rc.result.TotalIssues, "unique", rc.result.UniqueIssues, "duplicates", rc.result.DuplicateCount)

	if err := rc.writeOutput(); err != nil {
		return err
	}
	if reviewPostComment {
		if err := rc.postComment(ctx); err != nil {
			return err
		}
	}
	return rc.checkFailOn()
}

// collectChanges gathers the change set for the resolved source. Pull
// request sources go through the GitHub API; everything else through the
// local git CLI.
func (rc *reviewContext) collectChanges(ctx context.Context) ([]diffparse.FileChange, error) {
	if pr, ok := rc.source.(gitchange.PullRequest); ok {
		remote := gitchange.DetectGitHubRemote(testable.DefaultGitOpener, rc.gitRoot)
		if remote == nil {
			return nil, fmt.Errorf("no GitHub remote detected in %s", rc.gitRoot)
		}
		client, err := ghpr.New(remote.Owner, remote.Repo, "")
		if err != nil {
			return nil, err
		}
		return client.ChangedFiles(ctx, pr.Number)
	}

	set, err := gitchange.NewCollector(rc.absPath).Collect(ctx, rc.source)
	if err != nil {
		return nil, err
	}
	return set.Files, nil
}

// serverAnalysis triggers a scan when the sonar-scanner CLI is usable, waits
// for the server to process it, and fetches the aggregated result. A failed
// scan degrades to fetching the last analysis rather than aborting.
func (rc *reviewContext) serverAnalysis(ctx context.Context) ([]issue.Issue, error) {
	key := rc.cfg.Project.Key
	if key == "" {
		slog.Warn("server analysis skipped", "reason", "no project.key configured")
		return nil, nil
	}

	sc := scanner.New(rc.absPath, key, rc.cfg.Server.URL,
		scanner.WithToken(rc.cfg.Server.Token))
	if res := rc.server.RunScan(ctx, sc); !res.Success {
		slog.Warn("server scan did not run, using last analysis", "error", res.Err)
	} else if res.TaskID != "" {
		timeout := config.Timeout(rc.cfg.Server.PollTimeout, sonarqube.DefaultPollTimeout)
		if err := rc.server.WaitForAnalysis(ctx, res.TaskID, timeout, sonarqube.DefaultPollInterval); err != nil {
			slog.Warn("waiting for server analysis", "error", err)
		}
	}

	analysis, err := rc.server.FetchAnalysisResult(ctx, key)
	if err != nil {
		return nil, exitError(ExitAnalysisFailure, "goosereview: fetching server analysis failed (%v)", err)
	}
	slog.Info("server analysis fetched",
		"project", key, "issues", len(analysis.Issues), "quality_gate", analysis.QualityGate.Status)
	return analysis.Issues, nil
}

// aiAnalysis packs the parsed changes into token-budget batches and fans
// them out to the configured provider. Diffs are scrubbed of secrets before
// leaving the process.
func (rc *reviewContext) aiAnalysis(ctx context.Context, parsed []diffparse.ParsedChange) ([]issue.Issue, error) {
	provider, err := newAIProvider(rc.cfg)
	if err != nil {
		return nil, exitError(ExitInvalidArgs, "goosereview: %v", err)
	}

	batcher, err := tokens.NewBatcher(rc.cfg.TokenBudget(), tokens.WithSafetyMargin(rc.cfg.SafetyMargin()))
	if err != nil {
		return nil, exitError(ExitInvalidArgs, "goosereview: %v", err)
	}

	items := make([]string, 0, len(parsed))
	for _, change := range parsed {
		items = append(items, redact.Content(diffparse.FormatForAnalysis(change, true)))
	}

	result, err := ai.AnalyzeBatches(ctx, provider, batcher.CreateBatches(items), rc.cfg.Parallelism())
	if err != nil {
		return nil, exitError(ExitAnalysisFailure, "goosereview: AI analysis failed (%v)", err)
	}
	return result.Issues, nil
}

// writeOutput renders the merged result to the configured destination
// (file or stdout).
func (rc *reviewContext) writeOutput() error {
	w := rc.cmd.OutOrStdout()
	if reviewOutput != "" {
		f, err := cmdFS.Create(reviewOutput)
		if err != nil {
			return exitError(ExitInvalidArgs, "goosereview: cannot create output file %q (%v)", reviewOutput, err)
		}
		defer f.Close() //nolint:errcheck // best-effort close on output file
		w = f
	}

	if err := rc.formatter.Format(rc.result, w); err != nil {
		return exitError(ExitAnalysisFailure, "goosereview: formatting failed (%v)", err)
	}
	return nil
}

// postComment renders the merged result as markdown and upserts it as the
// summary comment on the reviewed pull request.
func (rc *reviewContext) postComment(ctx context.Context) error {
	pr := rc.source.(gitchange.PullRequest) // validated in runReview

	remote := gitchange.DetectGitHubRemote(testable.DefaultGitOpener, rc.gitRoot)
	if remote == nil {
		return exitError(ExitInvalidArgs, "goosereview: no GitHub remote detected in %s", rc.gitRoot)
	}
	client, err := ghpr.New(remote.Owner, remote.Repo, "")
	if err != nil {
		return exitError(ExitInvalidArgs, "goosereview: %v", err)
	}

	md, _ := output.GetFormatter("markdown")
	var buf bytes.Buffer
	if err := md.Format(rc.result, &buf); err != nil {
		return exitError(ExitAnalysisFailure, "goosereview: formatting failed (%v)", err)
	}

	if err := client.UpsertSummaryComment(ctx, pr.Number, buf.String()); err != nil {
		return exitError(ExitAnalysisFailure, "goosereview: posting summary comment failed (%v)", err)
	}
	slog.Info("summary comment posted", "pr", pr.Number)
	return nil
}

// checkFailOn maps the merged result onto the --fail-on threshold.
func (rc *reviewContext) checkFailOn() error {
	if reviewFailOn == "" {
		return nil
	}
	threshold := issue.Severity(strings.ToUpper(reviewFailOn))

	count := 0
	for _, is := range rc.result.Issues {
		if is.Severity.Rank() >= threshold.Rank() {
			count++
		}
	}
	if count > 0 {
		return exitError(ExitIssuesFound, "goosereview: %d finding(s) at or above %s", count, threshold)
	}
	return nil
}

// watchLoop re-runs the review on every debounced file-change batch until
// the context is canceled. Review failures are logged, not fatal, so a
// transient analyzer error does not kill the loop.
func (rc *reviewContext) watchLoop(ctx context.Context) error {
	w, err := watch.New(rc.absPath, watch.WithIgnorePatterns(rc.cfg.Project.Exclude...))
	if err != nil {
		return exitError(ExitInvalidArgs, "goosereview: %v", err)
	}
	defer w.Close() //nolint:errcheck // best-effort close on shutdown

	rc.watchPass(ctx)
	slog.Info("watching for changes", "path", rc.absPath)

	err = w.Run(ctx, func(ctx context.Context, paths []string) {
		slog.Info("changes detected", "files", len(paths))
		rc.watchPass(ctx)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// watchPass runs one review iteration inside the watch loop.
func (rc *reviewContext) watchPass(ctx context.Context) {
	err := rc.runOnce(ctx)
	if err == nil {
		return
	}
	var ece *exitCodeError
	if errors.As(err, &ece) && ece.code == ExitIssuesFound {
		slog.Warn(ece.msg)
		return
	}
	slog.Error("review failed", "error", err)
}

// resolveReviewSource builds the change source from flags. --pr wins, then
// --base/--head, then the --source string; the default is the working tree.
func resolveReviewSource(gitRoot string) (gitchange.Source, error) {
	switch {
	case reviewPR > 0:
		return gitchange.NewPullRequest(reviewPR)

	case reviewBase != "" || reviewHead != "":
		base := reviewBase
		if base == "" {
			base = gitchange.DefaultBaseBranch(testable.DefaultGitOpener, gitRoot)
		}
		head := reviewHead
		if head == "" {
			head = "HEAD"
		}
		return gitchange.NewBranchCompare(base, head)

	default:
		return gitchange.ParseSource(reviewSource)
	}
}

// resolveRepoPath resolves the given path argument into an absolute path and
// finds the nearest git root by walking up the directory tree. For non-git
// directories, gitRoot equals absPath.
func resolveRepoPath(repoPath string) (absPath, gitRoot string, err error) {
	absPath, err = cmdFS.Abs(repoPath)
	if err != nil {
		return "", "", exitError(ExitInvalidArgs, "goosereview: cannot resolve path %q (%v)", repoPath, err)
	}

	absPath, err = cmdFS.EvalSymlinks(absPath)
	if err != nil {
		return "", "", exitError(ExitInvalidArgs, "goosereview: cannot resolve path %q (%v)", repoPath, err)
	}

	info, err := cmdFS.Stat(absPath)
	if err != nil {
		return "", "", exitError(ExitInvalidArgs, "goosereview: path %q does not exist (check the path and try again)", repoPath)
	}
	if !info.IsDir() {
		return "", "", exitError(ExitInvalidArgs, "goosereview: %q is not a directory (provide a repository root)", repoPath)
	}

	// Walk up to find .git root for subdirectory reviews.
	gitRoot = absPath
	for {
		if _, statErr := cmdFS.Stat(filepath.Join(gitRoot, ".git")); statErr == nil {
			break
		}
		parent := filepath.Dir(gitRoot)
		if parent == gitRoot {
			// No .git found. Use absPath as-is; non-git dirs fail later in collection.
			gitRoot = absPath
			break
		}
		gitRoot = parent
	}

	return absPath, gitRoot, nil
}

// loadReviewConfig layers the global config, the project config, and any
// scanner properties, folds the filter flags in, and validates the result.
func loadReviewConfig(absPath string) (*config.Config, error) {
	global, err := config.LoadGlobal()
	if err != nil {
		return nil, exitError(ExitInvalidArgs, "goosereview: loading global config failed (%v)", err)
	}
	project, err := config.Load(absPath)
	if err != nil {
		return nil, exitError(ExitInvalidArgs, "goosereview: failed to load %s (%v)", config.FileName, err)
	}
	cfg := config.Merge(global, project)

	props, err := config.LoadSonarProps(absPath)
	if err != nil {
		return nil, exitError(ExitInvalidArgs, "goosereview: failed to load %s (%v)", config.SonarPropsFile, err)
	}
	config.ApplySonarProps(cfg, props)

	cfg.Project.Include = append(cfg.Project.Include, reviewInclude...)
	cfg.Project.Exclude = append(cfg.Project.Exclude, reviewExclude...)

	if err := config.Validate(cfg); err != nil {
		return nil, exitError(ExitInvalidArgs, "goosereview: %v", err)
	}
	return cfg, nil
}

// newServerClient builds the analysis client when a server URL is
// configured. A nil client with nil error means no server is configured.
func newServerClient(cfg *config.Config) (*sonarqube.Client, error) {
	if cfg.Server.URL == "" {
		return nil, nil
	}
	return sonarqube.NewClient(cfg.Server.URL,
		sonarqube.WithToken(cfg.Server.Token),
		sonarqube.WithProbeTimeout(config.Timeout(cfg.Server.ProbeTimeout, sonarqube.DefaultProbeTimeout)))
}

// newDetector wires the optional server client into a mode detector.
func newDetector(server *sonarqube.Client) *detect.Detector {
	var prober detect.ServerProber
	if server != nil {
		prober = server
	}
	return detect.New(prober, aiConfigured())
}

// exitCodeError carries a non-zero exit code through cobra's error handling.
type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string { return e.msg }

// ExitCode returns the exit code for this error.
func (e *exitCodeError) ExitCode() int { return e.code }

// exitError creates an exitCodeError. If msg is empty, the error message is
// set to a generic description of the exit code.
func exitError(code int, format string, args ...any) *exitCodeError {
	msg := fmt.Sprintf(format, args...)
	if msg == "" {
		switch code {
		case ExitIssuesFound:
			msg = "goosereview: findings at or above the failure threshold"
		case ExitAnalysisFailure:
			msg = "goosereview: analysis failed"
		default:
			msg = "goosereview: error"
		}
	}
	return &exitCodeError{code: code, msg: msg}
}
