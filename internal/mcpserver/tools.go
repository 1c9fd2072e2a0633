package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

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
	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/sonarqube"
	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/testable"
	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/tokens"
)

// DetectModeInput is the input schema for the detect_mode MCP tool.
type DetectModeInput struct {
	Path string `json:"path" jsonschema:"Repository path to inspect (defaults to current directory)"`
}

// ReviewChangesInput is the input schema for the review_changes MCP tool.
type ReviewChangesInput struct {
	Path    string `json:"path" jsonschema:"Repository path to review (defaults to current directory)"`
	Source  string `json:"source,omitempty" jsonschema:"Change source: working-dir, branch:BASE..HEAD, or pr:N (default: working-dir)"`
	Format  string `json:"format,omitempty" jsonschema:"Output format: text, json, markdown, sarif (default: json)"`
	Include string `json:"include,omitempty" jsonschema:"Comma-separated glob patterns; only matching files are reviewed"`
	Exclude string `json:"exclude,omitempty" jsonschema:"Comma-separated glob patterns to skip"`
}

// FetchServerIssuesInput is the input schema for the fetch_server_issues MCP tool.
type FetchServerIssuesInput struct {
	Path       string `json:"path" jsonschema:"Repository path holding the goosereview config (defaults to current directory)"`
	ProjectKey string `json:"project_key,omitempty" jsonschema:"SonarQube project key (default: project.key from config)"`
}

// boolPtr returns a pointer to a bool.
func boolPtr(b bool) *bool { return &b }

// registerTools adds all goosereview tools to the MCP server.
func registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "detect_mode",
		Description: "Resolve which analysis providers are usable for a repository: the SonarQube server, the AI reviewer, both, or neither. Returns the detection result as JSON.",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:    true,
			DestructiveHint: boolPtr(false),
			OpenWorldHint:   boolPtr(true),
		},
	}, handleDetectMode)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "review_changes",
		Description: "Review source-code changes from the working tree, a branch comparison, or a GitHub pull request. Runs the available analyzers and returns merged, deduplicated findings.",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:    true,
			DestructiveHint: boolPtr(false),
			OpenWorldHint:   boolPtr(true),
		},
	}, handleReviewChanges)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "fetch_server_issues",
		Description: "Fetch unresolved issues, metrics, and the quality gate verdict for a project from the configured SonarQube server.",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:    true,
			DestructiveHint: boolPtr(false),
			OpenWorldHint:   boolPtr(true),
		},
	}, handleFetchServerIssues)
}

// newAIProvider builds the AI reviewer used by review_changes. Tests swap
// this out to avoid real API traffic.
var newAIProvider = func(cfg *config.Config) (ai.Provider, error) {
	var opts []ai.AnthropicOption
	if cfg.AI.Model != "" {
		opts = append(opts, ai.WithModel(cfg.AI.Model))
	}
	return ai.NewAnthropicProvider(opts...)
}

// aiConfigured reports whether an AI provider can be constructed.
func aiConfigured() bool {
	return os.Getenv("ANTHROPIC_API_KEY") != ""
}

func handleDetectMode(ctx context.Context, _ *mcp.CallToolRequest, input DetectModeInput) (*mcp.CallToolResult, any, error) {
	pathInfo, err := ResolvePath(input.Path)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := loadConfig(pathInfo.AbsPath)
	if err != nil {
		return nil, nil, err
	}

	server, err := newServerClient(cfg)
	if err != nil {
		return nil, nil, err
	}

	result, err := newDetector(server).DetectMode(ctx)
	if err != nil {
		return nil, nil, err
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encoding result: %w", err)
	}
	return textResult(string(data)), nil, nil
}

func handleReviewChanges(ctx context.Context, _ *mcp.CallToolRequest, input ReviewChangesInput) (*mcp.CallToolResult, any, error) {
	pathInfo, err := ResolvePath(input.Path)
	if err != nil {
		return nil, nil, err
	}

	src, err := gitchange.ParseSource(input.Source)
	if err != nil {
		return nil, nil, err
	}

	// Default to json for MCP consumers.
	format := "json"
	if input.Format != "" {
		format = input.Format
	}
	formatter, err := output.GetFormatter(format)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := loadConfig(pathInfo.AbsPath)
	if err != nil {
		return nil, nil, err
	}

	server, err := newServerClient(cfg)
	if err != nil {
		return nil, nil, err
	}

	mode, err := newDetector(server).DetectMode(ctx)
	if err != nil {
		return nil, nil, err
	}

	changes, err := collectChanges(ctx, pathInfo, src)
	if err != nil {
		return nil, nil, err
	}

	parsed, err := diffparse.ParseAll(changes)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing changes: %w", err)
	}

	include := append(splitAndTrim(input.Include), cfg.Project.Include...)
	exclude := append(splitAndTrim(input.Exclude), cfg.Project.Exclude...)
	parsed = diffparse.FilterByPathPatterns(parsed, include, exclude)

	var serverIssues, aiIssues []issue.Issue
	if mode.SonarQubeAvailable && cfg.Project.Key != "" {
		analysis, err := server.FetchAnalysisResult(ctx, cfg.Project.Key)
		if err != nil {
			return nil, nil, err
		}
		serverIssues = analysis.Issues
	}

	if mode.AIAvailable && len(parsed) > 0 {
		aiIssues, err = analyzeWithAI(ctx, cfg, parsed)
		if err != nil {
			return nil, nil, err
		}
	}

	merged := merge.Merge(serverIssues, aiIssues, merge.Options{})

	var buf bytes.Buffer
	if err := formatter.Format(merged, &buf); err != nil {
		return nil, nil, fmt.Errorf("formatting failed: %w", err)
	}
	return textResult(buf.String()), nil, nil
}

func handleFetchServerIssues(ctx context.Context, _ *mcp.CallToolRequest, input FetchServerIssuesInput) (*mcp.CallToolResult, any, error) {
	pathInfo, err := ResolvePath(input.Path)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := loadConfig(pathInfo.AbsPath)
	if err != nil {
		return nil, nil, err
	}

	server, err := newServerClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	if server == nil {
		return nil, nil, fmt.Errorf("no SonarQube server configured (set server.url)")
	}

	projectKey := input.ProjectKey
	if projectKey == "" {
		projectKey = cfg.Project.Key
	}
	if projectKey == "" {
		return nil, nil, fmt.Errorf("no project key (set project.key or pass project_key)")
	}

	if probe := server.Probe(ctx); !probe.Success {
		return nil, nil, fmt.Errorf("sonarqube server unavailable: %s", probe.Err)
	}

	analysis, err := server.FetchAnalysisResult(ctx, projectKey)
	if err != nil {
		return nil, nil, err
	}

	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encoding result: %w", err)
	}
	return textResult(string(data)), nil, nil
}

// loadConfig layers the global config, the project config, and any scanner
// properties for the given repository, then validates the result.
func loadConfig(repoPath string) (*config.Config, error) {
	global, err := config.LoadGlobal()
	if err != nil {
		return nil, fmt.Errorf("loading global config: %w", err)
	}
	project, err := config.Load(repoPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg := config.Merge(global, project)

	props, err := config.LoadSonarProps(repoPath)
	if err != nil {
		return nil, fmt.Errorf("loading scanner properties: %w", err)
	}
	config.ApplySonarProps(cfg, props)

	if err := config.Validate(cfg); err != nil {
		return nil, err
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

func newDetector(server *sonarqube.Client) *detect.Detector {
	var prober detect.ServerProber
	if server != nil {
		prober = server
	}
	return detect.New(prober, aiConfigured())
}

// collectChanges gathers the change set for the resolved source. Pull
// request sources go through the GitHub API; everything else through the
// local git CLI.
func collectChanges(ctx context.Context, pathInfo *PathInfo, src gitchange.Source) ([]diffparse.FileChange, error) {
	if pr, ok := src.(gitchange.PullRequest); ok {
		remote := gitchange.DetectGitHubRemote(testable.DefaultGitOpener, pathInfo.GitRoot)
		if remote == nil {
			return nil, fmt.Errorf("no GitHub remote detected in %s", pathInfo.GitRoot)
		}
		client, err := ghpr.New(remote.Owner, remote.Repo, "")
		if err != nil {
			return nil, err
		}
		return client.ChangedFiles(ctx, pr.Number)
	}

	set, err := gitchange.NewCollector(pathInfo.AbsPath).Collect(ctx, src)
	if err != nil {
		return nil, err
	}
	return set.Files, nil
}

// analyzeWithAI packs the parsed changes into token-budget batches and fans
// them out to the configured provider. Diffs are scrubbed of secrets before
// leaving the process.
func analyzeWithAI(ctx context.Context, cfg *config.Config, parsed []diffparse.ParsedChange) ([]issue.Issue, error) {
	provider, err := newAIProvider(cfg)
	if err != nil {
		return nil, err
	}

	batcher, err := tokens.NewBatcher(cfg.TokenBudget(), tokens.WithSafetyMargin(cfg.SafetyMargin()))
	if err != nil {
		return nil, err
	}

	items := make([]string, 0, len(parsed))
	for _, change := range parsed {
		items = append(items, redact.Content(diffparse.FormatForAnalysis(change, true)))
	}

	result, err := ai.AnalyzeBatches(ctx, provider, batcher.CreateBatches(items), cfg.Parallelism())
	if err != nil {
		return nil, err
	}
	return result.Issues, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// splitAndTrim splits a comma-separated string and trims whitespace from each element.
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
