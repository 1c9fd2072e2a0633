// Copyright 2026 The Goosereview Authors
// SPDX-License-Identifier: MIT

package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/ai"
	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/config"
)

// initTestRepo creates a small isolated git repository in t.TempDir()
// with one committed Go file. Returns the repo directory path.
func initTestRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()

	// Resolve symlinks so paths match what goosereview resolves internally
	// (e.g., macOS /var -> /private/var).
	var err error
	dir, err = filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	writeTestFile(t, dir, "go.mod", "module testrepo\n\ngo 1.24\n")
	writeTestFile(t, dir, "main.go", `package main

import "fmt"

func main() {
	fmt.Println("hello world")
}
`)

	runGitCmd(t, dir, "init")
	runGitCmd(t, dir, "config", "user.email", "test@test.com")
	runGitCmd(t, dir, "config", "user.name", "Test")
	runGitCmd(t, dir, "add", ".")
	runGitCmd(t, dir, "commit", "-m", "Initial commit")

	return dir
}

// dirtyTestRepo creates a repo with an uncommitted modification.
func dirtyTestRepo(t *testing.T) string {
	t.Helper()

	dir := initTestRepo(t)
	writeTestFile(t, dir, "main.go", `package main

import "fmt"

func main() {
	fmt.Println("hello world")
	fmt.Println("second line")
}
`)
	return dir
}

// writeTestFile creates a file (and any necessary parent directories) under dir.
func writeTestFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	parent := filepath.Dir(path)
	require.NoError(t, os.MkdirAll(parent, 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// runGitCmd runs a git command in the given directory.
func runGitCmd(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null", "GIT_CONFIG_SYSTEM=/dev/null")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, out)
}

// isolateEnv points the global config at an empty directory and clears the
// AI provider key so host configuration cannot leak into tests.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("ANTHROPIC_API_KEY", "")
}

// withMockProvider swaps the AI provider constructor for the test.
func withMockProvider(t *testing.T, provider ai.Provider) {
	t.Helper()
	orig := newAIProvider
	newAIProvider = func(*config.Config) (ai.Provider, error) { return provider, nil }
	t.Cleanup(func() { newAIProvider = orig })
}

// newSonarServer serves the status, issue, measure, and quality-gate
// endpoints with a fixed one-issue project.
func newSonarServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/system/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status": "UP", "version": "2025.1.0.5498"}`)) //nolint:errcheck
	})
	mux.HandleFunc("/api/issues/search", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{
			"paging": {"pageIndex": 1, "pageSize": 100, "total": 1},
			"issues": [{
				"key": "i1",
				"rule": "go:S1135",
				"severity": "MAJOR",
				"component": "demo:main.go",
				"line": 5,
				"message": "Complete the task associated to this TODO comment.",
				"type": "CODE_SMELL",
				"effort": "10min"
			}]
		}`)) //nolint:errcheck
	})
	mux.HandleFunc("/api/measures/component", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{
			"component": {"key": "demo", "measures": [
				{"metric": "bugs", "value": "0"},
				{"metric": "code_smells", "value": "1"},
				{"metric": "coverage", "value": "81.5"},
				{"metric": "ncloc", "value": "240"}
			]}
		}`)) //nolint:errcheck
	})
	mux.HandleFunc("/api/qualitygates/project_status", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"projectStatus": {"status": "OK", "conditions": []}}`)) //nolint:errcheck
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// writeServerConfig writes a .goosereview.yaml pointing at the given server.
func writeServerConfig(t *testing.T, dir, serverURL, projectKey string) {
	t.Helper()
	writeTestFile(t, dir, config.FileName,
		"server:\n  url: "+serverURL+"\nproject:\n  key: "+projectKey+"\n")
}

// resetReviewFlags resets review command flags between tests. Cobra keeps
// flag values in package vars, so every test that executes rootCmd must
// start from defaults.
func resetReviewFlags(t *testing.T) {
	t.Helper()
	reviewSource = ""
	reviewBase = ""
	reviewHead = ""
	reviewPR = 0
	reviewFormat = ""
	reviewOutput = ""
	reviewInclude = nil
	reviewExclude = nil
	reviewFailOn = ""
	reviewWatch = false
	reviewPostComment = false
	resetFlags(reviewCmd.Flags(), "source", "base", "head", "pr", "format", "output", "fail-on", "watch", "post-comment")
	// Slice flags share storage with the package vars reset above;
	// restoring DefValue would re-parse "[]" as a literal element.
	for _, name := range []string{"include", "exclude"} {
		if f := reviewCmd.Flags().Lookup(name); f != nil {
			f.Changed = false
		}
	}
}

// resetFlags restores named flags on fs to their default values and marks
// them unchanged.
func resetFlags(fs *pflag.FlagSet, names ...string) {
	for _, name := range names {
		if f := fs.Lookup(name); f != nil {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
}

// resetIssuesFlags resets issues command flags between tests.
func resetIssuesFlags(t *testing.T) {
	t.Helper()
	issuesFormat = "text"
	issuesOutput = ""
	issuesProjectKey = ""
	resetFlags(issuesCmd.Flags(), "format", "output", "project-key")
}
