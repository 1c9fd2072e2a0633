package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/merge"
)

func TestMarkdownFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownFormatter().Format(sampleResult(), &buf))

	out := buf.String()
	assert.Contains(t, out, "## Code Review")
	assert.Contains(t, out, "**3 issue(s)** across 2 file(s)")

	// Severity table lists only present severities.
	assert.Contains(t, out, "| Severity | Count |")
	assert.Contains(t, out, "| CRITICAL | 1 |")
	assert.Contains(t, out, "| MAJOR | 1 |")
	assert.Contains(t, out, "| MINOR | 1 |")
	assert.NotContains(t, out, "| BLOCKER |")

	// Per-file sections with rule references.
	assert.Contains(t, out, "### `api/handler.go`")
	assert.Contains(t, out, "**CRITICAL** (line 42): Possible nil dereference _[go:S2259]_")
	assert.Contains(t, out, "### `auth/token.go`")
}

func TestMarkdownFormatterClean(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownFormatter().Format(merge.Merge(nil, nil, merge.Options{}), &buf))

	out := buf.String()
	assert.Contains(t, out, "No issues found.")
	assert.NotContains(t, out, "| Severity |")
}
