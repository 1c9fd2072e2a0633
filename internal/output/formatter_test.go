package output

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/issue"
	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/merge"
)

// sampleResult builds a small merged result shared by the formatter tests.
func sampleResult() *merge.Result {
	server := []issue.Issue{
		{
			Source:   issue.SourceServer,
			Severity: issue.SeverityCritical,
			Type:     issue.TypeBug,
			File:     "api/handler.go",
			Line:     42,
			Message:  "Possible nil dereference",
			Rule:     "go:S2259",
		},
		{
			Source:   issue.SourceServer,
			Severity: issue.SeverityMinor,
			Type:     issue.TypeCodeSmell,
			File:     "api/handler.go",
			Line:     80,
			Message:  "Function has too many parameters",
		},
	}
	ai := []issue.Issue{
		{
			Source:   issue.SourceAI,
			Severity: issue.SeverityMajor,
			Type:     issue.TypeVulnerability,
			File:     "auth/token.go",
			Line:     12,
			Message:  "Token compared with == instead of constant-time compare",
		},
	}
	return merge.Merge(server, ai, merge.Options{})
}

// stubFormatter is a registry test double.
type stubFormatter struct {
	name string
}

func (s *stubFormatter) Name() string { return s.name }

func (s *stubFormatter) Format(_ *merge.Result, _ io.Writer) error { return nil }

func TestRegistry(t *testing.T) {
	resetFmtForTesting()
	t.Cleanup(func() {
		resetFmtForTesting()
		RegisterFormatter(NewTextFormatter())
		RegisterFormatter(NewJSONFormatter())
		RegisterFormatter(NewMarkdownFormatter())
		RegisterFormatter(NewSARIFFormatter())
	})

	RegisterFormatter(&stubFormatter{name: "beta"})
	RegisterFormatter(&stubFormatter{name: "alpha"})

	f, err := GetFormatter("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", f.Name())

	_, err = GetFormatter("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format: "missing"`)
	assert.Contains(t, err.Error(), "alpha, beta")

	assert.Equal(t, []string{"alpha", "beta"}, Formats())
}

func TestDefaultFormattersRegistered(t *testing.T) {
	for _, name := range []string{"text", "json", "markdown", "sarif"} {
		f, err := GetFormatter(name)
		require.NoError(t, err, "formatter %q should be registered", name)
		assert.Equal(t, name, f.Name())
	}
}
