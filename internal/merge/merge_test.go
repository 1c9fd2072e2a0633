package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/issue"
)

func serverIssue(file string, line int, sev issue.Severity, msg string) issue.Issue {
	return issue.Issue{Source: issue.SourceServer, Severity: sev, Type: issue.TypeCodeSmell, File: file, Line: line, Message: msg}
}

func aiIssue(file string, line int, sev issue.Severity, msg string) issue.Issue {
	return issue.Issue{Source: issue.SourceAI, Severity: sev, Type: issue.TypeCodeSmell, File: file, Line: line, Message: msg}
}

func TestMerge_DeduplicatesMatchingPair(t *testing.T) {
	server := []issue.Issue{serverIssue("a.go", 10, issue.SeverityMajor, "Remove this unused variable")}
	ai := []issue.Issue{aiIssue("a.go", 12, issue.SeverityCritical, "Remove this unused variable x")}

	result := Merge(server, ai, Options{})

	assert.Equal(t, 2, result.TotalIssues)
	assert.Equal(t, 1, result.UniqueIssues)
	assert.Equal(t, 1, result.DuplicateCount)

	require.Len(t, result.Issues, 1)
	got := result.Issues[0]
	assert.Equal(t, issue.SourceMerged, got.Source)
	// The more severe of the two wins.
	assert.Equal(t, issue.SeverityCritical, got.Severity)
}

func TestMerge_UnmatchedKeepSourceTags(t *testing.T) {
	server := []issue.Issue{serverIssue("a.go", 10, issue.SeverityMinor, "Unused import")}
	ai := []issue.Issue{aiIssue("b.go", 5, issue.SeverityMajor, "Missing error check on Close")}

	result := Merge(server, ai, Options{})

	assert.Equal(t, 2, result.UniqueIssues)
	assert.Zero(t, result.DuplicateCount)

	sources := map[issue.Source]int{}
	for _, is := range result.Issues {
		sources[is.Source]++
	}
	assert.Equal(t, 1, sources[issue.SourceServer])
	assert.Equal(t, 1, sources[issue.SourceAI])
}

func TestMerge_LineWindow(t *testing.T) {
	server := []issue.Issue{serverIssue("a.go", 10, issue.SeverityMajor, "Remove this unused variable")}

	t.Run("within window matches", func(t *testing.T) {
		ai := []issue.Issue{aiIssue("a.go", 13, issue.SeverityMajor, "Remove this unused variable")}
		result := Merge(server, ai, Options{LineWindow: 3})
		assert.Equal(t, 1, result.DuplicateCount)
	})

	t.Run("outside window does not match", func(t *testing.T) {
		ai := []issue.Issue{aiIssue("a.go", 14, issue.SeverityMajor, "Remove this unused variable")}
		result := Merge(server, ai, Options{LineWindow: 3})
		assert.Zero(t, result.DuplicateCount)
	})

	t.Run("different file never matches", func(t *testing.T) {
		ai := []issue.Issue{aiIssue("b.go", 10, issue.SeverityMajor, "Remove this unused variable")}
		result := Merge(server, ai, Options{})
		assert.Zero(t, result.DuplicateCount)
	})
}

func TestMerge_SimilarityThreshold(t *testing.T) {
	server := []issue.Issue{serverIssue("a.go", 10, issue.SeverityMajor, "Hard-coded credential detected")}
	ai := []issue.Issue{aiIssue("a.go", 10, issue.SeverityMajor, "Cognitive complexity too high")}

	t.Run("dissimilar messages stay separate", func(t *testing.T) {
		result := Merge(server, ai, Options{})
		assert.Zero(t, result.DuplicateCount)
	})

	t.Run("threshold is tunable", func(t *testing.T) {
		result := Merge(server, ai, Options{SimilarityThreshold: 0.01})
		assert.Equal(t, 1, result.DuplicateCount)
	})
}

func TestMerge_RankedBySeverity(t *testing.T) {
	server := []issue.Issue{
		serverIssue("a.go", 1, issue.SeverityMinor, "minor thing"),
		serverIssue("b.go", 2, issue.SeverityBlocker, "blocker thing"),
	}
	ai := []issue.Issue{aiIssue("c.go", 3, issue.SeverityMajor, "major thing")}

	result := Merge(server, ai, Options{})

	require.Len(t, result.Issues, 3)
	assert.Equal(t, issue.SeverityBlocker, result.Issues[0].Severity)
	assert.Equal(t, issue.SeverityMajor, result.Issues[1].Severity)
	assert.Equal(t, issue.SeverityMinor, result.Issues[2].Severity)
}

func TestMerge_FileAnalyses(t *testing.T) {
	server := []issue.Issue{
		serverIssue("a.go", 1, issue.SeverityMajor, "first"),
		serverIssue("b.go", 2, issue.SeverityMinor, "second"),
		serverIssue("a.go", 9, issue.SeverityInfo, "third"),
	}

	result := Merge(server, nil, Options{})

	require.Len(t, result.FileAnalyses, 2)
	assert.Equal(t, "a.go", result.FileAnalyses[0].File)
	assert.Len(t, result.FileAnalyses[0].Issues, 2)
	assert.Equal(t, "b.go", result.FileAnalyses[1].File)
}

func TestMerge_EmptyInputs(t *testing.T) {
	result := Merge(nil, nil, Options{})

	assert.NotEmpty(t, result.RunID)
	assert.Zero(t, result.TotalIssues)
	assert.Zero(t, result.UniqueIssues)
	assert.Empty(t, result.Issues)
	assert.Equal(t, "low", result.Impact.RiskLevel)
	assert.Equal(t, 100, result.Impact.QualityScore)
}

func TestAnalyzeImpact(t *testing.T) {
	t.Run("risk level follows max severity", func(t *testing.T) {
		tests := []struct {
			sev  issue.Severity
			want string
		}{
			{issue.SeverityBlocker, "critical"},
			{issue.SeverityCritical, "high"},
			{issue.SeverityMajor, "medium"},
			{issue.SeverityMinor, "low"},
		}
		for _, tt := range tests {
			impact := analyzeImpact([]issue.Issue{{Severity: tt.sev, File: "a.go"}})
			assert.Equal(t, tt.want, impact.RiskLevel, "severity %s", tt.sev)
		}
	})

	t.Run("quality score subtracts severity-weighted penalties", func(t *testing.T) {
		impact := analyzeImpact([]issue.Issue{
			{Severity: issue.SeverityBlocker, File: "a.go"},  // -20
			{Severity: issue.SeverityCritical, File: "a.go"}, // -10
			{Severity: issue.SeverityMinor, File: "a.go"},    // -2
		})
		assert.Equal(t, 68, impact.QualityScore)
	})

	t.Run("quality score floors at zero", func(t *testing.T) {
		var many []issue.Issue
		for range 10 {
			many = append(many, issue.Issue{Severity: issue.SeverityBlocker, File: "a.go"})
		}
		impact := analyzeImpact(many)
		assert.Zero(t, impact.QualityScore)
	})

	t.Run("affected modules are top-level directories", func(t *testing.T) {
		impact := analyzeImpact([]issue.Issue{
			{Severity: issue.SeverityMinor, File: "internal/server/api.go"},
			{Severity: issue.SeverityMinor, File: "internal/server/auth.go"},
			{Severity: issue.SeverityMinor, File: "cmd/main.go"},
			{Severity: issue.SeverityMinor, File: "README.md"},
		})
		assert.Equal(t, []string{"README.md", "cmd", "internal"}, impact.AffectedModules)
		assert.Len(t, impact.TestingRecommendations, 3)
	})

	t.Run("critical bugs surface as breaking changes", func(t *testing.T) {
		impact := analyzeImpact([]issue.Issue{
			{Severity: issue.SeverityCritical, Type: issue.TypeBug, File: "a.go", Line: 7, Message: "nil dereference"},
		})
		require.Len(t, impact.BreakingChanges, 1)
		assert.Contains(t, impact.BreakingChanges[0], "a.go:7")
	})

	t.Run("security findings surface as deployment risks", func(t *testing.T) {
		impact := analyzeImpact([]issue.Issue{
			{Severity: issue.SeverityMajor, Type: issue.TypeVulnerability, File: "auth.go", Message: "weak hash"},
		})
		require.Len(t, impact.DeploymentRisks, 1)
		assert.Contains(t, impact.DeploymentRisks[0], "auth.go")
	})
}
