package sonarqube

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/issue"
)

// aggregationMux serves all three aggregation endpoints with small fixtures.
// Overrides replace the default handler for a path.
func aggregationMux(overrides map[string]http.HandlerFunc) *http.ServeMux {
	handlers := map[string]http.HandlerFunc{}
	handlers["/api/system/status"] = func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"UP","version":"10.0"}`))
	}
	handlers["/api/issues/search"] = func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"paging": {"pageIndex": 1, "pageSize": 100, "total": 2},
			"issues": [
				{"key":"i1","rule":"go:S1186","severity":"CRITICAL","component":"proj:internal/a.go","line":12,"message":"Empty function","type":"CODE_SMELL","effort":"5min"},
				{"key":"i2","rule":"go:S2068","severity":"MAJOR","component":"proj:cmd/main.go","line":40,"message":"Hard-coded credential","type":"VULNERABILITY","effort":"30min"}
			]
		}`))
	}
	handlers["/api/measures/component"] = func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"component": {"key":"proj","measures":[
				{"metric":"bugs","value":"3"},
				{"metric":"vulnerabilities","value":"1"},
				{"metric":"code_smells","value":"17"},
				{"metric":"security_hotspots","value":"2"},
				{"metric":"sqale_debt_ratio","value":"1.5"},
				{"metric":"coverage","value":"81.2"},
				{"metric":"ncloc","value":"5432"},
				{"metric":"duplicated_lines_density","value":"0.8"}
			]}
		}`))
	}
	handlers["/api/qualitygates/project_status"] = func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"projectStatus": {"status":"ERROR","conditions":[
				{"status":"ERROR","metricKey":"new_coverage","comparator":"LT","errorThreshold":"80","actualValue":"72.1"}
			]}
		}`))
	}

	for path, h := range overrides {
		handlers[path] = h
	}

	mux := http.NewServeMux()
	for path, h := range handlers {
		mux.HandleFunc(path, h)
	}
	return mux
}

func probedClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	client, _ := newTestClient(t, handler)
	require.True(t, client.Probe(context.Background()).Success)
	return client
}

func TestFetchAnalysisResult_RequiresServerMode(t *testing.T) {
	client, err := NewClient("http://localhost:9000")
	require.NoError(t, err)

	_, err = client.FetchAnalysisResult(context.Background(), "proj")
	assert.ErrorIs(t, err, ErrNotAvailable)
}

func TestFetchAnalysisResult_Aggregates(t *testing.T) {
	client := probedClient(t, aggregationMux(nil))

	result, err := client.FetchAnalysisResult(context.Background(), "proj")
	require.NoError(t, err)

	assert.Equal(t, "proj", result.ProjectKey)
	require.Len(t, result.Issues, 2)
	assert.Equal(t, issue.SourceServer, result.Issues[0].Source)
	assert.Equal(t, "internal/a.go", result.Issues[0].File)
	assert.Equal(t, 12, result.Issues[0].Line)
	assert.Equal(t, "go:S1186", result.Issues[0].Rule)

	assert.Equal(t, 3, result.Metrics.Bugs)
	assert.Equal(t, 17, result.Metrics.CodeSmells)
	assert.InDelta(t, 81.2, result.Metrics.Coverage, 0.001)
	assert.Equal(t, 5432, result.Metrics.LinesOfCode)

	assert.Equal(t, "ERROR", result.QualityGate.Status)
	require.Len(t, result.QualityGate.Conditions, 1)
	assert.Equal(t, "new_coverage", result.QualityGate.Conditions[0].Metric)
}

func TestFetchAnalysisResult_CountMaps(t *testing.T) {
	client := probedClient(t, aggregationMux(nil))

	result, err := client.FetchAnalysisResult(context.Background(), "proj")
	require.NoError(t, err)

	assert.Equal(t, 1, result.IssuesBySeverity[issue.SeverityCritical])
	assert.Equal(t, 1, result.IssuesBySeverity[issue.SeverityMajor])
	// Unseen severities are absent, never present with zero.
	_, present := result.IssuesBySeverity[issue.SeverityBlocker]
	assert.False(t, present)

	assert.Equal(t, 1, result.IssuesByType[issue.TypeCodeSmell])
	assert.Equal(t, 1, result.IssuesByType[issue.TypeVulnerability])
	_, present = result.IssuesByType[issue.TypeBug]
	assert.False(t, present)
}

func TestFetchAnalysisResult_PagesThroughIssues(t *testing.T) {
	pagesServed := 0
	mux := aggregationMux(map[string]http.HandlerFunc{
		"/api/issues/search": func(w http.ResponseWriter, r *http.Request) {
			pagesServed++
			page := r.URL.Query().Get("p")
			fmt.Fprintf(w, `{
				"paging": {"pageIndex": %s, "pageSize": 100, "total": 150},
				"issues": [{"key":"p%s","rule":"r","severity":"MINOR","component":"proj:f.go","line":1,"message":"m %s","type":"BUG"}]
			}`, page, page, page)
		},
	})
	client := probedClient(t, mux)

	result, err := client.FetchAnalysisResult(context.Background(), "proj")
	require.NoError(t, err)

	assert.Equal(t, 2, pagesServed)
	assert.Len(t, result.Issues, 2)
}

func TestFetchAnalysisResult_SubFetchFailureNamesIt(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"issues", "/api/issues/search", "failed to fetch issues"},
		{"metrics", "/api/measures/component", "failed to fetch metrics"},
		{"quality gate", "/api/qualitygates/project_status", "failed to fetch quality gate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := aggregationMux(map[string]http.HandlerFunc{
				tt.path: func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(http.StatusForbidden)
				},
			})
			client := probedClient(t, mux)

			_, err := client.FetchAnalysisResult(context.Background(), "proj")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Contains(t, err.Error(), "403")
		})
	}
}
