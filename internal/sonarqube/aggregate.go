// Copyright 2026 The Goosereview Authors
// SPDX-License-Identifier: MIT

package sonarqube

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/issue"
)

// metricKeys is the fixed named set fetched by FetchAnalysisResult.
var metricKeys = []string{
	"bugs",
	"vulnerabilities",
	"code_smells",
	"security_hotspots",
	"sqale_debt_ratio",
	"coverage",
	"ncloc",
	"duplicated_lines_density",
}

// Metrics holds the fixed metric set reported by the server for a project.
type Metrics struct {
	Bugs                   int     `json:"bugs"`
	Vulnerabilities        int     `json:"vulnerabilities"`
	CodeSmells             int     `json:"code_smells"`
	SecurityHotspots       int     `json:"security_hotspots"`
	TechnicalDebtRatio     float64 `json:"technical_debt_ratio"`
	Coverage               float64 `json:"coverage"`
	LinesOfCode            int     `json:"lines_of_code"`
	DuplicatedLinesDensity float64 `json:"duplicated_lines_density"`
}

// QualityGateCondition is one threshold condition behind a quality gate
// verdict.
type QualityGateCondition struct {
	Metric         string `json:"metric"`
	Comparator     string `json:"comparator"`
	ErrorThreshold string `json:"error_threshold"`
	ActualValue    string `json:"actual_value"`
	Status         string `json:"status"`
}

// QualityGate is the server's pass/fail/warn verdict for a project.
type QualityGate struct {
	Status     string                 `json:"status"` // OK, WARN, ERROR, NONE
	Conditions []QualityGateCondition `json:"conditions"`
}

// AnalysisResult aggregates three independent endpoint responses into one
// view of a project's current analysis state. IssuesBySeverity and
// IssuesByType are folded from Issues; severities and types with no
// occurrences are absent from the maps, and callers must treat a missing key
// as zero.
type AnalysisResult struct {
	ProjectKey       string                 `json:"project_key"`
	AnalysisDate     time.Time              `json:"analysis_date"`
	Issues           []issue.Issue          `json:"issues"`
	Metrics          Metrics                `json:"metrics"`
	QualityGate      QualityGate            `json:"quality_gate"`
	IssuesBySeverity map[issue.Severity]int `json:"issues_by_severity"`
	IssuesByType     map[issue.Type]int     `json:"issues_by_type"`
}

// FetchAnalysisResult issues the three aggregation queries — paged unresolved
// issues, the fixed metric set, and the quality-gate status — concurrently
// and combines them. Any sub-fetch failing aborts the whole call with an
// error naming which one failed. Requires a successful probe first.
func (c *Client) FetchAnalysisResult(ctx context.Context, projectKey string) (*AnalysisResult, error) {
	if c.mode != ModeServer {
		return nil, ErrNotAvailable
	}

	result := &AnalysisResult{
		ProjectKey:   projectKey,
		AnalysisDate: time.Now(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		issues, err := c.fetchIssues(gctx, projectKey)
		if err != nil {
			return fmt.Errorf("sonarqube: failed to fetch issues: %w", err)
		}
		result.Issues = issues
		return nil
	})
	g.Go(func() error {
		metrics, err := c.fetchMetrics(gctx, projectKey)
		if err != nil {
			return fmt.Errorf("sonarqube: failed to fetch metrics: %w", err)
		}
		result.Metrics = metrics
		return nil
	})
	g.Go(func() error {
		gate, err := c.fetchQualityGate(gctx, projectKey)
		if err != nil {
			return fmt.Errorf("sonarqube: failed to fetch quality gate: %w", err)
		}
		result.QualityGate = gate
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.IssuesBySeverity = issue.CountBySeverity(result.Issues)
	result.IssuesByType = issue.CountByType(result.Issues)
	return result, nil
}

// fetchIssues pages through the issue-search endpoint for all unresolved
// issues of the project.
func (c *Client) fetchIssues(ctx context.Context, projectKey string) ([]issue.Issue, error) {
	var issues []issue.Issue

	for page := 1; ; page++ {
		query := url.Values{
			"componentKeys": {projectKey},
			"resolved":      {"false"},
			"ps":            {strconv.Itoa(issuesPageSize)},
			"p":             {strconv.Itoa(page)},
		}

		var resp issueSearchResponse
		if err := c.getJSON(ctx, "/api/issues/search", query, &resp); err != nil {
			return nil, err
		}

		for _, wi := range resp.Issues {
			issues = append(issues, issue.Issue{
				Source:   issue.SourceServer,
				Severity: issue.Severity(wi.Severity),
				Type:     issue.Type(wi.Type),
				File:     componentPath(wi.Component, projectKey),
				Line:     wi.Line,
				Message:  wi.Message,
				Rule:     wi.Rule,
				Effort:   wi.Effort,
			})
		}

		if page*issuesPageSize >= resp.Paging.Total || len(resp.Issues) == 0 {
			return issues, nil
		}
	}
}

// fetchMetrics queries the measures endpoint for the fixed metric set.
// Metrics the server does not report stay at their zero value.
func (c *Client) fetchMetrics(ctx context.Context, projectKey string) (Metrics, error) {
	query := url.Values{
		"component":  {projectKey},
		"metricKeys": {strings.Join(metricKeys, ",")},
	}

	var resp measuresResponse
	if err := c.getJSON(ctx, "/api/measures/component", query, &resp); err != nil {
		return Metrics{}, err
	}

	var m Metrics
	for _, measure := range resp.Component.Measures {
		switch measure.Metric {
		case "bugs":
			m.Bugs = atoiOrZero(measure.Value)
		case "vulnerabilities":
			m.Vulnerabilities = atoiOrZero(measure.Value)
		case "code_smells":
			m.CodeSmells = atoiOrZero(measure.Value)
		case "security_hotspots":
			m.SecurityHotspots = atoiOrZero(measure.Value)
		case "sqale_debt_ratio":
			m.TechnicalDebtRatio = atofOrZero(measure.Value)
		case "coverage":
			m.Coverage = atofOrZero(measure.Value)
		case "ncloc":
			m.LinesOfCode = atoiOrZero(measure.Value)
		case "duplicated_lines_density":
			m.DuplicatedLinesDensity = atofOrZero(measure.Value)
		}
	}
	return m, nil
}

// fetchQualityGate queries the project's quality-gate verdict.
func (c *Client) fetchQualityGate(ctx context.Context, projectKey string) (QualityGate, error) {
	query := url.Values{"projectKey": {projectKey}}

	var resp qualityGateResponse
	if err := c.getJSON(ctx, "/api/qualitygates/project_status", query, &resp); err != nil {
		return QualityGate{}, err
	}

	gate := QualityGate{Status: resp.ProjectStatus.Status}
	for _, cond := range resp.ProjectStatus.Conditions {
		gate.Conditions = append(gate.Conditions, QualityGateCondition{
			Metric:         cond.MetricKey,
			Comparator:     cond.Comparator,
			ErrorThreshold: cond.ErrorThreshold,
			ActualValue:    cond.ActualValue,
			Status:         cond.Status,
		})
	}
	return gate, nil
}

// componentPath strips the "projectKey:" prefix the server prepends to file
// components.
func componentPath(component, projectKey string) string {
	return strings.TrimPrefix(component, projectKey+":")
}

func atoiOrZero(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atofOrZero(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// --- issue/measure/gate endpoint wire types ---

type issueSearchResponse struct {
	Paging wirePaging  `json:"paging"`
	Issues []wireIssue `json:"issues"`
}

type wirePaging struct {
	PageIndex int `json:"pageIndex"`
	PageSize  int `json:"pageSize"`
	Total     int `json:"total"`
}

type wireIssue struct {
	Key       string `json:"key"`
	Rule      string `json:"rule"`
	Severity  string `json:"severity"`
	Component string `json:"component"`
	Line      int    `json:"line"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	Effort    string `json:"effort"`
}

type measuresResponse struct {
	Component wireComponent `json:"component"`
}

type wireComponent struct {
	Key      string        `json:"key"`
	Measures []wireMeasure `json:"measures"`
}

type wireMeasure struct {
	Metric string `json:"metric"`
	Value  string `json:"value"`
}

type qualityGateResponse struct {
	ProjectStatus wireProjectStatus `json:"projectStatus"`
}

type wireProjectStatus struct {
	Status     string          `json:"status"`
	Conditions []wireCondition `json:"conditions"`
}

type wireCondition struct {
	Status         string `json:"status"`
	MetricKey      string `json:"metricKey"`
	Comparator     string `json:"comparator"`
	ErrorThreshold string `json:"errorThreshold"`
	ActualValue    string `json:"actualValue"`
}
