// Copyright 2026 The Goosereview Authors
// SPDX-License-Identifier: MIT

// Package redact strips sensitive values from strings before they appear in
// output, logs, or content submitted to the AI reviewer.
package redact

import (
	"os"
	"regexp"
	"strings"
	"sync"
)

// sensitiveEnvVars lists environment variable names whose values must never
// appear in output.
var sensitiveEnvVars = []string{
	"SONAR_TOKEN",
	"SONARQUBE_TOKEN",
	"GITHUB_TOKEN",
	"GH_TOKEN",
	"ANTHROPIC_API_KEY",
	"GOOSEREVIEW_TOKEN",
}

// tokenPatterns match well-known credential formats regardless of whether
// the value came from the environment. Diff content can leak credentials
// that were committed by accident, so patterns run on top of env scrubbing.
var tokenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{20,}\b`),         // GitHub tokens
	regexp.MustCompile(`\bsq[up]_[0-9a-f]{40}\b`),                // SonarQube tokens
	regexp.MustCompile(`\bsk-ant-[A-Za-z0-9_-]{20,}\b`),          // Anthropic API keys
	regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),                   // AWS access key ids
	regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/-]{20,}=*`), // bearer headers
}

var (
	cachedSecrets []string
	cacheOnce     sync.Once
)

func loadSecrets() {
	for _, envVar := range sensitiveEnvVars {
		val := os.Getenv(envVar)
		if val != "" && len(val) >= 4 {
			cachedSecrets = append(cachedSecrets, val)
		}
	}
}

// resetCache resets the cached secrets. Used by tests that change env vars
// between calls.
func resetCache() {
	cachedSecrets = nil
	cacheOnce = sync.Once{}
}

// ResetForTest resets the cached secrets so tests in other packages can
// verify redaction behavior after setting env vars with t.Setenv.
func ResetForTest() { resetCache() }

// String replaces any occurrence of a known sensitive environment variable
// value with "[REDACTED]". Returns the original string if no secrets are
// found. Secret values are cached on first call for performance.
func String(s string) string {
	cacheOnce.Do(loadSecrets)
	for _, secret := range cachedSecrets {
		s = strings.ReplaceAll(s, secret, "[REDACTED]")
	}
	return s
}

// Content scrubs env-sourced secrets and credential-shaped tokens from s.
// This is the variant applied to diff content before AI submission.
func Content(s string) string {
	s = String(s)
	for _, pattern := range tokenPatterns {
		s = pattern.ReplaceAllString(s, "[REDACTED]")
	}
	return s
}
