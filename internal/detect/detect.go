// Copyright 2026 The Goosereview Authors
// SPDX-License-Identifier: MIT

// Package detect resolves which analysis providers are usable for a review
// session: the SonarQube server, the AI reviewer, both, or neither.
package detect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/sonarqube"
)

// AnalysisMode is the resolved combination of usable analyzers for a session.
type AnalysisMode string

// Analysis modes.
const (
	ModeHybrid        AnalysisMode = "HYBRID"
	ModeSonarQubeOnly AnalysisMode = "SONARQUBE_ONLY"
	ModeAIOnly        AnalysisMode = "AI_ONLY"
	ModeDisabled      AnalysisMode = "DISABLED"
)

// MinServerVersion is the oldest SonarQube version goosereview is tested
// against. Older servers still work; detection records a warning message.
const MinServerVersion = "9.9"

// ErrNoProviderAvailable is returned by DetectMode when neither the server
// nor an AI provider is usable.
var ErrNoProviderAvailable = errors.New(
	"detect: No analysis provider available: configure a SonarQube server connection or an AI provider")

// ServerProber is the subset of the analysis client the detector needs.
type ServerProber interface {
	Probe(ctx context.Context) sonarqube.ConnectionProbe
	BaseURL() string
}

// DetectionResult describes one resolved mode. Messages accumulate in call
// order and are safe to show to users verbatim. A result is immutable once
// produced.
type DetectionResult struct {
	Mode               AnalysisMode `json:"mode"`
	SonarQubeAvailable bool         `json:"sonarqube_available"`
	AIAvailable        bool         `json:"ai_available"`
	SonarQubeVersion   string       `json:"sonarqube_version,omitempty"`
	Messages           []string     `json:"messages"`
}

// Detector resolves and caches the operating mode for one review session.
// The cache is written only by DetectMode as a whole-value replacement;
// a detector instance is owned by one logical session.
type Detector struct {
	server       ServerProber // nil when no server is configured
	aiConfigured bool
	cached       *DetectionResult
}

// New creates a Detector over an optional server client (nil means no server
// configured) and the injected "AI provider configured" flag.
func New(server ServerProber, aiConfigured bool) *Detector {
	return &Detector{server: server, aiConfigured: aiConfigured}
}

// DetectMode probes the configured providers and resolves the session mode.
// A successful resolution is cached; re-invoking always re-probes and
// overwrites the cache. When neither provider is usable it returns
// ErrNoProviderAvailable and leaves the cache untouched.
func (d *Detector) DetectMode(ctx context.Context) (DetectionResult, error) {
	result := DetectionResult{AIAvailable: d.aiConfigured}
	var probeErr string

	if d.server != nil {
		probe := d.server.Probe(ctx)
		result.SonarQubeAvailable = probe.Success
		result.SonarQubeVersion = probe.Version
		probeErr = probe.Err

		if probe.Success {
			result.Messages = append(result.Messages,
				fmt.Sprintf("SonarQube server available at %s (version %s)", d.server.BaseURL(), probe.Version))
			if msg := versionWarning(probe.Version); msg != "" {
				result.Messages = append(result.Messages, msg)
			}
		}
	} else {
		result.Messages = append(result.Messages, "SonarQube server not configured")
	}

	switch {
	case result.SonarQubeAvailable && d.aiConfigured:
		result.Mode = ModeHybrid
	case result.SonarQubeAvailable:
		result.Mode = ModeSonarQubeOnly
	case d.aiConfigured:
		result.Mode = ModeAIOnly
		if d.server != nil {
			result.Messages = append(result.Messages,
				fmt.Sprintf("SonarQube server unavailable: %s", probeErr),
				"Falling back to AI-only analysis")
		}
	default:
		return DetectionResult{}, ErrNoProviderAvailable
	}

	slog.Debug("detect: mode resolved",
		"mode", result.Mode,
		"sonarqube", result.SonarQubeAvailable,
		"ai", d.aiConfigured)

	d.cached = &result
	return result, nil
}

// DetectionResult returns the cached result of the last successful
// DetectMode call. The second return is false before the first success.
func (d *Detector) DetectionResult() (DetectionResult, bool) {
	if d.cached == nil {
		return DetectionResult{}, false
	}
	return *d.cached, true
}

// Mode returns the cached mode, or ModeDisabled with false before the first
// successful detection.
func (d *Detector) Mode() (AnalysisMode, bool) {
	if d.cached == nil {
		return ModeDisabled, false
	}
	return d.cached.Mode, true
}

// versionWarning returns a message when the probed server version is older
// than MinServerVersion. Unparseable versions produce no warning.
func versionWarning(version string) string {
	if version == "" {
		return ""
	}
	// Server versions carry a build component ("9.9.0.65466"); semver only
	// understands the first three.
	parts := strings.SplitN(version, ".", 4)
	if len(parts) > 3 {
		parts = parts[:3]
	}
	probed := "v" + strings.Join(parts, ".")
	minimum := "v" + MinServerVersion
	if !semver.IsValid(probed) || !semver.IsValid(minimum) {
		return ""
	}
	if semver.Compare(probed, minimum) < 0 {
		return fmt.Sprintf("SonarQube server version %s is older than the minimum supported %s; results may be incomplete",
			version, MinServerVersion)
	}
	return ""
}
