// Copyright 2026 The Goosereview Authors
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// SonarPropsFile is the scanner's own project configuration file. When
// present, it supplies project key and server URL defaults.
const SonarPropsFile = "sonar-project.properties"

// SonarProps holds the subset of sonar-project.properties goosereview uses.
type SonarProps struct {
	ProjectKey string
	HostURL    string
	Sources    string
}

// LoadSonarProps reads sonar-project.properties from the repository root.
// A missing file returns (nil, nil); the caller treats that as "no defaults".
func LoadSonarProps(repoPath string) (*SonarProps, error) {
	data, err := os.ReadFile(filepath.Join(repoPath, SonarPropsFile)) //nolint:gosec // user-provided repo path
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return ParseSonarProps(string(data)), nil
}

// ParseSonarProps parses the line-based key=value properties format.
// Blank lines and lines starting with # are skipped.
func ParseSonarProps(data string) *SonarProps {
	props := &SonarProps{}
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "sonar.projectKey":
			props.ProjectKey = value
		case "sonar.host.url":
			props.HostURL = value
		case "sonar.sources":
			props.Sources = value
		}
	}
	return props
}

// ApplySonarProps fills empty server/project fields from scanner properties.
// Explicit config values always win.
func ApplySonarProps(cfg *Config, props *SonarProps) {
	if props == nil {
		return
	}
	if cfg.Project.Key == "" {
		cfg.Project.Key = props.ProjectKey
	}
	if cfg.Server.URL == "" {
		cfg.Server.URL = props.HostURL
	}
}
