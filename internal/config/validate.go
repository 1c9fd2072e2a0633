package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/output"
)

// Validate checks all fields in the config and returns all errors at once.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Server.URL != "" {
		if u, err := url.Parse(cfg.Server.URL); err != nil {
			errs = append(errs, fmt.Sprintf("server.url: %v", err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, fmt.Sprintf("server.url: must be an http or https URL, got %q", cfg.Server.URL))
		}

		if cfg.Project.Key == "" {
			errs = append(errs, "project.key: required when server.url is set")
		}
	}

	for _, field := range []struct {
		key   string
		value string
	}{
		{"server.probe_timeout", cfg.Server.ProbeTimeout},
		{"server.poll_timeout", cfg.Server.PollTimeout},
	} {
		if field.value == "" {
			continue
		}
		if d, err := time.ParseDuration(field.value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: invalid duration %q", field.key, field.value))
		} else if d <= 0 {
			errs = append(errs, fmt.Sprintf("%s: must be positive, got %s", field.key, d))
		}
	}

	if cfg.AI.TokenBudget < 0 {
		errs = append(errs, fmt.Sprintf("ai.token_budget: must be positive, got %d", cfg.AI.TokenBudget))
	}
	if cfg.AI.MaxTokens < 0 {
		errs = append(errs, fmt.Sprintf("ai.max_tokens: must be non-negative, got %d", cfg.AI.MaxTokens))
	}
	if cfg.AI.Parallelism < 0 {
		errs = append(errs, fmt.Sprintf("ai.parallelism: must be non-negative, got %d", cfg.AI.Parallelism))
	}
	if cfg.AI.SafetyMargin < 0 || cfg.AI.SafetyMargin > 1 {
		errs = append(errs, fmt.Sprintf("ai.safety_margin: must be between 0.0 and 1.0, got %g", cfg.AI.SafetyMargin))
	}

	if cfg.Cache.TTL != "" {
		if d, err := time.ParseDuration(cfg.Cache.TTL); err != nil {
			errs = append(errs, fmt.Sprintf("cache.ttl: invalid duration %q", cfg.Cache.TTL))
		} else if d < 0 {
			errs = append(errs, fmt.Sprintf("cache.ttl: must be non-negative, got %s", d))
		}
	}

	if cfg.Output.Format != "" {
		if _, err := output.GetFormatter(cfg.Output.Format); err != nil {
			errs = append(errs, fmt.Sprintf("output.format: %v", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
