// Package config handles .goosereview.yaml configuration files, the global
// XDG config, and sonar-project.properties defaults.
package config

import "time"

// File names probed in a repository root, in order of preference.
const (
	FileName     = ".goosereview.yaml"
	TOMLFileName = ".goosereview.toml"
)

// Default tunables applied when the config file leaves them unset.
const (
	DefaultTokenBudget  = 30000
	DefaultSafetyMargin = 0.9
	DefaultParallelism  = 3
	DefaultCacheTTL     = 5 * time.Minute
)

// Config represents the contents of a .goosereview.yaml (or .toml) file.
type Config struct {
	Server  ServerConfig  `yaml:"server,omitempty" toml:"server,omitempty"`
	Project ProjectConfig `yaml:"project,omitempty" toml:"project,omitempty"`
	AI      AIConfig      `yaml:"ai,omitempty" toml:"ai,omitempty"`
	Cache   CacheConfig   `yaml:"cache,omitempty" toml:"cache,omitempty"`
	Output  OutputConfig  `yaml:"output,omitempty" toml:"output,omitempty"`
}

// ServerConfig holds the SonarQube server connection settings.
type ServerConfig struct {
	URL          string `yaml:"url,omitempty" toml:"url,omitempty"`
	Token        string `yaml:"token,omitempty" toml:"token,omitempty"`
	ProbeTimeout string `yaml:"probe_timeout,omitempty" toml:"probe_timeout,omitempty"`
	PollTimeout  string `yaml:"poll_timeout,omitempty" toml:"poll_timeout,omitempty"`
}

// ProjectConfig identifies the analyzed project and its file filters.
type ProjectConfig struct {
	Key     string   `yaml:"key,omitempty" toml:"key,omitempty"`
	Include []string `yaml:"include,omitempty" toml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty" toml:"exclude,omitempty"`
}

// AIConfig tunes the AI reviewer and its batching.
type AIConfig struct {
	Model        string  `yaml:"model,omitempty" toml:"model,omitempty"`
	MaxTokens    int     `yaml:"max_tokens,omitempty" toml:"max_tokens,omitempty"`
	Parallelism  int     `yaml:"parallelism,omitempty" toml:"parallelism,omitempty"`
	TokenBudget  int     `yaml:"token_budget,omitempty" toml:"token_budget,omitempty"`
	SafetyMargin float64 `yaml:"safety_margin,omitempty" toml:"safety_margin,omitempty"`
}

// CacheConfig controls detection-result caching.
type CacheConfig struct {
	TTL string `yaml:"ttl,omitempty" toml:"ttl,omitempty"`
}

// OutputConfig selects the default report rendering.
type OutputConfig struct {
	Format  string `yaml:"format,omitempty" toml:"format,omitempty"`
	NoColor bool   `yaml:"no_color,omitempty" toml:"no_color,omitempty"`
}

// TokenBudget returns the configured token budget or the default.
func (c *Config) TokenBudget() int {
	if c.AI.TokenBudget > 0 {
		return c.AI.TokenBudget
	}
	return DefaultTokenBudget
}

// SafetyMargin returns the configured safety margin or the default.
func (c *Config) SafetyMargin() float64 {
	if c.AI.SafetyMargin > 0 {
		return c.AI.SafetyMargin
	}
	return DefaultSafetyMargin
}

// Parallelism returns the configured AI parallelism or the default.
func (c *Config) Parallelism() int {
	if c.AI.Parallelism > 0 {
		return c.AI.Parallelism
	}
	return DefaultParallelism
}

// CacheTTL returns the parsed cache TTL or the default. Malformed values are
// reported by Validate; here they fall back to the default.
func (c *Config) CacheTTL() time.Duration {
	if d, err := time.ParseDuration(c.Cache.TTL); err == nil && d >= 0 {
		return d
	}
	return DefaultCacheTTL
}

// Timeout parses one of the duration-string fields, returning def when the
// field is empty or malformed.
func Timeout(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
