package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Run("zero config is valid", func(t *testing.T) {
		assert.NoError(t, Validate(&Config{}))
	})

	t.Run("complete config is valid", func(t *testing.T) {
		cfg := &Config{
			Server: ServerConfig{
				URL:          "https://sonar.example.com",
				ProbeTimeout: "5s",
				PollTimeout:  "5m",
			},
			Project: ProjectConfig{Key: "my-service"},
			AI:      AIConfig{TokenBudget: 30000, SafetyMargin: 0.9},
			Cache:   CacheConfig{TTL: "5m"},
			Output:  OutputConfig{Format: "json"},
		}
		assert.NoError(t, Validate(cfg))
	})

	t.Run("malformed server URL", func(t *testing.T) {
		err := Validate(&Config{
			Server:  ServerConfig{URL: "ftp://sonar.example.com"},
			Project: ProjectConfig{Key: "k"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "server.url")
	})

	t.Run("server URL without project key", func(t *testing.T) {
		err := Validate(&Config{Server: ServerConfig{URL: "http://localhost:9000"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "project.key: required")
	})

	t.Run("negative batch limits", func(t *testing.T) {
		err := Validate(&Config{AI: AIConfig{TokenBudget: -1, MaxTokens: -2, Parallelism: -3}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ai.token_budget")
		assert.Contains(t, err.Error(), "ai.max_tokens")
		assert.Contains(t, err.Error(), "ai.parallelism")
	})

	t.Run("safety margin out of range", func(t *testing.T) {
		err := Validate(&Config{AI: AIConfig{SafetyMargin: 1.5}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ai.safety_margin")
	})

	t.Run("negative cache TTL", func(t *testing.T) {
		err := Validate(&Config{Cache: CacheConfig{TTL: "-1m"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cache.ttl")
	})

	t.Run("malformed durations", func(t *testing.T) {
		err := Validate(&Config{
			Server: ServerConfig{ProbeTimeout: "soon", PollTimeout: "later"},
			Cache:  CacheConfig{TTL: "whenever"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "server.probe_timeout")
		assert.Contains(t, err.Error(), "server.poll_timeout")
		assert.Contains(t, err.Error(), "cache.ttl")
	})

	t.Run("unknown output format", func(t *testing.T) {
		err := Validate(&Config{Output: OutputConfig{Format: "pdf"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "output.format")
	})

	t.Run("all errors collected at once", func(t *testing.T) {
		err := Validate(&Config{
			Server: ServerConfig{URL: "ftp://x"},
			AI:     AIConfig{TokenBudget: -1},
			Output: OutputConfig{Format: "pdf"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "server.url")
		assert.Contains(t, err.Error(), "project.key")
		assert.Contains(t, err.Error(), "ai.token_budget")
		assert.Contains(t, err.Error(), "output.format")
	})
}
