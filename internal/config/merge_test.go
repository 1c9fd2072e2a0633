package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge(t *testing.T) {
	global := &Config{
		Server: ServerConfig{
			URL:         "https://sonar.corp.example.com",
			Token:       "global-token",
			PollTimeout: "10m",
		},
		AI:     AIConfig{Model: "claude-sonnet-4-5-20250929", TokenBudget: 20000},
		Cache:  CacheConfig{TTL: "10m"},
		Output: OutputConfig{Format: "text", NoColor: true},
	}

	t.Run("project values win", func(t *testing.T) {
		project := &Config{
			Server:  ServerConfig{URL: "http://localhost:9000", Token: "project-token"},
			Project: ProjectConfig{Key: "my-service"},
			AI:      AIConfig{TokenBudget: 40000},
			Output:  OutputConfig{Format: "markdown"},
		}

		merged := Merge(global, project)
		assert.Equal(t, "http://localhost:9000", merged.Server.URL)
		assert.Equal(t, "project-token", merged.Server.Token)
		assert.Equal(t, "my-service", merged.Project.Key)
		assert.Equal(t, 40000, merged.AI.TokenBudget)
		assert.Equal(t, "markdown", merged.Output.Format)
	})

	t.Run("unset project fields fall through", func(t *testing.T) {
		project := &Config{Project: ProjectConfig{Key: "my-service"}}

		merged := Merge(global, project)
		assert.Equal(t, "https://sonar.corp.example.com", merged.Server.URL)
		assert.Equal(t, "global-token", merged.Server.Token)
		assert.Equal(t, "10m", merged.Server.PollTimeout)
		assert.Equal(t, "claude-sonnet-4-5-20250929", merged.AI.Model)
		assert.Equal(t, 20000, merged.AI.TokenBudget)
		assert.Equal(t, "10m", merged.Cache.TTL)
		assert.Equal(t, "text", merged.Output.Format)
		assert.True(t, merged.Output.NoColor)
	})

	t.Run("empty both", func(t *testing.T) {
		merged := Merge(&Config{}, &Config{})
		assert.Equal(t, &Config{}, merged)
	})

	t.Run("inputs are not mutated", func(t *testing.T) {
		project := &Config{}
		_ = Merge(global, project)
		assert.Equal(t, &Config{}, project)
	})
}
