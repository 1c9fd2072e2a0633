package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageSimilarity(t *testing.T) {
	t.Run("identical messages score one", func(t *testing.T) {
		assert.Equal(t, 1.0, MessageSimilarity("Remove this unused variable", "Remove this unused variable"))
	})

	t.Run("case and punctuation are ignored", func(t *testing.T) {
		assert.Equal(t, 1.0, MessageSimilarity("Remove this unused variable.", "remove this unused variable"))
	})

	t.Run("rule id prefixes are stripped", func(t *testing.T) {
		assert.Equal(t, 1.0, MessageSimilarity("go:S1481: Remove this unused variable", "Remove this unused variable"))
	})

	t.Run("rephrased messages score high", func(t *testing.T) {
		score := MessageSimilarity(
			"Remove this unused local variable",
			"Remove this unused local variable x",
		)
		assert.Greater(t, score, 0.75)
	})

	t.Run("unrelated messages score low", func(t *testing.T) {
		score := MessageSimilarity(
			"Hard-coded credential detected",
			"Cognitive complexity too high",
		)
		assert.Less(t, score, 0.75)
	})

	t.Run("empty inputs score zero", func(t *testing.T) {
		assert.Zero(t, MessageSimilarity("", "something"))
		assert.Zero(t, MessageSimilarity("something", ""))
		assert.Zero(t, MessageSimilarity("", ""))
	})
}

func TestNormalizeMessage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Remove this unused variable.", "remove this unused variable"},
		{"go:S1481: Remove it", "remove it"},
		{"S2068 - Hard-coded credential", "hardcoded credential"},
		{"  spaced   out  ", "spaced out"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeMessage(tt.in))
		})
	}
}
