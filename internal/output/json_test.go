package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormatter(t *testing.T) {
	result := sampleResult()

	f := NewJSONFormatter()
	f.Version = "1.2.3"
	f.nowFunc = func() time.Time {
		return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	}

	var buf bytes.Buffer
	require.NoError(t, f.Format(result, &buf))

	var envelope JSONEnvelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &envelope))

	assert.Equal(t, "goosereview", envelope.Metadata.Tool)
	assert.Equal(t, "1.2.3", envelope.Metadata.Version)
	assert.Equal(t, result.RunID, envelope.Metadata.RunID)
	assert.Equal(t, "2026-03-14T09:26:53Z", envelope.Metadata.GeneratedAt)

	require.NotNil(t, envelope.Result)
	assert.Equal(t, 3, envelope.Result.UniqueIssues)
	assert.Len(t, envelope.Result.Issues, 3)

	// Pretty by default, newline-terminated.
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
	assert.Contains(t, buf.String(), "\n  ")
}

func TestJSONFormatterCompact(t *testing.T) {
	f := NewJSONFormatter()
	f.Compact = true

	var buf bytes.Buffer
	require.NoError(t, f.Format(sampleResult(), &buf))

	// Single line plus trailing newline.
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
	assert.NotContains(t, strings.TrimSuffix(buf.String(), "\n"), "\n")
}
