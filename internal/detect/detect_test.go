package detect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/sonarqube"
)

// fakeProber is a canned ServerProber recording how often it was probed.
type fakeProber struct {
	probe  sonarqube.ConnectionProbe
	probes int
}

func (f *fakeProber) Probe(context.Context) sonarqube.ConnectionProbe {
	f.probes++
	return f.probe
}

func (f *fakeProber) BaseURL() string { return "http://localhost:9000" }

func upProber(version string) *fakeProber {
	return &fakeProber{probe: sonarqube.ConnectionProbe{Success: true, Version: version}}
}

func downProber(errText string) *fakeProber {
	return &fakeProber{probe: sonarqube.ConnectionProbe{Err: errText}}
}

func TestDetectMode_Hybrid(t *testing.T) {
	d := New(upProber("10.4.1"), true)

	result, err := d.DetectMode(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ModeHybrid, result.Mode)
	assert.True(t, result.SonarQubeAvailable)
	assert.True(t, result.AIAvailable)
	assert.Equal(t, "10.4.1", result.SonarQubeVersion)
}

func TestDetectMode_SonarQubeOnly(t *testing.T) {
	d := New(upProber("10.4.1"), false)

	result, err := d.DetectMode(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ModeSonarQubeOnly, result.Mode)
	assert.False(t, result.AIAvailable)
}

func TestDetectMode_FallbackToAIOnly(t *testing.T) {
	d := New(downProber("connection refused on port 9000"), true)

	result, err := d.DetectMode(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ModeAIOnly, result.Mode)
	assert.False(t, result.SonarQubeAvailable)

	joined := ""
	for _, m := range result.Messages {
		joined += m + "\n"
	}
	assert.Contains(t, joined, "unavailable")
	assert.Contains(t, joined, "Falling back")
	// The probe's error text is embedded verbatim for diagnostics.
	assert.Contains(t, joined, "connection refused on port 9000")
}

func TestDetectMode_NoServerConfigured(t *testing.T) {
	d := New(nil, true)

	result, err := d.DetectMode(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ModeAIOnly, result.Mode)
	require.NotEmpty(t, result.Messages)
	assert.Contains(t, result.Messages[0], "not configured")
}

func TestDetectMode_NoProvider(t *testing.T) {
	tests := []struct {
		name   string
		server ServerProber
	}{
		{"no server configured", nil},
		{"server down", downProber("dial tcp: refused")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(tt.server, false)

			_, err := d.DetectMode(context.Background())
			require.ErrorIs(t, err, ErrNoProviderAvailable)
			assert.Contains(t, err.Error(), "No analysis provider available")

			// Nothing is cached on failure.
			_, ok := d.DetectionResult()
			assert.False(t, ok)
		})
	}
}

func TestDetector_Caching(t *testing.T) {
	prober := upProber("10.4.1")
	d := New(prober, true)

	t.Run("undetected before first call", func(t *testing.T) {
		_, ok := d.DetectionResult()
		assert.False(t, ok)
		mode, ok := d.Mode()
		assert.False(t, ok)
		assert.Equal(t, ModeDisabled, mode)
	})

	t.Run("successful detection is cached", func(t *testing.T) {
		first, err := d.DetectMode(context.Background())
		require.NoError(t, err)

		cached, ok := d.DetectionResult()
		require.True(t, ok)
		assert.Equal(t, first, cached)

		mode, ok := d.Mode()
		require.True(t, ok)
		assert.Equal(t, ModeHybrid, mode)
	})

	t.Run("re-detection always re-probes", func(t *testing.T) {
		before := prober.probes
		_, err := d.DetectMode(context.Background())
		require.NoError(t, err)
		assert.Equal(t, before+1, prober.probes)
	})

	t.Run("re-detection overwrites the cache", func(t *testing.T) {
		prober.probe = sonarqube.ConnectionProbe{Err: "server rebooting"}
		result, err := d.DetectMode(context.Background())
		require.NoError(t, err)
		assert.Equal(t, ModeAIOnly, result.Mode)

		mode, ok := d.Mode()
		require.True(t, ok)
		assert.Equal(t, ModeAIOnly, mode)
	})
}

func TestVersionWarning(t *testing.T) {
	tests := []struct {
		version  string
		wantWarn bool
	}{
		{"10.4.1", false},
		{"9.9", false},
		{"9.9.0.65466", false},
		{"8.9.10.61524", true},
		{"7.2", true},
		{"", false},
		{"not-a-version", false},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			msg := versionWarning(tt.version)
			if tt.wantWarn {
				assert.Contains(t, msg, "older than")
			} else {
				assert.Empty(t, msg)
			}
		})
	}
}

func TestDetectMode_OldServerVersionMessage(t *testing.T) {
	d := New(upProber("8.9.10"), true)

	result, err := d.DetectMode(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Messages, 2)
	assert.Contains(t, result.Messages[1], "minimum supported")
}
