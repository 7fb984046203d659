package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/lineheight/pkg/config"
	"github.com/Sumatoshi-tech/lineheight/pkg/observability"
)

const (
	testDefaultHeight = 22.5
	testMaxLines      = 50
	testBenchOps      = 1234
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "lineheight.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

// TestLoadConfig_Defaults verifies zero-config values.
func TestLoadConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.InDelta(t, config.DefaultEngineHeight, cfg.Engine.DefaultHeight, 0)
	assert.Equal(t, config.DefaultLogLevel, cfg.Logging.Level)
	assert.Equal(t, config.DefaultLogFormat, cfg.Logging.Format)
	assert.Equal(t, config.DefaultRenderMaxLines, cfg.Render.MaxLines)
	assert.Equal(t, config.DefaultBenchOps, cfg.Bench.Ops)
	assert.Equal(t, uint64(config.DefaultBenchSeed), cfg.Bench.Seed)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.InDelta(t, config.DefaultLSPHeadingScale, cfg.LSP.HeadingScale, 0)
	assert.Equal(t, config.DecoratorPrefix, cfg.LSP.Decorator)
	assert.Empty(t, cfg.Telemetry.OTLPEndpoint)
}

// TestLoadConfig_FromFile verifies file values override defaults.
func TestLoadConfig_FromFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
engine:
  default_height: 22.5
logging:
  format: json
  level: debug
render:
  max_lines: 50
  theme: dark
bench:
  ops: 1234
server:
  metrics_addr: ":9464"
  read_timeout: 2m
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.InDelta(t, testDefaultHeight, cfg.Engine.DefaultHeight, 0)
	assert.Equal(t, config.LogFormatJSON, cfg.Logging.Format)
	assert.Equal(t, testMaxLines, cfg.Render.MaxLines)
	assert.Equal(t, "dark", cfg.Render.Theme)
	assert.Equal(t, testBenchOps, cfg.Bench.Ops)
	assert.Equal(t, ":9464", cfg.Server.MetricsAddr)
	assert.Equal(t, 2*time.Minute, cfg.Server.ReadTimeout)
	assert.Equal(t, config.DefaultBenchBatch, cfg.Bench.Batch)
}

// TestLoadConfig_FromEnvironment verifies LINEHEIGHT_* variables win over defaults.
func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("LINEHEIGHT_ENGINE_DEFAULT_HEIGHT", "18")
	t.Setenv("LINEHEIGHT_TELEMETRY_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("LINEHEIGHT_BENCH_SEED", "99")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.InDelta(t, 18.0, cfg.Engine.DefaultHeight, 0)
	assert.Equal(t, "collector:4317", cfg.Telemetry.OTLPEndpoint)
	assert.Equal(t, uint64(99), cfg.Bench.Seed)
}

// TestLoadConfig_Invalid verifies validation and read failures.
func TestLoadConfig_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"zero height", "engine:\n  default_height: 0\n", config.ErrInvalidDefaultHeight},
		{"bad level", "logging:\n  level: loud\n", config.ErrInvalidLogLevel},
		{"bad format", "logging:\n  format: xml\n", config.ErrInvalidLogFormat},
		{"ratio above one", "telemetry:\n  sample_ratio: 1.5\n", config.ErrInvalidSampleRatio},
		{"bad theme", "render:\n  theme: neon\n", config.ErrInvalidTheme},
		{"zero batch", "bench:\n  batch: 0\n", config.ErrInvalidBench},
		{"negative scale", "lsp:\n  heading_scale: -1\n", config.ErrInvalidHeadingScale},
		{"unknown decorator", "lsp:\n  decorator: html\n", config.ErrInvalidDecorator},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfig(writeConfig(t, tc.content))
			require.ErrorIs(t, err, tc.want)
		})
	}
}

// TestLoadConfig_ReadErrors verifies malformed and missing explicit files fail.
func TestLoadConfig_ReadErrors(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(writeConfig(t, "engine: [oops\n"))
	require.Error(t, err)

	_, err = config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

// TestConfig_Observability verifies the telemetry mapping.
func TestConfig_Observability(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, `
logging:
  level: warn
  format: json
telemetry:
  otlp_endpoint: "localhost:4317"
  otlp_headers: "api-key=abc"
  otlp_insecure: true
  environment: staging
  sample_ratio: 0.25
`))
	require.NoError(t, err)

	oc := cfg.Observability(observability.ModeMCP, "1.0.0")

	assert.Equal(t, observability.ModeMCP, oc.Mode)
	assert.Equal(t, "1.0.0", oc.ServiceVersion)
	assert.Equal(t, "localhost:4317", oc.OTLPEndpoint)
	assert.Equal(t, map[string]string{"api-key": "abc"}, oc.OTLPHeaders)
	assert.True(t, oc.OTLPInsecure)
	assert.True(t, oc.LogJSON)
	assert.Equal(t, slog.LevelWarn, oc.LogLevel)
	assert.Equal(t, "staging", oc.Environment)
	assert.InDelta(t, 0.25, oc.SampleRatio, 0)
}
