// Package config loads lineheight settings from defaults, an optional YAML
// file and LINEHEIGHT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Sumatoshi-tech/lineheight/pkg/observability"
)

// Log output formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// LSP decorator names.
const (
	DecoratorPrefix   = "prefix"
	DecoratorMarkdown = "markdown"
)

// Sentinel validation errors.
var (
	ErrInvalidDefaultHeight = errors.New("engine default height must be positive")
	ErrInvalidLogLevel      = errors.New("invalid log level")
	ErrInvalidLogFormat     = errors.New("invalid log format")
	ErrInvalidSampleRatio   = errors.New("sample ratio must be within [0, 1]")
	ErrInvalidTheme         = errors.New("invalid render theme")
	ErrInvalidBench         = errors.New("bench sizes must be positive")
	ErrInvalidHeadingScale  = errors.New("lsp heading scale must be positive")
	ErrInvalidDecorator     = errors.New("invalid lsp decorator")
)

// Config holds all lineheight configuration.
type Config struct {
	Engine    EngineConfig    `mapstructure:"engine"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Render    RenderConfig    `mapstructure:"render"`
	Bench     BenchConfig     `mapstructure:"bench"`
	Server    ServerConfig    `mapstructure:"server"`
	LSP       LSPConfig       `mapstructure:"lsp"`
}

// EngineConfig configures new trackers.
type EngineConfig struct {
	DefaultHeight float64 `mapstructure:"default_height"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig configures OTLP export.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	Environment  string  `mapstructure:"environment"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	DebugTrace   bool    `mapstructure:"debug_trace"`
}

// RenderConfig configures terminal tables and charts.
type RenderConfig struct {
	Theme    string `mapstructure:"theme"`
	MaxLines int    `mapstructure:"max_lines"`
	Color    bool   `mapstructure:"color"`
}

// BenchConfig sizes the synthetic workload.
type BenchConfig struct {
	Lines     int    `mapstructure:"lines"`
	Overrides int    `mapstructure:"overrides"`
	Ops       int    `mapstructure:"ops"`
	Batch     int    `mapstructure:"batch"`
	Seed      uint64 `mapstructure:"seed"`
}

// ServerConfig configures the optional metrics endpoint.
type ServerConfig struct {
	MetricsAddr  string        `mapstructure:"metrics_addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LSPConfig configures the language server's built-in decorator.
type LSPConfig struct {
	Decorator    string  `mapstructure:"decorator"`
	HeadingMark  string  `mapstructure:"heading_mark"`
	HeadingScale float64 `mapstructure:"heading_scale"`
}

// Validate checks the configuration for values no component accepts.
func (c *Config) Validate() error {
	if c.Engine.DefaultHeight <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidDefaultHeight, c.Engine.DefaultHeight)
	}

	if _, err := c.LogLevel(); err != nil {
		return err
	}

	if c.Logging.Format != LogFormatText && c.Logging.Format != LogFormatJSON {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, c.Telemetry.SampleRatio)
	}

	if c.Render.Theme != "light" && c.Render.Theme != "dark" {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, c.Render.Theme)
	}

	if c.Bench.Lines <= 0 || c.Bench.Overrides < 0 || c.Bench.Ops <= 0 || c.Bench.Batch <= 0 {
		return fmt.Errorf("%w: lines=%d overrides=%d ops=%d batch=%d",
			ErrInvalidBench, c.Bench.Lines, c.Bench.Overrides, c.Bench.Ops, c.Bench.Batch)
	}

	if c.LSP.HeadingScale <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidHeadingScale, c.LSP.HeadingScale)
	}

	if c.LSP.Decorator != DecoratorPrefix && c.LSP.Decorator != DecoratorMarkdown {
		return fmt.Errorf("%w: %q", ErrInvalidDecorator, c.LSP.Decorator)
	}

	return nil
}

// LogLevel parses the configured level name.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(c.Logging.Level))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	return level, nil
}

// Observability maps the logging and telemetry sections onto an
// observability.Config for the given mode.
func (c *Config) Observability(mode observability.AppMode, version string) observability.Config {
	oc := observability.DefaultConfig()
	oc.Mode = mode
	oc.ServiceVersion = version
	oc.Environment = c.Telemetry.Environment
	oc.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	oc.OTLPHeaders = observability.ParseOTLPHeaders(c.Telemetry.OTLPHeaders)
	oc.OTLPInsecure = c.Telemetry.OTLPInsecure
	oc.DebugTrace = c.Telemetry.DebugTrace
	oc.SampleRatio = c.Telemetry.SampleRatio
	oc.LogJSON = c.Logging.Format == LogFormatJSON

	if level, err := c.LogLevel(); err == nil {
		oc.LogLevel = level
	}

	return oc
}
