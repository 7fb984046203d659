package config

// Engine defaults.
const (
	DefaultEngineHeight = 16.0
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = LogFormatText
)

// Telemetry defaults.
const (
	DefaultTelemetryEndpoint    = ""
	DefaultTelemetryInsecure    = false
	DefaultTelemetrySampleRatio = 0.0
)

// Render defaults.
const (
	DefaultRenderMaxLines = 200
	DefaultRenderColor    = true
	DefaultRenderTheme    = "light"
)

// Bench defaults.
const (
	DefaultBenchLines     = 100_000
	DefaultBenchOverrides = 1_000
	DefaultBenchOps       = 200_000
	DefaultBenchBatch     = 32
	DefaultBenchSeed      = 1
)

// Server defaults.
const (
	DefaultServerMetricsAddr  = ""
	DefaultServerReadTimeout  = "10s"
	DefaultServerWriteTimeout = "10s"
)

// LSP defaults.
const (
	DefaultLSPDecorator    = DecoratorPrefix
	DefaultLSPHeadingScale = 1.5
	DefaultLSPHeadingMark  = "#"
)
