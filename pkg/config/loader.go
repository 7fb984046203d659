package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	configName      = "lineheight"
	configType      = "yaml"
	envPrefix       = "LINEHEIGHT"
	envKeySeparator = "_"
)

// LoadConfig merges defaults, the config file and environment variables.
// An explicit configPath must exist; otherwise lineheight.yaml is searched in
// ".", "./config" and "/etc/lineheight", and a missing file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/lineheight")
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("engine.default_height", DefaultEngineHeight)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("telemetry.otlp_endpoint", DefaultTelemetryEndpoint)
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", DefaultTelemetryInsecure)
	viperCfg.SetDefault("telemetry.environment", "")
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultTelemetrySampleRatio)
	viperCfg.SetDefault("telemetry.debug_trace", false)

	viperCfg.SetDefault("render.max_lines", DefaultRenderMaxLines)
	viperCfg.SetDefault("render.color", DefaultRenderColor)
	viperCfg.SetDefault("render.theme", DefaultRenderTheme)

	viperCfg.SetDefault("bench.lines", DefaultBenchLines)
	viperCfg.SetDefault("bench.overrides", DefaultBenchOverrides)
	viperCfg.SetDefault("bench.ops", DefaultBenchOps)
	viperCfg.SetDefault("bench.batch", DefaultBenchBatch)
	viperCfg.SetDefault("bench.seed", DefaultBenchSeed)

	viperCfg.SetDefault("server.metrics_addr", DefaultServerMetricsAddr)
	viperCfg.SetDefault("server.read_timeout", DefaultServerReadTimeout)
	viperCfg.SetDefault("server.write_timeout", DefaultServerWriteTimeout)

	viperCfg.SetDefault("lsp.decorator", DefaultLSPDecorator)
	viperCfg.SetDefault("lsp.heading_mark", DefaultLSPHeadingMark)
	viperCfg.SetDefault("lsp.heading_scale", DefaultLSPHeadingScale)
}
