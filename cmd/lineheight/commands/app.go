// Package commands implements CLI command handlers for lineheight.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fatih/color"

	"github.com/Sumatoshi-tech/lineheight/pkg/config"
	"github.com/Sumatoshi-tech/lineheight/pkg/observability"
	"github.com/Sumatoshi-tech/lineheight/pkg/version"
)

const (
	levelVerbose = "debug"
	levelQuiet   = "error"
)

// App carries the global flags and the configuration they select.
type App struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool

	cfg *config.Config
}

// Config loads the configuration once. --verbose and --quiet override the
// configured log level, and a disabled render.color turns colors off.
func (a *App) Config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}

	cfg, err := config.LoadConfig(a.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	switch {
	case a.Verbose:
		cfg.Logging.Level = levelVerbose
	case a.Quiet:
		cfg.Logging.Level = levelQuiet
	}

	if !cfg.Render.Color {
		color.NoColor = true
	}

	a.cfg = cfg

	return cfg, nil
}

// session is the configuration and telemetry of one command run.
type session struct {
	cfg       *config.Config
	providers observability.Providers
}

// start loads the configuration and initializes telemetry for mode.
func (a *App) start(mode observability.AppMode) (*session, error) {
	cfg, err := a.Config()
	if err != nil {
		return nil, err
	}

	providers, err := observability.Init(cfg.Observability(mode, version.Version))
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	return &session{cfg: cfg, providers: providers}, nil
}

func (s *session) logger() *slog.Logger {
	return s.providers.Logger
}

// close flushes telemetry, bounded by the configured shutdown timeout.
func (s *session) close() {
	timeout := time.Duration(observability.DefaultConfig().ShutdownTimeoutSec) * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.providers.Shutdown(ctx); err != nil {
		s.providers.Logger.Warn("observability shutdown failed", "error", err)
	}
}
