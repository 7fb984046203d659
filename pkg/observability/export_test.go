package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/sdk/resource"
)

// NewLoggerTo exposes newLoggerTo for testing.
func NewLoggerTo(w io.Writer, cfg Config) *slog.Logger {
	return newLoggerTo(w, cfg)
}

// ProbeBuildResource exposes buildResource for testing.
func ProbeBuildResource(cfg Config) (*resource.Resource, error) {
	return buildResource(context.Background(), cfg)
}
