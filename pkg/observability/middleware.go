package observability

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// statusRecorder captures the response status code.
type statusRecorder struct {
	http.ResponseWriter

	code int
}

// WriteHeader records code before delegating.
func (sr *statusRecorder) WriteHeader(code int) {
	if sr.code == 0 {
		sr.code = code
	}

	sr.ResponseWriter.WriteHeader(code)
}

// Write records an implicit 200 before delegating.
func (sr *statusRecorder) Write(buf []byte) (int, error) {
	if sr.code == 0 {
		sr.code = http.StatusOK
	}

	return sr.ResponseWriter.Write(buf) //nolint:wrapcheck // transparent writer.
}

// HTTPMiddleware wraps next with a server span per request and, when red is
// non-nil, RED metrics keyed by "METHOD /path".
func HTTPMiddleware(tracer trace.Tracer, red *REDMetrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		op := hr.Method + " " + hr.URL.Path
		start := time.Now()

		ctx := otel.GetTextMapPropagator().Extract(hr.Context(), propagation.HeaderCarrier(hr.Header))

		ctx, span := tracer.Start(ctx, op,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(hr.Method),
				semconv.URLPath(hr.URL.Path),
			),
		)
		defer span.End()

		if red != nil {
			defer red.TrackInflight(ctx, op)()
		}

		sr := &statusRecorder{ResponseWriter: rw}
		next.ServeHTTP(sr, hr.WithContext(ctx))

		if sr.code == 0 {
			sr.code = http.StatusOK
		}

		span.SetAttributes(semconv.HTTPResponseStatusCode(sr.code))

		status := StatusOK
		if sr.code >= http.StatusInternalServerError {
			status = StatusError

			span.SetStatus(codes.Error, http.StatusText(sr.code))
		}

		if red != nil {
			red.RecordRequest(ctx, op, status, time.Since(start))
		}
	})
}
