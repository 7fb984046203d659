package observability_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/lineheight/pkg/observability"
)

var errNotReady = errors.New("not ready")

// TestHealthHandler verifies the liveness probe.
func TestHealthHandler(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	observability.HealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

// TestReadyHandler verifies readiness follows the checks.
func TestReadyHandler(t *testing.T) {
	t.Parallel()

	pass := func(context.Context) error { return nil }
	fail := func(context.Context) error { return errNotReady }

	tests := []struct {
		name   string
		checks []observability.ReadyCheck
		code   int
	}{
		{"no checks", nil, http.StatusOK},
		{"all pass", []observability.ReadyCheck{pass, pass}, http.StatusOK},
		{"one fails", []observability.ReadyCheck{pass, fail}, http.StatusServiceUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			observability.ReadyHandler(tc.checks...).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))

			assert.Equal(t, tc.code, rec.Code)
		})
	}
}
