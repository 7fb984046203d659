package observability_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/lineheight/pkg/lineheight"
	"github.com/Sumatoshi-tech/lineheight/pkg/observability"
)

func gaugeInt64(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()
	require.NotNil(t, m)

	g, ok := m.Data.(metricdata.Gauge[int64])
	require.True(t, ok, "%s is not an int64 gauge", m.Name)
	require.Len(t, g.DataPoints, 1)

	return g.DataPoints[0].Value
}

// TestEngineMetrics_ObservesTracker verifies commits, ops and rebuilds are counted.
func TestEngineMetrics_ObservesTracker(t *testing.T) {
	t.Parallel()

	reader, mp := newTestReader()

	em, err := observability.NewEngineMetrics(mp.Meter("test"))
	require.NoError(t, err)

	tr := lineheight.New(10, nil, lineheight.WithObserver(em))
	tr.UpsertRange("a", 1, 2, 20)
	tr.UpsertRange("b", 5, 9, 12)
	tr.NotifyLinesInserted(3, 4, nil)

	assert.InDelta(t, 20.0, tr.HeightForLine(2), 0)
	assert.InDelta(t, 10.0, tr.HeightForLine(3), 0)

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(1), sumInt64(t, findMetric(rm, "lineheight.commits.total")))
	assert.Equal(t, int64(3), sumInt64(t, findMetric(rm, "lineheight.ops.total")))
	assert.Equal(t, int64(1), sumInt64(t, findMetric(rm, "lineheight.rebuilds.total")))
	assert.Equal(t, int64(2), gaugeInt64(t, findMetric(rm, "lineheight.ranges")))
	assert.Equal(t, int64(4), gaugeInt64(t, findMetric(rm, "lineheight.runs")))
	assert.NotNil(t, findMetric(rm, "lineheight.commit.duration.seconds"))
	assert.NotNil(t, findMetric(rm, "lineheight.commit.batch.size"))
}
