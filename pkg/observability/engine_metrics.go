package observability

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Sumatoshi-tech/lineheight/pkg/lineheight"
)

const (
	metricCommitsTotal    = "lineheight.commits.total"
	metricOpsTotal        = "lineheight.ops.total"
	metricCommitDuration  = "lineheight.commit.duration.seconds"
	metricCommitBatch     = "lineheight.commit.batch.size"
	metricRebuildsTotal   = "lineheight.rebuilds.total"
	metricRebuildDuration = "lineheight.rebuild.duration.seconds"
	metricRanges          = "lineheight.ranges"
	metricRuns            = "lineheight.runs"

	attrKind = "kind"
)

// engineBucketBoundaries covers commits and rebuilds from microseconds up to
// documents with hundreds of thousands of overrides.
var engineBucketBoundaries = []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5}

// batchBucketBoundaries buckets the number of operations drained per commit.
var batchBucketBoundaries = []float64{1, 2, 4, 8, 16, 32, 64, 128, 256, 1024}

// EngineMetrics records tracker commits and rebuilds. It implements
// [lineheight.Observer].
type EngineMetrics struct {
	commitsTotal    metric.Int64Counter
	opsTotal        metric.Int64Counter
	commitDuration  metric.Float64Histogram
	commitBatch     metric.Float64Histogram
	rebuildsTotal   metric.Int64Counter
	rebuildDuration metric.Float64Histogram

	ranges atomic.Int64
	runs   atomic.Int64
}

var _ lineheight.Observer = (*EngineMetrics)(nil)

// NewEngineMetrics creates the engine instruments and registers the gauge
// callback reporting the latest range and run counts.
func NewEngineMetrics(mt metric.Meter) (*EngineMetrics, error) {
	b := newMetricBuilder(mt)

	em := &EngineMetrics{
		commitsTotal:    b.counter(metricCommitsTotal, "Commits that drained at least one operation", "{commit}"),
		opsTotal:        b.counter(metricOpsTotal, "Operations replayed by commits", "{op}"),
		commitDuration:  b.histogram(metricCommitDuration, "Commit replay time in seconds", "s", engineBucketBoundaries...),
		commitBatch:     b.histogram(metricCommitBatch, "Operations drained per commit", "{op}", batchBucketBoundaries...),
		rebuildsTotal:   b.counter(metricRebuildsTotal, "Skyline rebuilds", "{rebuild}"),
		rebuildDuration: b.histogram(metricRebuildDuration, "Skyline rebuild time in seconds", "s", engineBucketBoundaries...),
	}

	rangesGauge := b.gauge(metricRanges, "Committed ranges at the last rebuild", "{range}")
	runsGauge := b.gauge(metricRuns, "Resolved runs at the last rebuild", "{run}")

	if b.err != nil {
		return nil, b.err
	}

	_, err := mt.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(rangesGauge, em.ranges.Load())
		o.ObserveInt64(runsGauge, em.runs.Load())

		return nil
	}, rangesGauge, runsGauge)
	if err != nil {
		return nil, fmt.Errorf("register engine gauges: %w", err)
	}

	return em, nil
}

// ObserveCommit records one drained batch.
func (em *EngineMetrics) ObserveCommit(stats lineheight.CommitStats) {
	ctx := context.Background()

	em.commitsTotal.Add(ctx, 1)
	em.commitDuration.Record(ctx, stats.Elapsed.Seconds())
	em.commitBatch.Record(ctx, float64(stats.Ops))

	for kind, n := range map[string]int{
		"upsert": stats.Upserts,
		"remove": stats.Removes,
		"insert": stats.Inserts,
		"delete": stats.Deletes,
	} {
		if n > 0 {
			em.opsTotal.Add(ctx, int64(n), metric.WithAttributes(attribute.String(attrKind, kind)))
		}
	}

	em.ranges.Store(int64(stats.Ranges))
}

// ObserveRebuild records one skyline rebuild.
func (em *EngineMetrics) ObserveRebuild(stats lineheight.RebuildStats) {
	ctx := context.Background()

	em.rebuildsTotal.Add(ctx, 1)
	em.rebuildDuration.Record(ctx, stats.Elapsed.Seconds())
	em.ranges.Store(int64(stats.Ranges))
	em.runs.Store(int64(stats.Runs))
}
