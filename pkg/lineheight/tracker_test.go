package lineheight_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/lineheight/pkg/lineheight"
)

// Test constants.
const (
	defaultHeight = 10
	tallHeight    = 20
	scanLines     = 40
)

func heights(tr *lineheight.Tracker, lines ...int) []float64 {
	out := make([]float64, 0, len(lines))
	for _, n := range lines {
		out = append(out, tr.HeightForLine(n))
	}

	return out
}

// TestNew_PanicsOnNonPositiveDefault verifies the constructor contract.
func TestNew_PanicsOnNonPositiveDefault(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { lineheight.New(0, nil) })
	assert.Panics(t, func() { lineheight.New(-1, nil) })
}

// TestNew_InitialRangesCommitted verifies construction leaves nothing pending.
func TestNew_InitialRangesCommitted(t *testing.T) {
	t.Parallel()

	tr := lineheight.New(defaultHeight, []lineheight.Range{
		{ID: "a", Start: 2, End: 2, Height: 30},
		{ID: "a", Start: 4, End: 4, Height: 15},
		{ID: "bad", Start: 3, End: 1, Height: 15},
	})

	assert.Equal(t, 0, tr.Pending())
	assert.Equal(t, 1, tr.Len())
	assert.Equal(t, []float64{10, 10, 10, 15, 10}, heights(tr, 1, 2, 3, 4, 5))
}

// TestTracker_DefaultCoverage verifies every line uses the default with no overrides.
func TestTracker_DefaultCoverage(t *testing.T) {
	t.Parallel()

	tr := lineheight.New(defaultHeight, nil)

	for n := 1; n <= scanLines; n++ {
		assert.InDelta(t, defaultHeight, tr.HeightForLine(n), 0)
		assert.InDelta(t, float64(n*defaultHeight), tr.AccumulatedHeightIncluding(n), 0)
	}
}

// TestTracker_Scenarios verifies the reference scenarios with default height 10.
func TestTracker_Scenarios(t *testing.T) {
	t.Parallel()

	t.Run("single line override", func(t *testing.T) {
		t.Parallel()

		tr := lineheight.New(defaultHeight, nil)
		tr.UpsertRange("d1", 3, 3, tallHeight)

		assert.InDelta(t, 20.0, tr.HeightForLine(3), 0)
		assert.InDelta(t, 50.0, tr.AccumulatedHeightIncluding(4), 0)
	})

	t.Run("overlap resolves to max", func(t *testing.T) {
		t.Parallel()

		tr := lineheight.New(defaultHeight, nil)
		tr.UpsertRange("a", 3, 5, 40)
		tr.UpsertRange("b", 4, 6, 30)

		assert.Equal(t, []float64{40, 40, 40, 30}, heights(tr, 3, 4, 5, 6))
	})

	t.Run("insertion inside range grows it", func(t *testing.T) {
		t.Parallel()

		tr := lineheight.New(defaultHeight, nil)
		tr.UpsertRange("d1", 5, 7, tallHeight)
		tr.NotifyLinesInserted(6, 7, nil)

		assert.Equal(t, []float64{10, 20, 20, 20, 20, 20, 10}, heights(tr, 4, 5, 6, 7, 8, 9, 10))
	})

	t.Run("full containment collapses to one line", func(t *testing.T) {
		t.Parallel()

		tr := lineheight.New(defaultHeight, nil)
		tr.UpsertRange("d1", 5, 7, tallHeight)
		tr.NotifyLinesDeleted(4, 8)

		assert.Equal(t, []float64{10, 20, 10}, heights(tr, 3, 4, 5))

		r, ok := tr.Range("d1")
		require.True(t, ok)
		assert.Equal(t, 4, r.Start)
		assert.Equal(t, 4, r.End)
	})

	t.Run("tail truncation", func(t *testing.T) {
		t.Parallel()

		tr := lineheight.New(defaultHeight, nil)
		tr.UpsertRange("d1", 5, 10, tallHeight)
		tr.NotifyLinesDeleted(7, 12)

		assert.Equal(t, []float64{20, 20, 10}, heights(tr, 5, 6, 7))
	})
}

// TestTracker_PrefixSumConsistency verifies acc(n) == acc(n-1) + h(n).
func TestTracker_PrefixSumConsistency(t *testing.T) {
	t.Parallel()

	tr := lineheight.New(defaultHeight, []lineheight.Range{
		{ID: "a", Start: 3, End: 9, Height: 14.5},
		{ID: "b", Start: 5, End: 5, Height: 60},
		{ID: "c", Start: 8, End: 20, Height: 7},
		{ID: "d", Start: 30, End: 31, Height: 22},
	})

	for n := 2; n <= scanLines; n++ {
		want := tr.AccumulatedHeightIncluding(n-1) + tr.HeightForLine(n)
		assert.InDelta(t, want, tr.AccumulatedHeightIncluding(n), 1e-9, "line %d", n)
	}
}

// TestTracker_UpsertReplacesUncommitted verifies only the second upsert survives.
func TestTracker_UpsertReplacesUncommitted(t *testing.T) {
	t.Parallel()

	tr := lineheight.New(defaultHeight, nil)
	tr.UpsertRange("x", 2, 8, 50)
	tr.UpsertRange("x", 12, 13, 25)

	assert.Equal(t, 2, tr.Pending())
	assert.Equal(t, []lineheight.Range{{ID: "x", Start: 12, End: 13, Height: 25}}, tr.Ranges())
	assert.InDelta(t, defaultHeight, tr.HeightForLine(5), 0)
	assert.InDelta(t, 25.0, tr.HeightForLine(12), 0)
}

// TestTracker_RemoveAfterQueuedUpsert verifies ordering survives a structural flush.
func TestTracker_RemoveAfterQueuedUpsert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		after func(tr *lineheight.Tracker)
	}{
		{"plain read", func(_ *lineheight.Tracker) {}},
		{"insert afterwards", func(tr *lineheight.Tracker) { tr.NotifyLinesInserted(1, 3, nil) }},
		{"delete afterwards", func(tr *lineheight.Tracker) { tr.NotifyLinesDeleted(2, 6) }},
		{"explicit commit", func(tr *lineheight.Tracker) { tr.Commit() }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tr := lineheight.New(defaultHeight, nil)
			tr.UpsertRange("gone", 4, 6, 90)
			tr.NotifyLinesInserted(2, 2, nil)
			tr.RemoveRange("gone")
			tc.after(tr)

			_, ok := tr.Range("gone")
			assert.False(t, ok)

			for n := 1; n <= scanLines; n++ {
				assert.InDelta(t, defaultHeight, tr.HeightForLine(n), 0)
			}
		})
	}
}

// TestTracker_InsertDeleteRoundTrip verifies inserting then deleting k lines restores state.
func TestTracker_InsertDeleteRoundTrip(t *testing.T) {
	t.Parallel()

	initial := []lineheight.Range{
		{ID: "a", Start: 1, End: 4, Height: 30},
		{ID: "b", Start: 6, End: 6, Height: 45},
		{ID: "c", Start: 7, End: 15, Height: 12},
		{ID: "d", Start: 20, End: 22, Height: 18},
	}

	for pos := 1; pos <= 24; pos++ {
		for k := 1; k <= 4; k++ {
			tr := lineheight.New(defaultHeight, initial)
			before := heights(tr, lineSpan(scanLines)...)

			tr.NotifyLinesInserted(pos, pos+k-1, nil)
			tr.NotifyLinesDeleted(pos, pos+k-1)

			assert.Equal(t, initial, tr.Ranges(), "pos=%d k=%d", pos, k)
			assert.Equal(t, before, heights(tr, lineSpan(scanLines)...), "pos=%d k=%d", pos, k)
		}
	}
}

// TestTracker_InsertSeedsMoveRange verifies a seed with an existing id relocates it.
func TestTracker_InsertSeedsMoveRange(t *testing.T) {
	t.Parallel()

	tr := lineheight.New(defaultHeight, []lineheight.Range{{ID: "m", Start: 5, End: 6, Height: 33}})

	seeds := []lineheight.Range{{ID: "m", Start: 2, End: 3, Height: 33}}
	tr.NotifyLinesInserted(2, 3, seeds)

	seeds[0].Start = 99

	r, ok := tr.Range("m")
	require.True(t, ok)
	assert.Equal(t, lineheight.Range{ID: "m", Start: 2, End: 3, Height: 33}, r)
	assert.Equal(t, 1, tr.Len())
}

// TestTracker_MalformedStructuralEditsIgnored verifies bad spans never reach the queue.
func TestTracker_MalformedStructuralEditsIgnored(t *testing.T) {
	t.Parallel()

	tr := lineheight.New(defaultHeight, nil)
	tr.NotifyLinesInserted(0, 2, nil)
	tr.NotifyLinesInserted(5, 4, nil)
	tr.NotifyLinesDeleted(-1, 3)
	tr.NotifyLinesDeleted(9, 8)

	assert.Equal(t, 0, tr.Pending())
}

// TestTracker_SetDefaultHeight verifies the default applies immediately and ignores bad values.
func TestTracker_SetDefaultHeight(t *testing.T) {
	t.Parallel()

	tr := lineheight.New(defaultHeight, []lineheight.Range{{ID: "a", Start: 2, End: 2, Height: 5}})
	assert.InDelta(t, 35.0, tr.AccumulatedHeightIncluding(4), 0)

	tr.UpsertRange("b", 4, 4, 50)
	tr.SetDefaultHeight(12)
	assert.InDelta(t, 12.0, tr.DefaultHeight(), 0)
	assert.Equal(t, 1, tr.Pending())
	assert.InDelta(t, 12+5+12+50.0, tr.AccumulatedHeightIncluding(4), 0)

	tr.SetDefaultHeight(0)
	tr.SetDefaultHeight(-4)
	assert.InDelta(t, 12.0, tr.DefaultHeight(), 0)
}

// TestTracker_LineAtOffset verifies offset lookup inverts the prefix sum.
func TestTracker_LineAtOffset(t *testing.T) {
	t.Parallel()

	tr := lineheight.New(defaultHeight, []lineheight.Range{
		{ID: "a", Start: 3, End: 5, Height: 40},
		{ID: "b", Start: 9, End: 9, Height: 3},
	})

	for n := 1; n <= scanLines; n++ {
		top := tr.AccumulatedHeightIncluding(n - 1)
		assert.Equal(t, n, tr.LineAtOffset(top), "top of line %d", n)
		assert.Equal(t, n, tr.LineAtOffset(top+tr.HeightForLine(n)/2), "middle of line %d", n)
	}

	assert.Equal(t, 1, tr.LineAtOffset(-20))
	assert.Equal(t, 1, tr.LineAtOffset(math.NaN()))
}

// TestTracker_LineAtOffsetSaturates verifies huge offsets clamp to MaxLine.
func TestTracker_LineAtOffsetSaturates(t *testing.T) {
	t.Parallel()

	empty := lineheight.New(defaultHeight, nil)
	assert.Equal(t, lineheight.MaxLine, empty.LineAtOffset(1e300))
	assert.Equal(t, lineheight.MaxLine, empty.LineAtOffset(math.Inf(1)))

	tr := lineheight.New(defaultHeight, []lineheight.Range{{ID: "a", Start: 3, End: 5, Height: 40}})
	assert.Equal(t, lineheight.MaxLine, tr.LineAtOffset(math.MaxFloat64))
	assert.Equal(t, 11, tr.LineAtOffset(tr.AccumulatedHeightIncluding(10)))
}

// TestTracker_SnapshotRoundTrip verifies snapshots recreate the same heights.
func TestTracker_SnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	tr := lineheight.New(defaultHeight, nil)
	tr.UpsertRange("a", 2, 6, 18)
	tr.UpsertRange("b", 5, 9, 24)
	tr.NotifyLinesDeleted(3, 3)

	snap := tr.Snapshot()
	assert.Equal(t, 0, tr.Pending())

	restored := lineheight.FromSnapshot(snap)
	assert.Equal(t, tr.Ranges(), restored.Ranges())
	assert.Equal(t, tr.Runs(), restored.Runs())
}

// TestTracker_RunsIsCopy verifies callers cannot alias the skyline.
func TestTracker_RunsIsCopy(t *testing.T) {
	t.Parallel()

	tr := lineheight.New(defaultHeight, []lineheight.Range{{ID: "a", Start: 2, End: 2, Height: 30}})

	runs := tr.Runs()
	require.NotEmpty(t, runs)
	runs[0].Height = 999

	assert.InDelta(t, defaultHeight, tr.HeightForLine(1), 0)
}

func lineSpan(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}

	return out
}

type recordingObserver struct {
	commits  []lineheight.CommitStats
	rebuilds []lineheight.RebuildStats
}

func (o *recordingObserver) ObserveCommit(s lineheight.CommitStats)   { o.commits = append(o.commits, s) }
func (o *recordingObserver) ObserveRebuild(s lineheight.RebuildStats) { o.rebuilds = append(o.rebuilds, s) }

// TestTracker_ObserverReportsBatches verifies one commit and one rebuild per burst.
func TestTracker_ObserverReportsBatches(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	tr := lineheight.New(defaultHeight, nil, lineheight.WithObserver(obs))

	tr.UpsertRange("a", 1, 3, 30)
	tr.UpsertRange("b", 2, 2, 40)
	tr.RemoveRange("b")
	tr.NotifyLinesInserted(1, 1, nil)
	tr.NotifyLinesDeleted(1, 1)

	tr.HeightForLine(2)
	tr.AccumulatedHeightIncluding(9)
	tr.Runs()

	require.Len(t, obs.commits, 1)
	assert.Equal(t, 5, obs.commits[0].Ops)
	assert.Equal(t, 2, obs.commits[0].Upserts)
	assert.Equal(t, 1, obs.commits[0].Removes)
	assert.Equal(t, 1, obs.commits[0].Inserts)
	assert.Equal(t, 1, obs.commits[0].Deletes)
	assert.Equal(t, 1, obs.commits[0].Ranges)

	require.Len(t, obs.rebuilds, 1)
	assert.Equal(t, 1, obs.rebuilds[0].Ranges)
	assert.Equal(t, 2, obs.rebuilds[0].Runs)

	tr.SetDefaultHeight(11)
	tr.HeightForLine(1)

	assert.Len(t, obs.commits, 1)
	assert.Len(t, obs.rebuilds, 2)
}
