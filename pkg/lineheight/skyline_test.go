package lineheight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDefault = 10

// TestBuildSkyline_Empty verifies a single unbounded default run.
func TestBuildSkyline_Empty(t *testing.T) {
	t.Parallel()

	sky := buildSkyline(nil, testDefault)

	require.Len(t, sky.runs, 1)
	assert.Equal(t, Run{StartLine: 1, Height: testDefault}, sky.runs[0])
	assert.InDelta(t, 70.0, sky.accumulated(7), 0)
}

// TestBuildSkyline_OverlapTakesMax verifies the sweep resolves overlaps by maximum.
func TestBuildSkyline_OverlapTakesMax(t *testing.T) {
	t.Parallel()

	sky := buildSkyline([]Range{
		{ID: "a", Start: 3, End: 5, Height: 40},
		{ID: "b", Start: 4, End: 6, Height: 30},
	}, testDefault)

	assert.Equal(t, []Run{
		{StartLine: 1, Height: 10, Before: 0},
		{StartLine: 3, Height: 40, Before: 20},
		{StartLine: 6, Height: 30, Before: 140},
		{StartLine: 7, Height: 10, Before: 170},
	}, sky.runs)
}

// TestBuildSkyline_MergesEqualNeighbours verifies adjacent equal runs collapse.
func TestBuildSkyline_MergesEqualNeighbours(t *testing.T) {
	t.Parallel()

	sky := buildSkyline([]Range{
		{ID: "a", Start: 2, End: 3, Height: 25},
		{ID: "b", Start: 4, End: 5, Height: 25},
		{ID: "c", Start: 8, End: 8, Height: testDefault},
	}, testDefault)

	assert.Equal(t, []Run{
		{StartLine: 1, Height: 10, Before: 0},
		{StartLine: 2, Height: 25, Before: 10},
		{StartLine: 6, Height: 10, Before: 110},
	}, sky.runs)
}

// TestBuildSkyline_DuplicateHeightsLazyDeletion verifies equal heights closing at different lines.
func TestBuildSkyline_DuplicateHeightsLazyDeletion(t *testing.T) {
	t.Parallel()

	sky := buildSkyline([]Range{
		{ID: "a", Start: 1, End: 10, Height: 30},
		{ID: "b", Start: 3, End: 4, Height: 30},
		{ID: "c", Start: 2, End: 6, Height: 50},
	}, testDefault)

	for line, want := range map[int]float64{1: 30, 2: 50, 6: 50, 7: 30, 10: 30, 11: 10} {
		assert.InDelta(t, want, sky.height(line), 0, "line %d", line)
	}
}

// TestBuildSkyline_NestedRanges verifies an inner lower range does not leak.
func TestBuildSkyline_NestedRanges(t *testing.T) {
	t.Parallel()

	sky := buildSkyline([]Range{
		{ID: "outer", Start: 2, End: 9, Height: 15},
		{ID: "inner", Start: 4, End: 5, Height: 12},
		{ID: "peak", Start: 5, End: 6, Height: 40},
	}, testDefault)

	got := make([]float64, 0, 10)
	for line := 1; line <= 10; line++ {
		got = append(got, sky.height(line))
	}

	assert.Equal(t, []float64{10, 15, 15, 15, 40, 40, 15, 15, 15, 10}, got)
}

// TestSkyline_LineAt verifies the inverse prefix-sum lookup.
func TestSkyline_LineAt(t *testing.T) {
	t.Parallel()

	sky := buildSkyline([]Range{{ID: "a", Start: 3, End: 3, Height: 20}}, testDefault)

	tests := []struct {
		y    float64
		want int
	}{
		{-5, 1},
		{0, 1},
		{9.9, 1},
		{10, 2},
		{20, 3},
		{39.9, 3},
		{40, 4},
		{55, 5},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, sky.lineAt(tc.y), "y=%v", tc.y)
	}
}

// TestSkyline_BelowLineOne verifies lines below 1 carry no height.
func TestSkyline_BelowLineOne(t *testing.T) {
	t.Parallel()

	sky := buildSkyline(nil, testDefault)

	assert.Zero(t, sky.height(0))
	assert.Zero(t, sky.accumulated(0))
	assert.Zero(t, sky.accumulated(-3))
}
