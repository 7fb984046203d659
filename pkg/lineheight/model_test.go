package lineheight_test

import (
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/lineheight/pkg/lineheight"
)

// Model check parameters.
const (
	modelSeeds    = 40
	modelSteps    = 120
	modelMaxLine  = 60
	modelIDs      = 8
	modelMaxSpan  = 9
	modelMaxEdit  = 5
	modelScanTail = 20
)

// naiveModel applies every mutation eagerly and answers queries by brute force.
type naiveModel struct {
	def    float64
	ranges map[string]lineheight.Range
}

func newNaiveModel(def float64) *naiveModel {
	return &naiveModel{def: def, ranges: make(map[string]lineheight.Range)}
}

func (m *naiveModel) upsert(r lineheight.Range) {
	if r.Start < 1 || r.Start > r.End || r.Height <= 0 {
		return
	}

	m.ranges[r.ID] = r
}

func (m *naiveModel) inserted(from, to int) {
	k := to - from + 1

	for id, r := range m.ranges {
		if r.Start >= from {
			r.Start += k
		}

		if r.End >= from {
			r.End += k
		}

		m.ranges[id] = r
	}
}

func (m *naiveModel) deleted(from, to int) {
	k := to - from + 1

	for id, r := range m.ranges {
		switch {
		case r.Start > to:
			r.Start -= k
		case r.Start >= from:
			r.Start = from
		}

		switch {
		case r.End > to:
			r.End -= k
		case r.End >= from:
			r.End = from - 1
		}

		if r.End < r.Start {
			r.End = r.Start
		}

		m.ranges[id] = r
	}
}

func (m *naiveModel) height(n int) float64 {
	best, covered := 0.0, false

	for _, r := range m.ranges {
		if r.Contains(n) && (!covered || r.Height > best) {
			best, covered = r.Height, true
		}
	}

	if !covered {
		return m.def
	}

	return best
}

func (m *naiveModel) accumulated(n int) float64 {
	total := 0.0
	for line := 1; line <= n; line++ {
		total += m.height(line)
	}

	return total
}

// TestTracker_MatchesNaiveModel drives random operation sequences through the
// tracker and an eager brute-force model, flushing at random points.
func TestTracker_MatchesNaiveModel(t *testing.T) {
	t.Parallel()

	for seed := range uint64(modelSeeds) {
		t.Run("seed-"+strconv.FormatUint(seed, 10), func(t *testing.T) {
			t.Parallel()

			rng := rand.New(rand.NewPCG(seed, seed*7+1))
			tr := lineheight.New(defaultHeight, nil)
			model := newNaiveModel(defaultHeight)

			for range modelSteps {
				applyRandomStep(rng, tr, model)

				if rng.IntN(4) == 0 {
					checkAgainstModel(t, tr, model)
				}
			}

			checkAgainstModel(t, tr, model)
		})
	}
}

func applyRandomStep(rng *rand.Rand, tr *lineheight.Tracker, model *naiveModel) {
	id := "r" + strconv.Itoa(rng.IntN(modelIDs))

	switch rng.IntN(7) {
	case 0, 1, 2:
		start := rng.IntN(modelMaxLine) + 1
		end := start + rng.IntN(modelMaxSpan) - 1
		height := float64(rng.IntN(50) + 1)

		tr.UpsertRange(id, start, end, height)
		model.upsert(lineheight.Range{ID: id, Start: start, End: end, Height: height})
	case 3:
		tr.RemoveRange(id)
		delete(model.ranges, id)
	case 4:
		from := rng.IntN(modelMaxLine) + 1
		to := from + rng.IntN(modelMaxEdit)

		var seeds []lineheight.Range
		if rng.IntN(2) == 0 {
			seeds = []lineheight.Range{{ID: id, Start: from, End: to, Height: float64(rng.IntN(30) + 1)}}
		}

		tr.NotifyLinesInserted(from, to, seeds)
		model.inserted(from, to)

		for _, s := range seeds {
			model.upsert(s)
		}
	case 5:
		from := rng.IntN(modelMaxLine) + 1
		to := from + rng.IntN(modelMaxEdit)

		tr.NotifyLinesDeleted(from, to)
		model.deleted(from, to)
	case 6:
		h := float64(rng.IntN(20) + 1)

		tr.SetDefaultHeight(h)
		model.def = h
	}
}

func checkAgainstModel(t *testing.T, tr *lineheight.Tracker, model *naiveModel) {
	t.Helper()

	require.Equal(t, len(model.ranges), tr.Len())

	for id, want := range model.ranges {
		got, ok := tr.Range(id)
		require.True(t, ok, "missing %s", id)
		require.Equal(t, want, got)
	}

	limit := 0
	for _, r := range model.ranges {
		limit = max(limit, r.End)
	}

	limit += modelScanTail

	for n := 1; n <= limit; n++ {
		require.InDelta(t, model.height(n), tr.HeightForLine(n), 1e-9, "height of line %d", n)
		require.InDelta(t, model.accumulated(n), tr.AccumulatedHeightIncluding(n), 1e-6, "acc of line %d", n)
	}

	assert.Equal(t, 0, tr.Pending())
}
