package lineheight

import (
	"fmt"
	"time"
)

// Tracker maps line numbers to rendering heights and vertical offsets.
//
// Mutations (UpsertRange, RemoveRange, NotifyLinesInserted,
// NotifyLinesDeleted) only append to a pending log. Every read first replays
// that log into the committed store in submission order, so callers observe
// exactly the state eager application would have produced.
//
// SetDefaultHeight is not queued: it has no interaction with line numbering and
// takes effect at the next read.
type Tracker struct {
	store         *rangeStore
	pending       opLog
	defaultHeight float64
	sky           skyline
	stale         bool
	observer      Observer
}

// New creates a tracker with the given default height. The initial ranges are
// applied with upsert semantics (the last range for a repeated identifier
// wins) and committed before New returns.
//
// New panics when defaultHeight is not positive.
func New(defaultHeight float64, initial []Range, opts ...Option) *Tracker {
	if defaultHeight <= 0 {
		panic(fmt.Sprintf("default line height must be positive: %v", defaultHeight))
	}

	t := &Tracker{
		store:         newRangeStore(),
		defaultHeight: defaultHeight,
		stale:         true,
	}

	for _, opt := range opts {
		opt(t)
	}

	for _, r := range initial {
		t.store.upsert(r)
	}

	return t
}

// FromSnapshot recreates a tracker from committed state.
func FromSnapshot(s Snapshot, opts ...Option) *Tracker {
	return New(s.DefaultHeight, s.Ranges, opts...)
}

// SetDefaultHeight changes the height of lines no range covers. Non-positive
// values are ignored.
func (t *Tracker) SetDefaultHeight(h float64) {
	if h <= 0 || h == t.defaultHeight {
		return
	}

	t.defaultHeight = h
	t.stale = true
}

// DefaultHeight returns the height of lines no range covers.
func (t *Tracker) DefaultHeight() float64 {
	return t.defaultHeight
}

// UpsertRange queues the creation or replacement of the range for id. Spans
// with start < 1 or start > end and non-positive heights are dropped at commit.
func (t *Tracker) UpsertRange(id string, start, end int, height float64) {
	t.pending.enqueue(upsertOp{r: Range{ID: id, Start: start, End: end, Height: height}})
}

// RemoveRange queues the removal of the range for id.
func (t *Tracker) RemoveRange(id string) {
	t.pending.enqueue(removeOp{id: id})
}

// NotifyLinesInserted queues the insertion of lines from..to (inclusive, in the
// new numbering) before the old line from. Ranges reaching past the insertion
// point grow or shift; seeds are then upserted over the result.
func (t *Tracker) NotifyLinesInserted(from, to int, seeds []Range) {
	if from < 1 || to < from {
		return
	}

	var owned []Range
	if len(seeds) > 0 {
		owned = make([]Range, len(seeds))
		copy(owned, seeds)
	}

	t.pending.enqueue(linesInsertedOp{from: from, to: to, seeds: owned})
}

// NotifyLinesDeleted queues the deletion of lines from..to (inclusive).
func (t *Tracker) NotifyLinesDeleted(from, to int) {
	if from < 1 || to < from {
		return
	}

	t.pending.enqueue(linesDeletedOp{from: from, to: to})
}

// Pending returns the number of queued operations. It does not commit.
func (t *Tracker) Pending() int {
	return t.pending.len()
}

// Commit replays the pending log into the committed store. Reads commit
// implicitly; Commit lets callers force it, for instance before taking a
// snapshot.
func (t *Tracker) Commit() {
	if t.pending.len() == 0 {
		return
	}

	var (
		stats CommitStats
		begin time.Time
	)

	if t.observer != nil {
		begin = time.Now()
	}

	stats.Ops = t.pending.drain(func(o op) {
		stats.count(o.kind())
		t.apply(o)
	})

	t.stale = true

	if t.observer != nil {
		stats.Ranges = t.store.len()
		stats.Elapsed = time.Since(begin)
		t.observer.ObserveCommit(stats)
	}
}

// apply dispatches one queued operation to the store.
func (t *Tracker) apply(o op) {
	switch o := o.(type) {
	case upsertOp:
		t.store.upsert(o.r)
	case removeOp:
		t.store.remove(o.id)
	case linesInsertedOp:
		t.store.linesInserted(o.from, o.to, o.seeds)
	case linesDeletedOp:
		t.store.linesDeleted(o.from, o.to)
	}
}

// resolve commits pending work and rebuilds the skyline when stale.
func (t *Tracker) resolve() *skyline {
	t.Commit()

	if !t.stale {
		return &t.sky
	}

	var begin time.Time
	if t.observer != nil {
		begin = time.Now()
	}

	ranges := t.store.sorted()
	t.sky = buildSkyline(ranges, t.defaultHeight)
	t.stale = false

	if t.observer != nil {
		t.observer.ObserveRebuild(RebuildStats{
			Ranges:  len(ranges),
			Runs:    len(t.sky.runs),
			Elapsed: time.Since(begin),
		})
	}

	return &t.sky
}

// HeightForLine returns the resolved height of line n (n >= 1). Lines below 1
// have no height.
func (t *Tracker) HeightForLine(n int) float64 {
	return t.resolve().height(n)
}

// AccumulatedHeightIncluding returns the total height of lines 1..n.
func (t *Tracker) AccumulatedHeightIncluding(n int) float64 {
	return t.resolve().accumulated(n)
}

// LineAtOffset returns the line whose vertical extent contains offset y,
// measured from the top of line 1. Negative offsets map to line 1.
func (t *Tracker) LineAtOffset(y float64) int {
	return t.resolve().lineAt(y)
}

// Range returns the committed range for id.
func (t *Tracker) Range(id string) (Range, bool) {
	t.Commit()

	return t.store.get(id)
}

// Ranges returns every committed range ordered by (Start, End, ID).
func (t *Tracker) Ranges() []Range {
	t.Commit()

	return t.store.sorted()
}

// Len returns the number of committed ranges.
func (t *Tracker) Len() int {
	t.Commit()

	return t.store.len()
}

// Runs returns a copy of the resolved skyline.
func (t *Tracker) Runs() []Run {
	sky := t.resolve()

	out := make([]Run, len(sky.runs))
	copy(out, sky.runs)

	return out
}

// Snapshot commits and returns the committed state.
func (t *Tracker) Snapshot() Snapshot {
	return Snapshot{
		DefaultHeight: t.defaultHeight,
		Ranges:        t.Ranges(),
	}
}
