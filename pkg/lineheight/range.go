// Package lineheight tracks the rendering height of every line in a document.
//
// Most lines share a uniform default height. A sparse, changing set of
// override ranges, each keyed by a caller-chosen identifier, raises or lowers
// the height of the lines it covers. Where overrides overlap, the maximum
// height wins.
//
// Mutations are queued in an ordered log and replayed on the next read, so a
// burst of upserts, removals, and structural edits costs a single rebuild
// while behaving exactly as if each had been applied eagerly in submission
// order. Reads are answered from a skyline of height-constant runs carrying
// prefix sums, giving O(log k) lookups where k is the number of distinct
// override boundaries rather than the document length.
//
// A Tracker is not safe for concurrent use. Owners that serve concurrent
// callers must serialize access themselves.
package lineheight

// Range is a height override for the inclusive, 1-based line span [Start, End].
type Range struct {
	// ID identifies the override. At most one committed range exists per ID.
	ID string `json:"id" yaml:"id"`

	// Start is the first covered line (inclusive).
	Start int `json:"start" yaml:"start"`

	// End is the last covered line (inclusive).
	End int `json:"end" yaml:"end"`

	// Height replaces the default height for every covered line.
	Height float64 `json:"height" yaml:"height"`
}

// Valid reports whether r can be committed: 1 <= Start <= End and Height > 0.
func (r Range) Valid() bool {
	return r.Start >= 1 && r.Start <= r.End && r.Height > 0
}

// Lines returns the number of lines covered by r.
func (r Range) Lines() int {
	if r.End < r.Start {
		return 0
	}

	return r.End - r.Start + 1
}

// Contains reports whether line lies within r.
func (r Range) Contains(line int) bool {
	return line >= r.Start && line <= r.End
}

// Snapshot is the committed state of a Tracker. It is what callers persist or
// transfer; the queue and the skyline are never part of it.
type Snapshot struct {
	DefaultHeight float64 `json:"default_height" yaml:"default_height"`
	Ranges        []Range `json:"ranges"         yaml:"ranges"`
}
