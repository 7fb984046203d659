package lineheight

import "time"

// CommitStats describes one drain of the pending operation log.
type CommitStats struct {
	// Ops is the number of operations replayed.
	Ops int

	// Upserts, Removes, Inserts and Deletes break Ops down by variant.
	Upserts int
	Removes int
	Inserts int
	Deletes int

	// Ranges is the number of committed ranges after the replay.
	Ranges int

	// Elapsed is the wall time spent replaying.
	Elapsed time.Duration
}

// RebuildStats describes one skyline reconstruction.
type RebuildStats struct {
	// Ranges is the number of committed ranges swept.
	Ranges int

	// Runs is the number of resolved runs produced.
	Runs int

	// Elapsed is the wall time spent rebuilding.
	Elapsed time.Duration
}

// Observer receives engine events. Calls happen synchronously on the goroutine
// that triggered the commit or rebuild.
type Observer interface {
	ObserveCommit(stats CommitStats)
	ObserveRebuild(stats RebuildStats)
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithObserver attaches o to the tracker. A nil observer disables reporting.
func WithObserver(o Observer) Option {
	return func(t *Tracker) {
		t.observer = o
	}
}

func (s *CommitStats) count(k opKind) {
	switch k {
	case opUpsert:
		s.Upserts++
	case opRemove:
		s.Removes++
	case opLinesInserted:
		s.Inserts++
	case opLinesDeleted:
		s.Deletes++
	}
}
