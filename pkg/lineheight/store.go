package lineheight

import "sort"

// rangeStore is the committed set of override ranges, one per identifier.
type rangeStore struct {
	byID map[string]Range
}

func newRangeStore() *rangeStore {
	return &rangeStore{byID: make(map[string]Range)}
}

// upsert replaces the range for r.ID. Malformed ranges are dropped and the
// previous range for the identifier, if any, survives.
func (s *rangeStore) upsert(r Range) bool {
	if !r.Valid() {
		return false
	}

	s.byID[r.ID] = r

	return true
}

// remove deletes the range for id. Unknown identifiers are a no-op.
func (s *rangeStore) remove(id string) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}

	delete(s.byID, id)

	return true
}

// linesInserted shifts every range for to-from+1 lines inserted before the old
// line from, then upserts the seeds. A boundary at or after from moves down,
// so a range straddling the insertion point grows to absorb the new lines.
func (s *rangeStore) linesInserted(from, to int, seeds []Range) {
	count := to - from + 1

	for id, r := range s.byID {
		if r.Start >= from {
			r.Start += count
		}

		if r.End >= from {
			r.End += count
		}

		s.byID[id] = r
	}

	for _, seed := range seeds {
		s.upsert(seed)
	}
}

// linesDeleted closes the gap left by removing lines [from, to]. Starts inside
// the deleted span are pulled to from while ends are pulled to from-1, so a
// range the deletion swallows entirely ends up inverted and collapses to the
// single line from, keeping its identifier and height.
func (s *rangeStore) linesDeleted(from, to int) {
	count := to - from + 1

	for id, r := range s.byID {
		r.Start = clampStart(r.Start, from, to, count)
		r.End = clampEnd(r.End, from, to, count)

		if r.End < r.Start {
			r.End = r.Start
		}

		s.byID[id] = r
	}
}

func clampStart(p, from, to, count int) int {
	switch {
	case p < from:
		return p
	case p <= to:
		return from
	default:
		return p - count
	}
}

func clampEnd(p, from, to, count int) int {
	switch {
	case p < from:
		return p
	case p <= to:
		return from - 1
	default:
		return p - count
	}
}

func (s *rangeStore) get(id string) (Range, bool) {
	r, ok := s.byID[id]

	return r, ok
}

func (s *rangeStore) len() int {
	return len(s.byID)
}

// sorted returns a copy of every committed range ordered by (Start, End, ID).
func (s *rangeStore) sorted() []Range {
	out := make([]Range, 0, len(s.byID))

	for _, r := range s.byID {
		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]

		if a.Start != b.Start {
			return a.Start < b.Start
		}

		if a.End != b.End {
			return a.End < b.End
		}

		return a.ID < b.ID
	})

	return out
}
