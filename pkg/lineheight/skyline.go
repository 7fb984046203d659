package lineheight

import (
	"container/heap"
	"math"
	"sort"
)

// MaxLine caps the line returned for offsets beyond any realistic document.
const MaxLine = math.MaxInt32

// Run is a maximal stretch of lines sharing one resolved height. A run starts
// at StartLine and extends to the next run's StartLine; the last run is
// unbounded.
type Run struct {
	// StartLine is the first line of the run.
	StartLine int `json:"start_line" yaml:"start_line"`

	// Height is the resolved height of every line in the run.
	Height float64 `json:"height" yaml:"height"`

	// Before is the total height of all lines preceding StartLine.
	Before float64 `json:"before" yaml:"before"`
}

// skyline is the overlap-free resolution of the committed ranges.
type skyline struct {
	runs          []Run
	defaultHeight float64
}

// boundary is a sweep event: a range opening at line or closing before it.
type boundary struct {
	line   int
	height float64
	open   bool
}

// buildSkyline sweeps the 2k range boundaries, keeping the heights of the
// ranges active at each point in a max-heap. Lines no range covers get the
// default height. Runs start at line 1 and the last one never ends.
func buildSkyline(ranges []Range, defaultHeight float64) skyline {
	events := make([]boundary, 0, 2*len(ranges))

	for _, r := range ranges {
		events = append(events,
			boundary{line: r.Start, height: r.Height, open: true},
			boundary{line: r.End + 1, height: r.Height, open: false},
		)
	}

	sort.Slice(events, func(i, j int) bool { return events[i].line < events[j].line })

	sky := skyline{defaultHeight: defaultHeight}
	active := newHeightHeap()
	cur := 1

	for i := 0; i < len(events); {
		line := events[i].line

		if line > cur {
			sky.emit(cur, active.maxOr(defaultHeight))
			cur = line
		}

		for ; i < len(events) && events[i].line == line; i++ {
			if events[i].open {
				active.add(events[i].height)
			} else {
				active.drop(events[i].height)
			}
		}
	}

	sky.emit(cur, defaultHeight)

	return sky
}

// emit appends a run starting at start, merging it into the previous run when
// the heights match.
func (s *skyline) emit(start int, height float64) {
	if len(s.runs) == 0 {
		s.runs = append(s.runs, Run{StartLine: start, Height: height})

		return
	}

	last := s.runs[len(s.runs)-1]
	if last.Height == height {
		return
	}

	s.runs = append(s.runs, Run{
		StartLine: start,
		Height:    height,
		Before:    last.Before + float64(start-last.StartLine)*last.Height,
	})
}

// find returns the index of the run covering line n, or -1.
func (s *skyline) find(n int) int {
	return sort.Search(len(s.runs), func(i int) bool { return s.runs[i].StartLine > n }) - 1
}

func (s *skyline) height(n int) float64 {
	if n < 1 {
		return 0
	}

	idx := s.find(n)
	if idx < 0 {
		return s.defaultHeight
	}

	return s.runs[idx].Height
}

func (s *skyline) accumulated(n int) float64 {
	if n < 1 {
		return 0
	}

	idx := s.find(n)
	if idx < 0 {
		return float64(n) * s.defaultHeight
	}

	run := s.runs[idx]

	return run.Before + float64(n-run.StartLine+1)*run.Height
}

// lineAt returns the line whose vertical extent [acc(n-1), acc(n)) holds y.
func (s *skyline) lineAt(y float64) int {
	if y < 0 || math.IsNaN(y) {
		return 1
	}

	if len(s.runs) == 0 {
		return advance(1, y/s.defaultHeight)
	}

	idx := sort.Search(len(s.runs), func(i int) bool { return s.runs[i].Before > y }) - 1
	if idx < 0 {
		idx = 0
	}

	run := s.runs[idx]

	return advance(run.StartLine, (y-run.Before)/run.Height)
}

// advance moves steps whole lines down from line, saturating at MaxLine.
func advance(line int, steps float64) int {
	if steps >= float64(MaxLine-line) {
		return MaxLine
	}

	return line + int(steps)
}

// heightHeap is a max-heap of active range heights with lazy deletion.
type heightHeap struct {
	items   maxFloats
	dropped map[float64]int
}

func newHeightHeap() *heightHeap {
	return &heightHeap{dropped: make(map[float64]int)}
}

func (h *heightHeap) add(v float64) {
	heap.Push(&h.items, v)
}

func (h *heightHeap) drop(v float64) {
	h.dropped[v]++
}

// maxOr returns the largest live height, or fallback when none is active.
func (h *heightHeap) maxOr(fallback float64) float64 {
	for h.items.Len() > 0 {
		top := h.items[0]
		if h.dropped[top] == 0 {
			return top
		}

		h.dropped[top]--
		heap.Pop(&h.items)
	}

	return fallback
}

type maxFloats []float64

func (m maxFloats) Len() int           { return len(m) }
func (m maxFloats) Less(i, j int) bool { return m[i] > m[j] }
func (m maxFloats) Swap(i, j int)      { m[i], m[j] = m[j], m[i] }

func (m *maxFloats) Push(x any) { *m = append(*m, x.(float64)) } //nolint:forcetypeassert // heap.Interface contract.

func (m *maxFloats) Pop() any {
	old := *m
	n := len(old)
	v := old[n-1]
	*m = old[:n-1]

	return v
}
