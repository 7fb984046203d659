// Package workload drives a tracker with a reproducible random editing
// workload for benchmarking.
package workload

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/Sumatoshi-tech/lineheight/pkg/lineheight"
)

// ErrInvalidConfig is returned when a workload cannot be generated.
var ErrInvalidConfig = errors.New("invalid workload config")

const (
	maxSpan      = 8
	maxEditLines = 4
	minHeight    = 8
	heightSpread = 56
)

// Config sizes a workload.
type Config struct {
	// Lines is the initial document length.
	Lines int
	// Overrides is the number of ranges seeded before the timed phase.
	Overrides int
	// Ops is the number of timed mutations.
	Ops int
	// Batch is the number of mutations between two reads.
	Batch int
	// Seed makes the workload reproducible.
	Seed uint64
	// DefaultHeight is the tracker's default height. Zero means 16.
	DefaultHeight float64
}

// Validate reports whether c can drive a workload.
func (c Config) Validate() error {
	if c.Lines <= 0 || c.Overrides < 0 || c.Ops <= 0 || c.Batch <= 0 || c.DefaultHeight < 0 {
		return fmt.Errorf("%w: lines=%d overrides=%d ops=%d batch=%d default=%v",
			ErrInvalidConfig, c.Lines, c.Overrides, c.Ops, c.Batch, c.DefaultHeight)
	}

	return nil
}

// Stats counts what a run did.
type Stats struct {
	Upserts int
	Removes int
	Inserts int
	Deletes int
	Reads   int

	// Lines is the document length at the end of the run.
	Lines int

	Setup   time.Duration
	Elapsed time.Duration
}

// Ops returns the number of timed mutations.
func (s Stats) Ops() int {
	return s.Upserts + s.Removes + s.Inserts + s.Deletes
}

type generator struct {
	rng   *rand.Rand
	lines int
	ids   []string
	next  int
}

func (g *generator) height() float64 {
	return float64(minHeight + g.rng.IntN(heightSpread))
}

func (g *generator) line() int {
	return 1 + g.rng.IntN(g.lines)
}

func (g *generator) span() (int, int) {
	start := g.line()

	return start, min(g.lines, start+g.rng.IntN(maxSpan))
}

func (g *generator) newID() string {
	g.next++
	id := "r" + strconv.Itoa(g.next)
	g.ids = append(g.ids, id)

	return id
}

// Run seeds a tracker, then applies cfg.Ops random mutations, reading a random
// line and offset after every cfg.Batch of them so each batch is committed.
func Run(ctx context.Context, cfg Config, opts ...lineheight.Option) (*lineheight.Tracker, Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, Stats{}, err
	}

	defHeight := cfg.DefaultHeight
	if defHeight == 0 {
		defHeight = 16
	}

	gen := &generator{
		rng:   rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)), //nolint:gosec // benchmark data.
		lines: cfg.Lines,
	}

	var stats Stats

	start := time.Now()
	seeds := make([]lineheight.Range, 0, cfg.Overrides)

	for range cfg.Overrides {
		from, to := gen.span()
		seeds = append(seeds, lineheight.Range{ID: gen.newID(), Start: from, End: to, Height: gen.height()})
	}

	tr := lineheight.New(defHeight, seeds, opts...)
	tr.Commit()
	stats.Setup = time.Since(start)

	start = time.Now()

	for i := range cfg.Ops {
		gen.step(tr, &stats)

		if (i+1)%cfg.Batch == 0 {
			if err := ctx.Err(); err != nil {
				stats.Elapsed = time.Since(start)
				stats.Lines = gen.lines

				return tr, stats, err
			}

			gen.read(tr)
			stats.Reads++
		}
	}

	gen.read(tr)
	stats.Reads++
	stats.Elapsed = time.Since(start)
	stats.Lines = gen.lines

	return tr, stats, nil
}

// step applies one mutation: mostly upserts, with removals and structural
// edits mixed in.
func (g *generator) step(tr *lineheight.Tracker, stats *Stats) {
	const (
		upsertWeight = 50
		removeWeight = 65
		insertWeight = 85
	)

	roll := g.rng.IntN(100)

	switch {
	case roll < upsertWeight || len(g.ids) == 0:
		from, to := g.span()

		var id string
		if len(g.ids) > 0 && g.rng.IntN(2) == 0 {
			id = g.ids[g.rng.IntN(len(g.ids))]
		} else {
			id = g.newID()
		}

		tr.UpsertRange(id, from, to, g.height())
		stats.Upserts++
	case roll < removeWeight:
		idx := g.rng.IntN(len(g.ids))
		tr.RemoveRange(g.ids[idx])
		g.ids[idx] = g.ids[len(g.ids)-1]
		g.ids = g.ids[:len(g.ids)-1]
		stats.Removes++
	case roll < insertWeight:
		from := g.line()
		count := 1 + g.rng.IntN(maxEditLines)
		tr.NotifyLinesInserted(from, from+count-1, nil)
		g.lines += count
		stats.Inserts++
	default:
		if g.lines <= maxEditLines {
			tr.NotifyLinesInserted(1, 1, nil)
			g.lines++
			stats.Inserts++

			return
		}

		from := g.line()
		to := min(g.lines-1, from+g.rng.IntN(maxEditLines))

		if to < from {
			from = to
		}

		tr.NotifyLinesDeleted(from, to)
		g.lines -= to - from + 1
		stats.Deletes++
	}
}

func (g *generator) read(tr *lineheight.Tracker) {
	line := g.line()
	tr.HeightForLine(line)
	tr.LineAtOffset(tr.AccumulatedHeightIncluding(line) - 1)
}
