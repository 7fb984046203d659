// Package report renders tracker state and replay results for terminals.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/lineheight/internal/workload"
	"github.com/Sumatoshi-tech/lineheight/pkg/lineheight"
	"github.com/Sumatoshi-tech/lineheight/pkg/script"
)

const (
	sourceDefault = "default"
	openEnd       = "∞"
	heightDigits  = 2
)

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false

	return tbl
}

func formatHeight(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

// Lines writes one row per line in [from, to] with its height, accumulated
// height and the override that decides it.
func Lines(w io.Writer, t *lineheight.Tracker, from, to int) error {
	from = max(from, 1)

	ranges := t.Ranges()
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Line", "Height", "Accumulated", "Source"})

	for line := from; line <= to; line++ {
		tbl.AppendRow(table.Row{
			line,
			formatHeight(t.HeightForLine(line)),
			humanize.FormatFloat("#,###.##", t.AccumulatedHeightIncluding(line)),
			source(ranges, line),
		})
	}

	tbl.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d lines", max(to-from+1, 0))})

	_, err := fmt.Fprintln(w, tbl.Render())

	return err
}

// source names the tallest range covering line, first by start order on ties.
func source(ranges []lineheight.Range, line int) string {
	best := sourceDefault
	bestHeight := 0.0

	for _, r := range ranges {
		if r.Contains(line) && r.Height > bestHeight {
			best, bestHeight = r.ID, r.Height
		}
	}

	return best
}

// Ranges writes the committed overrides in start order.
func Ranges(w io.Writer, t *lineheight.Tracker) error {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"ID", "Start", "End", "Lines", "Height"})

	ranges := t.Ranges()
	for _, r := range ranges {
		tbl.AppendRow(table.Row{r.ID, r.Start, r.End, r.Lines(), formatHeight(r.Height)})
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d ranges", len(ranges))})

	_, err := fmt.Fprintln(w, tbl.Render())

	return err
}

// Runs writes the resolved height runs.
func Runs(w io.Writer, t *lineheight.Tracker) error {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"From", "To", "Height", "Offset"})

	runs := t.Runs()
	for i, run := range runs {
		end := openEnd
		if i+1 < len(runs) {
			end = strconv.Itoa(runs[i+1].StartLine - 1)
		}

		tbl.AppendRow(table.Row{run.StartLine, end, formatHeight(run.Height), formatHeight(run.Before)})
	}

	_, err := fmt.Fprintln(w, tbl.Render())

	return err
}

// Summary writes a one-paragraph overview of the tracker.
func Summary(w io.Writer, t *lineheight.Tracker, lines int) error {
	ranges := t.Ranges()

	covered := 0
	for _, r := range ranges {
		covered += r.Lines()
	}

	_, err := fmt.Fprintf(w,
		"default height %s, %s overrides covering %s lines, %d runs\ntotal height of %s lines: %s\n",
		formatHeight(t.DefaultHeight()),
		humanize.Comma(int64(len(ranges))),
		humanize.Comma(int64(covered)),
		len(t.Runs()),
		humanize.Comma(int64(lines)),
		humanize.CommafWithDigits(t.AccumulatedHeightIncluding(lines), heightDigits),
	)

	return err
}

// Throughput writes a benchmark line such as "1.2 Mops/s over 3,000,000 ops (2.5s)".
func Throughput(w io.Writer, label string, ops int, elapsed time.Duration) error {
	rate := 0.0
	if elapsed > 0 {
		rate = float64(ops) / elapsed.Seconds()
	}

	_, err := fmt.Fprintf(w, "%-12s %s over %s ops (%s)\n",
		label, humanize.SIWithDigits(rate, heightDigits, "ops/s"), humanize.Comma(int64(ops)), elapsed.Round(time.Millisecond))

	return err
}

// Workload writes the mutation mix of a benchmark run.
func Workload(w io.Writer, stats workload.Stats) error {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Upserts", "Removes", "Inserts", "Deletes", "Reads", "Final lines"})
	tbl.AppendRow(table.Row{
		humanize.Comma(int64(stats.Upserts)),
		humanize.Comma(int64(stats.Removes)),
		humanize.Comma(int64(stats.Inserts)),
		humanize.Comma(int64(stats.Deletes)),
		humanize.Comma(int64(stats.Reads)),
		humanize.Comma(int64(stats.Lines)),
	})

	_, err := fmt.Fprintln(w, tbl.Render())

	return err
}

// Heap writes the heap timeline recorded by a profiler.
func Heap(w io.Writer, samples []workload.HeapSample) error {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Phase", "In use", "Sys", "Idle", "GCs"})

	for _, s := range samples {
		tbl.AppendRow(table.Row{s.Label, humanize.Bytes(s.InUse), humanize.Bytes(s.Sys), humanize.Bytes(s.Idle), s.NumGC})
	}

	_, err := fmt.Fprintln(w, tbl.Render())

	return err
}

// Expectations writes a pass/fail line per check followed by a verdict.
func Expectations(w io.Writer, res *script.Result) error {
	pass := color.New(color.FgGreen)
	fail := color.New(color.FgRed)

	for _, c := range res.Checks {
		if c.Passed() {
			pass.Fprintf(w, "  ok   step %d: %s of line %d = %s\n", c.Step, c.What, c.Line, formatHeight(c.Got))

			continue
		}

		fail.Fprintf(w, "  FAIL step %d: %s of line %d = %s, want %s\n",
			c.Step, c.What, c.Line, formatHeight(c.Got), formatHeight(c.Want))
	}

	failed := len(res.Failed())
	if failed == 0 {
		_, err := pass.Fprintf(w, "%d steps, %d checks passed\n", res.Steps, len(res.Checks))

		return err
	}

	_, err := fail.Fprintf(w, "%d steps, %d of %d checks failed\n", res.Steps, failed, len(res.Checks))

	return err
}
