package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/lineheight/internal/report"
	"github.com/Sumatoshi-tech/lineheight/pkg/observability"
	"github.com/Sumatoshi-tech/lineheight/pkg/script"
)

const (
	replayCmdUse   = "replay <script.yaml>"
	replayCmdShort = "Replay a scripted editing session and check its expectations"
)

// lineWindow is the --from/--to pair shared by the rendering commands.
type lineWindow struct {
	from int
	to   int
}

func (lw *lineWindow) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&lw.from, "from", 1, "first line to show")
	cmd.Flags().IntVar(&lw.to, "to", 0, "last line to show (default: end of document, capped by render.max_lines)")
}

// resolve picks the window within [1, extent], capped at maxLines lines when
// --to is not given.
func (lw lineWindow) resolve(extent, maxLines int) (int, int) {
	from := max(lw.from, 1)

	if lw.to > 0 {
		return from, lw.to
	}

	to := extent
	if maxLines > 0 {
		to = min(to, from+maxLines-1)
	}

	return from, max(to, from)
}

// NewReplayCommand creates the replay subcommand.
func NewReplayCommand(app *App) *cobra.Command {
	var (
		window     lineWindow
		showRanges bool
		showRuns   bool
	)

	cmd := &cobra.Command{
		Use:   replayCmdUse,
		Short: replayCmdShort,
		Long: `Replay a YAML editing session against a fresh tracker.

Every expect step is checked and reported; the command fails when any of them
does not hold. The final heights are printed as a table.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.start(observability.ModeCLI)
			if err != nil {
				return err
			}
			defer sess.close()

			s, err := script.LoadFile(args[0])
			if err != nil {
				return err
			}

			res, runErr := script.Run(cmd.Context(), s, script.Options{Logger: sess.logger()})
			if runErr != nil && !errors.Is(runErr, script.ErrExpectationFailed) {
				return runErr
			}

			if app.Quiet {
				return runErr
			}

			from, to := window.resolve(res.Extent(), sess.cfg.Render.MaxLines)

			renderErr := renderReplay(cmd.OutOrStdout(), res, from, to, showRanges, showRuns)
			if renderErr != nil {
				return renderErr
			}

			return runErr
		},
	}

	window.register(cmd)
	cmd.Flags().BoolVar(&showRanges, "ranges", false, "also list the committed overrides")
	cmd.Flags().BoolVar(&showRuns, "runs", false, "also list the resolved height runs")

	return cmd
}

func renderReplay(w io.Writer, res *script.Result, from, to int, showRanges, showRuns bool) error {
	if err := report.Expectations(w, res); err != nil {
		return fmt.Errorf("render expectations: %w", err)
	}

	if err := report.Lines(w, res.Tracker, from, to); err != nil {
		return fmt.Errorf("render lines: %w", err)
	}

	if showRanges {
		if err := report.Ranges(w, res.Tracker); err != nil {
			return fmt.Errorf("render ranges: %w", err)
		}
	}

	if showRuns {
		if err := report.Runs(w, res.Tracker); err != nil {
			return fmt.Errorf("render runs: %w", err)
		}
	}

	return report.Summary(w, res.Tracker, res.Extent())
}
