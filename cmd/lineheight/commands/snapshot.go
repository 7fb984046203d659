package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/lineheight/internal/report"
	"github.com/Sumatoshi-tech/lineheight/pkg/lineheight"
	"github.com/Sumatoshi-tech/lineheight/pkg/observability"
	"github.com/Sumatoshi-tech/lineheight/pkg/script"
	"github.com/Sumatoshi-tech/lineheight/pkg/snapshot"
)

// NewSnapshotCommand creates the snapshot subcommand.
func NewSnapshotCommand(app *App) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "snapshot <script.yaml>",
		Short: "Replay a session and save the committed state it ends with",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return ErrNoOutput
			}

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

			if err := snapshot.WriteFile(output, res.Tracker); err != nil {
				return err
			}

			sess.logger().InfoContext(cmd.Context(), "snapshot written",
				"path", output, "ranges", res.Tracker.Len(), "default_height", res.Tracker.DefaultHeight())

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output snapshot file")

	return cmd
}

// NewInspectCommand creates the inspect subcommand.
func NewInspectCommand(app *App) *cobra.Command {
	var (
		window    lineWindow
		showLines bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <snapshot>",
		Short: "Show the overrides and height runs of a saved snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.start(observability.ModeCLI)
			if err != nil {
				return err
			}
			defer sess.close()

			tr, err := snapshot.ReadFile(args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			extent := lastLine(tr)

			if err := report.Ranges(w, tr); err != nil {
				return fmt.Errorf("render ranges: %w", err)
			}

			if err := report.Runs(w, tr); err != nil {
				return fmt.Errorf("render runs: %w", err)
			}

			if showLines {
				from, to := window.resolve(extent, sess.cfg.Render.MaxLines)

				if err := report.Lines(w, tr, from, to); err != nil {
					return fmt.Errorf("render lines: %w", err)
				}
			}

			return report.Summary(w, tr, extent)
		},
	}

	window.register(cmd)
	cmd.Flags().BoolVar(&showLines, "lines", false, "also list per-line heights")

	return cmd
}

// lastLine returns the last overridden line, or 1 when there is none.
func lastLine(tr *lineheight.Tracker) int {
	n := 1
	for _, r := range tr.Ranges() {
		n = max(n, r.End)
	}

	return n
}
