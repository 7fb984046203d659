package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/lineheight/pkg/observability"
	"github.com/Sumatoshi-tech/lineheight/pkg/plot"
	"github.com/Sumatoshi-tech/lineheight/pkg/script"
)

const (
	plotCmdUse   = "plot <script.yaml>"
	plotCmdShort = "Chart the heights a session ends with as an HTML page"
	outputPerm   = 0o600
)

// ErrNoOutput is returned when the --output flag is not set.
var ErrNoOutput = errors.New("output file is required (use --output)")

// NewPlotCommand creates the plot subcommand.
func NewPlotCommand(app *App) *cobra.Command {
	var (
		window lineWindow
		output string
		title  string
		theme  string
	)

	cmd := &cobra.Command{
		Use:   plotCmdUse,
		Short: plotCmdShort,
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

			if theme == "" {
				theme = sess.cfg.Render.Theme
			}

			th, err := plot.ParseTheme(theme)
			if err != nil {
				return err
			}

			s, err := script.LoadFile(args[0])
			if err != nil {
				return err
			}

			res, runErr := script.Run(cmd.Context(), s, script.Options{Logger: sess.logger()})
			if runErr != nil && !errors.Is(runErr, script.ErrExpectationFailed) {
				return runErr
			}

			from, to := window.resolve(res.Extent(), 0)
			if title == "" {
				title = args[0]
			}

			f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, outputPerm)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer f.Close()

			renderErr := plot.Render(f, res.Tracker, plot.Options{Title: title, From: from, To: to, Theme: th})
			if renderErr != nil {
				return renderErr
			}

			sess.logger().InfoContext(cmd.Context(), "plot written", "path", output, "from", from, "to", to)

			return f.Close()
		},
	}

	window.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output HTML file")
	cmd.Flags().StringVar(&title, "title", "", "chart title (default: script path)")
	cmd.Flags().StringVar(&theme, "theme", "", "light or dark (default: render.theme)")

	return cmd
}
