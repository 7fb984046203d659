package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/lineheight/pkg/config"
	"github.com/Sumatoshi-tech/lineheight/pkg/lineheight"
	"github.com/Sumatoshi-tech/lineheight/pkg/lsp"
	"github.com/Sumatoshi-tech/lineheight/pkg/observability"
)

// NewLSPCommand creates the language server command.
func NewLSPCommand(app *App) *cobra.Command {
	var noHeadings bool

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start language server reporting line heights (LSP)",
		Long: `Start a language server (LSP) on stdio.

Open documents are tracked line by line. Hover shows a line's height and
vertical offset; code lenses label every override. With lsp.decorator set
to "prefix", lines starting with lsp.heading_mark are scaled by
lsp.heading_scale; with "markdown", CommonMark headings are scaled by level.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			sess, err := app.start(observability.ModeLSP)
			if err != nil {
				return err
			}
			defer sess.close()

			red, err := observability.NewREDMetrics(sess.providers.Meter)
			if err != nil {
				return err
			}

			engine, err := observability.NewEngineMetrics(sess.providers.Meter)
			if err != nil {
				return err
			}

			return lsp.NewServer(lspOptions(sess, red, engine, noHeadings)).Run()
		},
	}

	cmd.Flags().BoolVar(&noHeadings, "no-headings", false, "disable the heading decorator")

	return cmd
}

func lspOptions(sess *session, red *observability.REDMetrics, engine lineheight.Observer, noHeadings bool) lsp.Options {
	opts := lsp.Options{
		Logger:         sess.logger(),
		Metrics:        red,
		DefaultHeight:  sess.cfg.Engine.DefaultHeight,
		TrackerOptions: []lineheight.Option{lineheight.WithObserver(engine)},
	}

	if noHeadings {
		return opts
	}

	switch sess.cfg.LSP.Decorator {
	case config.DecoratorMarkdown:
		opts.Decorator = lsp.MarkdownDecorator(sess.cfg.LSP.HeadingScale)
	default:
		opts.Decorator = lsp.HeadingDecorator(sess.cfg.LSP.HeadingMark, sess.cfg.LSP.HeadingScale)
	}

	return opts
}
