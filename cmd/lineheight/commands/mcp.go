package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/lineheight/pkg/lineheight"
	"github.com/Sumatoshi-tech/lineheight/pkg/mcp"
	"github.com/Sumatoshi-tech/lineheight/pkg/observability"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand(app *App) *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

Each named document gets its own tracker. The server exposes:
  - lineheight_upsert, lineheight_remove: manage height overrides
  - lineheight_insert_lines, lineheight_delete_lines: report structural edits
  - lineheight_set_default: change the default line height
  - lineheight_query: heights, offsets and the line at an offset
  - lineheight_ranges: committed overrides and resolved runs`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if debug {
				app.Verbose = true
			}

			sess, err := app.start(observability.ModeMCP)
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

			srv := mcp.NewServer(mcp.ServerDeps{
				Logger:         sess.logger(),
				Metrics:        red,
				Tracer:         sess.providers.Tracer,
				DefaultHeight:  sess.cfg.Engine.DefaultHeight,
				TrackerOptions: []lineheight.Option{lineheight.WithObserver(engine)},
			})

			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")

	return cmd
}
