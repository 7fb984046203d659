// Package main provides the entry point for the lineheight CLI tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/lineheight/cmd/lineheight/commands"
	"github.com/Sumatoshi-tech/lineheight/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCommand(&commands.App{}).ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(app *commands.App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lineheight",
		Short: "Line height tracking for editors and document views",
		Long: `lineheight maps document lines to rendering heights and vertical offsets.

Commands:
  replay    Replay a scripted editing session and check its expectations
  plot      Chart the heights a session ends with
  snapshot  Save the state a session ends with
  inspect   Show a saved snapshot
  bench     Drive a tracker with a random workload
  mcp       Serve trackers as MCP tools on stdio
  lsp       Serve document heights over the Language Server Protocol`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&app.ConfigPath, "config", "c", "", "config file (default: lineheight.yaml in ., ./config, /etc/lineheight)")
	rootCmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&app.Quiet, "quiet", "q", false, "suppress output")

	rootCmd.AddCommand(
		commands.NewReplayCommand(app),
		commands.NewPlotCommand(app),
		commands.NewSnapshotCommand(app),
		commands.NewInspectCommand(app),
		commands.NewBenchCommand(app),
		commands.NewMCPCommand(app),
		commands.NewLSPCommand(app),
		commands.NewVersionCommand(),
	)

	return rootCmd
}
