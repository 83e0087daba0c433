// Nodecfg reads and changes the advertisement settings of a mesh-VPN node
// through the node's local web client endpoint.
//
// It provides a terminal dashboard that refreshes whenever it regains focus,
// direct commands for scripting (show, set-exit-node, set-routes, reauth,
// logout), LAN discovery of node web clients, and a local mock node for
// development.
//
// Usage:
//
//	nodecfg [command] [flags]
//
// Running without arguments in a terminal launches the dashboard.
// See 'nodecfg --help' for available commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muurk/nodecfg/internal/logging"
	"github.com/muurk/nodecfg/internal/nodedata"
	"github.com/muurk/nodecfg/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()

	if err != nil {
		printError(err)
		os.Exit(1)
	}
}

// printError reports err once, with a troubleshooting hint for node errors.
func printError(err error) {
	var nodeErr *nodedata.NodeError
	if !errors.As(err, &nodeErr) || nodedata.IsRemoteError(err) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}

	fmt.Fprintf(os.Stderr, "Error: %s\n", nodedata.ShortMessage(err))
	if hint := nodedata.Hint(err); hint != "" {
		fmt.Fprintf(os.Stderr, "\n%s\n", hint)
	}
}

var rootCmd = &cobra.Command{
	Use:   "nodecfg",
	Short: "Mesh-VPN node advertisement settings",
	Long: `A utility for viewing and changing what a mesh-VPN node advertises.

Talks to the node's local web client over HTTP: shows identity and status,
toggles the exit-node advertisement, edits advertised subnet routes, and
triggers re-authentication or logout.

If no command is specified and the terminal is interactive, the dashboard
launches automatically.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isInteractive() {
			return runShow(cmd, args)
		}
		return runDashboard(cmd, args)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentPreRunE = setup

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("nodecfg %s (commit: %s)\n", version.Version, version.Commit)
	},
}
