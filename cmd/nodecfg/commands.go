package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/nodecfg/internal/logging"
	"github.com/muurk/nodecfg/internal/nodedata"
	"github.com/muurk/nodecfg/internal/tui"
	"github.com/muurk/nodecfg/internal/ui"
)

// Update command flags
var (
	noVerify  bool
	noBrowser bool
	assumeYes bool
)

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(setExitNodeCmd)
	rootCmd.AddCommand(setRoutesCmd)
	rootCmd.AddCommand(reauthCmd)
	rootCmd.AddCommand(logoutCmd)

	for _, cmd := range []*cobra.Command{setExitNodeCmd, setRoutesCmd} {
		cmd.Flags().BoolVar(&noVerify, "no-verify", false, "Skip checking that the node took the update")
	}
	reauthCmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Print the login URL instead of opening a browser")
	logoutCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Log out without asking for confirmation")
}

// showCmd displays the node's current state
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show node identity, status and advertisement",
	Long: `Fetch the node data from the web client and display it.

Shows the logged-in user, device name and address, backend status, and what
the node advertises: exit node and subnet routes.`,
	Example: `  # Show the default node
  nodecfg show

  # Show a node by URL
  nodecfg show --url http://100.64.0.7:5252

  # One line per node, for status bars
  nodecfg show --node nas --format compact

  # JSON output for scripting
  nodecfg show --format json`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	session, target, err := connect(nil, nil)
	if err != nil {
		return err
	}

	node, err := load(cmd.Context(), session, target)
	if err != nil {
		return err
	}

	return printNode(node)
}

func printNode(node nodedata.NodeData) error {
	switch outputFormat {
	case "compact":
		fmt.Println(node.FormatCompact())
	case "json":
		data, err := json.MarshalIndent(node, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
	default:
		fmt.Println(node.FormatDetailed())
	}
	return nil
}

// dashboardCmd launches the interactive TUI
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Launch the interactive dashboard",
	Long: `Launch a terminal dashboard for one node.

The dashboard refreshes when it starts and whenever the terminal regains
focus, and optionally on a timer while focused (see refresh_interval in the
config file). From it you can toggle the exit node, edit routes,
re-authenticate and log out.

Logs are discarded while the dashboard runs unless --log-file is given.`,
	Example: `  # Dashboard for the default node
  nodecfg dashboard
  # Or simply (dashboard is the default in a terminal):
  nodecfg

  # Dashboard with debug logs written to a file
  nodecfg dashboard --node nas --log-level debug --log-file nodecfg.log`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationTerminalUI: "true"},
	RunE:        runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	if !isInteractive() {
		return fmt.Errorf("the dashboard needs an interactive terminal (try 'nodecfg show')")
	}

	alerts := tui.NewAlertQueue()
	session, target, err := connect(alerts, nodedata.BrowserOpener{Quiet: true})
	if err != nil {
		return err
	}

	label := target.URL
	if target.Name != "" {
		label = target.Name + " (" + target.URL + ")"
	}

	// The dashboard's scheduler performs the initial fetch
	err = tui.Run(cmd.Context(), tui.RunConfig{
		Config: tui.Config{
			Session: session,
			Alerts:  alerts,
			Target:  label,
		},
		RefreshInterval: registry.Preferences.RefreshEvery(),
		Logger:          logging.GetLogger(),
	})

	if node, ok := session.Store.Node(); ok {
		remember(target, node.Status)
	} else {
		logging.Debug("Dashboard closed without node data", zap.String("url", target.URL))
	}
	return err
}

// setExitNodeCmd toggles the exit-node advertisement
var setExitNodeCmd = &cobra.Command{
	Use:   "set-exit-node <on|off>",
	Short: "Advertise or stop advertising the node as an exit node",
	Long: `Turn the exit-node advertisement on or off.

Advertised routes are sent unchanged. After the update the node data is
fetched again and compared with what was sent.`,
	Example: `  nodecfg set-exit-node on
  nodecfg set-exit-node off --node nas`,
	Args: cobra.ExactArgs(1),
	RunE: runSetExitNode,
}

func runSetExitNode(cmd *cobra.Command, args []string) error {
	advertise, err := parseOnOff(args[0])
	if err != nil {
		return err
	}

	label := "Exit node off"
	if advertise {
		label = "Exit node on"
	}
	return runUpdate(cmd, label, nodedata.SetExitNode(advertise), nil)
}

func parseOnOff(s string) (bool, error) {
	switch s {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid value %q (use on or off)", s)
	}
	return v, nil
}

// setRoutesCmd replaces the advertised subnet routes
var setRoutesCmd = &cobra.Command{
	Use:   "set-routes [routes]",
	Short: "Set the advertised subnet routes",
	Long: `Replace the subnet routes the node advertises.

Routes are given as one comma-separated list of prefixes. Omit the list, or
pass an empty string, to stop advertising routes. The exit-node setting is
sent unchanged.`,
	Example: `  # Advertise two subnets
  nodecfg set-routes 192.168.1.0/24,10.0.0.0/16

  # Stop advertising routes
  nodecfg set-routes`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSetRoutes,
}

func runSetRoutes(cmd *cobra.Command, args []string) error {
	routes := ""
	if len(args) == 1 {
		routes = args[0]
	}
	if err := nodedata.ValidateRoutes(routes); err != nil {
		return err
	}
	routes = nodedata.NormalizeRoutes(routes)

	label := "Routes cleared"
	if routes != "" {
		label = "Routes set to " + routes
	}
	return runUpdate(cmd, label, nodedata.SetRoutes(routes), nil)
}

// reauthCmd starts a new login on the node
var reauthCmd = &cobra.Command{
	Use:   "reauth",
	Short: "Re-authenticate the node",
	Long: `Ask the node to start a new login.

The node answers with a login URL, which is opened in the system browser.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opener := nodedata.URLOpener(nodedata.BrowserOpener{})
		if noBrowser {
			opener = nodedata.URLOpenerFunc(func(url string) error {
				fmt.Printf("Log in at: %s\n", url)
				return nil
			})
		}
		return runUpdate(cmd, "Re-authentication started", nodedata.Reauthenticate(), opener)
	},
}

// logoutCmd logs the node out
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log the node out",
	Long: `Log the node out of the network.

The node stays unreachable over the VPN until it is authenticated again, so
this asks for confirmation unless --yes is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !assumeYes {
			if !isInteractive() {
				return fmt.Errorf("refusing to log out without --yes when not attached to a terminal")
			}
			confirmed := ui.Confirm(os.Stdin, os.Stdout, ui.Confirmation{
				Title: "LOG OUT",
				Warnings: []string{
					"The node leaves the network and stops advertising routes",
					"Reaching it over the VPN needs a new login from its own console",
				},
			})
			if !confirmed {
				return nil
			}
		}
		return runUpdate(cmd, "Logged out", nodedata.Logout(), nil)
	},
}

// runUpdate loads the node, submits u and reports the outcome. Alerts raised
// by the submission become the command's error.
func runUpdate(cmd *cobra.Command, label string, u nodedata.Update, opener nodedata.URLOpener) error {
	alerts := &nodedata.AlertCollector{}
	session, target, err := connect(alerts, opener)
	if err != nil {
		return err
	}

	if _, err := load(cmd.Context(), session, target); err != nil {
		return err
	}

	fmt.Printf("Updating %s...\n\n", target.URL)
	session.Submit(cmd.Context(), u)

	if failed := alerts.Alerts(); len(failed) > 0 {
		err := errors.New(strings.TrimPrefix(failed[0], nodedata.AlertPrefix))
		report(ui.NewFailureResult(label, err, []string{
			"Check that the node's web client accepts changes from this machine",
			"Run 'nodecfg show' to see the node's current state",
		}), os.Stderr, failed...)
		return fmt.Errorf("update failed")
	}

	snap := session.Store.Snapshot()
	if snap.LastFetchError != nil {
		report(ui.NewWarningResult(label+" sent", nil).
			AddDetail("Not verified", nodedata.ShortMessage(snap.LastFetchError)), os.Stdout,
			fmt.Sprintf("%s %s (not verified: %s)", ui.WarningMarker, label, nodedata.ShortMessage(snap.LastFetchError)))
		return nil
	}
	remember(target, snap.Node.Status)

	if !noVerify {
		if mismatches := nodedata.Mismatches(u, snap.Node); len(mismatches) > 0 {
			result := ui.NewWarningResult(label+" sent, but the node reports otherwise", nil)
			plain := []string{fmt.Sprintf("%s %s sent, but the node reports otherwise:", ui.WarningMarker, label)}
			for _, m := range mismatches {
				result.AddDetail("Mismatch", m)
				plain = append(plain, "  - "+m)
			}
			report(result, os.Stdout, plain...)
			return nil
		}
	}

	report(ui.NewSuccessResult(label, []ui.Detail{
		{Key: "Node", Value: snap.Node.DeviceName},
		{Key: "Status", Value: snap.Node.Status},
		{Key: "Exit node", Value: onOff(snap.Node.AdvertiseExitNode)},
		{Key: "Routes", Value: orNone(nodedata.NormalizeRoutes(snap.Node.AdvertiseRoutes))},
	}), os.Stdout, ui.SuccessMarker+" "+label, snap.Node.FormatCompact())
	return nil
}

// report prints a result box in detailed mode and the plain lines otherwise.
func report(r *ui.Result, w io.Writer, plain ...string) {
	if outputFormat == "detailed" {
		r.Print(w)
		return
	}
	for _, line := range plain {
		fmt.Fprintln(w, line)
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
