package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/nodecfg/internal/config"
	"github.com/muurk/nodecfg/internal/discovery"
	"github.com/muurk/nodecfg/internal/logging"
	"github.com/muurk/nodecfg/internal/nodedata"
)

var (
	scanTimeout time.Duration
	scanSave    bool
)

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(nodesCmd)

	scanCmd.Flags().DurationVar(&scanTimeout, "scan-timeout", 0, "How long to listen for announcements (default from config, 5s)")
	scanCmd.Flags().BoolVar(&scanSave, "save", false, "Save discovered nodes to the registry")

	nodesCmd.AddCommand(nodesListCmd)
	nodesCmd.AddCommand(nodesAddCmd)
	nodesCmd.AddCommand(nodesRemoveCmd)
	nodesCmd.AddCommand(nodesDefaultCmd)
}

// scanCmd discovers node web clients on the LAN
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for node web clients on the network",
	Long: `Scan for node web clients using mDNS/DNS-SD discovery.

Only HTTP services announcing the node-data path (see --path) in their TXT
records are listed. Use --save to add them to the node registry.`,
	Example: `  # Scan for 5 seconds (default)
  nodecfg scan

  # Longer scan, saving what is found
  nodecfg scan --scan-timeout 15s --save`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	scanner := discovery.NewScanner(dataPath)
	scanner.Logger = logging.GetLogger()
	if d := registry.Preferences.DiscoverTimeoutDuration(); d > 0 {
		scanner.Timeout = d
	}
	if scanTimeout > 0 {
		scanner.Timeout = scanTimeout
	}

	fmt.Printf("Scanning for nodes (timeout: %s)...\n\n", scanner.Timeout)

	nodes, err := scanner.Scan(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(nodes) == 0 {
		fmt.Println("No nodes found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Check that the node's web client is running and announced over mDNS")
		fmt.Println("  - Check that this machine is on the same LAN as the node")
		fmt.Println("  - Try increasing --scan-timeout")
		fmt.Println("  - Use --url to give the web client address directly")
		return nil
	}

	fmt.Printf("Found %d node(s):\n\n", len(nodes))
	for i, node := range nodes {
		fmt.Printf("%d. %s\n", i+1, node.Instance)
		fmt.Printf("   URL:     %s\n", node.BaseURL())
		if node.DeviceName != "" {
			fmt.Printf("   Device:  %s\n", node.DeviceName)
		}
		if v := node.GetMetadata(discovery.TXTVersion); v != "" {
			fmt.Printf("   Version: %s\n", v)
		}
		fmt.Println()

		if scanSave {
			if _, err := registry.SetNode(node.Instance, node.BaseURL()); err != nil {
				return err
			}
		}
	}

	if scanSave {
		if err := registry.Save(); err != nil {
			return err
		}
		fmt.Println("Saved to the node registry. See 'nodecfg nodes list'.")
		return nil
	}

	fmt.Println("Use 'nodecfg show --url <url>' to view a node")
	fmt.Println("Use 'nodecfg nodes add <name> <url>' to save one")
	return nil
}

// nodesCmd manages the saved node registry
var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "Manage saved nodes",
	Long: `Manage the registry of named nodes stored in the config file.

A saved node can be selected with --node, and the default node is used when
neither --url, --node nor NODECFG_URL is given.`,
}

var nodesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved nodes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names := registry.NodeNames()
		if len(names) == 0 {
			fmt.Println("No saved nodes. Add one with 'nodecfg nodes add <name> <url>'.")
			return nil
		}

		def := ""
		if registry.Preferences != nil {
			def = registry.Preferences.DefaultNode
		}
		for _, name := range names {
			printSavedNode(name, registry.GetNode(name), name == def)
		}
		return nil
	},
}

func printSavedNode(name string, node *config.Node, isDefault bool) {
	marker := " "
	if isDefault {
		marker = "*"
	}
	fmt.Printf("%s %s\t%s", marker, name, node.URL)
	if !node.LastSeen.IsZero() {
		fmt.Printf("\t%s, seen %s", node.LastStatus, node.LastSeen.Format(time.DateTime))
	}
	fmt.Println()
}

var nodesAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Save a node under a name",
	Example: `  nodecfg nodes add nas http://100.64.0.7:5252
  nodecfg nodes add router 192.168.1.1:5252 --check`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, rawURL := args[0], args[1]
		base, err := nodedata.ParseBaseURL(rawURL)
		if err != nil {
			return err
		}

		check, _ := cmd.Flags().GetBool("check")
		if check {
			if err := checkNode(cmd.Context(), base.String()); err != nil {
				return err
			}
		}

		if _, err := registry.SetNode(name, base.String()); err != nil {
			return err
		}
		if len(registry.Nodes) == 1 {
			if err := registry.SetDefaultNode(name); err != nil {
				return err
			}
		}
		if err := registry.Save(); err != nil {
			return err
		}

		fmt.Printf("✓ Saved %s (%s)\n", name, base)
		return nil
	},
}

func init() {
	nodesAddCmd.Flags().Bool("check", false, "Fetch node data before saving")
}

// checkNode fetches node data once from url.
func checkNode(ctx context.Context, url string) error {
	client, err := nodedata.NewClient(url)
	if err != nil {
		return err
	}
	client.SetTimeout(timeout)
	client.Logger = logging.GetLogger()

	session := nodedata.NewSession(client, nodedata.Options{Path: dataPath, Logger: client.Logger})
	node, err := load(ctx, session, config.Target{URL: url})
	if err != nil {
		return err
	}
	fmt.Printf("Reached %s\n", node.Summary())
	return nil
}

var nodesRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a saved node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !registry.RemoveNode(args[0]) {
			return fmt.Errorf("unknown node %q", args[0])
		}
		if err := registry.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Removed %s\n", args[0])
		return nil
	},
}

var nodesDefaultCmd = &cobra.Command{
	Use:   "default <name>",
	Short: "Set the node used when none is given",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := registry.SetDefaultNode(args[0]); err != nil {
			return err
		}
		if err := registry.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Default node is now %s\n", args[0])
		return nil
	},
}
