package main

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/nodecfg/internal/discovery"
	"github.com/muurk/nodecfg/internal/logging"
	"github.com/muurk/nodecfg/internal/mocknode"
	"github.com/muurk/nodecfg/internal/version"
)

// Mock command flags
var (
	mockListen    string
	mockAdvertise bool
	mockUnraid    bool
	mockDevice    string
)

func init() {
	rootCmd.AddCommand(mockCmd)

	mockCmd.Flags().StringVar(&mockListen, "listen", "127.0.0.1:5252", "Address to serve the mock node on")
	mockCmd.Flags().BoolVar(&mockAdvertise, "advertise", false, "Announce the mock node over mDNS")
	mockCmd.Flags().BoolVar(&mockUnraid, "unraid", false, "Behave like an Unraid node (form bodies with CSRF token)")
	mockCmd.Flags().StringVar(&mockDevice, "device-name", "", "Device name reported by the mock node")
}

// mockCmd serves a fake node for local development
var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Run a mock node web client",
	Long: `Serve a fake node-data endpoint for development and demos.

The mock keeps its state in memory: updates change what later reads return,
re-authentication answers with a login URL, and logout switches the status
to NeedsLogin. Stop it with Ctrl+C.`,
	Example: `  # Serve on the default address, then in another terminal:
  nodecfg mock
  nodecfg show --url http://127.0.0.1:5252

  # Mock an Unraid node and announce it on the LAN
  nodecfg mock --listen :5252 --unraid --advertise`,
	Args: cobra.NoArgs,
	RunE: runMock,
}

func runMock(cmd *cobra.Command, args []string) error {
	if logLevel == "" && os.Getenv(logging.LogLevelEnvVar) == "" && logFile == "" {
		if err := logging.Initialize("info"); err != nil {
			return err
		}
	}

	data := mocknode.DefaultNodeData()
	if mockDevice != "" {
		data.DeviceName = mockDevice
	}
	if mockUnraid {
		data.IsUnraid = true
		data.UnraidToken = "mock-csrf-token"
	}

	node := mocknode.New(data)
	node.Path = dataPath

	if mockAdvertise {
		_, portStr, err := net.SplitHostPort(mockListen)
		if err != nil {
			return fmt.Errorf("invalid listen address %q: %w", mockListen, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid listen port %q: %w", portStr, err)
		}

		shutdown, err := discovery.Advertise(discovery.Advertisement{
			Instance:   data.DeviceName,
			Port:       port,
			Path:       dataPath,
			DeviceName: data.DeviceName,
			Version:    version.Version,
		})
		if err != nil {
			return err
		}
		defer shutdown()
		logging.Info("Advertising mock node", zap.String("instance", data.DeviceName), zap.Int("port", port))
	}

	fmt.Printf("Mock node %q serving %s on http://%s\n", data.DeviceName, dataPath, mockListen)
	return node.Serve(cmd.Context(), mockListen)
}
