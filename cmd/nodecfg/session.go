package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/muurk/nodecfg/internal/config"
	"github.com/muurk/nodecfg/internal/logging"
	"github.com/muurk/nodecfg/internal/nodedata"
)

// Global flags
var (
	nodeURL      string
	nodeName     string
	dataPath     string
	logLevel     string
	logFile      string
	outputFormat string
	timeout      time.Duration
)

// annotationTerminalUI marks commands that take over the terminal, so logs
// must not go to stderr.
const annotationTerminalUI = "nodecfg/terminal-ui"

// registry is loaded once per invocation in setup
var registry *config.Registry

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&nodeURL, "url", "", "Node web client URL (e.g. http://100.64.0.1:5252)")
	flags.StringVarP(&nodeName, "node", "n", "", "Name of a saved node (see 'nodecfg nodes')")
	flags.StringVar(&dataPath, "path", nodedata.DefaultPath, "Path of the node-data endpoint")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")
	flags.StringVar(&outputFormat, "format", "detailed", "Output format (detailed, compact, json)")
	flags.DurationVar(&timeout, "timeout", nodedata.DefaultTimeout, "HTTP request timeout")
}

// setup loads .env and the node registry, then configures logging.
func setup(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnv(); err != nil {
		return err
	}

	var err error
	registry, err = config.LoadRegistry()
	if err != nil {
		return err
	}

	level := logLevel
	if level == "" && registry.Preferences != nil {
		level = registry.Preferences.LogLevel
	}

	switch {
	case logFile != "":
		err = logging.InitializeToFile(level, logFile)
	case ownsTerminal(cmd):
		logging.SetLogger(nil)
	default:
		err = logging.Initialize(level)
	}
	if err != nil {
		return err
	}

	switch outputFormat {
	case "detailed", "compact", "json":
	default:
		return fmt.Errorf("unknown output format %q (use detailed, compact or json)", outputFormat)
	}
	if !cmd.Flags().Changed("format") && !isTerminal(os.Stdout) {
		outputFormat = "json"
	}
	return nil
}

func ownsTerminal(cmd *cobra.Command) bool {
	if _, ok := cmd.Annotations[annotationTerminalUI]; ok {
		return true
	}
	return !cmd.HasParent() && isInteractive()
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// isInteractive reports whether the dashboard can run: both ends of the
// terminal must be attached.
func isInteractive() bool {
	return isTerminal(os.Stdin) && isTerminal(os.Stdout)
}

// connect resolves the target node and builds a session for it.
func connect(notifier nodedata.Notifier, opener nodedata.URLOpener) (*nodedata.Session, config.Target, error) {
	target, err := registry.Resolve(nodeURL, nodeName)
	if err != nil {
		return nil, config.Target{}, err
	}

	client, err := nodedata.NewClient(target.URL)
	if err != nil {
		return nil, config.Target{}, err
	}
	client.SetTimeout(timeout)

	logger := logging.GetLogger()
	client.Logger = logger
	logger.Debug("Resolved node",
		zap.String("url", client.BaseURL.String()),
		zap.String("source", target.Source),
		zap.String("name", target.Name),
	)

	session := nodedata.NewSession(client, nodedata.Options{
		Path:          dataPath,
		SubmitTimeout: registry.Preferences.SubmitTimeoutDuration(),
		Notifier:      notifier,
		Opener:        opener,
		Logger:        logger,
	})
	return session, target, nil
}

// load fetches node data into the session. A successful contact is recorded
// against the saved node, if any.
func load(ctx context.Context, session *nodedata.Session, target config.Target) (nodedata.NodeData, error) {
	session.Refresh(ctx)
	snap := session.Store.Snapshot()
	if !snap.Loaded {
		return nodedata.NodeData{}, snap.LastFetchError
	}

	remember(target, snap.Node.Status)
	return snap.Node, nil
}

func remember(target config.Target, status string) {
	if target.Name == "" {
		return
	}
	registry.UpdateNodeLastSeen(target.Name, status)
	if err := registry.Save(); err != nil {
		logging.Warn("Failed to save node registry", zap.Error(err))
	}
}
