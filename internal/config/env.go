package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// EnvURL overrides the default node URL
	EnvURL = "NODECFG_URL"

	// EnvLogLevel sets the log level; read by the logging package
	EnvLogLevel = "NODECFG_LOG_LEVEL"

	dotEnvFile = ".env"
)

// LoadEnv loads a .env file from the working directory if one exists.
// Variables already set in the environment win.
func LoadEnv() error {
	return LoadEnvFile(dotEnvFile)
}

// LoadEnvFile loads the given env file if it exists.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Target identifies the node a command talks to and where that choice came
// from.
type Target struct {
	Name   string // registry name, empty for an ad-hoc URL
	URL    string
	Source string // "flag", "node", "env" or "default"
}

// Resolve picks the node URL. In order: an explicit URL, a named node, the
// NODECFG_URL environment variable, then the registry's default node.
func (r *Registry) Resolve(flagURL, nodeName string) (Target, error) {
	if u := strings.TrimSpace(flagURL); u != "" {
		return Target{URL: u, Source: "flag"}, nil
	}

	if nodeName != "" {
		node := r.GetNode(nodeName)
		if node == nil {
			return Target{}, fmt.Errorf("unknown node %q (see 'nodecfg nodes list')", nodeName)
		}
		return Target{Name: nodeName, URL: node.URL, Source: "node"}, nil
	}

	if u := strings.TrimSpace(os.Getenv(EnvURL)); u != "" {
		return Target{URL: u, Source: "env"}, nil
	}

	if r.Preferences != nil && r.Preferences.DefaultNode != "" {
		name := r.Preferences.DefaultNode
		if node := r.GetNode(name); node != nil {
			return Target{Name: name, URL: node.URL, Source: "default"}, nil
		}
	}

	return Target{}, fmt.Errorf("no node given: use --url, --node, %s or 'nodecfg nodes default'", EnvURL)
}
