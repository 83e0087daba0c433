// Package config provides user configuration management for nodecfg.
//
// This package manages a YAML configuration file holding saved nodes (name,
// URL and what was last seen there) and application preferences, plus the
// environment overrides read at startup. The file follows OS-specific
// conventions for storage location.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/nodecfg/config.yaml or $HOME/.config/nodecfg/config.yaml
//   - macOS: $HOME/.config/nodecfg/config.yaml
//   - Windows: %LOCALAPPDATA%\nodecfg\config.yaml
//
// # Environment
//
// NODECFG_URL and NODECFG_LOG_LEVEL may also come from a .env file in the
// working directory (see LoadEnv). Command-line flags override both.
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if _, err := registry.SetNode("nas", "http://100.64.0.7:5252"); err != nil {
//	    log.Fatal(err)
//	}
//	_ = registry.SetDefaultNode("nas")
//
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File writes are protected by a mutex and are atomic.
package config
