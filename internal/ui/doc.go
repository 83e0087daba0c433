// Package ui renders the one-shot terminal output of the nodecfg commands.
//
// Unlike the interactive dashboard in package tui, these components print
// once and return: result boxes after an update and a confirmation box
// before a destructive one. Rendering uses Lipgloss and sizes itself to the
// terminal via golang.org/x/term.
//
// Example:
//
//	ui.NewWarningResult("Exit node on sent", nil).
//	    AddDetail("Mismatch", "exit node advertisement: expected true, got false").
//	    Print(os.Stdout)
//
// Logging is controlled separately through NODECFG_LOG_LEVEL, so the styled
// output stays clean by default.
package ui
