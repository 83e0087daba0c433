// Package tui implements the interactive node dashboard.
//
// The dashboard shows the Store of a nodedata.Session and re-renders whenever
// it changes. Keys toggle exit node advertisement, edit advertised routes,
// start reauthentication or log the node out; each goes through the
// Session's Submitter, so only one update is ever in flight. Failed
// operations arrive through an AlertQueue and are shown as modals.
//
// Terminal focus events feed a foreground.Broadcaster, and Run mounts a
// foreground.Scheduler for the lifetime of the program, so node data is
// refreshed on start and every time the terminal regains focus.
//
// Usage:
//
//	alerts := tui.NewAlertQueue()
//	session := nodedata.NewSession(client, nodedata.Options{
//	    Notifier: alerts,
//	    Opener:   nodedata.BrowserOpener{Quiet: true},
//	})
//	err := tui.Run(ctx, tui.RunConfig{
//	    Config: tui.Config{Session: session, Alerts: alerts, Target: client.BaseURL.String()},
//	})
package tui
