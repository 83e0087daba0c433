// Package foreground keeps node data fresh while the user is looking at it.
//
// A Broadcaster carries visibility changes from whatever owns the screen (the
// terminal dashboard forwards focus events) to any number of subscribers. A
// Scheduler subscribes for as long as it runs, refreshes once when it starts
// and again every time the application becomes visible.
//
// Usage:
//
//	b := &foreground.Broadcaster{}
//	s := &foreground.Scheduler{Refresher: session, Source: b}
//	stop, err := s.Mount(ctx)
//	if err != nil {
//		return err
//	}
//	defer stop()
//
//	b.Publish(foreground.Hidden)
//	b.Publish(foreground.Visible) // triggers a refresh
package foreground
