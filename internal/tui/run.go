package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/nodecfg/internal/foreground"
)

// RunConfig configures Run.
type RunConfig struct {
	Config

	// RefreshInterval adds periodic refresh while focused. Zero refreshes
	// only on start and on regaining focus.
	RefreshInterval time.Duration

	Logger *zap.Logger
}

// Run shows the dashboard until the user quits or ctx is cancelled. The
// foreground scheduler is mounted for exactly as long as the dashboard is on
// screen.
func Run(ctx context.Context, cfg RunConfig) error {
	if cfg.Foreground == nil {
		cfg.Foreground = &foreground.Broadcaster{}
	}

	store := cfg.Session.Store
	scheduler := &foreground.Scheduler{
		Refresher: cfg.Session,
		Source:    cfg.Foreground,
		Interval:  cfg.RefreshInterval,
		Failures:  func() int { return store.Snapshot().ConsecutiveFailures },
		Logger:    cfg.Logger,
	}

	stop, err := scheduler.Mount(ctx)
	if err != nil {
		return err
	}
	defer stop()

	program := tea.NewProgram(
		NewModel(ctx, cfg.Config),
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	)
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
