package foreground

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/nodecfg/internal/logging"
)

// ErrAlreadyMounted is returned when a Scheduler is started while it is
// already running.
var ErrAlreadyMounted = errors.New("foreground scheduler already mounted")

// DefaultMaxInterval caps the backoff applied to periodic refreshes.
const DefaultMaxInterval = 5 * time.Minute

// Refresher reloads data. *nodedata.Session and *nodedata.Fetcher satisfy it.
type Refresher interface {
	Refresh(ctx context.Context)
}

// Scheduler refreshes once when it starts and again on every transition to
// Visible delivered by Source. With Interval set it also refreshes
// periodically while visible.
type Scheduler struct {
	Refresher Refresher
	Source    Source

	// Interval enables periodic refresh. Zero disables it.
	Interval time.Duration

	// MaxInterval caps the backoff (default DefaultMaxInterval).
	MaxInterval time.Duration

	// Failures returns the number of consecutive failed refreshes. The
	// periodic delay doubles for each one. Nil disables backoff.
	Failures func() int

	Logger *zap.Logger

	mu      sync.Mutex
	running bool
}

// Run blocks until ctx is cancelled. It returns ErrAlreadyMounted without
// subscribing if the Scheduler is already running.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	s.loop(ctx)
	return nil
}

// Mount starts the Scheduler in a goroutine. The returned stop func cancels
// it and waits until it has unsubscribed.
func (s *Scheduler) Mount(ctx context.Context) (stop func(), err error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer s.release()
		s.loop(ctx)
	}()

	return func() {
		cancel()
		<-done
	}, nil
}

func (s *Scheduler) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyMounted
	}
	s.running = true
	return nil
}

func (s *Scheduler) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

func (s *Scheduler) loop(ctx context.Context) {
	logger := logging.Or(s.Logger)

	events, unsubscribe := s.Source.Subscribe()
	defer unsubscribe()

	logger.Debug("Foreground scheduler mounted", zap.Duration("interval", s.Interval))
	defer logger.Debug("Foreground scheduler unmounted")

	s.Refresher.Refresh(ctx)
	visible := s.Source.Visible()

	var timer *time.Timer
	var tick <-chan time.Time
	if s.Interval > 0 {
		timer = time.NewTimer(s.nextDelay())
		defer timer.Stop()
		tick = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return

		case v, ok := <-events:
			if !ok {
				return
			}
			visible = v == Visible
			if !visible {
				continue
			}
			logger.Debug("Application visible, refreshing")
			s.Refresher.Refresh(ctx)

		case <-tick:
			if visible {
				s.Refresher.Refresh(ctx)
			}
		}

		if timer != nil {
			resetTimer(timer, s.nextDelay())
		}
	}
}

// nextDelay is Interval doubled once per consecutive failure, capped at
// MaxInterval.
func (s *Scheduler) nextDelay() time.Duration {
	maxInterval := s.MaxInterval
	if maxInterval <= 0 {
		maxInterval = DefaultMaxInterval
	}
	if maxInterval < s.Interval {
		maxInterval = s.Interval
	}

	delay := s.Interval
	if s.Failures != nil {
		for i := s.Failures(); i > 0 && delay < maxInterval; i-- {
			delay *= 2
		}
	}
	if delay > maxInterval {
		delay = maxInterval
	}
	return delay
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
