package foreground

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

// signalRefresher counts refreshes and signals each one.
type signalRefresher struct {
	calls atomic.Int32
	ch    chan struct{}
}

func newSignalRefresher() *signalRefresher {
	return &signalRefresher{ch: make(chan struct{}, 16)}
}

func (r *signalRefresher) Refresh(context.Context) {
	r.calls.Add(1)
	r.ch <- struct{}{}
}

func (r *signalRefresher) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for refresh")
	}
}

func (r *signalRefresher) none(t *testing.T, within time.Duration) {
	t.Helper()
	select {
	case <-r.ch:
		t.Fatal("unexpected refresh")
	case <-time.After(within):
	}
}

func TestScheduler_RefreshesOnMountAndOnVisible(t *testing.T) {
	b := &Broadcaster{}
	r := newSignalRefresher()
	s := &Scheduler{Refresher: r, Source: b, Logger: zap.NewNop()}

	stop, err := s.Mount(context.Background())
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	defer stop()

	r.wait(t)

	b.Publish(Hidden)
	r.none(t, 50*time.Millisecond)

	b.Publish(Visible)
	r.wait(t)

	b.Publish(Hidden)
	b.Publish(Visible)
	r.wait(t)

	if got := r.calls.Load(); got != 3 {
		t.Errorf("refreshes = %d, want 3", got)
	}
}

func TestScheduler_MountUnmountLeavesNoListeners(t *testing.T) {
	b := &Broadcaster{}
	r := newSignalRefresher()
	s := &Scheduler{Refresher: r, Source: b, Logger: zap.NewNop()}

	for i := 0; i < 2; i++ {
		stop, err := s.Mount(context.Background())
		if err != nil {
			t.Fatalf("Mount() #%d error = %v", i+1, err)
		}
		r.wait(t)
		if b.Listeners() != 1 {
			t.Errorf("Listeners() while mounted = %d, want 1", b.Listeners())
		}
		stop()
	}

	if b.Listeners() != 0 {
		t.Errorf("Listeners() = %d, want 0", b.Listeners())
	}

	// Visibility changes after unmount trigger nothing
	b.Publish(Hidden)
	b.Publish(Visible)
	r.none(t, 50*time.Millisecond)
}

func TestScheduler_SecondRunRejected(t *testing.T) {
	b := &Broadcaster{}
	r := newSignalRefresher()
	s := &Scheduler{Refresher: r, Source: b, Logger: zap.NewNop()}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	r.wait(t)

	if err := s.Run(context.Background()); !errors.Is(err, ErrAlreadyMounted) {
		t.Errorf("second Run() error = %v, want ErrAlreadyMounted", err)
	}
	if _, err := s.Mount(context.Background()); !errors.Is(err, ErrAlreadyMounted) {
		t.Errorf("Mount() error = %v, want ErrAlreadyMounted", err)
	}
	if b.Listeners() != 1 {
		t.Errorf("Listeners() = %d, want 1", b.Listeners())
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v", err)
	}
	if b.Listeners() != 0 {
		t.Errorf("Listeners() after return = %d, want 0", b.Listeners())
	}
}

func TestScheduler_PeriodicRefreshWhileVisible(t *testing.T) {
	b := &Broadcaster{}
	r := newSignalRefresher()
	s := &Scheduler{Refresher: r, Source: b, Interval: 10 * time.Millisecond, Logger: zap.NewNop()}

	stop, err := s.Mount(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer stop()

	r.wait(t) // mount
	r.wait(t) // first tick
	r.wait(t) // second tick
}

func TestScheduler_NextDelayBacksOff(t *testing.T) {
	failures := 0
	s := &Scheduler{
		Interval:    time.Second,
		MaxInterval: 10 * time.Second,
		Failures:    func() int { return failures },
	}

	tests := []struct {
		failures int
		want     time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{4, 10 * time.Second},
		{50, 10 * time.Second},
	}

	for _, tt := range tests {
		failures = tt.failures
		if got := s.nextDelay(); got != tt.want {
			t.Errorf("nextDelay() with %d failures = %v, want %v", tt.failures, got, tt.want)
		}
	}

	long := &Scheduler{Interval: 10 * time.Minute}
	if got := long.nextDelay(); got != 10*time.Minute {
		t.Errorf("nextDelay() = %v, want Interval when above the default cap", got)
	}
}
