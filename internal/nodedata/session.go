package nodedata

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Options configures a Session.
type Options struct {
	Path          string        // node-data path, default DefaultPath
	SubmitTimeout time.Duration // default DefaultSubmitTimeout
	Notifier      Notifier
	Opener        URLOpener
	Logger        *zap.Logger
}

// Session ties a Store to the Fetcher and Submitter that maintain it for one
// UI session. Nothing outlives it.
type Session struct {
	Store     *Store
	Fetcher   *Fetcher
	Submitter *Submitter
}

// NewSession creates a Session with an empty store.
func NewSession(t Transport, opts Options) *Session {
	store := &Store{}
	fetcher := NewFetcher(t, store, opts.Path, opts.Logger)
	submitter := NewSubmitter(SubmitterConfig{
		Transport: t,
		Store:     store,
		Refresher: fetcher,
		Notifier:  opts.Notifier,
		Opener:    opts.Opener,
		Path:      opts.Path,
		Timeout:   opts.SubmitTimeout,
		Logger:    opts.Logger,
	})

	return &Session{Store: store, Fetcher: fetcher, Submitter: submitter}
}

// Refresh reloads node data into the store.
func (s *Session) Refresh(ctx context.Context) {
	s.Fetcher.Refresh(ctx)
}

// Submit sends an update; see Submitter.Submit.
func (s *Session) Submit(ctx context.Context, u Update) {
	s.Submitter.Submit(ctx, u)
}
