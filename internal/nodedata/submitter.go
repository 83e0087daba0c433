package nodedata

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/nodecfg/internal/logging"
)

const (
	// DefaultSubmitTimeout bounds one update round trip so a hung node
	// cannot hold the in-flight flag forever.
	DefaultSubmitTimeout = 30 * time.Second

	// AlertPrefix starts every failure message handed to the Notifier.
	AlertPrefix = "Failed operation: "
)

// Submitter posts updates through the Transport, one at a time.
type Submitter struct {
	transport Transport
	store     *Store
	refresher Refresher
	notifier  Notifier
	opener    URLOpener
	path      string
	timeout   time.Duration
	logger    *zap.Logger
}

// SubmitterConfig configures a Submitter. Transport, Store and Refresher are
// required.
type SubmitterConfig struct {
	Transport Transport
	Store     *Store
	Refresher Refresher
	Notifier  Notifier  // nil logs alerts at error level
	Opener    URLOpener // nil uses BrowserOpener
	Path      string    // empty uses DefaultPath
	Timeout   time.Duration
	Logger    *zap.Logger
}

// NewSubmitter creates a Submitter.
func NewSubmitter(cfg SubmitterConfig) *Submitter {
	s := &Submitter{
		transport: cfg.Transport,
		store:     cfg.Store,
		refresher: cfg.Refresher,
		notifier:  cfg.Notifier,
		opener:    cfg.Opener,
		path:      cfg.Path,
		timeout:   cfg.Timeout,
		logger:    cfg.Logger,
	}
	if s.notifier == nil {
		s.notifier = logNotifier{logger: cfg.Logger}
	}
	if s.opener == nil {
		s.opener = BrowserOpener{}
	}
	if s.path == "" {
		s.path = DefaultPath
	}
	if s.timeout <= 0 {
		s.timeout = DefaultSubmitTimeout
	}
	return s
}

// Submit sends intent to the node. It returns immediately, doing nothing,
// while another update is in flight or before any node data has loaded.
//
// A rejected update or a transport failure is reported to the Notifier and
// nothing is refreshed. Otherwise a returned URL is opened and the store is
// refreshed.
func (s *Submitter) Submit(ctx context.Context, intent Update) {
	node, ok := s.store.beginSubmit()
	if !ok {
		logging.Or(s.logger).Debug("Node update skipped",
			zap.Bool("posting", s.store.IsPosting()),
		)
		return
	}

	resp, err := s.post(ctx, intent, node)
	if err != nil {
		s.fail(err)
		return
	}

	switch resp.Kind {
	case ResponseRemoteError:
		s.fail(NewRemoteError(resp.Message))
		return
	case ResponseRedirect:
		logging.Or(s.logger).Info("Opening URL from node", zap.String("url", resp.URL))
		if err := s.opener.Open(resp.URL); err != nil {
			logging.Or(s.logger).Warn("Failed to open URL",
				zap.String("url", resp.URL),
				zap.Error(err),
			)
		}
	}

	logging.Or(s.logger).Info("Node update applied", zap.Stringer("response", resp.Kind))
	s.refresher.Refresh(ctx)
}

// post encodes and sends one update. The in-flight flag is cleared before it
// returns, whatever the outcome.
func (s *Submitter) post(ctx context.Context, intent Update, node NodeData) (Response, error) {
	defer s.store.endSubmit()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	encoded, err := EncodeUpdate(intent.Merge(node), node)
	if err != nil {
		return Response{}, err
	}
	logging.LogSubmission(s.logger, encoded.ContentType, encoded.Payload)

	body, err := s.transport.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   s.path,
		Query:  url.Values{UpdateQueryKey: []string{"true"}},
		Header: http.Header{
			"Accept":       []string{ContentTypeJSON},
			"Content-Type": []string{encoded.ContentType},
		},
		Body: encoded.Body,
	})
	if err != nil {
		// Nodes may pair an error status with an {"error": ...} body
		if nodeErr, ok := asNodeError(err); ok && nodeErr.Type == ErrTypeHTTP {
			if resp, decodeErr := DecodeResponse(nodeErr.Body); decodeErr == nil && resp.Kind == ResponseRemoteError {
				return resp, nil
			}
		}
		return Response{}, err
	}

	return DecodeResponse(body)
}

func (s *Submitter) fail(err error) {
	logging.Or(s.logger).Error("Node update failed", zap.Error(err))
	s.notifier.Alert(AlertPrefix + err.Error())
}
