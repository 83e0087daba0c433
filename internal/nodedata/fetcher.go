package nodedata

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/muurk/nodecfg/internal/logging"
)

// Refresher reloads node data. Implemented by *Fetcher and *Session.
type Refresher interface {
	Refresh(ctx context.Context)
}

// Fetcher reads node data from the Transport into a Store.
type Fetcher struct {
	transport Transport
	store     *Store
	path      string
	logger    *zap.Logger
}

// NewFetcher creates a Fetcher. An empty path uses DefaultPath; a nil logger
// uses the global one.
func NewFetcher(t Transport, store *Store, path string, logger *zap.Logger) *Fetcher {
	if path == "" {
		path = DefaultPath
	}
	return &Fetcher{transport: t, store: store, path: path, logger: logger}
}

// Refresh fetches node data and replaces the stored snapshot. Failures are
// logged and recorded on the Store; the previous snapshot is kept.
func (f *Fetcher) Refresh(ctx context.Context) {
	node, err := f.fetch(ctx)
	if err != nil {
		logging.Or(f.logger).Warn("Node data refresh failed",
			zap.String("path", f.path),
			zap.Error(err),
		)
		f.store.recordFetchError(err)
		return
	}

	f.store.replace(node)
	logging.Or(f.logger).Debug("Node data refreshed",
		zap.String("device", node.DeviceName),
		zap.String("status", node.Status),
	)
}

func (f *Fetcher) fetch(ctx context.Context) (NodeData, error) {
	body, err := f.transport.Do(ctx, &Request{
		Method: http.MethodGet,
		Path:   f.path,
		Header: http.Header{"Accept": []string{ContentTypeJSON}},
	})
	if err != nil {
		return NodeData{}, err
	}

	return ParseNodeData(body)
}

// ParseNodeData decodes a node-data body. Anything other than a JSON object
// is rejected.
func ParseNodeData(body []byte) (NodeData, error) {
	if !bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) {
		return NodeData{}, NewParseError("node data is not a JSON object", nil)
	}

	var node NodeData
	if err := json.Unmarshal(body, &node); err != nil {
		return NodeData{}, NewParseError("failed to parse node data", err)
	}
	return node, nil
}
