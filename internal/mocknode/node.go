package mocknode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/nodecfg/internal/logging"
	"github.com/muurk/nodecfg/internal/nodedata"
)

// DefaultAuthURL is returned for Reauthenticate updates unless AuthURL is set
const DefaultAuthURL = "https://login.example.com/a/0123456789"

// DefaultNodeData returns a plausible running node.
func DefaultNodeData() nodedata.NodeData {
	return nodedata.NodeData{
		Profile: nodedata.UserProfile{
			LoginName:   "alice@example.com",
			DisplayName: "Alice",
		},
		Status:      "Running",
		DeviceName:  "nas",
		IP:          "100.64.0.7",
		LicensesURL: "https://example.com/licenses",
		TUNMode:     true,
		IPNVersion:  "1.60.0",
	}
}

// Node is a fake node. It is safe for concurrent use.
type Node struct {
	// Path is the node-data path served (default nodedata.DefaultPath)
	Path string

	// AuthURL is returned for Reauthenticate updates
	AuthURL string

	// Delay is slept before answering an update
	Delay time.Duration

	mu         sync.Mutex
	data       nodedata.NodeData
	failNext   string
	reads      int
	updates    []nodedata.Update
	rawBodies  []string
	csrfTokens []string
}

// New creates a fake node serving data.
func New(data nodedata.NodeData) *Node {
	return &Node{
		Path:    nodedata.DefaultPath,
		AuthURL: DefaultAuthURL,
		data:    data,
	}
}

// Data returns the node's current data.
func (n *Node) Data() nodedata.NodeData {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.data
}

// SetData replaces the node's data.
func (n *Node) SetData(data nodedata.NodeData) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.data = data
}

// FailNextUpdate makes the next update answer {"error": message}.
func (n *Node) FailNextUpdate(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failNext = message
}

// Reads returns how many GET requests were served.
func (n *Node) Reads() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.reads
}

// Updates returns every update received, decoded, in order.
func (n *Node) Updates() []nodedata.Update {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]nodedata.Update(nil), n.updates...)
}

// RawBodies returns the JSON payload of every update received.
func (n *Node) RawBodies() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.rawBodies...)
}

// CSRFTokens returns the csrf_token of every form-encoded update received.
func (n *Node) CSRFTokens() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.csrfTokens...)
}

// ServeHTTP implements http.Handler.
func (n *Node) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logging.Debug("Mock node request",
		zap.String("remote_addr", r.RemoteAddr),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("query", r.URL.RawQuery),
	)

	path := n.Path
	if path == "" {
		path = nodedata.DefaultPath
	}
	if r.URL.Path != path {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		n.serveRead(w)
	case http.MethodPost:
		n.serveUpdate(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (n *Node) serveRead(w http.ResponseWriter) {
	n.mu.Lock()
	n.reads++
	data := n.data
	n.mu.Unlock()

	writeJSON(w, http.StatusOK, data)
}

func (n *Node) serveUpdate(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get(nodedata.UpdateQueryKey) != "true" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing up=true"})
		return
	}

	payload, token, isForm, err := readUpdateBody(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var update nodedata.Update
	if err := json.Unmarshal(payload, &update); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid update: " + err.Error()})
		return
	}

	if n.Delay > 0 {
		time.Sleep(n.Delay)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.updates = append(n.updates, update)
	n.rawBodies = append(n.rawBodies, string(payload))
	if isForm {
		n.csrfTokens = append(n.csrfTokens, token)
	}

	if n.data.IsUnraid && (!isForm || token != n.data.UnraidToken) {
		writeJSON(w, http.StatusOK, map[string]string{"error": "invalid CSRF token"})
		return
	}

	if n.failNext != "" {
		msg := n.failNext
		n.failNext = ""
		writeJSON(w, http.StatusOK, map[string]string{"error": msg})
		return
	}

	if update.AdvertiseExitNode != nil {
		n.data.AdvertiseExitNode = *update.AdvertiseExitNode
	}
	if update.AdvertiseRoutes != nil {
		n.data.AdvertiseRoutes = *update.AdvertiseRoutes
	}
	if update.ForceLogout != nil && *update.ForceLogout {
		n.data.Status = "NeedsLogin"
		n.data.Profile = nodedata.UserProfile{}
	}
	if update.Reauthenticate != nil && *update.Reauthenticate {
		n.data.Status = "NeedsLogin"
		writeJSON(w, http.StatusOK, map[string]string{"url": n.AuthURL})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{})
}

// readUpdateBody returns the JSON update and, for form bodies, the CSRF token.
func readUpdateBody(r *http.Request) (payload []byte, token string, isForm bool, err error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return nil, "", true, fmt.Errorf("invalid form body: %w", err)
		}
		data := r.PostForm.Get(nodedata.FormFieldData)
		if data == "" {
			return nil, "", true, errors.New("missing " + nodedata.FormFieldData)
		}
		return []byte(data), r.PostForm.Get(nodedata.FormFieldCSRF), true, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return nil, "", false, fmt.Errorf("failed to read body: %w", err)
	}
	return body, "", false, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("Failed to write mock node response", zap.Error(err))
	}
}

// Serve runs the fake node on addr until ctx is cancelled.
func (n *Node) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           n,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logging.Info("Mock node listening", zap.String("addr", addr))
		errChan <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logging.Info("Shutting down mock node")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("mock node server failed: %w", err)
	}
}
