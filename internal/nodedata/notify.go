package nodedata

import (
	"io"
	"sync"

	"github.com/pkg/browser"
	"go.uber.org/zap"

	"github.com/muurk/nodecfg/internal/logging"
)

// Notifier shows a failed submission to the user.
type Notifier interface {
	Alert(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

// Alert calls f(message).
func (f NotifierFunc) Alert(message string) { f(message) }

// URLOpener opens a URL the node handed back (for example a login page).
type URLOpener interface {
	Open(url string) error
}

// URLOpenerFunc adapts a function to URLOpener.
type URLOpenerFunc func(url string) error

// Open calls f(url).
func (f URLOpenerFunc) Open(url string) error { return f(url) }

// BrowserOpener opens URLs in the system browser.
type BrowserOpener struct {
	// Quiet discards the browser launcher's own output, which would
	// otherwise land on a terminal UI.
	Quiet bool
}

var browserMu sync.Mutex

// Open launches the system browser on url.
func (o BrowserOpener) Open(url string) error {
	if !o.Quiet {
		return browser.OpenURL(url)
	}

	browserMu.Lock()
	defer browserMu.Unlock()

	stdout, stderr := browser.Stdout, browser.Stderr
	browser.Stdout, browser.Stderr = io.Discard, io.Discard
	defer func() { browser.Stdout, browser.Stderr = stdout, stderr }()

	return browser.OpenURL(url)
}

// AlertCollector is a Notifier that keeps every alert. The CLI uses it to
// turn alerts into an exit status.
type AlertCollector struct {
	mu     sync.Mutex
	alerts []string
}

// Alert records message.
func (c *AlertCollector) Alert(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts = append(c.alerts, message)
}

// Alerts returns the recorded messages in order.
func (c *AlertCollector) Alerts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.alerts...)
}

// logNotifier is the fallback when no Notifier is configured.
type logNotifier struct {
	logger *zap.Logger
}

func (n logNotifier) Alert(message string) {
	logging.Or(n.logger).Error("Node update failed", zap.String("alert", message))
}
