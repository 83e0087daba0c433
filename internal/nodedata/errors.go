package nodedata

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates the node refused the connection
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeHTTP indicates a non-2xx status code
	ErrTypeHTTP
	// ErrTypeParse indicates a body that could not be decoded
	ErrTypeParse
	// ErrTypeRemote indicates the node answered with an "error" field
	ErrTypeRemote
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeRemote:
		return "Node Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// NodeError represents an error that occurred talking to a node
type NodeError struct {
	Type       ErrorType
	Message    string
	StatusCode int    // HTTP status code (if applicable)
	Body       []byte // response body of an HTTP error, if any
	Err        error
	Retryable  bool
}

// Error implements the error interface
func (e *NodeError) Error() string {
	if e.Type == ErrTypeRemote {
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *NodeError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes a transport error and returns a typed NodeError
func ClassifyNetworkError(err error) *NodeError {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return &NodeError{Type: ErrTypeNetwork, Message: "Request cancelled", Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return &NodeError{Type: ErrTypeTimeout, Message: "Request timed out", Err: err, Retryable: true}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &NodeError{
			Type:    ErrTypeDNS,
			Message: fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:     err,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			return &NodeError{Type: ErrTypeConnectionRefused, Message: "Node refused connection", Err: err, Retryable: true}
		case errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			return &NodeError{Type: ErrTypeNetwork, Message: "Host unreachable", Err: err, Retryable: true}
		case errors.Is(opErr.Err, syscall.ENETUNREACH):
			return &NodeError{Type: ErrTypeNetwork, Message: "Network unreachable", Err: err, Retryable: true}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ClassifyNetworkError(urlErr.Err)
	}

	return &NodeError{Type: ErrTypeNetwork, Message: "Network error occurred", Err: err, Retryable: true}
}

// NewNetworkError creates a network-level error with automatic classification
func NewNetworkError(message string, err error) *NodeError {
	classified := ClassifyNetworkError(err)
	if classified == nil {
		return &NodeError{Type: ErrTypeNetwork, Message: message, Retryable: true}
	}
	classified.Message = message
	return classified
}

// NewHTTPError creates an HTTP-level error. Server errors are retryable.
func NewHTTPError(statusCode int, body []byte) *NodeError {
	msg := fmt.Sprintf("unexpected status code: %d", statusCode)
	if text := strings.TrimSpace(string(body)); text != "" {
		if len(text) > 200 {
			text = text[:200] + "..."
		}
		msg = fmt.Sprintf("%s: %s", msg, text)
	}
	return &NodeError{
		Type:       ErrTypeHTTP,
		Message:    msg,
		StatusCode: statusCode,
		Body:       body,
		Retryable:  statusCode >= 500,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *NodeError {
	return &NodeError{Type: ErrTypeParse, Message: message, Err: err}
}

// NewRemoteError creates an error carrying the node's own error text
func NewRemoteError(message string) *NodeError {
	return &NodeError{Type: ErrTypeRemote, Message: message}
}

func asNodeError(err error) (*NodeError, bool) {
	var nodeErr *NodeError
	if errors.As(err, &nodeErr) {
		return nodeErr, true
	}
	return nil, false
}

// IsNetworkError checks if an error is a network error (including timeout, connection refused, DNS)
func IsNetworkError(err error) bool {
	if e, ok := asNodeError(err); ok {
		return e.Type == ErrTypeNetwork ||
			e.Type == ErrTypeTimeout ||
			e.Type == ErrTypeConnectionRefused ||
			e.Type == ErrTypeDNS
	}
	return false
}

// IsHTTPError checks if an error is an HTTP status error
func IsHTTPError(err error) bool {
	e, ok := asNodeError(err)
	return ok && e.Type == ErrTypeHTTP
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	e, ok := asNodeError(err)
	return ok && e.Type == ErrTypeParse
}

// IsRemoteError checks if an error came from the node's "error" field
func IsRemoteError(err error) bool {
	e, ok := asNodeError(err)
	return ok && e.Type == ErrTypeRemote
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	if e, ok := asNodeError(err); ok {
		return e.Retryable
	}
	return false
}

// ShortMessage returns a concise, user-friendly error message
func ShortMessage(err error) string {
	e, ok := asNodeError(err)
	if !ok {
		return err.Error()
	}

	switch e.Type {
	case ErrTypeTimeout:
		return "Node not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Node refused connection - is the web client running?"
	case ErrTypeDNS:
		return "Cannot resolve node hostname"
	case ErrTypeNetwork:
		return "Network error - check connection"
	case ErrTypeHTTP:
		return fmt.Sprintf("Node error (HTTP %d)", e.StatusCode)
	case ErrTypeParse:
		return "Failed to parse node response"
	default:
		return e.Message
	}
}

// Hint returns troubleshooting advice for an error, or "" if there is none
func Hint(err error) string {
	e, ok := asNodeError(err)
	if !ok {
		return ""
	}

	switch e.Type {
	case ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeNetwork:
		return strings.Join([]string{
			"Troubleshooting:",
			"  • Check that the node is online and its web client is enabled",
			"  • Verify the node URL and port (--url or NODECFG_URL)",
			"  • Try 'nodecfg scan' to find nodes on the local network",
		}, "\n")
	case ErrTypeDNS:
		return "Use the node's IP address instead of its hostname."
	case ErrTypeHTTP:
		if e.StatusCode == 401 || e.StatusCode == 403 {
			return "The node rejected the request. Open the web client in a browser to sign in first."
		}
		if e.StatusCode == 404 {
			return "The node does not serve the data endpoint at this path. Check --path."
		}
		return ""
	case ErrTypeParse:
		return "The node answered with something other than node data. Check the URL points at the web client."
	default:
		return ""
	}
}
