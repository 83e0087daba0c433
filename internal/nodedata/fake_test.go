package nodedata

import (
	"context"
	"net/http"
	"sync"
)

// fakeTransport answers GETs and POSTs with canned bodies and records every
// request.
type fakeTransport struct {
	mu       sync.Mutex
	requests []*Request

	getBody  []byte
	getErr   error
	postBody []byte
	postErr  error

	// When set, POSTs signal postStarted and wait on release (or ctx).
	postStarted chan struct{}
	release     chan struct{}
}

func (f *fakeTransport) Do(ctx context.Context, req *Request) ([]byte, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	started, release := f.postStarted, f.release
	f.mu.Unlock()

	if req.Method != http.MethodPost {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.getBody, f.getErr
	}

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, NewNetworkError("POST request failed", ctx.Err())
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.postBody, f.postErr
}

func (f *fakeTransport) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r.Method == method {
			n++
		}
	}
	return n
}

func (f *fakeTransport) lastPost() *Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if f.requests[i].Method == http.MethodPost {
			return f.requests[i]
		}
	}
	return nil
}

// countingRefresher counts Refresh calls.
type countingRefresher struct {
	mu    sync.Mutex
	calls int
}

func (r *countingRefresher) Refresh(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
}

func (r *countingRefresher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// recordingOpener records opened URLs.
type recordingOpener struct {
	mu   sync.Mutex
	urls []string
}

func (o *recordingOpener) Open(url string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.urls = append(o.urls, url)
	return nil
}

func (o *recordingOpener) opened() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.urls...)
}
