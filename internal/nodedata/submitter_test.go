package nodedata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func loadedStore(node NodeData) *Store {
	store := &Store{}
	store.replace(node)
	return store
}

func newTestSubmitter(ft *fakeTransport, store *Store) (*Submitter, *countingRefresher, *AlertCollector, *recordingOpener) {
	refresher := &countingRefresher{}
	alerts := &AlertCollector{}
	opener := &recordingOpener{}
	s := NewSubmitter(SubmitterConfig{
		Transport: ft,
		Store:     store,
		Refresher: refresher,
		Notifier:  alerts,
		Opener:    opener,
		Logger:    zap.NewNop(),
	})
	return s, refresher, alerts, opener
}

func sentPayload(t *testing.T, req *Request) map[string]any {
	t.Helper()
	raw := req.Body
	if req.Header.Get("Content-Type") == ContentTypeForm {
		form, err := url.ParseQuery(string(req.Body))
		if err != nil {
			t.Fatalf("form body: %v", err)
		}
		raw = []byte(form.Get(FormFieldData))
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	return m
}

func TestSubmit_SendsMergedUpdate(t *testing.T) {
	ft := &fakeTransport{postBody: []byte(`{}`)}
	store := loadedStore(NodeData{AdvertiseExitNode: true, AdvertiseRoutes: "10.0.0.0/24"})
	s, refresher, alerts, _ := newTestSubmitter(ft, store)

	s.Submit(context.Background(), Reauthenticate())

	req := ft.lastPost()
	if req == nil {
		t.Fatal("no POST sent")
	}
	if req.Path != DefaultPath || req.Query.Get(UpdateQueryKey) != "true" {
		t.Errorf("POST target = %s?%s", req.Path, req.Query.Encode())
	}
	if req.Header.Get("Accept") != ContentTypeJSON {
		t.Errorf("Accept = %q", req.Header.Get("Accept"))
	}
	if req.Header.Get("Content-Type") != ContentTypeJSON {
		t.Errorf("Content-Type = %q", req.Header.Get("Content-Type"))
	}

	got := sentPayload(t, req)
	if got["AdvertiseExitNode"] != true || got["AdvertiseRoutes"] != "10.0.0.0/24" || got["Reauthenticate"] != true {
		t.Errorf("payload = %v", got)
	}
	if _, ok := got["ForceLogout"]; ok {
		t.Error("ForceLogout should be absent")
	}

	if refresher.count() != 1 {
		t.Errorf("refreshes = %d, want 1", refresher.count())
	}
	if len(alerts.Alerts()) != 0 {
		t.Errorf("unexpected alerts: %v", alerts.Alerts())
	}
	if store.IsPosting() {
		t.Error("posting flag should be cleared")
	}
}

func TestSubmit_UnraidUsesFormWithToken(t *testing.T) {
	ft := &fakeTransport{postBody: []byte(`{}`)}
	store := loadedStore(NodeData{IsUnraid: true, UnraidToken: "tok-1"})
	s, _, _, _ := newTestSubmitter(ft, store)

	s.Submit(context.Background(), SetExitNode(true))

	req := ft.lastPost()
	if req.Header.Get("Content-Type") != ContentTypeForm {
		t.Fatalf("Content-Type = %q, want form", req.Header.Get("Content-Type"))
	}
	form, _ := url.ParseQuery(string(req.Body))
	if form.Get(FormFieldCSRF) != "tok-1" {
		t.Errorf("csrf_token = %q", form.Get(FormFieldCSRF))
	}
	if got := sentPayload(t, req); got["AdvertiseExitNode"] != true {
		t.Errorf("payload = %v", got)
	}
}

func TestSubmit_SkippedWhileInFlight(t *testing.T) {
	ft := &fakeTransport{
		postBody:    []byte(`{}`),
		postStarted: make(chan struct{}, 1),
		release:     make(chan struct{}),
	}
	store := loadedStore(NodeData{})
	s, refresher, _, _ := newTestSubmitter(ft, store)

	done := make(chan struct{})
	go func() {
		s.Submit(context.Background(), SetExitNode(true))
		close(done)
	}()

	select {
	case <-ft.postStarted:
	case <-time.After(time.Second):
		t.Fatal("first POST never started")
	}
	if !store.IsPosting() {
		t.Error("posting flag should be set while in flight")
	}

	// Returns at once without touching the transport
	s.Submit(context.Background(), Logout())
	if n := ft.count(http.MethodPost); n != 1 {
		t.Errorf("POSTs while in flight = %d, want 1", n)
	}

	close(ft.release)
	<-done

	if store.IsPosting() {
		t.Error("posting flag should be cleared after completion")
	}
	if refresher.count() != 1 {
		t.Errorf("refreshes = %d, want 1", refresher.count())
	}

	// A new submission is accepted once the flag is clear
	s.Submit(context.Background(), Logout())
	if n := ft.count(http.MethodPost); n != 2 {
		t.Errorf("POSTs = %d, want 2", n)
	}
}

func TestSubmit_SkippedBeforeLoad(t *testing.T) {
	ft := &fakeTransport{postBody: []byte(`{}`)}
	s, refresher, _, _ := newTestSubmitter(ft, &Store{})

	s.Submit(context.Background(), SetExitNode(true))

	if ft.count(http.MethodPost) != 0 {
		t.Error("nothing should be posted before node data loads")
	}
	if refresher.count() != 0 {
		t.Error("nothing should be refreshed")
	}
}

func TestSubmit_FlagClearedOnEveryOutcome(t *testing.T) {
	tests := []struct {
		name     string
		postBody string
		postErr  error
	}{
		{"ok", `{}`, nil},
		{"remote error", `{"error":"nope"}`, nil},
		{"redirect", `{"url":"https://login.example/a"}`, nil},
		{"network failure", "", NewNetworkError("POST request failed", errors.New("boom"))},
		{"unparseable body", `<html>`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := &fakeTransport{postBody: []byte(tt.postBody), postErr: tt.postErr}
			store := loadedStore(NodeData{})
			s, _, _, _ := newTestSubmitter(ft, store)

			s.Submit(context.Background(), SetExitNode(true))

			if store.IsPosting() {
				t.Error("posting flag still set")
			}
		})
	}
}

func TestSubmit_ResponseHandling(t *testing.T) {
	tests := []struct {
		name          string
		postBody      string
		postErr       error
		wantAlert     string
		wantOpened    []string
		wantRefreshes int
	}{
		{
			name:          "ok refreshes",
			postBody:      `{}`,
			wantRefreshes: 1,
		},
		{
			name:      "remote error alerts",
			postBody:  `{"error":"bad"}`,
			wantAlert: "Failed operation: bad",
		},
		{
			name:          "redirect opens and refreshes",
			postBody:      `{"url":"https://x"}`,
			wantOpened:    []string{"https://x"},
			wantRefreshes: 1,
		},
		{
			name:      "error wins over url",
			postBody:  `{"error":"bad","url":"https://x"}`,
			wantAlert: "Failed operation: bad",
		},
		{
			name:      "http error carrying error field",
			postErr:   NewHTTPError(http.StatusForbidden, []byte(`{"error":"invalid CSRF token"}`)),
			wantAlert: "Failed operation: invalid CSRF token",
		},
		{
			name:      "network failure",
			postErr:   NewNetworkError("POST request failed", errors.New("boom")),
			wantAlert: "Failed operation: Network Error: POST request failed (caused by: boom)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := &fakeTransport{postBody: []byte(tt.postBody), postErr: tt.postErr}
			s, refresher, alerts, opener := newTestSubmitter(ft, loadedStore(NodeData{}))

			s.Submit(context.Background(), SetExitNode(true))

			got := alerts.Alerts()
			if tt.wantAlert == "" && len(got) != 0 {
				t.Errorf("unexpected alerts: %v", got)
			}
			if tt.wantAlert != "" && (len(got) != 1 || got[0] != tt.wantAlert) {
				t.Errorf("alerts = %v, want [%s]", got, tt.wantAlert)
			}
			if opened := opener.opened(); len(opened) != len(tt.wantOpened) || (len(opened) > 0 && opened[0] != tt.wantOpened[0]) {
				t.Errorf("opened = %v, want %v", opened, tt.wantOpened)
			}
			if refresher.count() != tt.wantRefreshes {
				t.Errorf("refreshes = %d, want %d", refresher.count(), tt.wantRefreshes)
			}
		})
	}
}

func TestSubmit_OpenFailureStillRefreshes(t *testing.T) {
	ft := &fakeTransport{postBody: []byte(`{"url":"https://x"}`)}
	refresher := &countingRefresher{}
	alerts := &AlertCollector{}
	s := NewSubmitter(SubmitterConfig{
		Transport: ft,
		Store:     loadedStore(NodeData{}),
		Refresher: refresher,
		Notifier:  alerts,
		Opener:    URLOpenerFunc(func(string) error { return errors.New("no browser") }),
		Logger:    zap.NewNop(),
	})

	s.Submit(context.Background(), Reauthenticate())

	if refresher.count() != 1 {
		t.Errorf("refreshes = %d, want 1", refresher.count())
	}
	if len(alerts.Alerts()) != 0 {
		t.Errorf("open failure should not alert: %v", alerts.Alerts())
	}
}

func TestSubmit_TimeoutClearsFlag(t *testing.T) {
	ft := &fakeTransport{release: make(chan struct{})}
	store := loadedStore(NodeData{})
	alerts := &AlertCollector{}
	s := NewSubmitter(SubmitterConfig{
		Transport: ft,
		Store:     store,
		Refresher: &countingRefresher{},
		Notifier:  alerts,
		Opener:    &recordingOpener{},
		Timeout:   20 * time.Millisecond,
		Logger:    zap.NewNop(),
	})

	s.Submit(context.Background(), SetExitNode(true))

	if store.IsPosting() {
		t.Error("posting flag should clear after timeout")
	}
	got := alerts.Alerts()
	if len(got) != 1 || !strings.HasPrefix(got[0], AlertPrefix) {
		t.Errorf("alerts = %v", got)
	}
}

func TestFetcher_Refresh(t *testing.T) {
	ft := &fakeTransport{getBody: []byte(`{"DeviceName":"nas","Status":"Running","AdvertiseRoutes":"10.0.0.0/24"}`)}
	store := &Store{}
	f := NewFetcher(ft, store, "", zap.NewNop())

	changed := store.Changed()
	f.Refresh(context.Background())

	select {
	case <-changed:
	default:
		t.Error("Changed() should fire on refresh")
	}

	snap := store.Snapshot()
	if !snap.Loaded || snap.Node.DeviceName != "nas" || snap.UpdatedAt.IsZero() {
		t.Errorf("snapshot = %+v", snap)
	}
	if ft.requests[0].Path != DefaultPath || ft.requests[0].Header.Get("Accept") != ContentTypeJSON {
		t.Errorf("request = %+v", ft.requests[0])
	}
}

func TestFetcher_FailureKeepsSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		getBody string
		getErr  error
	}{
		{"transport error", "", NewNetworkError("GET request failed", errors.New("refused"))},
		{"not json", "<html>login</html>", nil},
		{"json array", "[]", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.WarnLevel)
			ft := &fakeTransport{getBody: []byte(`{"DeviceName":"nas"}`)}
			store := &Store{}
			f := NewFetcher(ft, store, "", zap.New(core))
			f.Refresh(context.Background())

			ft.getBody, ft.getErr = []byte(tt.getBody), tt.getErr
			f.Refresh(context.Background())

			snap := store.Snapshot()
			if snap.Node.DeviceName != "nas" {
				t.Errorf("snapshot replaced on failure: %+v", snap.Node)
			}
			if snap.LastFetchError == nil || snap.ConsecutiveFailures != 1 {
				t.Errorf("failure not recorded: err=%v failures=%d", snap.LastFetchError, snap.ConsecutiveFailures)
			}
			if logs.FilterMessage("Node data refresh failed").Len() != 1 {
				t.Errorf("expected one warning, got %v", logs.All())
			}
		})
	}
}

func TestSession_WiresComponents(t *testing.T) {
	ft := &fakeTransport{
		getBody:  []byte(`{"DeviceName":"nas","AdvertiseExitNode":false}`),
		postBody: []byte(`{}`),
	}
	session := NewSession(ft, Options{Notifier: &AlertCollector{}, Opener: &recordingOpener{}, Logger: zap.NewNop()})

	session.Refresh(context.Background())
	session.Submit(context.Background(), SetExitNode(true))

	if ft.count(http.MethodGet) != 2 {
		t.Errorf("GETs = %d, want 2 (initial and post-update refresh)", ft.count(http.MethodGet))
	}
	if ft.count(http.MethodPost) != 1 {
		t.Errorf("POSTs = %d, want 1", ft.count(http.MethodPost))
	}
}
