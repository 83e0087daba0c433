package nodedata_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/muurk/nodecfg/internal/mocknode"
	"github.com/muurk/nodecfg/internal/nodedata"
)

func newSession(t *testing.T, data nodedata.NodeData) (*nodedata.Session, *mocknode.Node, *nodedata.AlertCollector, *[]string) {
	t.Helper()
	node := mocknode.New(data)
	srv := httptest.NewServer(node)
	t.Cleanup(srv.Close)

	client, err := nodedata.NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	alerts := &nodedata.AlertCollector{}
	var opened []string
	session := nodedata.NewSession(client, nodedata.Options{
		Notifier: alerts,
		Opener: nodedata.URLOpenerFunc(func(url string) error {
			opened = append(opened, url)
			return nil
		}),
		Logger: zap.NewNop(),
	})
	return session, node, alerts, &opened
}

func TestSession_SetRoutesRoundTrip(t *testing.T) {
	session, node, alerts, _ := newSession(t, mocknode.DefaultNodeData())
	ctx := context.Background()

	session.Refresh(ctx)
	sent := nodedata.SetRoutes("10.0.0.0/24,192.168.1.0/24")
	session.Submit(ctx, sent)

	if len(alerts.Alerts()) != 0 {
		t.Fatalf("unexpected alerts: %v", alerts.Alerts())
	}
	got, ok := session.Store.Node()
	if !ok {
		t.Fatal("store not loaded")
	}
	if m := nodedata.Mismatches(sent, got); len(m) != 0 {
		t.Errorf("node did not take update: %v", m)
	}
	if node.Reads() != 2 {
		t.Errorf("Reads() = %d, want 2", node.Reads())
	}
}

func TestSession_UnraidSendsToken(t *testing.T) {
	data := mocknode.DefaultNodeData()
	data.IsUnraid = true
	data.UnraidToken = "unraid-csrf"
	session, node, alerts, _ := newSession(t, data)
	ctx := context.Background()

	session.Refresh(ctx)
	session.Submit(ctx, nodedata.SetExitNode(true))

	if len(alerts.Alerts()) != 0 {
		t.Fatalf("unexpected alerts: %v", alerts.Alerts())
	}
	if tokens := node.CSRFTokens(); len(tokens) != 1 || tokens[0] != "unraid-csrf" {
		t.Errorf("CSRFTokens() = %v", tokens)
	}
	if !node.Data().AdvertiseExitNode {
		t.Error("exit node not applied")
	}
}

func TestSession_ReauthenticateOpensURL(t *testing.T) {
	session, _, alerts, opened := newSession(t, mocknode.DefaultNodeData())
	ctx := context.Background()

	session.Refresh(ctx)
	session.Submit(ctx, nodedata.Reauthenticate())

	if len(alerts.Alerts()) != 0 {
		t.Fatalf("unexpected alerts: %v", alerts.Alerts())
	}
	if len(*opened) != 1 || (*opened)[0] != mocknode.DefaultAuthURL {
		t.Errorf("opened = %v, want [%s]", *opened, mocknode.DefaultAuthURL)
	}
	got, _ := session.Store.Node()
	if got.Status != "NeedsLogin" {
		t.Errorf("Status = %q, want NeedsLogin after refresh", got.Status)
	}
}

func TestSession_RemoteErrorAlertsAndKeepsSnapshot(t *testing.T) {
	session, node, alerts, _ := newSession(t, mocknode.DefaultNodeData())
	ctx := context.Background()

	session.Refresh(ctx)
	node.FailNextUpdate("permission denied")
	session.Submit(ctx, nodedata.Logout())

	got := alerts.Alerts()
	if len(got) != 1 || got[0] != "Failed operation: permission denied" {
		t.Errorf("alerts = %v", got)
	}
	if node.Reads() != 1 {
		t.Errorf("Reads() = %d, want 1 (no refresh after failure)", node.Reads())
	}
	if session.Store.IsPosting() {
		t.Error("posting flag still set")
	}
}
