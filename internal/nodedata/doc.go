// Package nodedata mirrors a node's configuration resource into a local store
// and submits partial updates back to it.
//
// The node exposes a single endpoint (by default /api/data). A GET returns the
// full NodeData snapshot; a POST with the query marker up=true applies an
// Update and answers with a JSON object that may carry an "error" or a "url".
//
// # Components
//
//   - Client: HTTP Transport with retry for idempotent reads
//   - Store: last fetched snapshot plus the submission-in-flight flag
//   - Fetcher: best-effort Refresh that replaces the snapshot on success
//   - Submitter: merges, encodes and posts an Update, then refreshes
//   - Session: owns one of each, scoped to a UI session
//
// # Merge Rule
//
// AdvertiseRoutes and AdvertiseExitNode are always sent. When an Update leaves
// one unset, the stored snapshot's value is sent instead, because the node
// treats the posted body as authoritative for both. Reauthenticate and
// ForceLogout are actions and are never backfilled.
//
// # Encoding
//
// Nodes running on Unraid expect a form body carrying the CSRF token from the
// snapshot:
//
//	csrf_token=<UnraidToken>&ts_data=<json update>
//
// Every other node takes the JSON update as the body.
//
// # Usage Example
//
//	client, err := nodedata.NewClient("http://100.64.0.1:5252")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	session := nodedata.NewSession(client, nodedata.Options{
//	    Notifier: nodedata.NotifierFunc(func(msg string) { fmt.Println(msg) }),
//	})
//
//	session.Refresh(ctx)
//	session.Submit(ctx, nodedata.SetExitNode(true))
//
// Neither Refresh nor Submit returns an error. Fetch failures are logged and
// recorded on the Store; submission failures go to the Notifier.
package nodedata
