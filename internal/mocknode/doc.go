// Package mocknode implements a fake node web client for tests and local
// development.
//
// It serves the node-data endpoint the way a real node does:
//
//	GET  /api/data          -> NodeData JSON
//	POST /api/data?up=true  -> {} | {"error": "..."} | {"url": "..."}
//
// POST bodies are accepted as JSON, or as a form carrying csrf_token and
// ts_data when the fake node reports IsUnraid. A Reauthenticate update answers
// with AuthURL; ForceLogout moves the node to the NeedsLogin state.
//
//	node := mocknode.New(mocknode.DefaultNodeData())
//	srv := httptest.NewServer(node)
//	defer srv.Close()
package mocknode
