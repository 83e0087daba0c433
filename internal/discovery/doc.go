// Package discovery finds node web clients on the local network over mDNS.
//
// Web clients are announced as "_http._tcp" services. An advertisement counts
// as a node when its TXT records carry the node-data path ("path=/api/data");
// the optional "device" and "version" records name the node.
//
// # Usage Example
//
//	scanner := discovery.NewScanner(nodedata.DefaultPath)
//	nodes, err := scanner.Scan(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, n := range nodes {
//	    fmt.Println(n, n.BaseURL())
//	}
//
// Advertise announces a node; the mock node uses it so scan can find it.
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Nodes must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
