package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Node is a node web client found on the local network
type Node struct {
	// Instance is the advertised service instance name
	Instance string

	// Hostname is the mDNS hostname (e.g., "nas.local.")
	Hostname string

	// IP is the address to reach the web client on, IPv4 when available
	IP string

	// Port is the web client port
	Port int

	// Path is the node-data path from the TXT record
	Path string

	// DeviceName is the node's name from the TXT record, if advertised
	DeviceName string

	// Metadata holds every TXT key/value pair
	Metadata map[string]string

	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the node
func (n *Node) String() string {
	name := n.DeviceName
	if name == "" {
		name = n.Instance
	}
	return fmt.Sprintf("%s (%s) at %s", name, n.Hostname, net.JoinHostPort(n.IP, strconv.Itoa(n.Port)))
}

// BaseURL returns the web client base URL
func (n *Node) BaseURL() string {
	return "http://" + net.JoinHostPort(n.IP, strconv.Itoa(n.Port))
}

// GetMetadata retrieves a TXT value by key, or returns empty string if not found
func (n *Node) GetMetadata(key string) string {
	if n.Metadata == nil {
		return ""
	}
	return n.Metadata[key]
}
