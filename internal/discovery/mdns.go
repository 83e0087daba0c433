package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/nodecfg/internal/logging"
)

const (
	// ServiceType is the mDNS service type node web clients advertise
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for node discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is used when an advertisement carries no port
	DefaultPort = 80

	// TXT record keys
	TXTPath    = "path"
	TXTDevice  = "device"
	TXTVersion = "version"
)

// Scanner handles mDNS node discovery
type Scanner struct {
	// Timeout is the maximum time to wait for answers
	Timeout time.Duration

	// Path is the node-data path an advertisement must carry in its
	// "path" TXT record
	Path string

	Logger *zap.Logger
}

// NewScanner creates a scanner matching nodes that serve path.
func NewScanner(path string) *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
		Path:    path,
	}
}

// Scan browses for ServiceType until the timeout and returns every matching
// node, sorted by device name. Repeated answers for one instance are merged.
func (s *Scanner) Scan(ctx context.Context) ([]*Node, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	var (
		mu    sync.Mutex
		found = make(map[string]*Node)
		done  = make(chan struct{})
	)

	// The resolver closes entries once ctx is done
	go func() {
		defer close(done)
		for entry := range entries {
			node := s.parseServiceEntry(entry)
			if node == nil {
				continue
			}
			logging.Or(s.Logger).Debug("Discovered node",
				zap.String("instance", node.Instance),
				zap.String("url", node.BaseURL()),
			)
			mu.Lock()
			found[node.Instance] = node
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	<-done

	mu.Lock()
	defer mu.Unlock()
	return sortedNodes(found), nil
}

// parseServiceEntry converts a zeroconf service entry to a Node.
// Returns nil if the entry is not a node web client.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Node {
	if entry == nil {
		return nil
	}

	metadata := parseTXT(entry.Text)
	path, ok := metadata[TXTPath]
	if !ok || strings.TrimSuffix(path, "/") != strings.TrimSuffix(s.Path, "/") {
		return nil
	}

	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	return &Node{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Path:         path,
		DeviceName:   metadata[TXTDevice],
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// parseTXT splits "key=value" records; a bare key maps to "".
func parseTXT(records []string) map[string]string {
	metadata := make(map[string]string, len(records))
	for _, txt := range records {
		key, value, _ := strings.Cut(txt, "=")
		if key != "" {
			metadata[key] = value
		}
	}
	return metadata
}

func sortedNodes(found map[string]*Node) []*Node {
	nodes := make([]*Node, 0, len(found))
	for _, n := range found {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].DeviceName != nodes[j].DeviceName {
			return nodes[i].DeviceName < nodes[j].DeviceName
		}
		return nodes[i].Instance < nodes[j].Instance
	})
	return nodes
}

// Advertisement describes a node web client to announce on the network.
type Advertisement struct {
	Instance   string
	Port       int
	Path       string
	DeviceName string
	Version    string
}

// TXT returns the TXT records for the advertisement.
func (a Advertisement) TXT() []string {
	txt := []string{TXTPath + "=" + a.Path}
	if a.DeviceName != "" {
		txt = append(txt, TXTDevice+"="+a.DeviceName)
	}
	if a.Version != "" {
		txt = append(txt, TXTVersion+"="+a.Version)
	}
	return txt
}

// Advertise registers a over mDNS until the returned func is called.
func Advertise(a Advertisement) (shutdown func(), err error) {
	server, err := zeroconf.Register(a.Instance, ServiceType, ServiceDomain, a.Port, a.TXT(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to advertise %s: %w", a.Instance, err)
	}
	return server.Shutdown, nil
}
