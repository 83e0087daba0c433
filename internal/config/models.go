package config

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Registry represents the entire user configuration file.
// This stores known nodes and application preferences.
type Registry struct {
	Version     int              `yaml:"version"`
	Nodes       map[string]*Node `yaml:"nodes,omitempty"` // Keyed by node name
	Preferences *Preferences     `yaml:"preferences,omitempty"`
}

// Node represents a saved node, keyed by a short name in the Registry.
type Node struct {
	URL        string    `yaml:"url"`                   // Web client base URL
	Nickname   string    `yaml:"nickname,omitempty"`    // User-friendly name
	LastSeen   time.Time `yaml:"last_seen,omitempty"`   // Last successful fetch or discovery
	LastStatus string    `yaml:"last_status,omitempty"` // Backend status at LastSeen
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DefaultNode     string `yaml:"default_node,omitempty"` // Node used when none is given
	RefreshInterval int    `yaml:"refresh_interval"`       // Dashboard refresh period in seconds (0 = focus only)
	SubmitTimeout   int    `yaml:"submit_timeout"`         // Update timeout in seconds
	DiscoverTimeout int    `yaml:"discover_timeout"`       // mDNS scan timeout in seconds
	LogLevel        string `yaml:"log_level,omitempty"`    // debug, info, warn or error
}

func defaultPreferences() *Preferences {
	return &Preferences{
		RefreshInterval: 30,
		SubmitTimeout:   30,
		DiscoverTimeout: 5,
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Nodes:       make(map[string]*Node),
		Preferences: defaultPreferences(),
	}
}

// RefreshEvery returns the dashboard refresh period, zero when disabled.
func (p *Preferences) RefreshEvery() time.Duration {
	if p == nil || p.RefreshInterval <= 0 {
		return 0
	}
	return time.Duration(p.RefreshInterval) * time.Second
}

// SubmitTimeoutDuration returns the update timeout, zero for the default.
func (p *Preferences) SubmitTimeoutDuration() time.Duration {
	if p == nil || p.SubmitTimeout <= 0 {
		return 0
	}
	return time.Duration(p.SubmitTimeout) * time.Second
}

// DiscoverTimeoutDuration returns the scan timeout, zero for the default.
func (p *Preferences) DiscoverTimeoutDuration() time.Duration {
	if p == nil || p.DiscoverTimeout <= 0 {
		return 0
	}
	return time.Duration(p.DiscoverTimeout) * time.Second
}

// GetNode retrieves a node by name.
// Returns nil if the node doesn't exist in the registry.
func (r *Registry) GetNode(name string) *Node {
	return r.Nodes[name]
}

// SetNode adds or replaces the URL of a named node, keeping any other
// metadata already stored for it.
func (r *Registry) SetNode(name, url string) (*Node, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("node name is empty")
	}
	if r.Nodes == nil {
		r.Nodes = make(map[string]*Node)
	}

	node, exists := r.Nodes[name]
	if !exists {
		node = &Node{}
		r.Nodes[name] = node
	}
	node.URL = url
	return node, nil
}

// RemoveNode deletes a node and clears it as the default.
// It reports whether the node existed.
func (r *Registry) RemoveNode(name string) bool {
	if _, exists := r.Nodes[name]; !exists {
		return false
	}
	delete(r.Nodes, name)
	if r.Preferences != nil && r.Preferences.DefaultNode == name {
		r.Preferences.DefaultNode = ""
	}
	return true
}

// SetDefaultNode makes name the node used when none is given.
func (r *Registry) SetDefaultNode(name string) error {
	if _, exists := r.Nodes[name]; !exists {
		return fmt.Errorf("unknown node %q", name)
	}
	if r.Preferences == nil {
		r.Preferences = defaultPreferences()
	}
	r.Preferences.DefaultNode = name
	return nil
}

// UpdateNodeLastSeen records a successful contact with a node.
func (r *Registry) UpdateNodeLastSeen(name, status string) {
	node := r.Nodes[name]
	if node == nil {
		return
	}
	node.LastSeen = time.Now()
	node.LastStatus = status
}

// NodeNames returns the saved node names in sorted order.
func (r *Registry) NodeNames() []string {
	names := make([]string, 0, len(r.Nodes))
	for name := range r.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
