package discovery

import "testing"

func TestNode_String(t *testing.T) {
	tests := []struct {
		name string
		node *Node
		want string
	}{
		{
			name: "device name",
			node: &Node{Instance: "web", DeviceName: "nas", Hostname: "nas.local.", IP: "192.168.4.16", Port: 5252},
			want: "nas (nas.local.) at 192.168.4.16:5252",
		},
		{
			name: "falls back to instance",
			node: &Node{Instance: "web", Hostname: "nas.local.", IP: "fe80::1", Port: 80},
			want: "web (nas.local.) at [fe80::1]:80",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.String(); got != tt.want {
				t.Errorf("String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNode_BaseURL(t *testing.T) {
	tests := []struct {
		name string
		node *Node
		want string
	}{
		{"IPv4", &Node{IP: "192.168.4.16", Port: 5252}, "http://192.168.4.16:5252"},
		{"IPv6", &Node{IP: "fe80::1", Port: 8088}, "http://[fe80::1]:8088"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.BaseURL(); got != tt.want {
				t.Errorf("BaseURL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNode_GetMetadata(t *testing.T) {
	node := &Node{Metadata: map[string]string{"device": "nas"}}
	if node.GetMetadata("device") != "nas" || node.GetMetadata("missing") != "" {
		t.Error("unexpected metadata lookup")
	}
	if (&Node{}).GetMetadata("anything") != "" {
		t.Error("nil metadata should yield empty string")
	}
}
