package nodedata

import (
	"strings"
	"testing"
)

func TestMismatches(t *testing.T) {
	node := NodeData{AdvertiseExitNode: true, AdvertiseRoutes: "192.168.0.0/16,10.0.0.0/24"}

	tests := []struct {
		name string
		sent Update
		want int
	}{
		{"matching exit node", SetExitNode(true), 0},
		{"exit node not taken", SetExitNode(false), 1},
		{"routes in other order", SetRoutes("10.0.0.0/24, 192.168.0.0/16"), 0},
		{"routes not taken", SetRoutes("172.16.0.0/12"), 1},
		{"actions ignored", Logout(), 0},
		{"both wrong", Update{AdvertiseExitNode: ptr(false), AdvertiseRoutes: ptr("")}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Mismatches(tt.sent, node)
			if len(got) != tt.want {
				t.Errorf("Mismatches() = %v, want %d entries", got, tt.want)
			}
		})
	}
}

func TestFormatters(t *testing.T) {
	node := NodeData{
		Profile:           UserProfile{LoginName: "alice@example.com", DisplayName: "Alice"},
		Status:            "Running",
		DeviceName:        "nas",
		IP:                "100.64.0.7",
		AdvertiseExitNode: true,
		AdvertiseRoutes:   "10.0.0.0/24,192.168.1.0/24",
		IsSynology:        true,
		DSMVersion:        7,
	}

	detailed := node.FormatDetailed()
	for _, want := range []string{"=== Device ===", "Synology DSM 7", "alice@example.com", "Exit node:    on", "192.168.1.0/24"} {
		if !strings.Contains(detailed, want) {
			t.Errorf("FormatDetailed() missing %q:\n%s", want, detailed)
		}
	}

	compact := node.FormatCompact()
	if compact != "nas | 100.64.0.7 | Running | exit-node:on | routes:10.0.0.0/24,192.168.1.0/24" {
		t.Errorf("FormatCompact() = %q", compact)
	}

	empty := NodeData{}
	if !strings.Contains(empty.FormatAdvertisement(), "(none)") {
		t.Error("empty routes should print (none)")
	}
	if empty.Platform() != "Generic" || (NodeData{IsUnraid: true}).Platform() != "Unraid" {
		t.Error("unexpected platform names")
	}
}
