package nodedata

import (
	"fmt"
	"net/netip"
	"strings"
)

// DefaultPath is the node-data endpoint relative to the node's base URL.
const DefaultPath = "/api/data"

// NodeData is the node configuration returned by GET on the node-data
// endpoint. Field names match the JSON the node emits.
type NodeData struct {
	Profile    UserProfile `json:"Profile"`
	Status     string      `json:"Status"`
	DeviceName string      `json:"DeviceName"`
	IP         string      `json:"IP"`

	// The two fields an Update backfills when left unset
	AdvertiseExitNode bool   `json:"AdvertiseExitNode"`
	AdvertiseRoutes   string `json:"AdvertiseRoutes"` // comma-separated prefixes

	LicensesURL string `json:"LicensesURL"`

	// Platform and capability flags
	TUNMode     bool   `json:"TUNMode"`
	IsSynology  bool   `json:"IsSynology"`
	DSMVersion  int    `json:"DSMVersion"`
	IsUnraid    bool   `json:"IsUnraid"`
	UnraidToken string `json:"UnraidToken"` // only meaningful when IsUnraid
	IPNVersion  string `json:"IPNVersion"`
}

// UserProfile identifies the user logged in on the node.
type UserProfile struct {
	LoginName     string `json:"LoginName"`
	DisplayName   string `json:"DisplayName"`
	ProfilePicURL string `json:"ProfilePicURL"`
}

// Update is a partial change request. Nil fields are omitted from the wire.
type Update struct {
	AdvertiseExitNode *bool   `json:"AdvertiseExitNode,omitempty"`
	AdvertiseRoutes   *string `json:"AdvertiseRoutes,omitempty"`
	Reauthenticate    *bool   `json:"Reauthenticate,omitempty"`
	ForceLogout       *bool   `json:"ForceLogout,omitempty"`
}

// SetExitNode returns an Update that toggles exit node advertisement.
func SetExitNode(advertise bool) Update {
	return Update{AdvertiseExitNode: &advertise}
}

// SetRoutes returns an Update that replaces the advertised routes.
// routes is the comma-separated form the node uses.
func SetRoutes(routes string) Update {
	return Update{AdvertiseRoutes: &routes}
}

// Reauthenticate returns an Update that starts a new login flow on the node.
func Reauthenticate() Update {
	yes := true
	return Update{Reauthenticate: &yes}
}

// Logout returns an Update that logs the node out.
func Logout() Update {
	yes := true
	return Update{ForceLogout: &yes}
}

// Merge returns the effective update: u with AdvertiseRoutes and
// AdvertiseExitNode taken from current when u leaves them unset.
// The action fields are copied as-is.
func (u Update) Merge(current NodeData) Update {
	var merged Update

	exitNode := current.AdvertiseExitNode
	if u.AdvertiseExitNode != nil {
		exitNode = *u.AdvertiseExitNode
	}
	merged.AdvertiseExitNode = &exitNode

	routes := current.AdvertiseRoutes
	if u.AdvertiseRoutes != nil {
		routes = *u.AdvertiseRoutes
	}
	merged.AdvertiseRoutes = &routes

	if u.Reauthenticate != nil {
		v := *u.Reauthenticate
		merged.Reauthenticate = &v
	}
	if u.ForceLogout != nil {
		v := *u.ForceLogout
		merged.ForceLogout = &v
	}

	return merged
}

// IsEmpty reports whether the update sets no field at all.
func (u Update) IsEmpty() bool {
	return u.AdvertiseExitNode == nil && u.AdvertiseRoutes == nil &&
		u.Reauthenticate == nil && u.ForceLogout == nil
}

// RouteList splits AdvertiseRoutes into trimmed, non-empty prefixes.
func (n NodeData) RouteList() []string {
	return splitRoutes(n.AdvertiseRoutes)
}

func splitRoutes(routes string) []string {
	var out []string
	for _, r := range strings.Split(routes, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// NormalizeRoutes trims each prefix and drops empty entries, returning the
// comma-separated form the node expects.
func NormalizeRoutes(routes string) string {
	return strings.Join(splitRoutes(routes), ",")
}

// ValidateRoutes checks that every entry of a comma-separated route list is
// an IP prefix. An empty list is valid and clears the routes.
func ValidateRoutes(routes string) error {
	for _, r := range splitRoutes(routes) {
		if _, err := netip.ParsePrefix(r); err != nil {
			return fmt.Errorf("invalid route %q: expected a prefix such as 192.168.1.0/24", r)
		}
	}
	return nil
}
