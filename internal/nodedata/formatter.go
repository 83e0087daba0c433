package nodedata

import (
	"fmt"
	"strings"
)

// Summary returns a one-line summary of the node
func (n NodeData) Summary() string {
	return fmt.Sprintf("%s (%s) %s", n.DeviceName, n.IP, n.Status)
}

// Platform describes the host the node runs on.
func (n NodeData) Platform() string {
	switch {
	case n.IsSynology && n.DSMVersion > 0:
		return fmt.Sprintf("Synology DSM %d", n.DSMVersion)
	case n.IsSynology:
		return "Synology"
	case n.IsUnraid:
		return "Unraid"
	default:
		return "Generic"
	}
}

// NetworkMode describes how the node attaches to the network.
func (n NodeData) NetworkMode() string {
	if n.TUNMode {
		return "TUN"
	}
	return "userspace"
}

// FormatIdentity returns a formatted string with the logged-in user
func (n NodeData) FormatIdentity() string {
	var b strings.Builder

	b.WriteString("=== Identity ===\n")
	b.WriteString(fmt.Sprintf("User:         %s\n", orNone(n.Profile.DisplayName)))
	b.WriteString(fmt.Sprintf("Login:        %s\n", orNone(n.Profile.LoginName)))

	return b.String()
}

// FormatDevice returns a formatted string with device information
func (n NodeData) FormatDevice() string {
	var b strings.Builder

	b.WriteString("=== Device ===\n")
	b.WriteString(fmt.Sprintf("Name:         %s\n", orNone(n.DeviceName)))
	b.WriteString(fmt.Sprintf("Status:       %s\n", orNone(n.Status)))
	b.WriteString(fmt.Sprintf("IP:           %s\n", orNone(n.IP)))
	b.WriteString(fmt.Sprintf("Version:      %s\n", orNone(n.IPNVersion)))
	b.WriteString(fmt.Sprintf("Platform:     %s\n", n.Platform()))
	b.WriteString(fmt.Sprintf("Network mode: %s\n", n.NetworkMode()))

	return b.String()
}

// FormatAdvertisement returns a formatted string with exit node and route
// advertisement
func (n NodeData) FormatAdvertisement() string {
	var b strings.Builder

	b.WriteString("=== Advertisement ===\n")
	b.WriteString(fmt.Sprintf("Exit node:    %s\n", onOff(n.AdvertiseExitNode)))

	routes := n.RouteList()
	if len(routes) == 0 {
		b.WriteString("Routes:       (none)\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Routes:       %s\n", routes[0]))
	for _, r := range routes[1:] {
		b.WriteString(fmt.Sprintf("              %s\n", r))
	}

	return b.String()
}

// FormatDetailed returns the full multi-section view of the node
func (n NodeData) FormatDetailed() string {
	var b strings.Builder

	b.WriteString(n.FormatDevice())
	b.WriteString("\n")
	b.WriteString(n.FormatIdentity())
	b.WriteString("\n")
	b.WriteString(n.FormatAdvertisement())

	if n.LicensesURL != "" {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("Licenses: %s\n", n.LicensesURL))
	}

	return b.String()
}

// FormatCompact returns a short view suitable for scripts and narrow terminals
func (n NodeData) FormatCompact() string {
	routes := "none"
	if r := n.RouteList(); len(r) > 0 {
		routes = strings.Join(r, ",")
	}
	return fmt.Sprintf("%s | %s | %s | exit-node:%s | routes:%s",
		orNone(n.DeviceName), orNone(n.IP), orNone(n.Status), onOff(n.AdvertiseExitNode), routes)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
