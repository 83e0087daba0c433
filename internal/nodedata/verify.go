package nodedata

import (
	"fmt"
	"slices"
)

// Mismatches compares node data fetched after an update with the update that
// was sent and lists every field the node did not take. Action fields are not
// compared since their effect is not visible in node data.
func Mismatches(sent Update, node NodeData) []string {
	var mismatches []string

	if sent.AdvertiseExitNode != nil && *sent.AdvertiseExitNode != node.AdvertiseExitNode {
		mismatches = append(mismatches, fmt.Sprintf("exit node advertisement: expected %v, got %v",
			*sent.AdvertiseExitNode, node.AdvertiseExitNode))
	}

	if sent.AdvertiseRoutes != nil && !sameRoutes(*sent.AdvertiseRoutes, node.AdvertiseRoutes) {
		mismatches = append(mismatches, fmt.Sprintf("advertised routes: expected %q, got %q",
			*sent.AdvertiseRoutes, node.AdvertiseRoutes))
	}

	return mismatches
}

// sameRoutes compares route lists ignoring order and whitespace, since nodes
// may normalize what they were sent.
func sameRoutes(a, b string) bool {
	ra, rb := splitRoutes(a), splitRoutes(b)
	slices.Sort(ra)
	slices.Sort(rb)
	return slices.Equal(ra, rb)
}
