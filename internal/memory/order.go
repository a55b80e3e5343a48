package memory

import (
	"sort"

	"github.com/mesh-intelligence/stockparts/pkg/types"
)

// SortForListing orders rows in place the way ListAll returns them.
func SortForListing(policy types.Policy, rows []types.PartEntry) {
	if policy == types.PolicyDuplicateFlag {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].ID > rows[j].ID })
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].SKU != rows[j].SKU {
			return rows[i].SKU < rows[j].SKU
		}
		return rows[i].Sequence > rows[j].Sequence
	})
}
