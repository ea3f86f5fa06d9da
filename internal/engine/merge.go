package engine

import (
	"sort"

	"github.com/tripweaver/tripweaver/internal/model"
)

// mergeAndSort concatenates per-provider result lists, sorts by total price
// ascending, and truncates to twice the requested maximum. The sort is stable
// so equal-priced results keep provider priority order, and a missing price
// sorts as zero, placing unpriced results first.
func mergeAndSort(lists [][]model.NormalizedResult, maxResults int) []model.NormalizedResult {
	total := 0
	for _, l := range lists {
		total += len(l)
	}
	merged := make([]model.NormalizedResult, 0, total)
	for _, l := range lists {
		merged = append(merged, l...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PriceTotal().Cmp(merged[j].PriceTotal()) < 0
	})

	if limit := maxResults * 2; len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
