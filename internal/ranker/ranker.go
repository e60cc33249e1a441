// Package ranker filters candidate groups and orders them by reclaim value.
//
// Name groups order by (member count desc, total size desc, key asc).
// Content groups order by size × (count − 1) desc. Both sorts are stable,
// so ties keep the order in which the groups were formed.
package ranker

import (
	"cmp"

	"github.com/ivoronin/dupehound/internal/types"
)

// RankNames drops groups with fewer than 2 members or an empty key and orders the rest.
func RankNames(groups []types.NameGroup) []types.NameGroup {
	kept := make([]types.NameGroup, 0, len(groups))
	for _, g := range groups {
		if g.Len() < 2 || g.Key == "" {
			continue
		}
		kept = append(kept, g)
	}
	return types.NewSorted(kept, func(a, b types.NameGroup) int {
		if c := cmp.Compare(b.Len(), a.Len()); c != 0 {
			return c
		}
		if c := cmp.Compare(b.TotalSize(), a.TotalSize()); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	}).Items()
}

// RankContent drops groups with fewer than 2 members or a size below minSize
// and orders the rest by reclaimable bytes.
func RankContent(groups []types.ContentGroup, minSize int64) []types.ContentGroup {
	kept := make([]types.ContentGroup, 0, len(groups))
	for _, g := range groups {
		if g.Len() < 2 || g.Size < minSize {
			continue
		}
		kept = append(kept, g)
	}
	return types.NewSorted(kept, func(a, b types.ContentGroup) int {
		return cmp.Compare(b.ReclaimBytes(), a.ReclaimBytes())
	}).Items()
}
