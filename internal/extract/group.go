package extract

import (
	"sort"

	"clipharvest/internal/media"
)

// seenSet is the per-call accumulator of URLs already produced. Scanning
// functions take it and hand it back so ownership stays with the caller.
type seenSet map[string]struct{}

func newSeenSet() seenSet {
	return make(seenSet)
}

// add records u and reports whether it was new.
func (s seenSet) add(u string) bool {
	if _, ok := s[u]; ok {
		return false
	}
	s[u] = struct{}{}
	return true
}

// groupAssets keeps, per base identity, the highest-scoring asset carrying
// both video and audio. Groups without such a member are dropped: a partial
// rendition never stands in for a rejected complete one. Ties go to the
// earliest discovered asset and the output keeps discovery order.
func groupAssets(assets []media.Asset) []media.Asset {
	groups := make(map[string][]int)
	var order []string
	for i, a := range assets {
		if _, ok := groups[a.BaseIdentity]; !ok {
			order = append(order, a.BaseIdentity)
		}
		groups[a.BaseIdentity] = append(groups[a.BaseIdentity], i)
	}

	chosen := make([]int, 0, len(order))
	for _, id := range order {
		best := -1
		for _, idx := range groups[id] {
			if !assets[idx].ContentType.Complete() {
				continue
			}
			if best < 0 || assets[idx].QualityScore > assets[best].QualityScore {
				best = idx
			}
		}
		if best >= 0 {
			chosen = append(chosen, best)
		}
	}
	sort.Ints(chosen)

	out := make([]media.Asset, len(chosen))
	for i, idx := range chosen {
		out[i] = assets[idx]
	}
	return out
}
