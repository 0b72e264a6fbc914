package extract

import (
	"sort"

	"clipharvest/internal/media"
)

// rankAndCap stable-sorts by score and truncates to limit. Above
// diversityThreshold it first keeps at most perFormat assets per format group.
func rankAndCap(assets []media.Asset, limit, diversityThreshold, perFormat int) []media.Asset {
	ranked := make([]media.Asset, len(assets))
	copy(ranked, assets)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].QualityScore > ranked[j].QualityScore
	})

	if len(ranked) <= limit {
		return ranked
	}

	if perFormat > 0 && len(ranked) > diversityThreshold {
		counts := make(map[string]int)
		diverse := ranked[:0:0]
		for _, a := range ranked {
			key := formatGroup(a)
			if counts[key] >= perFormat {
				continue
			}
			counts[key]++
			diverse = append(diverse, a)
		}
		ranked = diverse
	}

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func formatGroup(a media.Asset) string {
	if a.FormatCode != "" {
		return a.FormatCode
	}
	return a.Format + "/" + a.Quality
}
