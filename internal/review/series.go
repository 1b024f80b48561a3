package review

import (
	"sort"

	"github.com/sevigo/patch-warden/internal/patch"
)

// GroupSeries reorders patches so that each series is contiguous and sorted
// by index. Series keep the order of their first patch; a patch without an
// index counts as index 0. Patches outside any series stay where they are.
func GroupSeries(patches []*patch.Patch) []*patch.Patch {
	type group struct {
		patches []*patch.Patch
	}

	var groups []*group
	bySeries := make(map[int]*group)
	for _, p := range patches {
		if p.SeriesID == 0 {
			groups = append(groups, &group{patches: []*patch.Patch{p}})
			continue
		}
		g, ok := bySeries[p.SeriesID]
		if !ok {
			g = &group{}
			bySeries[p.SeriesID] = g
			groups = append(groups, g)
		}
		g.patches = append(g.patches, p)
	}

	out := make([]*patch.Patch, 0, len(patches))
	for _, g := range groups {
		sort.SliceStable(g.patches, func(i, j int) bool {
			return seriesIndex(g.patches[i]) < seriesIndex(g.patches[j])
		})
		out = append(out, g.patches...)
	}
	return out
}

func seriesIndex(p *patch.Patch) int {
	if !p.HasIndex {
		return 0
	}
	return p.Index
}
