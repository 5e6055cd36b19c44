package aggregate

import (
	"sort"
	"strconv"
	"strings"
)

// lessID orders group ids ascending. Numeric ids (tmux window indexes)
// compare as numbers so "10" sorts after "9"; numbers sort before names.
func lessID(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		if na != nb {
			return na < nb
		}
		return a < b
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return strings.Compare(a, b) < 0
}

// mergeGroups collapses duplicate ids into one group (roots concatenated,
// first label wins) and sorts the result by id.
func mergeGroups(groups []Group) []Group {
	index := make(map[string]int, len(groups))
	merged := make([]Group, 0, len(groups))

	for _, g := range groups {
		if i, ok := index[g.ID]; ok {
			merged[i].Roots = appendUnique(merged[i].Roots, g.Roots...)
			if g.Windows > merged[i].Windows {
				merged[i].Windows = g.Windows
			}
			continue
		}
		index[g.ID] = len(merged)
		g.Roots = appendUnique(nil, g.Roots...)
		if g.Label == "" {
			g.Label = g.ID
		}
		merged = append(merged, g)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return lessID(merged[i].ID, merged[j].ID)
	})
	return merged
}

func appendUnique(dst []int32, pids ...int32) []int32 {
	for _, p := range pids {
		dup := false
		for _, d := range dst {
			if d == p {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, p)
		}
	}
	return dst
}
