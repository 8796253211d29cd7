package types

import "sort"

// SortHistory orders points chronologically, in place.
func SortHistory(h []NavPoint) {
	sort.SliceStable(h, func(i, j int) bool { return h[i].Date < h[j].Date })
}

// LatestAndPrevious returns the chronologically last point and the NAV of the
// point before it. ok is false for empty history; prev is 0 with fewer than two
// points. The input is not modified.
func LatestAndPrevious(h []NavPoint) (latest NavPoint, prev float64, ok bool) {
	if len(h) == 0 {
		return NavPoint{}, 0, false
	}
	sorted := append([]NavPoint(nil), h...)
	SortHistory(sorted)
	latest = sorted[len(sorted)-1]
	if len(sorted) >= 2 {
		prev = sorted[len(sorted)-2].Nav
	}
	return latest, prev, true
}
