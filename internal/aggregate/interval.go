package aggregate

import (
	"sort"
	"time"
)

// Interval is a half-open span of occupancy. Open sessions are resolved to
// a concrete End by the caller at computation time.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Len returns the interval length, zero for inverted intervals.
func (iv Interval) Len() time.Duration {
	if iv.End.Before(iv.Start) {
		return 0
	}
	return iv.End.Sub(iv.Start)
}

// MergeIntervals folds possibly overlapping intervals into a sorted,
// non-overlapping sequence and returns it with its total length.
// Touching intervals (next.Start == cur.End) merge. The input slice is not
// modified.
func MergeIntervals(in []Interval) ([]Interval, time.Duration) {
	if len(in) == 0 {
		return nil, 0
	}

	sorted := make([]Interval, len(in))
	for i, iv := range in {
		if iv.End.Before(iv.Start) {
			iv.End = iv.Start
		}
		sorted[i] = iv
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}

	var total time.Duration
	for _, iv := range merged {
		total += iv.Len()
	}
	return merged, total
}
