package availability

import (
	"sort"

	"wanderly/models"
)

// MergeRanges returns the sorted, non-overlapping cover of ranges. Ranges
// merge only when the next start falls on or before the current end; ranges
// on consecutive days stay separate so each keeps its own note. A merged
// group keeps the note of its first range in start order. The input slice is
// not modified.
func MergeRanges(ranges []models.DateRange) []models.DateRange {
	if len(ranges) == 0 {
		return []models.DateRange{}
	}

	sorted := make([]models.DateRange, len(ranges))
	copy(sorted, ranges)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := make([]models.DateRange, 0, len(sorted))
	merged = append(merged, sorted[0])
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !r.Start.After(last.End) {
			if r.End.After(last.End) {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// Covers reports whether r lies entirely inside one of the merged ranges.
func Covers(merged []models.DateRange, r models.DateRange) bool {
	for _, m := range merged {
		if !r.Start.Before(m.Start) && !r.End.After(m.End) {
			return true
		}
	}
	return false
}
