// Package calendar finds rows in sparse mosque calendars and validates calendar queries.
package calendar

// Keyed is a calendar row addressed by day of month or day of Ramadan.
type Keyed interface {
	Key() int
}

// FindRow returns the row for target using carry-forward sampling.
//
// An exact key wins. Otherwise the row with the largest key not after target
// is returned, and when every key is after target the earliest row is
// returned. Rows are never interpolated. ok is false only when rows is empty.
func FindRow[T Keyed](rows []T, target int) (row T, ok bool) {
	prevIdx, earliestIdx := -1, -1

	for i, r := range rows {
		k := r.Key()
		if earliestIdx == -1 || k < rows[earliestIdx].Key() {
			earliestIdx = i
		}
		if k == target {
			return r, true
		}
		if k <= target && (prevIdx == -1 || k > rows[prevIdx].Key()) {
			prevIdx = i
		}
	}

	switch {
	case prevIdx != -1:
		return rows[prevIdx], true
	case earliestIdx != -1:
		return rows[earliestIdx], true
	}
	return row, false
}
