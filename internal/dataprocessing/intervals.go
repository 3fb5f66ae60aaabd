package dataprocessing

import (
	"sort"

	"batchline/pkg/contracts/domain"
)

// MergeIntervals returns the disjoint union of the given intervals, sorted
// by start. Overlapping and contained intervals are merged; intervals that
// end before they start are ignored.
func MergeIntervals(intervals []domain.TimeInterval) []domain.TimeInterval {
	sorted := make([]domain.TimeInterval, 0, len(intervals))
	for _, iv := range intervals {
		if !iv.End.Before(iv.Start) {
			sorted = append(sorted, iv)
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].End.Before(sorted[j].End)
		}
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := make([]domain.TimeInterval, 0, len(sorted))
	current := sorted[0]
	for _, next := range sorted[1:] {
		if next.Start.Before(current.End) {
			if next.End.After(current.End) {
				current.End = next.End
			}
			continue
		}
		merged = append(merged, current)
		current = next
	}
	return append(merged, current)
}

// MergedDurationMinutes returns the length of the union of the intervals in
// minutes, counting overlapping wall-clock time once. Empty input yields 0.
func MergedDurationMinutes(intervals []domain.TimeInterval) float64 {
	var ms int64
	for _, iv := range MergeIntervals(intervals) {
		ms += iv.End.Sub(iv.Start).Milliseconds()
	}
	return float64(ms) / 60000
}

// RecordIntervals returns the wall-clock spans of the logged steps of a
// record. Wait steps and steps missing either end are left out.
func RecordIntervals(rec domain.BatchRecord) []domain.TimeInterval {
	var out []domain.TimeInterval
	for _, s := range rec.Steps {
		if s.IsWait || s.StartTime == nil || s.EndTime == nil {
			continue
		}
		out = append(out, domain.TimeInterval{Start: *s.StartTime, End: *s.EndTime})
	}
	return out
}

// TrueCycleMinutes is the deduplicated busy time of a record
func TrueCycleMinutes(rec domain.BatchRecord) float64 {
	return round2(MergedDurationMinutes(RecordIntervals(rec)))
}

// BatchCycleMinutes merges the step spans of every record of one batch, so
// equipment groups working in parallel are not counted twice.
func BatchCycleMinutes(records []domain.BatchRecord, batchID string) float64 {
	var spans []domain.TimeInterval
	for _, rec := range records {
		if rec.BatchID == batchID {
			spans = append(spans, RecordIntervals(rec)...)
		}
	}
	return round2(MergedDurationMinutes(spans))
}
