package optimize

import (
	"fmt"

	"github.com/mgpai22/shabd/internal/subtitle"
)

// Summary holds averages over one segment list.
type Summary struct {
	Count         int
	AvgTextLength float64
	AvgDuration   float64
	AvgConfidence float64
}

// Stats compares a segment list before and after optimization.
type Stats struct {
	Original  Summary
	Optimized Summary
	Changes   []string
}

func Summarize(segments []subtitle.Segment) Summary {
	s := Summary{Count: len(segments)}
	if s.Count == 0 {
		return s
	}

	for _, seg := range segments {
		s.AvgTextLength += float64(seg.Length())
		s.AvgDuration += seg.Duration()
		s.AvgConfidence += seg.Confidence
	}

	n := float64(s.Count)
	s.AvgTextLength /= n
	s.AvgDuration /= n
	s.AvgConfidence /= n
	return s
}

// CompareStats summarizes both lists. Changes are derived from the count
// delta only.
func CompareStats(original, optimized []subtitle.Segment) Stats {
	stats := Stats{
		Original:  Summarize(original),
		Optimized: Summarize(optimized),
		Changes:   []string{},
	}

	switch delta := stats.Optimized.Count - stats.Original.Count; {
	case delta < 0:
		stats.Changes = append(stats.Changes, fmt.Sprintf("merged %d short segments", -delta))
	case delta > 0:
		stats.Changes = append(stats.Changes, fmt.Sprintf("split %d long segments", delta))
	}

	return stats
}
