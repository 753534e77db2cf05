package optimize

import (
	"fmt"

	"github.com/mgpai22/shabd/internal/subtitle"
)

// Optimize runs the enabled passes in order (timing, merge, split,
// confidence) and renumbers ids as optimized_segment_{index}. The input
// slice is not modified.
func Optimize(segments []subtitle.Segment, opts Options) []subtitle.Segment {
	if len(segments) == 0 {
		return segments
	}

	out := make([]subtitle.Segment, len(segments))
	copy(out, segments)

	if opts.FixTiming {
		out = FixTiming(out)
	}
	if opts.MergeShortSegments {
		out = MergeShort(out, opts)
	}
	if opts.SplitLongSegments {
		out = SplitLong(out, opts)
	}
	if opts.ImproveConfidence {
		out = ImproveConfidence(out)
	}

	for i := range out {
		out[i].ID = fmt.Sprintf("optimized_segment_%d", i)
	}
	return out
}
