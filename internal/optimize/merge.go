package optimize

import "github.com/mgpai22/shabd/internal/subtitle"

// MergeShort folds short segments into their predecessor. A pair is merged
// when either side is short and canMerge allows it; otherwise the running
// segment is emitted and the candidate takes its place.
func MergeShort(segments []subtitle.Segment, opts Options) []subtitle.Segment {
	if len(segments) == 0 {
		return []subtitle.Segment{}
	}

	out := make([]subtitle.Segment, 0, len(segments))
	current := segments[0]

	for _, seg := range segments[1:] {
		if (isShort(current, opts) || isShort(seg, opts)) && canMerge(current, seg) {
			current = mergeTwo(current, seg)
			continue
		}
		out = append(out, current)
		current = seg
	}

	return append(out, current)
}

func isShort(seg subtitle.Segment, opts Options) bool {
	return seg.Length() < opts.MinSegmentLengthChars ||
		seg.Duration() < opts.MinSegmentDurationSecs
}

func canMerge(a, b subtitle.Segment) bool {
	gap := b.Start - a.End
	return gap < MaxMergeGapSeconds && a.Length()+1+b.Length() < MaxMergedChars
}

func mergeTwo(a, b subtitle.Segment) subtitle.Segment {
	merged := a
	merged.Text = a.Text + " " + b.Text
	merged.End = max(a.End, b.End)
	merged.Confidence = min(a.Confidence, b.Confidence)
	return merged
}
