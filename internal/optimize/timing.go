package optimize

import "github.com/mgpai22/shabd/internal/subtitle"

// FixTiming clamps each segment's end to the next segment's start and then
// enforces MinDurationFloor. It is a single forward pass: the floor may push
// an end past the following start again, and that is left as is.
func FixTiming(segments []subtitle.Segment) []subtitle.Segment {
	out := make([]subtitle.Segment, len(segments))
	copy(out, segments)

	for i := range out {
		if i+1 < len(out) && out[i].End > out[i+1].Start {
			out[i].End = out[i+1].Start
		}
		if out[i].Duration() < MinDurationFloor {
			out[i].End = out[i].Start + MinDurationFloor
		}
	}

	return out
}
