package optimize

import (
	"math"

	"github.com/mgpai22/shabd/internal/subtitle"
)

// ImproveConfidence raises confidence below ConfidenceThreshold toward a
// plausibility estimate built from text length and duration. It never
// lowers a score and never raises one past ConfidenceCap.
func ImproveConfidence(segments []subtitle.Segment) []subtitle.Segment {
	out := make([]subtitle.Segment, len(segments))
	for i, seg := range segments {
		if seg.Confidence < ConfidenceThreshold {
			textQuality := math.Min(1, float64(seg.Length())/QualityTextChars)
			durationQuality := math.Min(1, seg.Duration()/QualityDurationSecs)
			estimate := (textQuality + durationQuality) / 2
			seg.Confidence = math.Min(ConfidenceCap, math.Max(seg.Confidence, estimate))
		}
		out[i] = seg
	}
	return out
}
