// Package optimize post-processes draft segments: it repairs timing, merges
// fragments, splits overlong segments and smooths confidence scores.
package optimize

// Options toggles the passes and sets their thresholds. Fields are
// independent; min/max consistency is not checked.
type Options struct {
	MergeShortSegments bool `toml:"merge_short_segments" json:"merge_short_segments"`
	SplitLongSegments  bool `toml:"split_long_segments" json:"split_long_segments"`
	FixTiming          bool `toml:"fix_timing" json:"fix_timing"`
	ImproveConfidence  bool `toml:"improve_confidence" json:"improve_confidence"`

	MaxSegmentLengthChars  int     `toml:"max_segment_length_chars" json:"max_segment_length_chars"`
	MinSegmentLengthChars  int     `toml:"min_segment_length_chars" json:"min_segment_length_chars"`
	MaxSegmentDurationSecs float64 `toml:"max_segment_duration_secs" json:"max_segment_duration_secs"`
	MinSegmentDurationSecs float64 `toml:"min_segment_duration_secs" json:"min_segment_duration_secs"`
}

func DefaultOptions() Options {
	return Options{
		MergeShortSegments:     true,
		SplitLongSegments:      true,
		FixTiming:              true,
		ImproveConfidence:      true,
		MaxSegmentLengthChars:  120,
		MinSegmentLengthChars:  10,
		MaxSegmentDurationSecs: 8,
		MinSegmentDurationSecs: 1,
	}
}

// Fixed limits used by the passes regardless of Options.
const (
	// shortest duration timing repair leaves behind, seconds
	MinDurationFloor = 0.1

	// merge only across gaps below this, seconds
	MaxMergeGapSeconds = 1.0
	// merged text must stay below this many characters
	MaxMergedChars = 150

	// a split piece closes once it holds more than this many words
	SplitMaxWords = 8

	// confidence below this is smoothed
	ConfidenceThreshold = 0.7
	// smoothing never raises confidence above this
	ConfidenceCap = 0.95
	// text length counted as full quality, characters
	QualityTextChars = 50
	// duration counted as full quality, seconds
	QualityDurationSecs = 3.0
)
