package optimize

import (
	"fmt"
	"strings"

	"github.com/mgpai22/shabd/internal/subtitle"
	"github.com/mgpai22/shabd/internal/textutil"
)

// SplitLong breaks segments that exceed the length or duration caps into
// pieces. Segments within both caps pass through unchanged.
func SplitLong(segments []subtitle.Segment, opts Options) []subtitle.Segment {
	out := make([]subtitle.Segment, 0, len(segments))
	for _, seg := range segments {
		if !isLong(seg, opts) {
			out = append(out, seg)
			continue
		}
		out = append(out, splitSegment(seg, opts)...)
	}
	return out
}

func isLong(seg subtitle.Segment, opts Options) bool {
	return seg.Length() > opts.MaxSegmentLengthChars ||
		seg.Duration() > opts.MaxSegmentDurationSecs
}

// splitSegment cuts seg at punctuation, after SplitMaxWords words, or once a
// piece reaches the length cap. Time is allotted evenly per word; pieces are
// contiguous and the last one ends exactly at seg.End.
func splitSegment(seg subtitle.Segment, opts Options) []subtitle.Segment {
	words := strings.Fields(seg.Text)
	if len(words) < 2 {
		return []subtitle.Segment{seg}
	}

	perWord := seg.Duration() / float64(len(words))

	var (
		pieces  []subtitle.Segment
		current []string
		length  int
		start   = seg.Start
	)

	for i, word := range words {
		if len(current) > 0 {
			length++
		}
		current = append(current, word)
		length += textutil.Len(word)

		last := i == len(words)-1
		if !last && !splitAfter(word, words[i+1], len(current), length, opts) {
			continue
		}

		end := seg.Start + float64(i+1)*perWord
		if last {
			end = seg.End
		}

		piece := seg
		piece.ID = fmt.Sprintf("%s_split_%d", seg.ID, len(pieces))
		piece.Text = strings.Join(current, " ")
		piece.Start = start
		piece.End = end
		pieces = append(pieces, piece)

		start = end
		current = nil
		length = 0
	}

	return pieces
}

func splitAfter(word, next string, count, length int, opts Options) bool {
	switch {
	case textutil.EndsWithTerminal(word), textutil.EndsWithClause(word):
		return true
	case strings.HasSuffix(word, ",") && textutil.StartsUpper(next):
		return true
	case count > SplitMaxWords:
		return true
	}
	return length >= opts.MaxSegmentLengthChars
}
