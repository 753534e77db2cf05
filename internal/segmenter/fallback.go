package segmenter

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/mgpai22/shabd/internal/subtitle"
	"github.com/mgpai22/shabd/internal/textutil"
)

// FromText builds one segment per sentence of an untimed transcript. Each
// sentence gets a synthetic FallbackSentenceSeconds slot and a fixed
// confidence. Blank input yields no segments.
func FromText(text string, opts Options) []subtitle.Segment {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	out := make([]subtitle.Segment, 0, len(sentences))
	for i, sentence := range sentences {
		out = append(out, subtitle.Segment{
			ID:         fmt.Sprintf("segment_%d", i),
			Text:       sentence,
			Start:      float64(i) * FallbackSentenceSeconds,
			End:        float64(i+1) * FallbackSentenceSeconds,
			Confidence: FallbackConfidence,
			Language:   opts.Language,
			VideoID:    opts.VideoID,
		})
	}
	return out
}

// splitSentences cuts after '.', '!' or '?' when whitespace follows.
func splitSentences(text string) []string {
	var (
		sentences []string
		sb        strings.Builder
	)

	flush := func() {
		s := strings.TrimSpace(sb.String())
		if s != "" && !textutil.IsBlank(s) {
			sentences = append(sentences, strings.Join(strings.Fields(s), " "))
		}
		sb.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		sb.WriteRune(r)
		if strings.ContainsRune(".!?", r) && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			flush()
		}
	}
	flush()

	return sentences
}
