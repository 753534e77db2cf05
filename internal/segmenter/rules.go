package segmenter

import (
	"strings"

	"github.com/mgpai22/shabd/internal/textutil"
	"github.com/mgpai22/shabd/internal/transcript"
)

// Word-level thresholds.
const (
	// clause punctuation only ends a segment after this many words
	ClauseMinIndex = 5
	// pause after a comma that ends a segment, seconds
	CommaPauseSeconds = 1.5
	// pause before a capitalized word that starts a segment, seconds
	CapitalPauseSeconds = 1.0
	// window searched for sentence-ending punctuation
	LookbackWords = 15
)

// Utterance-level thresholds.
const (
	UtterancePauseSeconds        = 2.0
	UtteranceCapitalPauseSeconds = 0.5
	MaxUtteranceSegmentChars     = 100
)

// Flat-text fallback.
const (
	FallbackSentenceSeconds = 5.0
	FallbackConfidence      = 0.9
)

// wordStartsSegment reports whether words[i] opens a new segment: a
// capitalized word after a pause.
func wordStartsSegment(words []transcript.Token, i int) bool {
	if i == 0 || !textutil.StartsUpper(words[i].Text) {
		return false
	}
	return words[i].Start-words[i-1].End > CapitalPauseSeconds
}

// wordEndsSegment reports whether the segment closes after words[i]. Indices
// refer to the full token list.
func wordEndsSegment(words []transcript.Token, i int) bool {
	text := strings.TrimSpace(words[i].Text)

	switch {
	case textutil.EndsWithTerminal(text):
		return true
	case textutil.EndsWithClause(text) && i > ClauseMinIndex:
		return true
	case strings.HasSuffix(text, ",") && i+1 < len(words) &&
		words[i+1].Start-words[i].End > CommaPauseSeconds:
		return true
	}

	return i > LookbackWords && !terminalWithin(words, i)
}

// terminalWithin reports whether any of the LookbackWords tokens ending at i
// closes a sentence.
func terminalWithin(words []transcript.Token, i int) bool {
	from := max(0, i-LookbackWords+1)
	for _, w := range words[from : i+1] {
		if textutil.EndsWithTerminal(w.Text) {
			return true
		}
	}
	return false
}

// utteranceStartsSegment reports whether utt cannot be appended to the
// running segment.
func utteranceStartsSegment(utt transcript.Token, current draft) bool {
	gap := utt.Start - current.end

	switch {
	case gap > UtterancePauseSeconds:
		return true
	case textutil.StartsUpper(utt.Text) && gap > UtteranceCapitalPauseSeconds:
		return true
	case current.length()+1+textutil.Len(strings.TrimSpace(utt.Text)) > MaxUtteranceSegmentChars:
		return true
	case textutil.EndsWithTerminal(current.text()):
		// unreachable while utteranceEndsSegment closes on terminal
		// punctuation; kept so the start rule stands on its own
		return true
	}
	return false
}

// utteranceEndsSegment reports whether the segment closes after utt.
func utteranceEndsSegment(utt transcript.Token) bool {
	return textutil.EndsWithTerminal(utt.Text) || textutil.EndsWithClause(utt.Text)
}
