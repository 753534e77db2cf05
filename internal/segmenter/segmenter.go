// Package segmenter groups timestamped recognition tokens into draft
// subtitle segments. Boundaries come from punctuation, pauses,
// capitalization and length caps; see rules.go for the thresholds.
package segmenter

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mgpai22/shabd/internal/subtitle"
	"github.com/mgpai22/shabd/internal/textutil"
	"github.com/mgpai22/shabd/internal/transcript"
)

var (
	ErrUnsortedTokens = errors.New("tokens are not sorted by start time")
	ErrInvalidToken   = errors.New("token ends before it starts")
)

// Granularity selects which break rules apply.
type Granularity int

const (
	WordLevel Granularity = iota
	UtteranceLevel
)

func (g Granularity) String() string {
	switch g {
	case WordLevel:
		return "word"
	case UtteranceLevel:
		return "utterance"
	default:
		return fmt.Sprintf("Granularity(%d)", int(g))
	}
}

// Options are stamped onto every segment produced.
type Options struct {
	Language string
	VideoID  string
}

// Segment groups tokens into draft segments. Tokens must be sorted by start
// time; unsorted input or a token ending before it starts returns an error
// and no segments. Tokens with no letters or digits are skipped.
func Segment(
	tokens []transcript.Token,
	granularity Granularity,
	opts Options,
) ([]subtitle.Segment, error) {
	if err := validate(tokens); err != nil {
		return nil, err
	}

	switch granularity {
	case WordLevel:
		return segmentWords(tokens, opts), nil
	case UtteranceLevel:
		return segmentUtterances(tokens, opts), nil
	default:
		return nil, fmt.Errorf("unknown granularity %s", granularity)
	}
}

// FromTranscript segments t using the granularity its shape implies, falling
// back to one segment per sentence for flat text.
func FromTranscript(t transcript.Transcript, opts Options) ([]subtitle.Segment, error) {
	switch v := t.(type) {
	case transcript.WordTokens:
		return Segment(v, WordLevel, opts)
	case transcript.UtteranceTokens:
		return Segment(v, UtteranceLevel, opts)
	case transcript.FlatText:
		return FromText(string(v), opts), nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported transcript type %T", t)
	}
}

func validate(tokens []transcript.Token) error {
	for i, tok := range tokens {
		if tok.End < tok.Start {
			return fmt.Errorf("%w: token %d (%q) spans %.3fs to %.3fs",
				ErrInvalidToken, i, tok.Text, tok.Start, tok.End)
		}
		if i > 0 && tok.Start < tokens[i-1].Start {
			return fmt.Errorf("%w: token %d starts at %.3fs after token %d at %.3fs",
				ErrUnsortedTokens, i, tok.Start, i-1, tokens[i-1].Start)
		}
	}
	return nil
}

func segmentWords(words []transcript.Token, opts Options) []subtitle.Segment {
	var (
		out  []subtitle.Segment
		cur  draft
		open bool
	)

	for i, word := range words {
		if textutil.IsBlank(word.Text) {
			continue
		}

		if open && wordStartsSegment(words, i) {
			out = cur.emit(out, opts)
			open = false
		}

		if open {
			cur = cur.add(word)
		} else {
			cur, open = newDraft(word), true
		}

		if wordEndsSegment(words, i) {
			out = cur.emit(out, opts)
			open = false
		}
	}

	if open {
		out = cur.emit(out, opts)
	}
	return out
}

func segmentUtterances(utts []transcript.Token, opts Options) []subtitle.Segment {
	var (
		out  []subtitle.Segment
		cur  draft
		open bool
	)

	for _, utt := range utts {
		if textutil.IsBlank(utt.Text) {
			continue
		}

		if open && utteranceStartsSegment(utt, cur) {
			out = cur.emit(out, opts)
			open = false
		}

		if open {
			cur = cur.add(utt)
		} else {
			cur, open = newDraft(utt), true
		}

		if utteranceEndsSegment(utt) {
			out = cur.emit(out, opts)
			open = false
		}
	}

	if open {
		out = cur.emit(out, opts)
	}
	return out
}

// draft is the segment being accumulated. It is passed by value; add
// returns a new draft and never writes to the receiver's backing array.
type draft struct {
	parts      []string
	start      float64
	end        float64
	confidence float64
}

func newDraft(tok transcript.Token) draft {
	return draft{
		parts:      []string{strings.TrimSpace(tok.Text)},
		start:      tok.Start,
		end:        tok.End,
		confidence: tok.Confidence,
	}
}

func (d draft) add(tok transcript.Token) draft {
	return draft{
		parts:      append(slices.Clip(d.parts), strings.TrimSpace(tok.Text)),
		start:      d.start,
		end:        max(d.end, tok.End),
		confidence: min(d.confidence, tok.Confidence),
	}
}

func (d draft) text() string {
	return strings.Join(d.parts, " ")
}

func (d draft) length() int {
	return textutil.Len(d.text())
}

func (d draft) emit(out []subtitle.Segment, opts Options) []subtitle.Segment {
	return append(out, subtitle.Segment{
		ID:         fmt.Sprintf("segment_%d", len(out)),
		Text:       d.text(),
		Start:      d.start,
		End:        d.end,
		Confidence: d.confidence,
		Language:   opts.Language,
		VideoID:    opts.VideoID,
	})
}
