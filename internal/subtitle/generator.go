package subtitle

import (
	"strings"
	"unicode/utf8"
)

// DefaultGenerator turns optimized segments into display entries. Timing and
// segment boundaries are taken as given; only line wrapping is applied.
type DefaultGenerator struct {
	MaxCharsPerLine int
	MaxLinesPerSub  int
}

func NewDefaultGenerator() *DefaultGenerator {
	return &DefaultGenerator{
		MaxCharsPerLine: 42, // Standard subtitle line length
		MaxLinesPerSub:  2,  // Most players support 2 lines
	}
}

// converts segments to a subtitle track, skipping blank ones
func (g *DefaultGenerator) Generate(segments []Segment, format Format) *Subtitle {
	sub := &Subtitle{
		Entries:  make([]Entry, 0, len(segments)),
		Segments: segments,
		Format:   string(format),
	}

	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if sub.Language == "" {
			sub.Language = seg.Language
		}

		sub.Entries = append(sub.Entries, Entry{
			Index:     len(sub.Entries) + 1,
			StartTime: seconds(seg.Start),
			EndTime:   seconds(seg.End),
			Text:      g.formatText(text),
		})
	}

	return sub
}

// formatText wraps text onto at most MaxLinesPerSub lines
func (g *DefaultGenerator) formatText(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= g.MaxCharsPerLine || g.MaxLinesPerSub < 2 {
		return text
	}

	words := strings.Fields(text)
	if len(words) < 2 {
		return text
	}

	line1, rest := splitNearMiddle(words)
	return line1 + "\n" + rest
}

// splits words at the boundary closest to the middle of the joined text
func splitNearMiddle(words []string) (string, string) {
	total := utf8.RuneCountInString(strings.Join(words, " "))
	middle := total / 2
	bestSplit := 1
	bestDiff := total

	currentLen := 0
	for i, word := range words[:len(words)-1] {
		currentLen += utf8.RuneCountInString(word)
		if i > 0 {
			currentLen++ // space
		}

		diff := abs(currentLen - middle)
		if diff < bestDiff {
			bestDiff = diff
			bestSplit = i + 1
		}
	}

	return strings.Join(words[:bestSplit], " "), strings.Join(words[bestSplit:], " ")
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
