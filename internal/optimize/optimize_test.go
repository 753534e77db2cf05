package optimize

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/mgpai22/shabd/internal/segmenter"
	"github.com/mgpai22/shabd/internal/subtitle"
	"github.com/mgpai22/shabd/internal/transcript"
)

const eps = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func seg(id, text string, start, end, conf float64) subtitle.Segment {
	return subtitle.Segment{ID: id, Text: text, Start: start, End: end, Confidence: conf}
}

func TestFixTiming(t *testing.T) {
	tests := []struct {
		name string
		in   []subtitle.Segment
		want []subtitle.Segment
	}{
		{
			name: "overlap clamped to next start",
			in: []subtitle.Segment{
				seg("a", "one", 0, 2.5, 0.9),
				seg("b", "two", 2, 4, 0.9),
			},
			want: []subtitle.Segment{
				seg("a", "one", 0, 2, 0.9),
				seg("b", "two", 2, 4, 0.9),
			},
		},
		{
			name: "zero duration floored",
			in: []subtitle.Segment{
				seg("a", "one", 1, 1, 0.9),
				seg("b", "two", 2, 3, 0.9),
			},
			want: []subtitle.Segment{
				seg("a", "one", 1, 1.1, 0.9),
				seg("b", "two", 2, 3, 0.9),
			},
		},
		{
			name: "floor may reintroduce overlap",
			in: []subtitle.Segment{
				seg("a", "one", 0, 0.5, 0.9),
				seg("b", "two", 0.05, 1, 0.9),
			},
			want: []subtitle.Segment{
				seg("a", "one", 0, 0.1, 0.9),
				seg("b", "two", 0.05, 1, 0.9),
			},
		},
		{
			name: "empty",
			in:   nil,
			want: []subtitle.Segment{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FixTiming(tt.in)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateApprox(0, eps)); diff != "" {
				t.Errorf("FixTiming() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFixTimingInvariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	var in []subtitle.Segment
	start := 0.0
	for i := range 200 {
		start += 0.1 + rng.Float64()*2
		end := start + rng.Float64()*4 - 0.5
		in = append(in, seg(fmt.Sprintf("s%d", i), "text", start, end, 0.9))
	}

	got := FixTiming(in)
	if len(got) != len(in) {
		t.Fatalf("count changed: %d -> %d", len(in), len(got))
	}
	for i := range got {
		if got[i].Duration() < MinDurationFloor-eps {
			t.Errorf("segment %d shorter than floor: %v", i, got[i].Duration())
		}
		if i+1 < len(got) && got[i].End > got[i+1].Start+eps {
			t.Errorf("segment %d overlaps next: end %v > start %v", i, got[i].End, got[i+1].Start)
		}
		if got[i].Start != in[i].Start {
			t.Errorf("segment %d start moved", i)
		}
	}
}

func TestFixTimingDoesNotMutateInput(t *testing.T) {
	in := []subtitle.Segment{seg("a", "one", 0, 5, 0.9), seg("b", "two", 1, 2, 0.9)}
	FixTiming(in)
	if in[0].End != 5 {
		t.Errorf("input mutated: end = %v", in[0].End)
	}
}

func TestMergeShort(t *testing.T) {
	opts := DefaultOptions()
	long34 := "this sentence is thirty four chars"

	tests := []struct {
		name string
		in   []subtitle.Segment
		want []subtitle.Segment
	}{
		{
			name: "short fragment joins next",
			in: []subtitle.Segment{
				seg("a", "Hi yo", 0, 0.5, 0.8),
				seg("b", long34, 0.8, 3, 0.6),
			},
			want: []subtitle.Segment{
				seg("a", "Hi yo "+long34, 0, 3, 0.6),
			},
		},
		{
			name: "short candidate joins accumulator",
			in: []subtitle.Segment{
				seg("a", long34, 0, 3, 0.7),
				seg("b", "okay", 3.2, 3.5, 0.9),
			},
			want: []subtitle.Segment{
				seg("a", long34+" okay", 0, 3.5, 0.7),
			},
		},
		{
			name: "gap too wide",
			in: []subtitle.Segment{
				seg("a", "Hi yo", 0, 0.5, 0.8),
				seg("b", long34, 1.5, 3, 0.6),
			},
			want: []subtitle.Segment{
				seg("a", "Hi yo", 0, 0.5, 0.8),
				seg("b", long34, 1.5, 3, 0.6),
			},
		},
		{
			name: "combined text too long",
			in: []subtitle.Segment{
				seg("a", strings.Repeat("x", 141), 0, 5, 0.8),
				seg("b", "tiny bit", 5.1, 5.4, 0.6),
			},
			want: []subtitle.Segment{
				seg("a", strings.Repeat("x", 141), 0, 5, 0.8),
				seg("b", "tiny bit", 5.1, 5.4, 0.6),
			},
		},
		{
			name: "neither side short",
			in: []subtitle.Segment{
				seg("a", long34, 0, 3, 0.8),
				seg("b", long34, 3.1, 6, 0.6),
			},
			want: []subtitle.Segment{
				seg("a", long34, 0, 3, 0.8),
				seg("b", long34, 3.1, 6, 0.6),
			},
		},
		{
			name: "chain of fragments",
			in: []subtitle.Segment{
				seg("a", "so", 0, 0.2, 0.9),
				seg("b", "um", 0.3, 0.5, 0.5),
				seg("c", "yes", 0.6, 0.8, 0.7),
			},
			want: []subtitle.Segment{
				seg("a", "so um yes", 0, 0.8, 0.5),
			},
		},
		{
			name: "empty",
			in:   nil,
			want: []subtitle.Segment{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeShort(tt.in, opts)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("MergeShort() mismatch (-want +got):\n%s", diff)
			}
			if len(got) > len(tt.in) {
				t.Errorf("merge grew the list: %d -> %d", len(tt.in), len(got))
			}
		})
	}
}

func TestSplitLongCoversOriginal(t *testing.T) {
	text := strings.Repeat("word ", 39) + "words"
	if len(text) != 200 {
		t.Fatalf("fixture length = %d, want 200", len(text))
	}
	in := []subtitle.Segment{{ID: "s", Text: text, Start: 0, End: 10, Confidence: 0.8, Language: "en", VideoID: "v"}}

	got := SplitLong(in, DefaultOptions())
	if len(got) < 2 {
		t.Fatalf("expected at least 2 pieces, got %d", len(got))
	}

	var joined []string
	for i, piece := range got {
		joined = append(joined, piece.Text)
		if want := fmt.Sprintf("s_split_%d", i); piece.ID != want {
			t.Errorf("piece %d id = %q, want %q", i, piece.ID, want)
		}
		if piece.Language != "en" || piece.VideoID != "v" || piece.Confidence != 0.8 {
			t.Errorf("piece %d lost metadata: %+v", i, piece)
		}
		if i > 0 && piece.Start != got[i-1].End {
			t.Errorf("piece %d not contiguous: start %v, previous end %v", i, piece.Start, got[i-1].End)
		}
		if piece.End <= piece.Start {
			t.Errorf("piece %d has no duration", i)
		}
	}
	if strings.Join(joined, " ") != text {
		t.Errorf("pieces do not reconstruct the text")
	}
	if got[0].Start != 0 || got[len(got)-1].End != 10 {
		t.Errorf("span = [%v, %v], want [0, 10]", got[0].Start, got[len(got)-1].End)
	}
}

func TestSplitLongBreakPoints(t *testing.T) {
	opts := DefaultOptions()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "sentence and clause ends",
			text: "We start here. Then a list: one two three",
			want: []string{"We start here.", "Then a list:", "one two three"},
		},
		{
			name: "comma before capital",
			text: "first of all, Maria said no, and left",
			want: []string{"first of all,", "Maria said no, and left"},
		},
		{
			name: "word cap",
			text: "a b c d e f g h i j k",
			want: []string{"a b c d e f g h i", "j k"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := []subtitle.Segment{seg("s", tt.text, 0, 20, 0.9)}
			if diff := cmp.Diff(tt.want, texts(SplitLong(in, opts))); diff != "" {
				t.Errorf("pieces mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSplitLongLengthTolerance(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxSegmentLengthChars = 20

	text := "extraordinarily long vocabulary words appear throughout this particular example sentence"
	got := SplitLong([]subtitle.Segment{seg("s", text, 0, 6, 0.9)}, opts)

	if len(got) < 2 {
		t.Fatalf("expected a split, got %d pieces", len(got))
	}
	for i, piece := range got {
		words := strings.Fields(piece.Text)
		withoutLast := strings.Join(words[:len(words)-1], " ")
		if len(words) > 1 && len(withoutLast) >= opts.MaxSegmentLengthChars {
			t.Errorf("piece %d %q exceeds cap by more than its last word", i, piece.Text)
		}
	}
}

func TestSplitLongPassThrough(t *testing.T) {
	opts := DefaultOptions()
	in := []subtitle.Segment{
		seg("a", "short and sweet.", 0, 2, 0.9),
		seg("b", "unsplittablewordthatgoesonforeverandevermorethanonehundredtwentycharacterslongsoitcannotbebrokenanywhereatallwhatsoeverreally", 2, 4, 0.9),
	}

	got := SplitLong(in, opts)
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("expected pass-through (-want +got):\n%s", diff)
	}
}

func TestImproveConfidence(t *testing.T) {
	tests := []struct {
		name string
		in   subtitle.Segment
		want float64
	}{
		{"long and slow raised to cap", seg("a", strings.Repeat("x", 60), 0, 4, 0.5), 0.95},
		{"estimate below current kept", seg("b", strings.Repeat("x", 10), 0, 0.6, 0.3), 0.3},
		{"partial estimate", seg("c", strings.Repeat("x", 50), 0, 1.5, 0.4), 0.75},
		{"confident segment untouched", seg("d", "x", 0, 0.1, 0.8), 0.8},
		{"threshold is exclusive", seg("e", strings.Repeat("x", 60), 0, 4, 0.7), 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ImproveConfidence([]subtitle.Segment{tt.in})
			if !approx(got[0].Confidence, tt.want) {
				t.Errorf("confidence = %v, want %v", got[0].Confidence, tt.want)
			}
			if got[0].Confidence < tt.in.Confidence {
				t.Errorf("confidence lowered: %v -> %v", tt.in.Confidence, got[0].Confidence)
			}
			if got[0].Start != tt.in.Start || got[0].End != tt.in.End {
				t.Error("timing changed")
			}
		})
	}
}

func TestImproveConfidenceIdempotent(t *testing.T) {
	in := []subtitle.Segment{
		seg("a", "short", 0, 0.5, 0.1),
		seg("b", strings.Repeat("y", 30), 1, 2.5, 0.55),
		seg("c", strings.Repeat("z", 80), 3, 9, 0.2),
		seg("d", "fine", 10, 11, 0.9),
	}

	once := ImproveConfidence(in)
	twice := ImproveConfidence(once)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second pass changed output (-once +twice):\n%s", diff)
	}
}

func TestOptimize(t *testing.T) {
	in := []subtitle.Segment{
		seg("segment_0", "Okay.", 0, 0.6, 0.9),
		seg("segment_1", "so the plan for today is simple", 0.5, 3, 0.5),
		seg("segment_2", "We will walk through every step of the migration, Then we test it and finally we ship the whole thing to production tonight.", 5, 16, 0.95),
	}
	orig := make([]subtitle.Segment, len(in))
	copy(orig, in)

	got := Optimize(in, DefaultOptions())

	if diff := cmp.Diff(orig, in); diff != "" {
		t.Errorf("input mutated (-want +got):\n%s", diff)
	}
	if len(got) < 3 {
		t.Fatalf("expected the long segment to split, got %d segments", len(got))
	}
	for i, s := range got {
		if want := fmt.Sprintf("optimized_segment_%d", i); s.ID != want {
			t.Errorf("segment %d id = %q, want %q", i, s.ID, want)
		}
		if i+1 < len(got) && s.End > got[i+1].Start+eps {
			t.Errorf("segment %d overlaps next", i)
		}
		if s.End <= s.Start {
			t.Errorf("segment %d has no duration", i)
		}
		if s.Confidence < 0 || s.Confidence > 1 {
			t.Errorf("segment %d confidence out of range: %v", i, s.Confidence)
		}
	}
	if got[0].Text != "Okay. so the plan for today is simple" {
		t.Errorf("first segment = %q, want merged fragment", got[0].Text)
	}
	if got[0].End != 3 {
		t.Errorf("merged end = %v, want 3", got[0].End)
	}
}

func TestOptimizeDisabledPasses(t *testing.T) {
	in := []subtitle.Segment{
		seg("x", "hi", 0, 5, 0.2),
		seg("y", "yo", 4, 4, 0.2),
	}

	got := Optimize(in, Options{})

	want := []subtitle.Segment{
		seg("optimized_segment_0", "hi", 0, 5, 0.2),
		seg("optimized_segment_1", "yo", 4, 4, 0.2),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Optimize() with no passes (-want +got):\n%s", diff)
	}
}

func TestOptimizeEmpty(t *testing.T) {
	if got := Optimize(nil, DefaultOptions()); len(got) != 0 {
		t.Errorf("expected empty output, got %v", got)
	}
	empty := []subtitle.Segment{}
	if got := Optimize(empty, DefaultOptions()); got == nil || len(got) != 0 {
		t.Errorf("expected the empty input back, got %v", got)
	}
}

func TestOptimizeStableOnOwnOutput(t *testing.T) {
	in := []subtitle.Segment{
		seg("a", "This is the first proper sentence.", 0, 2.5, 0.9),
		seg("b", "and ok", 2.6, 3.0, 0.6),
		seg("c", "Another complete sentence follows here.", 4, 6.5, 0.85),
	}

	first := Optimize(in, DefaultOptions())
	second := Optimize(first, DefaultOptions())
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("re-optimizing changed output (-first +second):\n%s", diff)
	}
}

func TestOptimizeRejoinsLookbackFragments(t *testing.T) {
	var (
		tokens []transcript.Token
		words  []string
	)
	for i := range 20 {
		start := float64(i) * 0.4
		words = append(words, fmt.Sprintf("w%d", i))
		tokens = append(tokens, transcript.Token{Text: words[i], Start: start, End: start + 0.3, Confidence: 0.9})
	}

	drafts, err := segmenter.Segment(tokens, segmenter.WordLevel, segmenter.Options{})
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if len(drafts) != 4 {
		t.Fatalf("expected 4 drafts, got %d", len(drafts))
	}

	got := Optimize(drafts, DefaultOptions())
	if diff := cmp.Diff([]string{strings.Join(words, " ")}, texts(got)); diff != "" {
		t.Errorf("fragments not rejoined (-want +got):\n%s", diff)
	}
}

func TestCompareStats(t *testing.T) {
	original := []subtitle.Segment{
		seg("a", "abcd", 0, 1, 0.5),
		seg("b", "efgh", 1, 2, 0.7),
		seg("c", "ij", 2, 4, 0.9),
	}
	merged := []subtitle.Segment{
		seg("a", "abcd efgh ij", 0, 4, 0.5),
	}

	stats := CompareStats(original, merged)

	if stats.Original.Count != 3 || stats.Optimized.Count != 1 {
		t.Errorf("counts = %d/%d, want 3/1", stats.Original.Count, stats.Optimized.Count)
	}
	if !approx(stats.Original.AvgTextLength, 10.0/3) {
		t.Errorf("original avg length = %v", stats.Original.AvgTextLength)
	}
	if !approx(stats.Original.AvgDuration, 4.0/3) {
		t.Errorf("original avg duration = %v", stats.Original.AvgDuration)
	}
	if !approx(stats.Original.AvgConfidence, 0.7) {
		t.Errorf("original avg confidence = %v", stats.Original.AvgConfidence)
	}
	if diff := cmp.Diff([]string{"merged 2 short segments"}, stats.Changes); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}

	split := CompareStats(merged, original)
	if diff := cmp.Diff([]string{"split 2 long segments"}, split.Changes); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}

	same := CompareStats(nil, nil)
	if same.Original.AvgConfidence != 0 || len(same.Changes) != 0 {
		t.Errorf("empty stats = %+v", same)
	}
}

func texts(segments []subtitle.Segment) []string {
	out := make([]string, len(segments))
	for i, s := range segments {
		out[i] = s.Text
	}
	return out
}
