package transcribe

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mgpai22/shabd/internal/transcript"
)

func TestExtractUtterances(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCount int
		wantErr   bool
	}{
		{
			name: "plain valid array",
			input: `[
				{"start": 0.0, "end": 2.5, "text": "Hello world"},
				{"start": 2.5, "end": 5.0, "text": "How are you"}
			]`,
			wantCount: 2,
		},
		{
			name: "preamble with valid array",
			input: `Here is the JSON transcript:
			[
				{"start": 0.0, "end": 2.5, "text": "Hello world"},
				{"start": 2.5, "end": 5.0, "text": "How are you"}
			]`,
			wantCount: 2,
		},
		{
			name: "valid array with trailing text",
			input: `[
				{"start": 0.0, "end": 2.5, "text": "Hello world"}
			]
			I hope this helps! Let me know if you need anything else.`,
			wantCount: 1,
		},
		{
			name:      "code fenced JSON",
			input:     "```json\n[{\"start\": 0.0, \"end\": 1.5, \"text\": \"Fenced content\"}]\n```",
			wantCount: 1,
		},
		{
			name: "wrapper object with segments key",
			input: `{"segments": [
				{"start": 0.0, "end": 2.0, "text": "Wrapped segment"}
			]}`,
			wantCount: 1,
		},
		{
			name: "wrapper object with unknown key",
			input: `{"myCustomKey": [
				{"start": 0.0, "end": 2.0, "text": "From unknown key"}
			]}`,
			wantCount: 1,
		},
		{
			name: "nested wrapper object",
			input: `{
				"response": {
					"utterances": [{"start": 0.0, "end": 1.0, "text": "Nested"}]
				}
			}`,
			wantCount: 1,
		},
		{
			name: "unrelated object first then transcript array",
			input: `{"status": "ok", "count": 5}
			[{"start": 0.0, "end": 2.0, "text": "Real transcript"}]`,
			wantCount: 1,
		},
		{
			name: "multiple arrays picks first usable",
			input: `[1, 2, 3]
			[{"start": 0.0, "end": 2.0, "text": "Actual transcript"}]`,
			wantCount: 1,
		},
		{
			name: "blank and reversed entries dropped",
			input: `[
				{"start": 0.0, "end": 1.0, "text": "  "},
				{"start": 3.0, "end": 2.0, "text": "backwards"},
				{"start": 4.0, "end": 5.0, "text": "kept"}
			]`,
			wantCount: 1,
		},
		{
			name:    "empty array",
			input:   `[]`,
			wantErr: true,
		},
		{
			name:    "no JSON at all",
			input:   `This is just plain text with no JSON content.`,
			wantErr: true,
		},
		{
			name:    "invalid JSON",
			input:   `[{"start": 0.0, "end": 2.0, "text": "incomplete"`,
			wantErr: true,
		},
		{
			name:    "only empty utterances",
			input:   `[{"start": 0, "end": 0, "text": ""}]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			utterances, err := extractUtterances(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(utterances) != tt.wantCount {
				t.Errorf("got %d utterances, want %d", len(utterances), tt.wantCount)
			}
		})
	}
}

func TestExtractUtterancesFields(t *testing.T) {
	input := `[
		{"start": 4.0, "end": 5.5, "text": " Second one. ", "confidence": 0.4},
		{"start": 0.5, "end": 2.0, "text": "First one,"},
		{"start": 6.0, "end": 7.0, "text": "Third", "confidence": 1.7}
	]`

	got, err := extractUtterances(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []transcript.Token{
		{Text: "First one,", Start: 0.5, End: 2.0, Confidence: 1},
		{Text: "Second one.", Start: 4.0, End: 5.5, Confidence: 0.4},
		{Text: "Third", Start: 6.0, End: 7.0, Confidence: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("utterances mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildTranscriptionPrompt(t *testing.T) {
	tr := &GeminiTranscriber{options: Options{
		Language:           "spanish",
		TranscriptLanguage: "english",
		Prompt:             "Speakers are doctors.",
	}}

	prompt := tr.buildTranscriptionPrompt()
	for _, fragment := range []string{
		"'confidence'",
		"The audio is in spanish.",
		"Output the transcript in english.",
		"Speakers are doctors.",
	} {
		if !strings.Contains(prompt, fragment) {
			t.Errorf("prompt missing %q:\n%s", fragment, prompt)
		}
	}

	native := (&GeminiTranscriber{options: Options{TranscriptLanguage: "native"}}).buildTranscriptionPrompt()
	if strings.Contains(native, "Output the transcript in") {
		t.Error("native transcript language should not request translation")
	}
}
