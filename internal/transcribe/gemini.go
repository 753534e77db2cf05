package transcribe

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/mgpai22/shabd/internal/llmjson"
	"github.com/mgpai22/shabd/internal/transcript"
	"github.com/tidwall/gjson"
	"google.golang.org/genai"
)

// implements Transcriber interface using Google Gemini
type GeminiTranscriber struct {
	client  *genai.Client
	model   string
	options Options
}

func NewGeminiTranscriber(ctx context.Context, apiKey string, opts Options) (*GeminiTranscriber, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &GeminiTranscriber{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

// transcribes single audio file into utterances
func (t *GeminiTranscriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	if _, err := os.Stat(audioPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", audioPath)
	}

	uploadedFile, err := t.client.Files.UploadFromPath(ctx, audioPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upload audio file: %w", err)
	}

	defer func() {
		_, _ = t.client.Files.Delete(ctx, uploadedFile.Name, nil)
	}()

	parts := []*genai.Part{
		genai.NewPartFromText(t.buildTranscriptionPrompt()),
		genai.NewPartFromURI(uploadedFile.URI, uploadedFile.MIMEType),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := t.client.Models.GenerateContent(ctx, t.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	text, err := responseText(result)
	if err != nil {
		return nil, err
	}

	utterances, err := extractUtterances(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse transcription: %w", err)
	}

	var duration float64
	if n := len(utterances); n > 0 {
		duration = utterances[n-1].End
	}

	return &Result{
		Transcript: transcript.UtteranceTokens(utterances),
		Language:   t.options.Language,
		Duration:   duration,
	}, nil
}

// creates the prompt for transcription
func (t *GeminiTranscriber) buildTranscriptionPrompt() string {
	var sb strings.Builder

	sb.WriteString("Generate a detailed transcript of this audio. ")
	sb.WriteString("Split it into short utterances at natural pauses, keeping the speaker's punctuation and capitalization. ")
	sb.WriteString("Format your response as a JSON array with objects containing 'start', 'end', 'text' and 'confidence' fields, ")
	sb.WriteString("where 'start' and 'end' are timestamps in seconds (as numbers) and 'confidence' is between 0 and 1. ")

	if t.options.Language != "" {
		sb.WriteString(fmt.Sprintf("The audio is in %s. ", t.options.Language))
	}

	if t.options.TranscriptLanguage != "" && t.options.TranscriptLanguage != "native" {
		sb.WriteString(fmt.Sprintf("Output the transcript in %s. ", t.options.TranscriptLanguage))
	}

	if t.options.Prompt != "" {
		sb.WriteString(t.options.Prompt)
		sb.WriteString(" ")
	}

	sb.WriteString("Return ONLY the JSON array, no other text or markdown formatting.")

	return sb.String()
}

func responseText(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 {
		return "", errors.New("empty response from Gemini")
	}

	var sb strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			sb.WriteString(part.Text)
		}
	}

	if sb.Len() == 0 {
		return "", errors.New("no text in Gemini response")
	}
	return sb.String(), nil
}

// extractUtterances finds the transcript array in the model's reply.
func extractUtterances(text string) ([]transcript.Token, error) {
	text = llmjson.Clean(text)

	var utterances []transcript.Token
	_, ok := llmjson.FindArray(text, func(arr gjson.Result) bool {
		if !llmjson.ObjectsWithAny(arr, "text", "start", "end") {
			return false
		}
		utterances = toUtterances(arr)
		return len(utterances) > 0
	})
	if !ok {
		return nil, fmt.Errorf("no transcript array in response: %s", llmjson.Truncate(text, 200))
	}
	return utterances, nil
}

// entries without text or ending before they start are dropped, and the rest
// ordered by start so the segmenter accepts them
func toUtterances(arr gjson.Result) []transcript.Token {
	var utterances []transcript.Token
	for _, item := range arr.Array() {
		tok := transcript.Token{
			Text:       strings.TrimSpace(item.Get("text").String()),
			Start:      item.Get("start").Float(),
			End:        item.Get("end").Float(),
			Confidence: 1.0,
		}
		if c := item.Get("confidence"); c.Exists() {
			tok.Confidence = max(0, min(1, c.Float()))
		}
		if tok.Text == "" || tok.End < tok.Start {
			continue
		}
		utterances = append(utterances, tok)
	}

	slices.SortStableFunc(utterances, func(a, b transcript.Token) int {
		return cmp.Compare(a.Start, b.Start)
	})
	return utterances
}

func (t *GeminiTranscriber) Close() error {
	return nil
}
