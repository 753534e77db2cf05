package transcribe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/mgpai22/shabd/internal/transcript"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tidwall/gjson"
)

// implements Transcriber interface using OpenAI Audio API
type OpenAITranscriber struct {
	client  openai.Client
	model   string
	options Options
}

func NewOpenAITranscriber(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*OpenAITranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	model := opts.Model
	if model == "" {
		model = "whisper-1"
	}

	return &OpenAITranscriber{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

// transcribes single audio file
func (t *OpenAITranscriber) Transcribe(
	ctx context.Context,
	audioPath string,
) (*Result, error) {
	if _, err := os.Stat(audioPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", audioPath)
	}

	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	if t.shouldUseTranslation() {
		return t.transcribeWithTranslation(ctx, file)
	}

	return t.transcribeWithTimestamps(ctx, file)
}

func (t *OpenAITranscriber) shouldUseTranslation() bool {
	lang := strings.ToLower(strings.TrimSpace(t.options.TranscriptLanguage))
	return lang == "english" || lang == "en"
}

// the translations endpoint has no word timestamps, so this yields
// utterances
func (t *OpenAITranscriber) transcribeWithTranslation(
	ctx context.Context,
	file *os.File,
) (*Result, error) {
	params := openai.AudioTranslationNewParams{
		File:           file,
		Model:          openai.AudioModel(t.model),
		ResponseFormat: openai.AudioTranslationNewParamsResponseFormatVerboseJSON,
	}

	if t.options.Prompt != "" {
		params.Prompt = openai.String(t.options.Prompt)
	}

	resp, err := t.client.Audio.Translations.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("translation failed: %w", err)
	}

	result, err := parseVerboseJSON(resp.RawJSON())
	if err != nil {
		return nil, err
	}
	result.Language = "en"
	return result, nil
}

func (t *OpenAITranscriber) transcribeWithTimestamps(
	ctx context.Context,
	file *os.File,
) (*Result, error) {
	params := openai.AudioTranscriptionNewParams{
		File:                   file,
		Model:                  openai.AudioModel(t.model),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"word", "segment"},
	}

	if t.options.Language != "" {
		params.Language = openai.String(t.options.Language)
	}

	if t.options.Prompt != "" {
		params.Prompt = openai.String(t.options.Prompt)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	result, err := parseVerboseJSON(resp.RawJSON())
	if err != nil {
		return nil, err
	}
	if t.options.Language != "" {
		result.Language = t.options.Language
	}
	return result, nil
}

// parseVerboseJSON reads a Whisper verbose_json body. Word timestamps win
// over segments, and segments over plain text. Whisper reports seconds.
func parseVerboseJSON(raw string) (*Result, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("empty response")
	}
	if !gjson.Valid(raw) {
		return nil, errors.New("failed to parse verbose_json response")
	}

	root := gjson.Parse(raw)
	result := &Result{
		Language: root.Get("language").String(),
		Duration: root.Get("duration").Float(),
	}

	segments := parseWhisperSegments(root.Get("segments"))
	words := root.Get("words")

	switch {
	case len(words.Array()) > 0:
		result.Transcript = transcript.WordTokens(parseWhisperWords(words, segments))
	case len(segments) > 0:
		result.Transcript = transcript.UtteranceTokens(segments)
	default:
		text := strings.TrimSpace(root.Get("text").String())
		if text == "" {
			return nil, errors.New("no words, segments or text in response")
		}
		result.Transcript = transcript.FlatText(text)
	}

	return result, nil
}

func parseWhisperSegments(arr gjson.Result) []transcript.Token {
	var tokens []transcript.Token
	for _, item := range arr.Array() {
		text := strings.TrimSpace(item.Get("text").String())
		if text == "" {
			continue
		}
		tokens = append(tokens, transcript.Token{
			Text:       text,
			Start:      item.Get("start").Float(),
			End:        item.Get("end").Float(),
			Confidence: logprobConfidence(item.Get("avg_logprob")),
		})
	}
	return tokens
}

// whisper words carry no score; each takes the confidence of the segment
// it starts in
func parseWhisperWords(arr gjson.Result, segments []transcript.Token) []transcript.Token {
	var (
		tokens []transcript.Token
		seg    int
	)
	for _, item := range arr.Array() {
		start := item.Get("start").Float()
		for seg < len(segments) && segments[seg].End < start {
			seg++
		}

		conf := 1.0
		if seg < len(segments) && segments[seg].Start <= start {
			conf = segments[seg].Confidence
		}

		tokens = append(tokens, transcript.Token{
			Text:       strings.TrimSpace(item.Get("word").String()),
			Start:      start,
			End:        item.Get("end").Float(),
			Confidence: conf,
		})
	}
	return tokens
}

func logprobConfidence(v gjson.Result) float64 {
	if !v.Exists() {
		return 1.0
	}
	return max(0, min(1, math.Exp(v.Float())))
}

func (t *OpenAITranscriber) Close() error {
	return nil
}
