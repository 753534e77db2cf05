// Package translate rewrites segment text into another language with an LLM
// provider. Only text changes; timing, ids and confidence are kept.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mgpai22/shabd/internal/llmjson"
	"github.com/mgpai22/shabd/internal/subtitle"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
)

// single text item to translate
type TranslationItem struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// translated text item
type TranslationResult struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Translator translates one batch; results come back in input order.
type Translator interface {
	Translate(
		ctx context.Context,
		items []TranslationItem,
	) ([]TranslationResult, error)
}

// translation service provider
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

const DefaultBatchSize = 50

type Options struct {
	InputLanguage  string
	TargetLanguage string
	Model          string
	Prompt         string
	BatchSize      int // items per API request (default 50)
}

func (o Options) batchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return DefaultBatchSize
}

// creates Translator based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Translator, error) {
	if opts.TargetLanguage == "" {
		return nil, fmt.Errorf("target language is required")
	}

	switch provider {
	case ProviderGemini:
		return NewGeminiTranslator(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAITranslator(ctx, apiKey, opts)
	case ProviderAnthropic:
		return NewAnthropicTranslator(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported translation provider: %s", provider)
	}
}

// APIKeyEnv names the environment variable read when no key is passed.
func APIKeyEnv(provider Provider) string {
	switch provider {
	case ProviderGemini:
		return "GEMINI_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

// Segments translates the text of every segment, sending up to concurrency
// batches at once. The result is a new slice with Language set to the
// target; the input is not modified.
func Segments(
	ctx context.Context,
	tr Translator,
	segments []subtitle.Segment,
	opts Options,
	concurrency int,
) ([]subtitle.Segment, error) {
	out := make([]subtitle.Segment, len(segments))
	copy(out, segments)
	if len(out) == 0 {
		return out, nil
	}

	if concurrency <= 0 {
		concurrency = 3
	}

	size := opts.batchSize()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for start := 0; start < len(out); start += size {
		end := min(start+size, len(out))

		items := make([]TranslationItem, 0, end-start)
		for i := start; i < end; i++ {
			items = append(items, TranslationItem{Index: i, Text: out[i].Text})
		}

		g.Go(func() error {
			results, err := tr.Translate(gctx, items)
			if err != nil {
				return fmt.Errorf("batch %d failed: %w", start/size, err)
			}
			// each batch writes only its own indices
			for _, r := range results {
				if r.Index < start || r.Index >= end {
					return fmt.Errorf("batch %d returned index %d outside [%d, %d)", start/size, r.Index, start, end)
				}
				out[r.Index].Text = strings.TrimSpace(r.Text)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range out {
		out[i].Language = opts.TargetLanguage
	}
	return out, nil
}

// BuildPrompt creates the translation prompt for LLM providers
func BuildPrompt(opts Options, items []TranslationItem) string {
	var sb strings.Builder

	if opts.InputLanguage != "" {
		sb.WriteString(fmt.Sprintf(
			"Translate the following %s subtitle texts to %s.\n\n",
			opts.InputLanguage,
			opts.TargetLanguage,
		))
	} else {
		sb.WriteString(fmt.Sprintf(
			"Translate the following subtitle texts to %s.\n\n",
			opts.TargetLanguage,
		))
	}

	sb.WriteString("IMPORTANT INSTRUCTIONS:\n")
	sb.WriteString("1. Translate ONLY the text content, preserving the meaning.\n")
	sb.WriteString("2. Each text is one timed subtitle; keep it a similar length and do not move words between items.\n")
	sb.WriteString("3. Return ONLY a JSON array with objects holding 'index' and 'text' fields.\n")
	sb.WriteString("4. The 'index' values must match the input indices exactly.\n")
	sb.WriteString("5. Do not add any explanation or markdown formatting.\n\n")

	if opts.Prompt != "" {
		sb.WriteString(fmt.Sprintf("Additional instructions: %s\n\n", opts.Prompt))
	}

	sb.WriteString("Input JSON:\n")

	inputJSON, _ := json.MarshalIndent(items, "", "  ")
	sb.Write(inputJSON)

	sb.WriteString("\n\nOutput the translated JSON array only:")

	return sb.String()
}

// parseResults reads a model reply and returns one result per requested
// item, in request order. A reply missing any requested index is an error.
func parseResults(text string, items []TranslationItem) ([]TranslationResult, error) {
	text = llmjson.FixInvalidEscapes(llmjson.Clean(text))

	arr, ok := llmjson.FindArray(text, func(arr gjson.Result) bool {
		return llmjson.ObjectsWithAny(arr, "index")
	})
	if !ok {
		return nil, fmt.Errorf("no valid translation JSON found in response: %s", llmjson.Truncate(text, 200))
	}

	byIndex := make(map[int]string, len(items))
	for _, item := range arr.Array() {
		idx := item.Get("index")
		if !idx.Exists() {
			continue
		}
		byIndex[int(idx.Int())] = item.Get("text").String()
	}

	results := make([]TranslationResult, 0, len(items))
	for _, item := range items {
		translated, ok := byIndex[item.Index]
		if !ok {
			return nil, fmt.Errorf("expected %d results, missing index %d", len(items), item.Index)
		}
		results = append(results, TranslationResult{Index: item.Index, Text: translated})
	}
	return results, nil
}
