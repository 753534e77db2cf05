package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mgpai22/shabd/internal/config"
	"github.com/mgpai22/shabd/internal/subtitle"
	"github.com/mgpai22/shabd/internal/translate"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// swapped in tests
var newTranslator = func(
	ctx context.Context,
	provider translate.Provider,
	apiKey string,
	opts translate.Options,
) (translate.Translator, error) {
	return translate.Factory(ctx, provider, apiKey, opts)
}

func addTranslateFlags(flags *pflag.FlagSet) {
	flags.String("translate-to", "", "Translate the optimized subtitles to this language")
	flags.String("translator", "gemini", "Translation provider (gemini, openai, anthropic)")
	flags.String("translator-key", "", "Translation API key (or set GEMINI_API_KEY/OPENAI_API_KEY/ANTHROPIC_API_KEY)")
	flags.String("translator-model", "", "Model to use for translation (provider-specific, uses sensible defaults)")
	flags.Int("batch-size", translate.DefaultBatchSize, "Number of subtitle entries per translation request")
}

// loadTranslateSettings overlays translation flags the user set onto cfg.
func loadTranslateSettings(cmd *cobra.Command, cfg config.Translate) (config.Translate, string, error) {
	flags := cmd.Flags()

	if flags.Changed("translate-to") {
		cfg.TargetLanguage, _ = flags.GetString("translate-to")
	}
	if flags.Changed("translator") {
		cfg.Provider, _ = flags.GetString("translator")
	}
	if flags.Changed("translator-model") {
		cfg.Model, _ = flags.GetString("translator-model")
	}
	if flags.Changed("batch-size") {
		cfg.BatchSize, _ = flags.GetInt("batch-size")
	}
	apiKey, _ := flags.GetString("translator-key")

	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	cfg.TargetLanguage = strings.TrimSpace(cfg.TargetLanguage)

	if translate.APIKeyEnv(translate.Provider(cfg.Provider)) == "" {
		return cfg, "", fmt.Errorf("unsupported translation provider %q: use gemini, openai, or anthropic", cfg.Provider)
	}
	if cfg.BatchSize <= 0 {
		return cfg, "", fmt.Errorf("batch-size must be positive, got %d", cfg.BatchSize)
	}
	return cfg, apiKey, nil
}

// translateSegments runs the translation stage when a target language is
// set and returns segments unchanged otherwise.
func translateSegments(
	ctx context.Context,
	segments []subtitle.Segment,
	s *pipelineSettings,
) ([]subtitle.Segment, error) {
	cfg := s.Translate
	if cfg.TargetLanguage == "" {
		return segments, nil
	}

	if s.Language != "" && strings.EqualFold(s.Language, cfg.TargetLanguage) {
		return nil, fmt.Errorf(
			"input language %q and target language %q cannot be the same",
			s.Language,
			cfg.TargetLanguage,
		)
	}

	provider := translate.Provider(cfg.Provider)
	apiKey := s.TranslatorKey
	if apiKey == "" {
		apiKey = os.Getenv(translate.APIKeyEnv(provider))
	}
	if apiKey == "" {
		return nil, fmt.Errorf(
			"translation API key is required: use --translator-key flag or set %s environment variable",
			translate.APIKeyEnv(provider),
		)
	}

	opts := translate.Options{
		InputLanguage:  s.Language,
		TargetLanguage: cfg.TargetLanguage,
		Model:          cfg.Model,
		BatchSize:      cfg.BatchSize,
	}

	translator, err := newTranslator(ctx, provider, apiKey, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create translator: %w", err)
	}

	logger.Infow("Translating subtitles",
		"provider", provider,
		"target_language", cfg.TargetLanguage,
		"segments", len(segments),
	)

	translated, err := translate.Segments(ctx, translator, segments, opts, cfg.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("translation failed: %w", err)
	}
	return translated, nil
}
