package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/shabd/internal/transcribe"
	"github.com/mgpai22/shabd/internal/transcript"
	"github.com/spf13/cobra"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [audio_file...]",
	Short: "Transcribe audio with an ASR provider and segment the result",
	Long: `Transcribe sends audio to OpenAI Whisper or Google Gemini and runs the
returned transcript through the same segmentation pipeline as "segment".

OpenAI returns word timestamps; Gemini returns utterances. Several files are
treated as consecutive parts of one recording: they are transcribed in
parallel and joined end to end into a single subtitle file.

Examples:
  shabd transcribe interview.mp3
  shabd transcribe part1.mp3 part2.mp3 --provider gemini --format vtt
  shabd transcribe lecture.wav --save-transcript lecture.json --stats
  shabd transcribe talk.mp3 -l english --translate-to spanish`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTranscribe,
}

func init() {
	rootCmd.AddCommand(transcribeCmd)

	addPipelineFlags(transcribeCmd.Flags())
	transcribeCmd.Flags().
		StringP("provider", "p", "openai", "Transcription provider (openai, gemini)")
	transcribeCmd.Flags().
		StringP("api-key", "k", "", "Provider API key (or set OPENAI_API_KEY / GEMINI_API_KEY)")
	transcribeCmd.Flags().
		String("model", "", "Model to use (default: whisper-1 or gemini-2.5-flash)")
	transcribeCmd.Flags().
		String("transcript-language", "native", "Output language for transcript (e.g., 'english' or 'native' for original language)")
	transcribeCmd.Flags().
		String("prompt", "", "Extra context passed to the provider (names, jargon)")
	transcribeCmd.Flags().
		Int("concurrency", 3, "Number of parts transcribed in parallel")
	transcribeCmd.Flags().
		String("save-transcript", "", "Also write the provider transcript as segment-ready JSON")
}

// OpenAI's translation endpoint only produces English
func isValidOpenAITranscriptLanguage(lang string) bool {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "", "native", "english", "en":
		return true
	default:
		return false
	}
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	for _, path := range args {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", path)
		}
	}

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	providerName, _ := cmd.Flags().GetString("provider")
	apiKey, _ := cmd.Flags().GetString("api-key")
	model, _ := cmd.Flags().GetString("model")
	transcriptLang, _ := cmd.Flags().GetString("transcript-language")
	prompt, _ := cmd.Flags().GetString("prompt")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	savePath, _ := cmd.Flags().GetString("save-transcript")
	outputPath, _ := cmd.Flags().GetString("output")

	dest := outputPathFor(args[0], outputPath, settings.Format, false)
	for _, input := range args {
		if pathKey(input) == pathKey(dest) {
			return fmt.Errorf("output %s would overwrite input %s", dest, input)
		}
	}

	provider := transcribe.Provider(strings.ToLower(strings.TrimSpace(providerName)))
	if provider == transcribe.ProviderOpenAI && !isValidOpenAITranscriptLanguage(transcriptLang) {
		return fmt.Errorf("openai can only transcribe natively or translate to english, got %q", transcriptLang)
	}

	if apiKey == "" {
		apiKey = os.Getenv(transcribe.APIKeyEnv(provider))
	}
	if apiKey == "" {
		return fmt.Errorf("%s API key is required: use --api-key flag or set %s environment variable",
			provider, transcribe.APIKeyEnv(provider))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	transcriber, err := transcribe.Factory(ctx, provider, apiKey, transcribe.Options{
		Language:           settings.Language,
		TranscriptLanguage: transcriptLang,
		Model:              model,
		Prompt:             prompt,
	})
	if err != nil {
		return fmt.Errorf("failed to create transcriber: %w", err)
	}

	logger.Infow("Transcribing audio",
		"provider", provider,
		"parts", len(args),
		"concurrency", concurrency,
	)

	result, err := transcribe.TranscribeParts(ctx, transcriber, args, concurrency)
	if err != nil {
		return fmt.Errorf("transcription failed: %w", err)
	}

	logger.Infow("Transcription complete",
		"shape", transcript.Kind(result.Transcript),
		"tokens", len(transcript.Tokens(result.Transcript)),
		"duration", result.Duration,
	)

	if savePath != "" {
		if err := saveTranscript(result.Transcript, savePath); err != nil {
			return err
		}
		logger.Debugw("Saved transcript", "path", savePath)
	}

	if settings.Language == "" {
		settings.Language = result.Language
	}

	pipeline, err := runPipeline(result.Transcript, settings)
	if err != nil {
		return err
	}

	segments, err := translateSegments(ctx, pipeline.Optimized, settings)
	if err != nil {
		return err
	}

	subs, err := writeSubtitles(segments, settings.Format, dest)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	absOutput, _ := filepath.Abs(dest)
	fmt.Fprintf(out, "Subtitles generated successfully: %s\n", absOutput)
	fmt.Fprintf(out, "  Entries: %d\n", len(subs.Entries))
	fmt.Fprintf(out, "  Duration: %.1fs\n", result.Duration)
	if settings.Stats {
		fmt.Fprintln(out, renderStats(filepath.Base(args[0]), pipeline.Stats))
	}

	return nil
}

func saveTranscript(t transcript.Transcript, path string) error {
	data, err := transcript.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create transcript directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}
