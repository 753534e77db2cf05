package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/mgpai22/shabd/internal/transcript"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var segmentCmd = &cobra.Command{
	Use:   "segment [transcript.json|subtitle_file...]",
	Short: "Segment ASR transcripts into subtitle files",
	Long: `Segment reads speech recognition output and writes an optimized subtitle file
for each input.

Each input is a JSON object carrying one of:
  "utterances": [{"text", "start", "end", "confidence"}, ...]
  "words":      [{"text", "start", "end", "confidence"}, ...]
  "text":       "plain transcript"
with start and end in milliseconds. Utterances win over words, and words over
text. Plain text is split into sentences of five seconds each.

Existing .srt, .vtt, .ass and .ssa files are also accepted; their cues are
re-segmented as utterances.

Several inputs are processed in parallel; --output then names a directory.

Examples:
  shabd segment talk.json
  shabd segment talk.json --format vtt --stats
  shabd segment a.json b.json c.json -o subs/ --concurrency 2
  shabd segment talk.json --granularity utterance --no-split --max-chars 80
  shabd segment talk.json --translate-to japanese --translator anthropic
  shabd segment old.srt --max-chars 42`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSegment,
}

func init() {
	rootCmd.AddCommand(segmentCmd)

	addPipelineFlags(segmentCmd.Flags())
	segmentCmd.Flags().
		Int("concurrency", 4, "Number of transcripts processed in parallel")
}

func runSegment(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	outputPath, _ := cmd.Flags().GetString("output")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	if concurrency <= 0 {
		concurrency = 1
	}
	dests, err := planOutputs(args, outputPath, settings.Format)
	if err != nil {
		return err
	}

	logger.Infow("Starting segmentation",
		"inputs", len(args),
		"format", settings.Format,
		"granularity", settings.Granularity,
		"concurrency", concurrency,
	)

	var mu sync.Mutex
	out := cmd.OutOrStdout()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, input := range args {
		dest := dests[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			t, err := readTranscript(input)
			if err != nil {
				return err
			}

			log := logger.With("input", input)
			log.Debugw("Parsed transcript", "shape", transcript.Kind(t))

			result, err := runPipeline(t, settings)
			if err != nil {
				return fmt.Errorf("%s: %w", input, err)
			}

			segments, err := translateSegments(gctx, result.Optimized, settings)
			if err != nil {
				return fmt.Errorf("%s: %w", input, err)
			}

			subs, err := writeSubtitles(segments, settings.Format, dest)
			if err != nil {
				return fmt.Errorf("%s: %w", input, err)
			}

			log.Infow("Segmented transcript",
				"drafts", len(result.Drafts),
				"segments", len(result.Optimized),
				"output", dest,
			)

			absOutput, _ := filepath.Abs(dest)

			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(out, "Subtitles written: %s\n", absOutput)
			fmt.Fprintf(out, "  Entries: %d\n", len(subs.Entries))
			if settings.Stats {
				fmt.Fprintln(out, renderStats(filepath.Base(input), result.Stats))
			}
			return nil
		})
	}

	return g.Wait()
}
