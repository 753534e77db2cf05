package cli

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/mgpai22/shabd/internal/config"
	"github.com/mgpai22/shabd/internal/optimize"
	"github.com/mgpai22/shabd/internal/segmenter"
	"github.com/mgpai22/shabd/internal/subtitle"
	"github.com/mgpai22/shabd/internal/transcript"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// settings gathered from the config file and flags for one run
type pipelineSettings struct {
	Optimize    optimize.Options
	Format      subtitle.Format
	Granularity string
	Language    string
	VideoID     string
	Stats       bool

	Translate     config.Translate
	TranslatorKey string
}

// outcome of running one transcript through the pipeline
type pipelineResult struct {
	Drafts    []subtitle.Segment
	Optimized []subtitle.Segment
	Stats     optimize.Stats
}

// registers the flags shared by commands that end in a subtitle file
func addPipelineFlags(flags *pflag.FlagSet) {
	flags.StringP("config", "c", "", "Path to a TOML config file")
	flags.StringP("format", "f", "srt", "Output subtitle format (srt, vtt, ass, json)")
	flags.StringP("granularity", "g", "auto", "Token granularity (auto, word, utterance)")
	flags.String("video-id", "", "Video id stamped on every segment (default: random UUID)")
	flags.Bool("stats", false, "Print before/after statistics")

	flags.Bool("no-merge", false, "Disable merging of short segments")
	flags.Bool("no-split", false, "Disable splitting of long segments")
	flags.Bool("no-fix-timing", false, "Disable overlap and duration repair")
	flags.Bool("no-confidence", false, "Disable confidence smoothing")

	defaults := optimize.DefaultOptions()
	flags.Int("max-chars", defaults.MaxSegmentLengthChars, "Split segments longer than this many characters")
	flags.Int("min-chars", defaults.MinSegmentLengthChars, "Merge segments shorter than this many characters")
	flags.Float64("max-duration", defaults.MaxSegmentDurationSecs, "Split segments longer than this many seconds")
	flags.Float64("min-duration", defaults.MinSegmentDurationSecs, "Merge segments shorter than this many seconds")

	addTranslateFlags(flags)
}

// loadSettings reads --config and overlays only the flags the user set.
func loadSettings(cmd *cobra.Command) (*pipelineSettings, error) {
	flags := cmd.Flags()

	configPath, _ := flags.GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	opts := cfg.Optimize
	if flags.Changed("no-merge") {
		v, _ := flags.GetBool("no-merge")
		opts.MergeShortSegments = !v
	}
	if flags.Changed("no-split") {
		v, _ := flags.GetBool("no-split")
		opts.SplitLongSegments = !v
	}
	if flags.Changed("no-fix-timing") {
		v, _ := flags.GetBool("no-fix-timing")
		opts.FixTiming = !v
	}
	if flags.Changed("no-confidence") {
		v, _ := flags.GetBool("no-confidence")
		opts.ImproveConfidence = !v
	}
	if flags.Changed("max-chars") {
		opts.MaxSegmentLengthChars, _ = flags.GetInt("max-chars")
	}
	if flags.Changed("min-chars") {
		opts.MinSegmentLengthChars, _ = flags.GetInt("min-chars")
	}
	if flags.Changed("max-duration") {
		opts.MaxSegmentDurationSecs, _ = flags.GetFloat64("max-duration")
	}
	if flags.Changed("min-duration") {
		opts.MinSegmentDurationSecs, _ = flags.GetFloat64("min-duration")
	}

	formatName := cfg.Output.Format
	if flags.Changed("format") {
		formatName, _ = flags.GetString("format")
	}
	format, err := subtitle.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}

	language := cfg.Output.Language
	if flags.Changed("language") {
		language, _ = flags.GetString("language")
	}

	granularity, _ := flags.GetString("granularity")
	granularity = strings.ToLower(strings.TrimSpace(granularity))
	if _, _, err := parseGranularity(granularity); err != nil {
		return nil, err
	}

	videoID, _ := flags.GetString("video-id")
	stats, _ := flags.GetBool("stats")

	translateCfg, translatorKey, err := loadTranslateSettings(cmd, cfg.Translate)
	if err != nil {
		return nil, err
	}

	return &pipelineSettings{
		Optimize:      opts,
		Format:        format,
		Granularity:   granularity,
		Language:      language,
		VideoID:       videoID,
		Stats:         stats,
		Translate:     translateCfg,
		TranslatorKey: translatorKey,
	}, nil
}

// parseGranularity maps a flag value to a forced granularity. forced is false
// for "auto", which follows the transcript's own shape.
func parseGranularity(name string) (g segmenter.Granularity, forced bool, err error) {
	switch name {
	case "", "auto":
		return 0, false, nil
	case "word", "words":
		return segmenter.WordLevel, true, nil
	case "utterance", "utterances":
		return segmenter.UtteranceLevel, true, nil
	default:
		return 0, false, fmt.Errorf("unsupported granularity %q: use auto, word, or utterance", name)
	}
}

// segmentTranscript produces draft segments. A forced granularity applies its
// rules to whichever tokens the transcript carries; flat text always takes
// the sentence fallback.
func segmentTranscript(t transcript.Transcript, granularity string, opts segmenter.Options) ([]subtitle.Segment, error) {
	g, forced, err := parseGranularity(granularity)
	if err != nil {
		return nil, err
	}
	if !forced {
		return segmenter.FromTranscript(t, opts)
	}
	if flat, ok := t.(transcript.FlatText); ok {
		return segmenter.FromText(string(flat), opts), nil
	}
	return segmenter.Segment(transcript.Tokens(t), g, opts)
}

// runPipeline segments and optimizes one transcript.
func runPipeline(t transcript.Transcript, s *pipelineSettings) (*pipelineResult, error) {
	videoID := s.VideoID
	if videoID == "" {
		videoID = uuid.NewString()
	}

	drafts, err := segmentTranscript(t, s.Granularity, segmenter.Options{
		Language: s.Language,
		VideoID:  videoID,
	})
	if err != nil {
		return nil, fmt.Errorf("segmentation failed: %w", err)
	}

	optimized := optimize.Optimize(drafts, s.Optimize)

	return &pipelineResult{
		Drafts:    drafts,
		Optimized: optimized,
		Stats:     optimize.CompareStats(drafts, optimized),
	}, nil
}

// writeSubtitles renders segments in format and writes them to path.
func writeSubtitles(segments []subtitle.Segment, format subtitle.Format, path string) (*subtitle.Subtitle, error) {
	subs := subtitle.NewDefaultGenerator().Generate(segments, format)

	writer, err := subtitle.NewWriter(format)
	if err != nil {
		return nil, fmt.Errorf("failed to create subtitle writer: %w", err)
	}
	if err := writer.Write(subs, path); err != nil {
		return nil, fmt.Errorf("failed to write subtitles: %w", err)
	}
	return subs, nil
}

// outputPathFor picks where input's subtitles go. With several inputs a
// non-empty output names a directory. The input is never overwritten by
// default.
func outputPathFor(input, output string, format subtitle.Format, multi bool) string {
	ext := subtitle.GetExtensionForFormat(format)
	base := strings.TrimSuffix(input, filepath.Ext(input))

	switch {
	case output == "" && base+ext == input:
		// re-segmenting a subtitle file in its own format
		return base + ".optimized" + ext
	case output == "":
		return base + ext
	case multi:
		return filepath.Join(output, filepath.Base(base)+ext)
	default:
		return output
	}
}

// planOutputs resolves the destination of every input up front. A
// destination that is one of the inputs, or that two inputs share, is an
// error.
func planOutputs(inputs []string, output string, format subtitle.Format) ([]string, error) {
	multi := len(inputs) > 1

	inputSet := make(map[string]string, len(inputs))
	for _, input := range inputs {
		inputSet[pathKey(input)] = input
	}

	dests := make([]string, len(inputs))
	claimed := make(map[string]string, len(inputs))
	for i, input := range inputs {
		dest := outputPathFor(input, output, format, multi)
		key := pathKey(dest)

		if other, ok := inputSet[key]; ok {
			return nil, fmt.Errorf("output %s for %s would overwrite input %s", dest, input, other)
		}
		if other, ok := claimed[key]; ok {
			return nil, fmt.Errorf("inputs %s and %s would both write %s", other, input, dest)
		}
		claimed[key] = input
		dests[i] = dest
	}
	return dests, nil
}

func pathKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// readTranscript loads a JSON transcript, or an existing subtitle file whose
// cues become utterances for re-segmentation.
func readTranscript(path string) (transcript.Transcript, error) {
	if subtitle.IsSubtitleFile(path) {
		entries, err := subtitle.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return entriesToUtterances(entries), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	t, err := transcript.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// entriesToUtterances sorts cues by start and drops inverted ones. Cue
// timing is trusted, so every utterance gets full confidence.
func entriesToUtterances(entries []subtitle.Entry) transcript.UtteranceTokens {
	utterances := make(transcript.UtteranceTokens, 0, len(entries))
	for _, e := range entries {
		if e.EndTime < e.StartTime {
			continue
		}
		utterances = append(utterances, transcript.Token{
			Text:       strings.Join(strings.Fields(e.Text), " "),
			Start:      e.StartTime.Seconds(),
			End:        e.EndTime.Seconds(),
			Confidence: 1,
		})
	}

	slices.SortStableFunc(utterances, func(a, b transcript.Token) int {
		return cmp.Compare(a.Start, b.Start)
	})
	return utterances
}
