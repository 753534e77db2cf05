package cli

import (
	"github.com/mgpai22/shabd/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	logger  = logging.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "shabd",
	Short: "Subtitle segmentation and optimization for ASR transcripts",
	Long: `Shabd turns speech recognition output into readable subtitles.

It groups word or utterance timestamps into segments at sentence and clause
boundaries, repairs overlapping timing, merges fragments, splits overlong
segments and smooths confidence scores before writing SRT, VTT, ASS or JSON.
The result can optionally be translated with an LLM provider.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.NewLogger(verbose)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Close()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path (a directory when several inputs are given)")
	rootCmd.PersistentFlags().
		StringP("language", "l", "", "Language code (e.g., en, es, fr)")
}
