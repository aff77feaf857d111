package cmd

import (
	"github.com/spf13/cobra"
)

var (
	flagFormat       string
	flagOutput       string
	flagNoLLM        bool
	flagExplainLevel string
)

var rootCmd = &cobra.Command{
	Use:   "lockcheck",
	Short: "Detect incorrect blocking-lock usage across functions",
	Long: `lockcheck is a static analyzer for lock discipline: it walks each
function's control-flow graph to find locks taken twice, released without
being taken, held across a function return, or held across a call into a
function that may itself block on the same lock.

Run 'lockcheck check ./...' against real Go source, or
'lockcheck verify some.yaml' against a hand-written CFG fixture.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "terminal", "Output format: terminal or json")
	rootCmd.PersistentFlags().StringVar(&flagOutput, "output", "", "Write output to file instead of stdout")
	rootCmd.PersistentFlags().BoolVar(&flagNoLLM, "no-llm", false, "Skip LLM explanation (faster, works without API key)")
	rootCmd.PersistentFlags().StringVar(&flagExplainLevel, "explain-detail", "normal", "Detail level hint sent to the LLM explainer: brief, normal, or verbose")
}
