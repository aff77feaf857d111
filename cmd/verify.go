package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Heman10x-NGU/lockcheck/internal/fixture"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <fixture.yaml>...",
	Short: "Check lock discipline against hand-written YAML CFG fixtures",
	Example: `  lockcheck verify testdata/clean.yaml
  lockcheck verify testdata/*.yaml --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	models, err := fixture.LoadAll(args)
	if err != nil {
		return fmt.Errorf("load fixtures: %w", err)
	}

	sources := make([]source, len(models))
	for i, m := range models {
		sources[i] = source{ID: m.ID, Model: m.Function, LockAt: m.LockAt, CalleeAt: m.CalleeAt}
	}

	findings, err := runSources(sources)
	if err != nil {
		return err
	}

	return emit(findings)
}
