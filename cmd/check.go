package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Heman10x-NGU/lockcheck/internal/goadapter"
)

var checkCmd = &cobra.Command{
	Use:   "check <package patterns...>",
	Short: "Analyze real Go source for lock-discipline violations",
	Example: `  lockcheck check ./...
  lockcheck check ./internal/... --format json --output findings.json
  lockcheck check ./... --no-llm`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	functions, err := goadapter.Load(args)
	if err != nil {
		return fmt.Errorf("load packages: %w", err)
	}

	sources := make([]source, len(functions))
	for i, f := range functions {
		sources[i] = source{ID: f.ID, Model: f.Model, LockAt: f.LockAt, CalleeAt: f.CalleeAt}
	}

	findings, err := runSources(sources)
	if err != nil {
		return err
	}

	return emit(findings)
}
