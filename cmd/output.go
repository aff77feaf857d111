package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/Heman10x-NGU/lockcheck/internal/explain"
	"github.com/Heman10x-NGU/lockcheck/internal/report"
)

// emit optionally explains findings via the LLM explainer and writes the
// report in the requested format.
func emit(findings []report.Finding) error {
	explanation := ""
	if !flagNoLLM {
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey != "" && len(findings) > 0 {
			exp, err := explain.Explain(findings, apiKey, flagExplainLevel)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warn: LLM explanation failed: %v\n", err)
			} else {
				explanation = exp
			}
		}
	}

	out, cleanup, err := outputWriter()
	if err != nil {
		return err
	}
	defer cleanup()

	switch flagFormat {
	case "json":
		return report.WriteJSON(out, findings, explanation)
	default:
		report.WriteTerminal(out, findings, explanation)
		return nil
	}
}

// outputWriter returns a writer for the output destination (file or stdout).
func outputWriter() (io.Writer, func(), error) {
	if flagOutput == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(flagOutput)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}
