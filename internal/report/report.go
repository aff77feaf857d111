// Package report renders a flattened, host-agnostic view of diagnostics —
// the generic checker never names a function or location kind, so every
// producer (the Go-source adapter, the YAML fixture adapter) converts its
// own checker.ErrorMap into a []Finding before handing it here.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/Heman10x-NGU/lockcheck/internal/checker"
)

// Finding is one reported diagnostic, flattened to strings a terminal or
// JSON encoder can render without knowing about the checker's generic
// Location/FunctionID types.
type Finding struct {
	Function string
	Location string
	Kind     checker.DiagnosticKind
	Detail   string
}

var (
	bold   = color.New(color.Bold)
	red    = color.New(color.FgRed, color.Bold)
	yellow = color.New(color.FgYellow, color.Bold)
	cyan   = color.New(color.FgCyan)
	green  = color.New(color.FgGreen)
	dim    = color.New(color.Faint)

	separator = strings.Repeat("━", 40)
)

// WriteTerminal writes a human-readable colored report to w.
func WriteTerminal(w io.Writer, findings []Finding, explanation string) {
	bold.Fprintln(w, "\nlockcheck")
	fmt.Fprintln(w, separator)
	fmt.Fprintln(w)

	if len(findings) == 0 {
		green.Fprintln(w, "  No lock-discipline violations found.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, separator)
		return
	}

	for _, kind := range []checker.DiagnosticKind{
		checker.DoubleTake, checker.GiveWithoutTake, checker.TakeWithoutGive, checker.CallWithBlockingLock,
	} {
		n := countKind(findings, kind)
		if n == 0 {
			continue
		}
		colorForKind(kind).Fprintf(w, "  %s\n", pluralize(n, kind.String()))
	}

	for _, f := range findings {
		fmt.Fprintln(w)
		printFinding(w, f)
	}

	if explanation != "" {
		fmt.Fprintln(w)
		bold.Fprintln(w, "  Explanation")
		fmt.Fprintln(w)
		for _, line := range strings.Split(strings.TrimSpace(explanation), "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, separator)
	dim.Fprintf(w, "  %s\n", pluralize(len(findings), "finding"))
	fmt.Fprintln(w)
}

func printFinding(w io.Writer, f Finding) {
	colorForKind(f.Kind).Fprintf(w, "● %s", strings.ToUpper(f.Kind.String()))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Function: ")
	cyan.Fprintf(w, "%s\n", f.Function)
	fmt.Fprintf(w, "  Location: ")
	cyan.Fprintf(w, "%s\n", f.Location)
	if f.Detail != "" {
		fmt.Fprintf(w, "  Detail: ")
		dim.Fprintf(w, "%s\n", f.Detail)
	}
}

func colorForKind(k checker.DiagnosticKind) *color.Color {
	switch k {
	case checker.CallWithBlockingLock:
		return red
	case checker.TakeWithoutGive:
		return red
	default:
		return yellow
	}
}

func countKind(findings []Finding, kind checker.DiagnosticKind) int {
	n := 0
	for _, f := range findings {
		if f.Kind == kind {
			n++
		}
	}
	return n
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

type jsonFinding struct {
	Function string `json:"function"`
	Location string `json:"location"`
	Kind     string `json:"kind"`
	Detail   string `json:"detail,omitempty"`
}

type jsonReport struct {
	Findings       []jsonFinding `json:"findings"`
	LLMExplanation string        `json:"llm_explanation,omitempty"`
}

// WriteJSON writes findings as indented JSON to w.
func WriteJSON(w io.Writer, findings []Finding, explanation string) error {
	out := jsonReport{Findings: make([]jsonFinding, 0, len(findings)), LLMExplanation: explanation}
	for _, f := range findings {
		out.Findings = append(out.Findings, jsonFinding{
			Function: f.Function,
			Location: f.Location,
			Kind:     f.Kind.String(),
			Detail:   f.Detail,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
