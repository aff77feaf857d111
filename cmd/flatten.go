package cmd

import (
	"fmt"

	"github.com/Heman10x-NGU/lockcheck/internal/checker"
	"github.com/Heman10x-NGU/lockcheck/internal/report"
)

// source is the common shape both host adapters produce: a function's
// parsed model plus the display strings the core checker has no notion of.
type source struct {
	ID       string
	Model    *checker.FunctionModel[string, string, string]
	LockAt   map[string]string
	CalleeAt map[string]string
}

// runSources feeds every source into one FileChecker, in order, and
// flattens the resulting diagnostics into []report.Finding.
//
// The checker only ever keys a diagnostic by Location; a CallWithBlockingLock
// raised while propagating a callee's newly grown summary is added during
// whichever function is currently being processed, even though its Location
// belongs to an earlier caller. funcAt tracks, across the whole run, which
// function actually owns each location, so such a diagnostic is correctly
// attributed to the caller rather than to whatever function happened to be
// in flight when it surfaced.
func runSources(sources []source) ([]report.Finding, error) {
	c := checker.NewFileChecker[string, string, string]()

	funcAt := map[string]string{}
	lockAt := map[string]string{}
	calleeAt := map[string]string{}

	var findings []report.Finding

	for _, s := range sources {
		for loc, name := range s.LockAt {
			lockAt[loc] = name
		}
		for loc, name := range s.CalleeAt {
			calleeAt[loc] = name
		}

		errs := checker.ErrorMap[string]{}
		if err := c.ProcessFunction(s.ID, s.Model, errs); err != nil {
			return nil, fmt.Errorf("process %s: %w", s.ID, err)
		}

		for loc, diags := range errs {
			owner := s.ID
			if o, ok := funcAt[loc]; ok {
				owner = o
			}
			detail := lockAt[loc]
			if detail == "" {
				detail = calleeAt[loc]
			}
			for _, d := range diags {
				findings = append(findings, report.Finding{
					Function: owner,
					Location: loc,
					Kind:     d.Kind,
					Detail:   detail,
				})
			}
		}

		for loc := range s.LockAt {
			funcAt[loc] = s.ID
		}
		for loc := range s.CalleeAt {
			funcAt[loc] = s.ID
		}
	}

	return findings, nil
}
