// Package fixture loads a FunctionModel from a hand-authored YAML document,
// mirroring the inline struct literals the reference implementation's own
// tests construct by hand, but in a format a human can write without a
// compiler: named locks, an ordered block list, and the lock/call/unlock
// actions and successor edges within each.
package fixture

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Heman10x-NGU/lockcheck/internal/checker"
)

// Document is the on-disk shape of one function's CFG.
type Document struct {
	Function string   `yaml:"function"`
	Locks    []string `yaml:"locks"`
	Blocks   []Block  `yaml:"blocks"`
	Start    int      `yaml:"start"`
	End      int      `yaml:"end"`
}

// Block is one basic block: an ordered action list and its successor edge.
type Block struct {
	Actions []Action `yaml:"actions"`
	Next    Edge     `yaml:"next"`
}

// Action is one step within a block. Kind is one of "lock", "trylock",
// "unlock", or "call". Lock is required for the first three and names an
// entry in the document's Locks list. Call names this trylock's fallible
// call site, unique within the function; Callee names the function a call
// action invokes.
type Action struct {
	Kind     string `yaml:"kind"`
	Location string `yaml:"location"`
	Lock     string `yaml:"lock,omitempty"`
	Call     string `yaml:"call,omitempty"`
	Callee   string `yaml:"callee,omitempty"`
}

// Edge is a block's successor record. DependsOn names the trylock Call this
// edge branches on; when set, OnFalse must be set too.
type Edge struct {
	OnTrue    int    `yaml:"on_true"`
	OnFalse   *int   `yaml:"on_false,omitempty"`
	DependsOn string `yaml:"depends_on,omitempty"`
}

// Model is one function's parsed CFG plus the display names the core
// checker has no notion of: which lock an action names, and which function
// a call targets. Host-facing reporting fills a report.Finding's Detail
// field from these rather than from the checker itself.
type Model struct {
	ID       string
	Function *checker.FunctionModel[string, string, string]
	LockAt   map[string]string
	CalleeAt map[string]string
}

// Load reads and parses one fixture file.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}

	return build(path, &doc)
}

// LoadAll reads and parses every given fixture file, in order, stopping at
// the first error.
func LoadAll(paths []string) ([]*Model, error) {
	models := make([]*Model, 0, len(paths))
	for _, p := range paths {
		m, err := Load(p)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, nil
}

func build(path string, doc *Document) (*Model, error) {
	lockIndex := make(map[string]checker.LocalLockIndex, len(doc.Locks))
	for i, name := range doc.Locks {
		lockIndex[name] = checker.LocalLockIndex(i)
	}

	callIndex := map[string]checker.FallibleCallIndex{}
	lockAt := map[string]string{}
	calleeAt := map[string]string{}

	blocks := make([]checker.BasicBlock[string, string], len(doc.Blocks))
	for i, b := range doc.Blocks {
		actions := make([]checker.Action[string, string], 0, len(b.Actions))
		for _, a := range b.Actions {
			switch a.Kind {
			case "lock":
				li, ok := lockIndex[a.Lock]
				if !ok {
					return nil, fmt.Errorf("fixture %s: block %d: unknown lock %q", path, i, a.Lock)
				}
				actions = append(actions, checker.LockAction[string, string](a.Location, li))
				lockAt[a.Location] = a.Lock

			case "trylock":
				li, ok := lockIndex[a.Lock]
				if !ok {
					return nil, fmt.Errorf("fixture %s: block %d: unknown lock %q", path, i, a.Lock)
				}
				ci, ok := callIndex[a.Call]
				if !ok {
					ci = checker.FallibleCallIndex(len(callIndex))
					callIndex[a.Call] = ci
				}
				actions = append(actions, checker.FallibleLockAction[string, string](a.Location, li, ci))
				lockAt[a.Location] = a.Lock

			case "unlock":
				li, ok := lockIndex[a.Lock]
				if !ok {
					return nil, fmt.Errorf("fixture %s: block %d: unknown lock %q", path, i, a.Lock)
				}
				actions = append(actions, checker.UnlockAction[string, string](a.Location, li))
				lockAt[a.Location] = a.Lock

			case "call":
				actions = append(actions, checker.CallAction[string, string](a.Location, a.Callee))
				calleeAt[a.Location] = a.Callee

			default:
				return nil, fmt.Errorf("fixture %s: block %d: unknown action kind %q", path, i, a.Kind)
			}
		}

		next := checker.CondEdge{OnTrue: checker.BlockIndex(b.Next.OnTrue)}
		if b.Next.OnFalse != nil {
			v := checker.BlockIndex(*b.Next.OnFalse)
			next.OnFalse = &v
		}
		if b.Next.DependsOn != "" {
			ci, ok := callIndex[b.Next.DependsOn]
			if !ok {
				return nil, fmt.Errorf("fixture %s: block %d: depends_on references unknown call %q", path, i, b.Next.DependsOn)
			}
			next.DependsOn = &ci
		}

		blocks[i] = checker.BasicBlock[string, string]{Actions: actions, Next: next}
	}

	fn, err := checker.NewFunctionModel[string, string, string](doc.Locks, blocks, checker.BlockIndex(doc.Start), checker.BlockIndex(doc.End))
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}

	return &Model{ID: doc.Function, Function: fn, LockAt: lockAt, CalleeAt: calleeAt}, nil
}
