// Package goadapter builds FunctionModel values by statically analyzing
// real Go source: it loads packages with golang.org/x/tools/go/packages,
// builds golang.org/x/tools/go/ssa over them, and walks each function's SSA
// basic blocks, recognizing sync.Mutex / sync.RWMutex operations as the
// checker's Lock / FallibleLock / Unlock actions and statically resolved
// calls as Call actions.
package goadapter

import (
	"fmt"
	"go/token"
	"go/types"
	"strings"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/Heman10x-NGU/lockcheck/internal/checker"
)

// Function is one analyzed function's parsed CFG plus the display strings
// the core checker doesn't carry: which lock a Location names, and which
// function a call Location targets.
type Function struct {
	ID       string
	Model    *checker.FunctionModel[string, string, string]
	LockAt   map[string]string
	CalleeAt map[string]string
}

// Load builds one Function per analyzable function (including closures)
// across every package matching the given go/packages patterns.
func Load(patterns []string) ([]*Function, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName |
			packages.NeedFiles |
			packages.NeedCompiledGoFiles |
			packages.NeedImports |
			packages.NeedDeps |
			packages.NeedSyntax |
			packages.NeedTypes |
			packages.NeedTypesInfo,
	}

	loaded, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}

	var loadErrs []string
	for _, pkg := range loaded {
		for _, e := range pkg.Errors {
			loadErrs = append(loadErrs, e.Msg)
		}
	}
	if len(loadErrs) > 0 {
		return nil, fmt.Errorf("package load errors: %s", strings.Join(loadErrs, "; "))
	}

	prog, pkgs := ssautil.AllPackages(loaded, ssa.SanityCheckFunctions)
	prog.Build()

	var functions []*Function
	for _, pkg := range pkgs {
		if pkg == nil {
			continue
		}
		// Methods are not package members; collect them from the method sets
		// of each named type, skipping synthetic wrappers.
		var roots []*ssa.Function
		for _, mem := range pkg.Members {
			switch mem := mem.(type) {
			case *ssa.Function:
				roots = append(roots, mem)
			case *ssa.Type:
				for _, T := range []types.Type{mem.Type(), types.NewPointer(mem.Type())} {
					mset := prog.MethodSets.MethodSet(T)
					for i := 0; i < mset.Len(); i++ {
						if m := prog.MethodValue(mset.At(i)); m != nil && m.Synthetic == "" {
							roots = append(roots, m)
						}
					}
				}
			}
		}
		for _, fn := range roots {
			if f, ok := build(fn); ok {
				functions = append(functions, f)
			}
			for _, anon := range fn.AnonFuncs {
				if f, ok := build(anon); ok {
					functions = append(functions, f)
				}
			}
		}
	}
	return functions, nil
}

type mutexCallKind int

const (
	notMutexCall mutexCallKind = iota
	mutexLock
	mutexTryLock
	mutexUnlock
)

// classifyMutexCall recognizes the same sync.Mutex / sync.RWMutex method
// set the lock-release checker this adapter was grounded on already
// string-matches, plus the two Try variants it never needed.
func classifyMutexCall(callee *ssa.Function) mutexCallKind {
	if callee == nil {
		return notMutexCall
	}
	switch callee.String() {
	case "(*sync.Mutex).Lock", "(*sync.RWMutex).Lock", "(*sync.RWMutex).RLock":
		return mutexLock
	case "(*sync.Mutex).TryLock", "(*sync.RWMutex).TryLock", "(*sync.RWMutex).TryRLock":
		return mutexTryLock
	case "(*sync.Mutex).Unlock", "(*sync.RWMutex).Unlock", "(*sync.RWMutex).RUnlock":
		return mutexUnlock
	default:
		return notMutexCall
	}
}

// lockIdentity derives a textual lock identity from a Lock/Unlock/TryLock
// call's receiver. Struct fields are identified by their declaring type and
// field name, which is stable across call sites within and across
// functions (the case the self-deadlock diagnostic depends on); anything
// else falls back to its SSA register name, which is only stable within a
// single function. This is a static, syntactic identity, not an alias
// analysis — two distinct mutex instances that happen to share a field name
// and type are treated as one lock. Deeper alias tracking is out of scope.
func lockIdentity(v ssa.Value) string {
	switch t := v.(type) {
	case *ssa.FieldAddr:
		if name, ok := fieldIdentity(t.X.Type(), t.Field); ok {
			return name
		}
	case *ssa.Field:
		if name, ok := fieldIdentity(t.X.Type(), t.Field); ok {
			return name
		}
	case *ssa.Global:
		return t.String()
	}
	return v.Name()
}

// fieldIdentity names a struct field by its declaring (named, not
// anonymous-underlying) type plus field name, e.g. "example.com/sample.Box.mu"
// (the type is qualified by its full package path).
func fieldIdentity(t types.Type, field int) (string, bool) {
	named := t
	if p, ok := named.Underlying().(*types.Pointer); ok {
		named = p.Elem()
	}
	st, ok := named.Underlying().(*types.Struct)
	if !ok || field < 0 || field >= st.NumFields() {
		return "", false
	}
	return fmt.Sprintf("%s.%s", named.String(), st.Field(field).Name()), true
}

// blockInfo accumulates one SSA block's translated actions plus, for every
// TryLock call made in the block, the fallible-call index it was assigned
// — consulted when the block's terminating *ssa.If is later checked for a
// depends-on branch.
type blockInfo struct {
	actions    []checker.Action[string, string]
	tryLockIdx map[ssa.Value]checker.FallibleCallIndex
}

func build(fn *ssa.Function) (*Function, bool) {
	if len(fn.Blocks) == 0 {
		return nil, false // external declaration or unreachable — nothing to model
	}
	fset := fn.Prog.Fset

	lockIndex := map[string]checker.LocalLockIndex{}
	var lockNames []string
	lockAt := map[string]string{}
	calleeAt := map[string]string{}
	fallibleCount := 0

	lockIdx := func(name string) checker.LocalLockIndex {
		if idx, ok := lockIndex[name]; ok {
			return idx
		}
		idx := checker.LocalLockIndex(len(lockNames))
		lockIndex[name] = idx
		lockNames = append(lockNames, name)
		return idx
	}

	infos := make([]blockInfo, len(fn.Blocks))
	for _, b := range fn.Blocks {
		info := &infos[b.Index]
		info.tryLockIdx = map[ssa.Value]checker.FallibleCallIndex{}

		for _, instr := range b.Instrs {
			call, ok := instr.(*ssa.Call)
			if !ok {
				continue
			}
			callee := call.Call.StaticCallee()
			pos := fset.Position(call.Pos())
			loc := fmt.Sprintf("%s:%d", pos.Filename, pos.Line)

			switch classifyMutexCall(callee) {
			case mutexLock:
				if len(call.Call.Args) == 0 {
					continue
				}
				name := lockIdentity(call.Call.Args[0])
				info.actions = append(info.actions, checker.LockAction[string, string](loc, lockIdx(name)))
				lockAt[loc] = name

			case mutexTryLock:
				if len(call.Call.Args) == 0 {
					continue
				}
				name := lockIdentity(call.Call.Args[0])
				ci := checker.FallibleCallIndex(fallibleCount)
				fallibleCount++
				info.actions = append(info.actions, checker.FallibleLockAction[string, string](loc, lockIdx(name), ci))
				lockAt[loc] = name
				info.tryLockIdx[call] = ci

			case mutexUnlock:
				if len(call.Call.Args) == 0 {
					continue
				}
				name := lockIdentity(call.Call.Args[0])
				info.actions = append(info.actions, checker.UnlockAction[string, string](loc, lockIdx(name)))
				lockAt[loc] = name

			default:
				if callee == nil {
					continue // interface/dynamic dispatch: not resolved, not modeled
				}
				id := callee.RelString(nil)
				info.actions = append(info.actions, checker.CallAction[string, string](loc, id))
				calleeAt[loc] = id
			}
		}
	}

	exitIdx := checker.BlockIndex(len(fn.Blocks))
	blocks := make([]checker.BasicBlock[string, string], len(fn.Blocks)+1)

	for _, b := range fn.Blocks {
		info := &infos[b.Index]
		var next checker.CondEdge

		switch len(b.Succs) {
		case 0:
			next = checker.CondEdge{OnTrue: exitIdx}
		case 1:
			next = checker.CondEdge{OnTrue: checker.BlockIndex(b.Succs[0].Index)}
		default:
			onTrue := checker.BlockIndex(b.Succs[0].Index)
			onFalse := checker.BlockIndex(b.Succs[1].Index)
			if dep, negate, ok := dependsOnTryLock(b, info); ok {
				if negate {
					onTrue, onFalse = onFalse, onTrue
				}
				d := dep
				next = checker.CondEdge{OnTrue: onTrue, OnFalse: &onFalse, DependsOn: &d}
			} else {
				// Untraced branch (not an if-on-TryLock, or a switch/select
				// lowering with more than two successors): both edges are
				// left feasible rather than guessed at — only the first two
				// successors are modeled when there are more than two.
				next = checker.CondEdge{OnTrue: onTrue, OnFalse: &onFalse}
			}
		}

		blocks[b.Index] = checker.BasicBlock[string, string]{Actions: info.actions, Next: next}
	}
	blocks[exitIdx] = checker.BasicBlock[string, string]{}

	model, err := checker.NewFunctionModel[string, string, string](
		lockNames, blocks, checker.BlockIndex(fn.Blocks[0].Index), exitIdx,
	)
	if err != nil {
		// A model this adapter itself cannot construct validly reflects a
		// function shape the adapter doesn't support (e.g. over 32 locks);
		// skip it rather than fail the whole run.
		return nil, false
	}

	return &Function{ID: fn.RelString(nil), Model: model, LockAt: lockAt, CalleeAt: calleeAt}, true
}

// dependsOnTryLock reports whether b ends in an *ssa.If whose condition is
// (possibly negated by one leading "!") the boolean result of a TryLock
// call made earlier in b, and if so, which fallible call it was and
// whether the true/false successors must be swapped for the negation.
func dependsOnTryLock(b *ssa.BasicBlock, info *blockInfo) (checker.FallibleCallIndex, bool, bool) {
	ifInstr, ok := b.Instrs[len(b.Instrs)-1].(*ssa.If)
	if !ok {
		return 0, false, false
	}
	cond := ifInstr.Cond
	if un, ok := cond.(*ssa.UnOp); ok && un.Op == token.NOT {
		if ci, ok := info.tryLockIdx[un.X]; ok {
			return ci, true, true
		}
		return 0, false, false
	}
	if ci, ok := info.tryLockIdx[cond]; ok {
		return ci, false, true
	}
	return 0, false, false
}
