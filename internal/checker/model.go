package checker

import "fmt"

// FunctionModel is an immutable per-function CFG: an ordered list of
// locally-referenced lock identities, a vector of basic blocks, and the
// start/end block indices. K is the host's LockID type.
type FunctionModel[L, F, K comparable] struct {
	Locks  []K
	Blocks []BasicBlock[L, F]
	Start  BlockIndex
	End    BlockIndex
}

// NewFunctionModel validates and constructs a FunctionModel. Malformed
// input — a block missing its required OnTrue successor, a dangling block
// index, an out-of-range lock or fallible-call index — is rejected here,
// rather than letting the explorer run into it later.
func NewFunctionModel[L, F, K comparable](locks []K, blocks []BasicBlock[L, F], start, end BlockIndex) (*FunctionModel[L, F, K], error) {
	if len(locks) > maxBits {
		return nil, errTooManyLocks(len(locks))
	}
	if int(start) < 0 || int(start) >= len(blocks) {
		return nil, &ConfigError{Reason: fmt.Sprintf("start block index %d out of range [0,%d)", start, len(blocks))}
	}
	if int(end) < 0 || int(end) >= len(blocks) {
		return nil, &ConfigError{Reason: fmt.Sprintf("end block index %d out of range [0,%d)", end, len(blocks))}
	}

	for i, b := range blocks {
		if i != int(end) {
			if int(b.Next.OnTrue) < 0 || int(b.Next.OnTrue) >= len(blocks) {
				return nil, &ConfigError{Reason: fmt.Sprintf("block %d: OnTrue successor %d out of range", i, b.Next.OnTrue)}
			}
			if b.Next.OnFalse != nil {
				if int(*b.Next.OnFalse) < 0 || int(*b.Next.OnFalse) >= len(blocks) {
					return nil, &ConfigError{Reason: fmt.Sprintf("block %d: OnFalse successor %d out of range", i, *b.Next.OnFalse)}
				}
			}
			if b.Next.DependsOn != nil && b.Next.OnFalse == nil {
				return nil, &ConfigError{Reason: fmt.Sprintf("block %d: DependsOn set without an OnFalse successor", i)}
			}
		}
		for _, a := range b.Actions {
			switch a.Kind {
			case Lock, FallibleLock, Unlock:
				if int(a.LockIdx) < 0 || int(a.LockIdx) >= len(locks) {
					return nil, &ConfigError{Reason: fmt.Sprintf("block %d: local lock index %d out of range [0,%d)", i, a.LockIdx, len(locks))}
				}
			}
			if a.Kind == FallibleLock {
				if int(a.CallIdx) < 0 || int(a.CallIdx) >= maxBits {
					return nil, &ConfigError{Reason: fmt.Sprintf("block %d: fallible call index %d out of range [0,%d)", i, a.CallIdx, maxBits)}
				}
			}
		}
	}

	m := &FunctionModel[L, F, K]{
		Locks:  append([]K(nil), locks...),
		Blocks: blocks,
		Start:  start,
		End:    end,
	}
	return m, nil
}
