package checker

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newModel is a small helper so each scenario below reads as a block list
// rather than a wall of NewFunctionModel boilerplate.
func newModel(t *testing.T, locks []int, blocks []BasicBlock[int, string], start, end BlockIndex) *FunctionModel[int, string, int] {
	t.Helper()
	m, err := NewFunctionModel[int, string, int](locks, blocks, start, end)
	require.NoError(t, err)
	return m
}

func TestProcessFunctionCleanTakeGive(t *testing.T) {
	blocks := []BasicBlock[int, string]{
		{Actions: []Action[int, string]{LockAction[int, string](10, 0)}, Next: CondEdge{OnTrue: 1}},
		{Actions: []Action[int, string]{UnlockAction[int, string](11, 0)}, Next: CondEdge{OnTrue: 2}},
		{},
	}
	model := newModel(t, []int{100}, blocks, 0, 2)

	c := NewFileChecker[int, string, int]()
	errs := ErrorMap[int]{}
	require.NoError(t, c.ProcessFunction("f", model, errs))

	assert.Equal(t, 0, errs.Count())
	summary, ok := c.Summary("f")
	assert.True(t, ok)
	assert.True(t, summary.Has(0), "f blockingly acquires the lock it submits")
}

func TestProcessFunctionMissingGiveOnReturn(t *testing.T) {
	blocks := []BasicBlock[int, string]{
		{Actions: []Action[int, string]{LockAction[int, string](20, 0)}, Next: CondEdge{OnTrue: 1}},
		{},
	}
	model := newModel(t, []int{100}, blocks, 0, 1)

	c := NewFileChecker[int, string, int]()
	errs := ErrorMap[int]{}
	require.NoError(t, c.ProcessFunction("f", model, errs))

	require.Equal(t, 1, errs.Count())
	ds := errs[zeroValue[int]()]
	require.Len(t, ds, 1)
	assert.Equal(t, TakeWithoutGive, ds[0].Kind)
}

func TestProcessFunctionGiveWithoutTake(t *testing.T) {
	blocks := []BasicBlock[int, string]{
		{Actions: []Action[int, string]{UnlockAction[int, string](30, 0)}, Next: CondEdge{OnTrue: 1}},
		{},
	}
	model := newModel(t, []int{100}, blocks, 0, 1)

	c := NewFileChecker[int, string, int]()
	errs := ErrorMap[int]{}
	require.NoError(t, c.ProcessFunction("f", model, errs))

	require.Equal(t, 1, errs.Count())
	ds := errs[30]
	require.Len(t, ds, 1)
	assert.Equal(t, GiveWithoutTake, ds[0].Kind)
}

func TestProcessFunctionDoubleTake(t *testing.T) {
	blocks := []BasicBlock[int, string]{
		{Actions: []Action[int, string]{
			LockAction[int, string](40, 0),
			LockAction[int, string](41, 0),
			UnlockAction[int, string](42, 0),
		}, Next: CondEdge{OnTrue: 1}},
		{},
	}
	model := newModel(t, []int{100}, blocks, 0, 1)

	c := NewFileChecker[int, string, int]()
	errs := ErrorMap[int]{}
	require.NoError(t, c.ProcessFunction("f", model, errs))

	require.Equal(t, 1, errs.Count())
	ds := errs[41]
	require.Len(t, ds, 1)
	assert.Equal(t, DoubleTake, ds[0].Kind)
}

// selfDeadlockModels builds the pair used by both the forward- and
// reverse-submission-order tests: A takes a lock, calls B, and releases it;
// B blockingly takes the very same lock.
func selfDeadlockModels(t *testing.T) (a, b *FunctionModel[int, string, int]) {
	t.Helper()
	aBlocks := []BasicBlock[int, string]{
		{Actions: []Action[int, string]{LockAction[int, string](40, 0)}, Next: CondEdge{OnTrue: 1}},
		{Actions: []Action[int, string]{CallAction[int, string](41, "B")}, Next: CondEdge{OnTrue: 2}},
		{Actions: []Action[int, string]{UnlockAction[int, string](42, 0)}, Next: CondEdge{OnTrue: 3}},
		{},
	}
	bBlocks := []BasicBlock[int, string]{
		{Actions: []Action[int, string]{LockAction[int, string](50, 0)}, Next: CondEdge{OnTrue: 1}},
		{Actions: []Action[int, string]{UnlockAction[int, string](51, 0)}, Next: CondEdge{OnTrue: 2}},
		{},
	}
	return newModel(t, []int{100}, aBlocks, 0, 3), newModel(t, []int{100}, bBlocks, 0, 2)
}

func TestProcessFunctionCallWithBlockingLockCalleeFirst(t *testing.T) {
	a, b := selfDeadlockModels(t)

	c := NewFileChecker[int, string, int]()
	errs := ErrorMap[int]{}
	require.NoError(t, c.ProcessFunction("B", b, errs))
	require.NoError(t, c.ProcessFunction("A", a, errs))

	require.Equal(t, 1, errs.Count())
	ds := errs[41]
	require.Len(t, ds, 1)
	assert.Equal(t, CallWithBlockingLock, ds[0].Kind)
}

func TestProcessFunctionCallWithBlockingLockCallerFirst(t *testing.T) {
	a, b := selfDeadlockModels(t)

	c := NewFileChecker[int, string, int]()
	errs := ErrorMap[int]{}
	// A is submitted before B exists at all: at the time A is explored, B's
	// summary is unknown, so the call site is only recorded, not flagged.
	require.NoError(t, c.ProcessFunction("A", a, errs))
	assert.Equal(t, 0, errs.Count(), "B's summary is not yet known when A is processed")

	// Submitting B must retroactively flag A's call site via propagation.
	require.NoError(t, c.ProcessFunction("B", b, errs))

	require.Equal(t, 1, errs.Count())
	ds := errs[41]
	require.Len(t, ds, 1)
	assert.Equal(t, CallWithBlockingLock, ds[0].Kind)
}

func TestProcessFunctionFallibleLockDependentBranch(t *testing.T) {
	dep := FallibleCallIndex(0)
	tail := BlockIndex(3)
	blocks := []BasicBlock[int, string]{
		{
			Actions: []Action[int, string]{FallibleLockAction[int, string](60, 0, 0)},
			Next:    CondEdge{OnTrue: 1, OnFalse: &tail, DependsOn: &dep},
		},
		{
			Actions: []Action[int, string]{
				LockAction[int, string](61, 0),
				UnlockAction[int, string](62, 0),
			},
			Next: CondEdge{OnTrue: 3},
		},
		{}, // unused placeholder to keep indices stable; see block 3 for the real tail
		{},
	}
	model := newModel(t, []int{100}, blocks, 0, 3)

	c := NewFileChecker[int, string, int]()
	errs := ErrorMap[int]{}
	require.NoError(t, c.ProcessFunction("f", model, errs))

	require.Equal(t, 1, errs.Count())
	ds := errs[61]
	require.Len(t, ds, 1)
	assert.Equal(t, DoubleTake, ds[0].Kind)
}

func TestProcessFunctionResubmissionIsIdempotent(t *testing.T) {
	blocks := []BasicBlock[int, string]{
		{Actions: []Action[int, string]{LockAction[int, string](20, 0)}, Next: CondEdge{OnTrue: 1}},
		{},
	}
	model := newModel(t, []int{100}, blocks, 0, 1)

	c := NewFileChecker[int, string, int]()
	errs := ErrorMap[int]{}
	require.NoError(t, c.ProcessFunction("f", model, errs))
	require.Equal(t, 1, errs.Count())

	// Submitting the exact same function a second time to the same
	// checker and error map must not grow the error map: the only
	// diagnostic it can produce (TakeWithoutGive at the same location) is
	// already present.
	require.NoError(t, c.ProcessFunction("f", model, errs))
	assert.Equal(t, 1, errs.Count(), "resubmitting the same function must not duplicate findings")

	summary, ok := c.Summary("f")
	assert.True(t, ok)
	assert.True(t, summary.Has(0))
}

func TestProcessFunctionCallWithBlockingLockResubmissionIsIdempotent(t *testing.T) {
	a, b := selfDeadlockModels(t)

	c := NewFileChecker[int, string, int]()
	errs := ErrorMap[int]{}
	require.NoError(t, c.ProcessFunction("B", b, errs))
	require.NoError(t, c.ProcessFunction("A", a, errs))
	require.Equal(t, 1, errs.Count())

	// Resubmitting A re-records its call site and re-triggers propagation;
	// the diagnostic it produces is at the same (location, kind) and must
	// not be duplicated.
	require.NoError(t, c.ProcessFunction("A", a, errs))
	require.Equal(t, 1, errs.Count())
	ds := errs[41]
	require.Len(t, ds, 1)
	assert.Equal(t, CallWithBlockingLock, ds[0].Kind)
}

func TestProcessFunctionOrderIndependentWithTwoFunctions(t *testing.T) {
	a, b := selfDeadlockModels(t)

	// Processing {f} alone (B) then adding the rest (A) must produce the
	// same diagnostics as processing them in the other order.
	forward := NewFileChecker[int, string, int]()
	forwardErrs := ErrorMap[int]{}
	require.NoError(t, forward.ProcessFunction("B", b, forwardErrs))
	require.NoError(t, forward.ProcessFunction("A", a, forwardErrs))

	reverse := NewFileChecker[int, string, int]()
	reverseErrs := ErrorMap[int]{}
	require.NoError(t, reverse.ProcessFunction("A", a, reverseErrs))
	require.NoError(t, reverse.ProcessFunction("B", b, reverseErrs))

	assert.Equal(t, forwardErrs.Count(), reverseErrs.Count())
	assert.Equal(t, forwardErrs[41], reverseErrs[41])
}

func TestProcessFunctionRejectsTooManyLocksAcrossFunctions(t *testing.T) {
	c := NewFileChecker[int, string, int]()
	for i := 0; i < maxBits; i++ {
		// Every function is a trivial single-block no-op with its own
		// distinct lock, so the translation unit accumulates exactly one
		// new global lock per call.
		m := newModel(t, []int{i}, []BasicBlock[int, string]{{}}, 0, 0)
		require.NoError(t, c.ProcessFunction(fmt.Sprintf("fn%d", i), m, ErrorMap[int]{}))
	}

	m := newModel(t, []int{maxBits}, []BasicBlock[int, string]{{}}, 0, 0)
	err := c.ProcessFunction("overflow", m, ErrorMap[int]{})
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}
