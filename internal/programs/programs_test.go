package programs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rufflang/ruff-sub004/registry"
	"github.com/rufflang/ruff-sub004/stdlib"
	"github.com/rufflang/ruff-sub004/vm"
)

func newMachine() *vm.VM {
	reg := registry.New()
	stdlib.RegisterAll(reg)
	return vm.New(reg, func(string) {})
}

func TestFibonacci(t *testing.T) {
	machine := newMachine()
	result, err := machine.Call(Fibonacci(), nil)
	require.NoError(t, err)
	assert.Equal(t, "832040", result.String())
}

func TestArraySum(t *testing.T) {
	machine := newMachine()
	result, err := machine.Call(ArraySum(), nil)
	require.NoError(t, err)
	assert.Equal(t, "499999500000", result.String())
}

func TestArraySumPromotesThroughJIT(t *testing.T) {
	// Force the back-edge threshold low enough that the loop is offered
	// to the JIT well before the 1,000,000-iteration run finishes, and
	// confirm the JIT-tier result still matches the interpreted one
	// (spec §8 property 1: every tier agrees).
	machine := newMachine()
	machine.Tiers.JITPromotionIters = 10
	result, err := machine.Call(ArraySum(), nil)
	require.NoError(t, err)
	assert.Equal(t, "499999500000", result.String())
}

func TestDictWrite(t *testing.T) {
	machine := newMachine()
	result, err := machine.Call(DictWrite(), nil)
	require.NoError(t, err)
	dict, ok := result.AsDict()
	require.True(t, ok)
	assert.Equal(t, 1000, dict.Len())
}

func TestClosureCounter(t *testing.T) {
	machine := newMachine()
	result, err := machine.Call(ClosureCounter(), nil)
	require.NoError(t, err)
	assert.Equal(t, "[1, 2, 3]", result.String())
}

func TestPromiseFanIn(t *testing.T) {
	machine := newMachine()
	result, err := machine.Call(PromiseFanIn(), nil)
	require.NoError(t, err)
	assert.Equal(t, "[0, 1, 2, 3, 4, 5, 6, 7, 8, 9]", result.String())
}

func TestExceptionUnwind(t *testing.T) {
	machine := newMachine()
	result, err := machine.Call(ExceptionUnwind(), nil)
	require.NoError(t, err)
	assert.Equal(t, "boom", result.String())
}

func TestSpreadOps(t *testing.T) {
	machine := newMachine()
	result, err := machine.Call(SpreadOps(), nil)
	require.NoError(t, err)
	assert.Equal(t, "[[1, 2, 3], 6, 2]", result.String())
}

func TestMatchCase(t *testing.T) {
	machine := newMachine()
	result, err := machine.Call(MatchCase(), nil)
	require.NoError(t, err)
	assert.Equal(t, "[ok, err, other]", result.String())
}

func TestLookupUnknownProgram(t *testing.T) {
	_, ok := Lookup("nope")
	assert.False(t, ok)
}

func TestAllProgramsAreBuildable(t *testing.T) {
	for _, p := range All {
		_, ok := p.Build().AsFunction()
		assert.True(t, ok, "program %s must build a callable Function", p.Name)
	}
}
