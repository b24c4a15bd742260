package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rufflang/ruff-sub004/bytecode"
	"github.com/rufflang/ruff-sub004/opcodes"
	"github.com/rufflang/ruff-sub004/registry"
	"github.com/rufflang/ruff-sub004/values"
)

// A bare OpAdd on an empty operand stack is the spec §8 property 1
// scenario: "Invalid stacks (underflow) are a runtime error, never a
// process crash." Without safeExecuteInstruction's recover, pop's
// (*stack)[n-1] on an empty slice panics and crashes the process instead
// of returning an error.
func TestStackUnderflowIsRuntimeErrorNotPanic(t *testing.T) {
	b := bytecode.NewBuilder("underflow")
	b.Emit(opcodes.OpAdd, 0, 0, 0)
	b.Emit(opcodes.OpReturn, 0, 0, 0)
	fn := values.NewFunction(&values.Function{Name: "underflow", Body: b.Chunk(), HasChunk: true})

	machine := New(registry.New(), func(string) {})

	assert.NotPanics(t, func() {
		_, err := machine.Call(fn, nil)
		require.Error(t, err)
	})
}

func TestSpreadArrayRejectsNonArray(t *testing.T) {
	b := bytecode.NewBuilder("badspread")
	b.Emit(opcodes.OpLoadConst, b.AddConstant(bytecode.Constant{Kind: bytecode.ConstInt, Int: 1}), 0, 0)
	b.Emit(opcodes.OpSpreadArray, 0, 0, 0)
	b.Emit(opcodes.OpReturn, 0, 0, 0)
	fn := values.NewFunction(&values.Function{Name: "badspread", Body: b.Chunk(), HasChunk: true})

	machine := New(registry.New(), func(string) {})
	_, err := machine.Call(fn, nil)
	assert.Error(t, err)
}

func TestMatchPatternVariants(t *testing.T) {
	cases := []struct {
		pattern string
		value   values.Value
		want    bool
	}{
		{"_", values.NewInt(42), true},
		{"null", values.NewNull(), true},
		{"null", values.NewInt(0), false},
		{"true", values.NewBool(true), true},
		{"true", values.NewBool(false), false},
		{"ok", values.NewOk(values.NewInt(1)), true},
		{"ok", values.NewErrResult(values.NewInt(1)), false},
		{"err", values.NewErrResult(values.NewInt(1)), true},
		{"some", values.NewSome(values.NewInt(1)), true},
		{"none", values.NewNone(), true},
		{"int:5", values.NewInt(5), true},
		{"int:5", values.NewInt(6), false},
		{"str:hi", values.NewString("hi"), true},
		{"str:hi", values.NewString("bye"), false},
	}
	for _, c := range cases {
		got, err := matchPattern(c.pattern, c.value)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "pattern %q against %s", c.pattern, c.value.String())
	}
}
