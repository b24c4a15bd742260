package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArithmeticIntAndFloatPromotion(t *testing.T) {
	sum, err := Add(NewInt(2), NewInt(3))
	require.NoError(t, err)
	i, ok := sum.AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(5), i)

	mixed, err := Add(NewInt(2), NewFloat(0.5))
	require.NoError(t, err)
	f, ok := mixed.AsFloat()
	require.True(t, ok)
	assert.Equal(t, 2.5, f)
}

func TestDivByZeroErrors(t *testing.T) {
	_, err := Div(NewInt(1), NewInt(0))
	assert.Error(t, err)
}

func TestCloneDeepCopiesArraysButSharesReferenceTypes(t *testing.T) {
	original := NewArray([]Value{NewInt(1), NewInt(2)})
	cloned := original.Clone()

	clonedArr, ok := cloned.AsArray()
	require.True(t, ok)
	originalArr, ok := original.AsArray()
	require.True(t, ok)

	// Mutating the clone's backing slice must not affect the original:
	// Clone deep-copies composites per invariant 1.
	clonedArr.Elements[0] = NewInt(99)
	assert.Equal(t, int64(1), mustInt(t, originalArr.Elements[0]))
	assert.Equal(t, int64(99), mustInt(t, clonedArr.Elements[0]))

	fn := NewFunction(&Function{Name: "f"})
	clonedFn := fn.Clone()
	origF, _ := fn.AsFunction()
	cloneF, _ := clonedFn.AsFunction()
	assert.Same(t, origF, cloneF, "Function values share their pointer on Clone")
}

func TestEqualCrossTypeIsFalse(t *testing.T) {
	assert.False(t, Equal(NewInt(1), NewString("1")))
	assert.True(t, Equal(NewInt(1), NewInt(1)))
}

func TestWeakReferenceStrengthen(t *testing.T) {
	target := NewArray([]Value{NewInt(1)})
	weak := NewWeak(target)

	ref, ok := weak.AsWeak()
	require.True(t, ok)

	strengthened, ok := ref.Strengthen()
	require.True(t, ok)
	arr, ok := strengthened.AsArray()
	require.True(t, ok)
	assert.Equal(t, int64(1), mustInt(t, arr.Elements[0]))
}

func mustInt(t *testing.T, v Value) int64 {
	t.Helper()
	i, ok := v.AsInt()
	require.True(t, ok)
	return i
}
