package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeRoundTripPreservesParamNames(t *testing.T) {
	b := NewBuilder("greet")
	b.SetParams([]string{"greeting", "name"}, true)
	b.Emit(0, 0, 0, 0)
	chunk := b.Chunk()

	data := Serialize(chunk)
	got, err := Deserialize(data)
	require.NoError(t, err)

	assert.Equal(t, chunk.Name, got.Name)
	assert.Equal(t, chunk.NumParams, got.NumParams)
	assert.Equal(t, []string{"greeting", "name"}, got.ParamNames)
	assert.True(t, got.IsVariadic)
}

func TestSerializeRoundTripPreservesExceptionTable(t *testing.T) {
	b := NewBuilder("risky")
	b.Emit(0, 0, 0, 0)
	b.AddExceptionHandler(ExceptionTableEntry{TryStart: 0, TryEnd: 1, CatchStart: 2, ExceptionVar: "err"})
	chunk := b.Chunk()

	data := Serialize(chunk)
	got, err := Deserialize(data)
	require.NoError(t, err)

	require.Len(t, got.ExceptionTable, 1)
	assert.Equal(t, "err", got.ExceptionTable[0].ExceptionVar)
	assert.Equal(t, 2, got.ExceptionTable[0].CatchStart)
}

func TestSerializeRoundTripPreservesNonIntegralFloat(t *testing.T) {
	b := NewBuilder("pi")
	idx := b.AddConstant(Constant{Kind: ConstFloat, Float: 3.14159265358979})
	b.Emit(0, idx, 0, 0)
	chunk := b.Chunk()

	data := Serialize(chunk)
	got, err := Deserialize(data)
	require.NoError(t, err)

	require.Len(t, got.Constants, 1)
	assert.Equal(t, 3.14159265358979, got.Constants[0].Float)
}

func TestSerializeRoundTripPreservesArrayAndDictConstants(t *testing.T) {
	b := NewBuilder("collections")
	arrIdx := b.AddConstant(Constant{Kind: ConstArray, Elems: []Constant{
		{Kind: ConstInt, Int: 1},
		{Kind: ConstInt, Int: 2},
		{Kind: ConstInt, Int: 3},
	}})
	dictIdx := b.AddConstant(Constant{Kind: ConstDict, Elems: []Constant{
		{Kind: ConstString, Str: "a"},
		{Kind: ConstInt, Int: 1},
		{Kind: ConstString, Str: "b"},
		{Kind: ConstInt, Int: 2},
	}})
	b.Emit(0, arrIdx, dictIdx, 0)
	chunk := b.Chunk()

	data := Serialize(chunk)
	got, err := Deserialize(data)
	require.NoError(t, err)

	require.Len(t, got.Constants, 2)

	require.Len(t, got.Constants[0].Elems, 3)
	assert.Equal(t, int64(1), got.Constants[0].Elems[0].Int)
	assert.Equal(t, int64(2), got.Constants[0].Elems[1].Int)
	assert.Equal(t, int64(3), got.Constants[0].Elems[2].Int)

	require.Len(t, got.Constants[1].Elems, 4)
	assert.Equal(t, "a", got.Constants[1].Elems[0].Str)
	assert.Equal(t, int64(1), got.Constants[1].Elems[1].Int)
	assert.Equal(t, "b", got.Constants[1].Elems[2].Str)
	assert.Equal(t, int64(2), got.Constants[1].Elems[3].Int)
}
