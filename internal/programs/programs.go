// Package programs assembles the concrete end-to-end scenarios named by
// spec §8 directly through bytecode.Builder, since the lexer/parser front
// end is out of scope (spec §1) and this repository has no other way to
// produce a Chunk. cmd/ruff's --demo flag and internal/suite's TOML
// fixtures both run these by name, the same "precompiled chunk" entry
// point spec §6 describes.
//
// Every program is a single zero-argument entry Function: whatever
// globals it needs (helper functions, recursive bindings) are wired by
// its own first few instructions before it calls into them, mirroring how
// a real top-level script would declare functions before using them.
package programs

import (
	"github.com/rufflang/ruff-sub004/bytecode"
	"github.com/rufflang/ruff-sub004/opcodes"
	"github.com/rufflang/ruff-sub004/values"
)

// Program names a buildable demo, keyed by the name cmd/ruff's --demo flag
// and internal/suite's TOML `program` field both use to look it up.
type Program struct {
	Name        string
	Description string
	Build       func() values.Value
}

// All is the registry cmd/ruff and internal/suite consult.
var All = []Program{
	{"fibonacci", "recursive fib(30), expect 832040", Fibonacci},
	{"arraysum", "sum of 0..999999, expect 499999500000", ArraySum},
	{"dictwrite", "1000 in-place dict inserts, expect dict of length 1000", DictWrite},
	{"closurecounter", "make-counter factory called three times, expect [1, 2, 3]", ClosureCounter},
	{"promisefanin", "ten fanned-in promises, expect [0..9]", PromiseFanIn},
	{"exceptionunwind", "throw inside three nested calls, expect caught value", ExceptionUnwind},
	{"spreadops", "spread into an array literal, a dict literal, and a call's args", SpreadOps},
	{"matchcase", "BeginCase/MatchPattern/EndCase over Result arms and a wildcard default", MatchCase},
}

func Lookup(name string) (Program, bool) {
	for _, p := range All {
		if p.Name == name {
			return p, true
		}
	}
	return Program{}, false
}

func constInt(b *bytecode.Builder, n int64) int32 {
	return b.AddConstant(bytecode.Constant{Kind: bytecode.ConstInt, Int: n})
}

func constStr(b *bytecode.Builder, s string) int32 {
	return b.AddConstant(bytecode.Constant{Kind: bytecode.ConstString, Str: s})
}

func chunkConst(b *bytecode.Builder, c *bytecode.Chunk) int32 {
	return b.AddConstant(bytecode.Constant{Kind: bytecode.ConstChunk, Chunk: c})
}

func constPattern(b *bytecode.Builder, p string) int32 {
	return b.AddConstant(bytecode.Constant{Kind: bytecode.ConstPattern, Pattern: p})
}

func entryFn(name string, chunk *bytecode.Chunk) values.Value {
	return values.NewFunction(&values.Function{Name: name, Body: chunk, HasChunk: true})
}

// emitDefine wires `name`'s closure (no upvalues) into the global
// namespace: MakeClosure followed by StoreGlobal, the two-instruction
// idiom every program below uses before it can call what it just defined.
func emitDefine(b *bytecode.Builder, name string, fnChunk *bytecode.Chunk) {
	b.Emit(opcodes.OpMakeClosure, chunkConst(b, fnChunk), 0, 0)
	b.Emit(opcodes.OpStoreGlobal, constStr(b, name), 0, 0)
}

// Fibonacci builds the recursive fib(30) scenario (spec §8: "interpreter,
// VM, and JIT all produce 832040").
func Fibonacci() values.Value {
	fib := bytecode.NewBuilder("fib")
	fib.SetParams([]string{"n"}, false)
	{
		fib.Emit(opcodes.OpLoadVar, constStr(fib, "n"), 0, 0)
		fib.Emit(opcodes.OpLoadConst, constInt(fib, 2), 0, 0)
		fib.Emit(opcodes.OpLessThan, 0, 0, 0)
		jumpToElse := fib.Emit(opcodes.OpJumpIfFalse, 0, 0, 0)
		fib.Emit(opcodes.OpPop, 0, 0, 0)
		fib.Emit(opcodes.OpLoadVar, constStr(fib, "n"), 0, 0)
		fib.Emit(opcodes.OpReturn, 0, 0, 0)
		fib.Patch(jumpToElse, fib.Here())
		fib.Emit(opcodes.OpPop, 0, 0, 0)
		fib.Emit(opcodes.OpLoadGlobal, constStr(fib, "fib"), 0, 0)
		fib.Emit(opcodes.OpLoadVar, constStr(fib, "n"), 0, 0)
		fib.Emit(opcodes.OpLoadConst, constInt(fib, 1), 0, 0)
		fib.Emit(opcodes.OpSub, 0, 0, 0)
		fib.Emit(opcodes.OpCall, 1, 0, 0)
		fib.Emit(opcodes.OpLoadGlobal, constStr(fib, "fib"), 0, 0)
		fib.Emit(opcodes.OpLoadVar, constStr(fib, "n"), 0, 0)
		fib.Emit(opcodes.OpLoadConst, constInt(fib, 2), 0, 0)
		fib.Emit(opcodes.OpSub, 0, 0, 0)
		fib.Emit(opcodes.OpCall, 1, 0, 0)
		fib.Emit(opcodes.OpAdd, 0, 0, 0)
		fib.Emit(opcodes.OpReturn, 0, 0, 0)
	}

	main := bytecode.NewBuilder("fibonacci_main")
	emitDefine(main, "fib", fib.Chunk())
	main.Emit(opcodes.OpLoadGlobal, constStr(main, "fib"), 0, 0)
	main.Emit(opcodes.OpLoadConst, constInt(main, 30), 0, 0)
	main.Emit(opcodes.OpCall, 1, 0, 0)
	main.Emit(opcodes.OpReturn, 0, 0, 0)
	return entryFn("fibonacci", main.Chunk())
}

// ArraySum builds the accumulator loop scenario (spec §8: "summing
// integers 0..1,000,000"), deliberately restricted to the JIT-supported
// opcode set (LoadVar/StoreVar/LoadConst/LessThan/Add/Pop/JumpIfFalse/
// JumpBack) so this is the loop the VM promotes to native code after 100
// iterations.
func ArraySum() values.Value {
	b := bytecode.NewBuilder("arraysum")
	b.Emit(opcodes.OpLoadConst, constInt(b, 0), 0, 0)
	b.Emit(opcodes.OpStoreVar, constStr(b, "sum"), 0, 0)
	b.Emit(opcodes.OpLoadConst, constInt(b, 0), 0, 0)
	b.Emit(opcodes.OpStoreVar, constStr(b, "i"), 0, 0)

	loopStart := b.Here()
	b.Emit(opcodes.OpLoadVar, constStr(b, "i"), 0, 0)
	b.Emit(opcodes.OpLoadConst, constInt(b, 1000000), 0, 0)
	b.Emit(opcodes.OpLessThan, 0, 0, 0)
	jumpToEnd := b.Emit(opcodes.OpJumpIfFalse, 0, 0, 0)
	b.Emit(opcodes.OpPop, 0, 0, 0)
	b.Emit(opcodes.OpLoadVar, constStr(b, "sum"), 0, 0)
	b.Emit(opcodes.OpLoadVar, constStr(b, "i"), 0, 0)
	b.Emit(opcodes.OpAdd, 0, 0, 0)
	b.Emit(opcodes.OpStoreVar, constStr(b, "sum"), 0, 0)
	b.Emit(opcodes.OpLoadVar, constStr(b, "i"), 0, 0)
	b.Emit(opcodes.OpLoadConst, constInt(b, 1), 0, 0)
	b.Emit(opcodes.OpAdd, 0, 0, 0)
	b.Emit(opcodes.OpStoreVar, constStr(b, "i"), 0, 0)
	b.Emit(opcodes.OpJumpBack, loopStart, 0, 0)
	b.Patch(jumpToEnd, b.Here())
	b.Emit(opcodes.OpPop, 0, 0, 0)
	b.Emit(opcodes.OpLoadVar, constStr(b, "sum"), 0, 0)
	b.Emit(opcodes.OpReturn, 0, 0, 0)
	return entryFn("arraysum", b.Chunk())
}

// DictWrite builds the in-place dict insert scenario (spec §8: "inserting
// keys 0..1000... completes in O(n) total"), using IndexSetInPlace
// throughout so the loop never pays Get's deep-copy cost per insert.
func DictWrite() values.Value {
	b := bytecode.NewBuilder("dictwrite")
	b.Emit(opcodes.OpMakeDict, 0, 0, 0)
	b.Emit(opcodes.OpStoreVar, constStr(b, "d"), 0, 0)
	b.Emit(opcodes.OpLoadConst, constInt(b, 0), 0, 0)
	b.Emit(opcodes.OpStoreVar, constStr(b, "i"), 0, 0)

	loopStart := b.Here()
	b.Emit(opcodes.OpLoadVar, constStr(b, "i"), 0, 0)
	b.Emit(opcodes.OpLoadConst, constInt(b, 1000), 0, 0)
	b.Emit(opcodes.OpLessThan, 0, 0, 0)
	jumpToEnd := b.Emit(opcodes.OpJumpIfFalse, 0, 0, 0)
	b.Emit(opcodes.OpPop, 0, 0, 0)
	b.Emit(opcodes.OpLoadVar, constStr(b, "i"), 0, 0)
	b.Emit(opcodes.OpCallNative, constStr(b, "string.fromInt"), 1, 0)
	b.Emit(opcodes.OpLoadVar, constStr(b, "i"), 0, 0)
	b.Emit(opcodes.OpIndexSetInPlace, constStr(b, "d"), 0, 0)
	b.Emit(opcodes.OpLoadVar, constStr(b, "i"), 0, 0)
	b.Emit(opcodes.OpLoadConst, constInt(b, 1), 0, 0)
	b.Emit(opcodes.OpAdd, 0, 0, 0)
	b.Emit(opcodes.OpStoreVar, constStr(b, "i"), 0, 0)
	b.Emit(opcodes.OpJumpBack, loopStart, 0, 0)
	b.Patch(jumpToEnd, b.Here())
	b.Emit(opcodes.OpPop, 0, 0, 0)
	b.Emit(opcodes.OpLoadVar, constStr(b, "d"), 0, 0)
	b.Emit(opcodes.OpReturn, 0, 0, 0)
	return entryFn("dictwrite", b.Chunk())
}

// ClosureCounter builds the make-counter scenario (spec §8 property 6 and
// the "closure counter" end-to-end scenario): a factory function defines a
// local `x`, returns a closure over it, and three successive calls to that
// closure must observe `x` mutating in place -- the upvalue, not a fresh
// copy, is what each call reads and writes.
func ClosureCounter() values.Value {
	increment := bytecode.NewBuilder("increment")
	increment.Emit(opcodes.OpLoadUpvalue, 0, 0, 0)
	increment.Emit(opcodes.OpLoadConst, constInt(increment, 1), 0, 0)
	increment.Emit(opcodes.OpAdd, 0, 0, 0)
	increment.Emit(opcodes.OpDup, 0, 0, 0)
	increment.Emit(opcodes.OpStoreUpvalue, 0, 0, 0)
	increment.Emit(opcodes.OpReturn, 0, 0, 0)

	factory := bytecode.NewBuilder("makeCounter")
	factory.Emit(opcodes.OpLoadConst, constInt(factory, 0), 0, 0)
	factory.Emit(opcodes.OpStoreVar, constStr(factory, "x"), 0, 0)
	factory.Emit(opcodes.OpMakeClosure, chunkConst(factory, increment.Chunk()), 1, 0)
	factory.Emit(opcodes.OpCaptureUpvalue, constStr(factory, "x"), 0, 0)
	factory.Emit(opcodes.OpReturn, 0, 0, 0)

	main := bytecode.NewBuilder("closurecounter_main")
	emitDefine(main, "makeCounter", factory.Chunk())
	main.Emit(opcodes.OpLoadGlobal, constStr(main, "makeCounter"), 0, 0)
	main.Emit(opcodes.OpCall, 0, 0, 0)
	main.Emit(opcodes.OpStoreVar, constStr(main, "counter"), 0, 0)
	main.Emit(opcodes.OpPushArrayMarker, 0, 0, 0)
	main.Emit(opcodes.OpLoadVar, constStr(main, "counter"), 0, 0)
	main.Emit(opcodes.OpCall, 0, 0, 0)
	main.Emit(opcodes.OpLoadVar, constStr(main, "counter"), 0, 0)
	main.Emit(opcodes.OpCall, 0, 0, 0)
	main.Emit(opcodes.OpLoadVar, constStr(main, "counter"), 0, 0)
	main.Emit(opcodes.OpCall, 0, 0, 0)
	main.Emit(opcodes.OpMakeArray, -1, 0, 0)
	main.Emit(opcodes.OpReturn, 0, 0, 0)
	return entryFn("closurecounter", main.Chunk())
}

// PromiseFanIn builds the ten-async-tasks scenario (spec §8: "awaited in
// sequence, produce the multiset {0..9}"), grounded on runtime.Promise
// (wired through OpMakePromise/OpAwait). runtime.AwaitAll (the native
// concurrency.awaitAll) isn't needed here since the scenario itself awaits
// in sequence, not in parallel; no program or suite fixture calls it.
func PromiseFanIn() values.Value {
	task := bytecode.NewBuilder("task")
	task.SetParams([]string{"i"}, false)
	task.Emit(opcodes.OpLoadVar, constStr(task, "i"), 0, 0)
	task.Emit(opcodes.OpReturn, 0, 0, 0)

	main := bytecode.NewBuilder("promisefanin_main")
	emitDefine(main, "task", task.Chunk())
	main.Emit(opcodes.OpPushArrayMarker, 0, 0, 0)
	for i := int64(0); i < 10; i++ {
		main.Emit(opcodes.OpLoadGlobal, constStr(main, "task"), 0, 0)
		main.Emit(opcodes.OpLoadConst, constInt(main, i), 0, 0)
		main.Emit(opcodes.OpMakePromise, 1, 0, 0)
		main.Emit(opcodes.OpAwait, 0, 0, 0)
		main.Emit(opcodes.OpTryUnwrap, 0, 0, 0)
	}
	main.Emit(opcodes.OpMakeArray, -1, 0, 0)
	main.Emit(opcodes.OpReturn, 0, 0, 0)
	return entryFn("promisefanin", main.Chunk())
}

// ExceptionUnwind builds the three-nested-calls throw scenario (spec §8:
// "caught at the outermost... leaves the operand stack at the depth
// recorded at... BeginTry and binds the thrown value to the catch
// variable"). inner throws, middle merely propagates, outer catches.
func ExceptionUnwind() values.Value {
	inner := bytecode.NewBuilder("inner")
	inner.Emit(opcodes.OpLoadConst, constStr(inner, "boom"), 0, 0)
	// constStr above built a ConstString via AddConstant(Str) already
	// tagged ConstString; LoadConst expects that constant's Kind to drive
	// executeLoadConst's switch, so this reads back as a Ruff String.
	inner.Emit(opcodes.OpThrow, 0, 0, 0)

	middle := bytecode.NewBuilder("middle")
	middle.Emit(opcodes.OpLoadGlobal, constStr(middle, "inner"), 0, 0)
	middle.Emit(opcodes.OpCall, 0, 0, 0)
	middle.Emit(opcodes.OpReturn, 0, 0, 0)

	outer := bytecode.NewBuilder("outer")
	outer.Emit(opcodes.OpBeginTry, 0, 0, 0) // try_start = 0, patched below via exception table
	outer.Emit(opcodes.OpLoadGlobal, constStr(outer, "middle"), 0, 0)
	outer.Emit(opcodes.OpCall, 0, 0, 0)
	outer.Emit(opcodes.OpEndTry, 0, 0, 0)
	jumpOverCatch := outer.Emit(opcodes.OpJump, 0, 0, 0)
	catchStart := outer.Here()
	outer.Emit(opcodes.OpLoadVar, constStr(outer, "caught"), 0, 0)
	outer.Emit(opcodes.OpReturn, 0, 0, 0)
	outer.Patch(jumpOverCatch, outer.Here())
	outer.Emit(opcodes.OpLoadConst, constInt(outer, 0), 0, 0)
	outer.Emit(opcodes.OpReturn, 0, 0, 0)
	outer.AddExceptionHandler(bytecode.ExceptionTableEntry{
		TryStart: 0, TryEnd: jumpOverCatch, CatchStart: int(catchStart), ExceptionVar: "caught",
	})

	main := bytecode.NewBuilder("exceptionunwind_main")
	emitDefine(main, "inner", inner.Chunk())
	emitDefine(main, "middle", middle.Chunk())
	emitDefine(main, "outer", outer.Chunk())
	main.Emit(opcodes.OpLoadGlobal, constStr(main, "outer"), 0, 0)
	main.Emit(opcodes.OpCall, 0, 0, 0)
	main.Emit(opcodes.OpReturn, 0, 0, 0)
	return entryFn("exceptionunwind", main.Chunk())
}

// SpreadOps exercises OpSpreadArray (into an array literal), OpSpreadDict
// (into a dict literal), and OpSpreadArgs (into a call's argument list) --
// none of which spec §8 names directly, but spec §4.2 requires every
// opcode's stack effect to be testable, and these three had none before.
// Expect `[[1, 2, 3], 6, 2]`: the spread-built array, sum3 called with the
// same array spread across its three parameters, and the "b" entry of a
// dict built by spreading one literal into another.
func SpreadOps() values.Value {
	sum3 := bytecode.NewBuilder("sum3")
	sum3.SetParams([]string{"a", "b", "c"}, false)
	sum3.Emit(opcodes.OpLoadVar, constStr(sum3, "a"), 0, 0)
	sum3.Emit(opcodes.OpLoadVar, constStr(sum3, "b"), 0, 0)
	sum3.Emit(opcodes.OpAdd, 0, 0, 0)
	sum3.Emit(opcodes.OpLoadVar, constStr(sum3, "c"), 0, 0)
	sum3.Emit(opcodes.OpAdd, 0, 0, 0)
	sum3.Emit(opcodes.OpReturn, 0, 0, 0)

	main := bytecode.NewBuilder("spreadops_main")
	emitDefine(main, "sum3", sum3.Chunk())

	// arr3 := [*[1, 2], 3]
	main.Emit(opcodes.OpLoadConst, constInt(main, 1), 0, 0)
	main.Emit(opcodes.OpLoadConst, constInt(main, 2), 0, 0)
	main.Emit(opcodes.OpMakeArray, 2, 0, 0)
	main.Emit(opcodes.OpStoreVar, constStr(main, "base"), 0, 0)
	main.Emit(opcodes.OpPushArrayMarker, 0, 0, 0)
	main.Emit(opcodes.OpLoadVar, constStr(main, "base"), 0, 0)
	main.Emit(opcodes.OpSpreadArray, 0, 0, 0)
	main.Emit(opcodes.OpLoadConst, constInt(main, 3), 0, 0)
	main.Emit(opcodes.OpMakeArray, -1, 0, 0)
	main.Emit(opcodes.OpStoreVar, constStr(main, "arr3"), 0, 0)

	// d2 := {*{"a": 1}, "b": 2}; bval := d2["b"]
	main.Emit(opcodes.OpLoadConst, constStr(main, "a"), 0, 0)
	main.Emit(opcodes.OpLoadConst, constInt(main, 1), 0, 0)
	main.Emit(opcodes.OpMakeDict, 1, 0, 0)
	main.Emit(opcodes.OpStoreVar, constStr(main, "bd"), 0, 0)
	main.Emit(opcodes.OpPushArrayMarker, 0, 0, 0)
	main.Emit(opcodes.OpLoadVar, constStr(main, "bd"), 0, 0)
	main.Emit(opcodes.OpSpreadDict, 0, 0, 0)
	main.Emit(opcodes.OpLoadConst, constStr(main, "b"), 0, 0)
	main.Emit(opcodes.OpLoadConst, constInt(main, 2), 0, 0)
	main.Emit(opcodes.OpMakeDict, -1, 0, 0)
	main.Emit(opcodes.OpLoadConst, constStr(main, "b"), 0, 0)
	main.Emit(opcodes.OpIndexGet, 0, 0, 0)
	main.Emit(opcodes.OpStoreVar, constStr(main, "bval"), 0, 0)

	// sumresult := sum3(*arr3)
	main.Emit(opcodes.OpLoadGlobal, constStr(main, "sum3"), 0, 0)
	main.Emit(opcodes.OpPushArrayMarker, 0, 0, 0)
	main.Emit(opcodes.OpLoadVar, constStr(main, "arr3"), 0, 0)
	main.Emit(opcodes.OpSpreadArgs, 0, 0, 0)
	main.Emit(opcodes.OpCall, -1, 0, 0)
	main.Emit(opcodes.OpStoreVar, constStr(main, "sumresult"), 0, 0)

	main.Emit(opcodes.OpPushArrayMarker, 0, 0, 0)
	main.Emit(opcodes.OpLoadVar, constStr(main, "arr3"), 0, 0)
	main.Emit(opcodes.OpLoadVar, constStr(main, "sumresult"), 0, 0)
	main.Emit(opcodes.OpLoadVar, constStr(main, "bval"), 0, 0)
	main.Emit(opcodes.OpMakeArray, -1, 0, 0)
	main.Emit(opcodes.OpReturn, 0, 0, 0)
	return entryFn("spreadops", main.Chunk())
}

// MatchCase exercises BeginCase/MatchPattern/EndCase (spec §6), none of
// which any other scenario touches. describe(v) probes v against the "ok"
// and "err" Result-tag patterns in turn, falling through to a wildcard "_"
// default, matching the same "peek, JumpIfFalse, explicit Pop on both
// branches" idiom Fibonacci's `if` already uses for a plain comparison.
// Expect `[ok, err, other]`.
func MatchCase() values.Value {
	describe := bytecode.NewBuilder("describe")
	describe.SetParams([]string{"v"}, false)
	describe.Emit(opcodes.OpLoadVar, constStr(describe, "v"), 0, 0)
	describe.Emit(opcodes.OpBeginCase, 0, 0, 0)

	describe.Emit(opcodes.OpMatchPattern, constPattern(describe, "ok"), 0, 0)
	toErrArm := describe.Emit(opcodes.OpJumpIfFalse, 0, 0, 0)
	describe.Emit(opcodes.OpPop, 0, 0, 0) // discard matched=true
	describe.Emit(opcodes.OpPop, 0, 0, 0) // discard the scrutinee, this arm doesn't need it
	describe.Emit(opcodes.OpLoadConst, constStr(describe, "ok"), 0, 0)
	describe.Emit(opcodes.OpReturn, 0, 0, 0)
	describe.Patch(toErrArm, describe.Here())
	describe.Emit(opcodes.OpPop, 0, 0, 0) // discard matched=false

	describe.Emit(opcodes.OpMatchPattern, constPattern(describe, "err"), 0, 0)
	toDefaultArm := describe.Emit(opcodes.OpJumpIfFalse, 0, 0, 0)
	describe.Emit(opcodes.OpPop, 0, 0, 0)
	describe.Emit(opcodes.OpPop, 0, 0, 0)
	describe.Emit(opcodes.OpLoadConst, constStr(describe, "err"), 0, 0)
	describe.Emit(opcodes.OpReturn, 0, 0, 0)
	describe.Patch(toDefaultArm, describe.Here())
	describe.Emit(opcodes.OpPop, 0, 0, 0)

	// "_" always matches, so the default arm skips the JumpIfFalse/Patch
	// dance the two preceding arms need: MatchPattern's [v, true] only
	// needs its bool discarded before EndCase consumes v.
	describe.Emit(opcodes.OpMatchPattern, constPattern(describe, "_"), 0, 0)
	describe.Emit(opcodes.OpPop, 0, 0, 0)
	describe.Emit(opcodes.OpEndCase, 0, 0, 0)
	describe.Emit(opcodes.OpLoadConst, constStr(describe, "other"), 0, 0)
	describe.Emit(opcodes.OpReturn, 0, 0, 0)

	main := bytecode.NewBuilder("matchcase_main")
	emitDefine(main, "describe", describe.Chunk())
	main.Emit(opcodes.OpPushArrayMarker, 0, 0, 0)

	main.Emit(opcodes.OpLoadGlobal, constStr(main, "describe"), 0, 0)
	main.Emit(opcodes.OpLoadConst, constInt(main, 1), 0, 0)
	main.Emit(opcodes.OpMakeOk, 0, 0, 0)
	main.Emit(opcodes.OpCall, 1, 0, 0)

	main.Emit(opcodes.OpLoadGlobal, constStr(main, "describe"), 0, 0)
	main.Emit(opcodes.OpLoadConst, constStr(main, "x"), 0, 0)
	main.Emit(opcodes.OpMakeErr, 0, 0, 0)
	main.Emit(opcodes.OpCall, 1, 0, 0)

	main.Emit(opcodes.OpLoadGlobal, constStr(main, "describe"), 0, 0)
	main.Emit(opcodes.OpLoadConst, constInt(main, 5), 0, 0)
	main.Emit(opcodes.OpCall, 1, 0, 0)

	main.Emit(opcodes.OpMakeArray, -1, 0, 0)
	main.Emit(opcodes.OpReturn, 0, 0, 0)
	return entryFn("matchcase", main.Chunk())
}
