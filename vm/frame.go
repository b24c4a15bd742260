package vm

import (
	"github.com/rufflang/ruff-sub004/bytecode"
	"github.com/rufflang/ruff-sub004/runtime"
	"github.com/rufflang/ruff-sub004/values"
)

// tryRegion is what BeginTry records (spec §4.1: "unwinds the operand
// stack to the recorded depth at try_start"); pushed by BeginTry and popped
// in strict LIFO order by EndTry or by unwind when it catches, so the innermost active region is
// always tryStack's top -- exactly the entry chunk.HandlerFor(ip) would
// have found statically.
type tryRegion struct {
	stackDepth int
	handler    bytecode.ExceptionTableEntry
}

// Frame is the VM's call-frame record: {return_ip, caller_chunk,
// stack_base, locals} per spec §4.2, generalized with the bookkeeping the
// rest of §4 needs (upvalues, pending closure captures, active try
// regions, and -- only for a frame running inside a generator's goroutine
// -- the Sink OpYield suspends through).
type Frame struct {
	chunk     *bytecode.Chunk
	ip        int
	stackBase int
	env       *values.Environment
	upvalues  []*values.Upvalue

	pendingCaptures []*values.Upvalue
	tryStack        []tryRegion
	markerStack     []int // operand-stack depths recorded by OpPushArrayMarker, for dynamic-length MakeArray/SpreadArgs

	genSink *runtime.Sink // non-nil only for a frame executing a generator body

	fn *values.Function // the Function this frame is executing, for hotness/profiling bookkeeping
}

func newFrame(chunk *bytecode.Chunk, env *values.Environment, upvalues []*values.Upvalue, stackBase int, fn *values.Function) *Frame {
	return &Frame{chunk: chunk, env: env, upvalues: upvalues, stackBase: stackBase, fn: fn}
}
