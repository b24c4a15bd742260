// Package opcodes defines the exhaustive bytecode instruction set the VM
// dispatches on. The Opcode type and the grouped-const-block layout follow
// github.com/wudi/hey's opcodes/opcodes.go; the member list itself is
// Ruff's own (spec §6), not PHP's.
package opcodes

import "fmt"

// Opcode is a single byte, matching the teacher's Opcode byte choice and
// keeping instruction encoding compact.
type Opcode byte

// Stack operations.
const (
	OpNop Opcode = iota
	OpLoadConst
	OpLoadVar
	OpLoadGlobal
	OpStoreVar
	OpStoreGlobal
	OpPop
	OpDup
)

// Arithmetic, comparison, and logical operations.
const (
	OpAdd Opcode = iota + 16
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNegate
	OpEqual
	OpNotEqual
	OpLessThan
	OpGreaterThan
	OpLessEqual
	OpGreaterEqual
	OpNot
	OpAnd
	OpOr
)

// Control flow. Jump and JumpBack are distinct opcodes (not a signed
// offset on one opcode) specifically so the JIT can recognize loop headers
// by scanning for JumpBack targets, per spec §4.2.
const (
	OpJump Opcode = iota + 40
	OpJumpIfFalse
	OpJumpIfTrue
	OpJumpBack
)

// Function operations.
const (
	OpCall Opcode = iota + 50
	OpCallNative
	OpReturn
	OpReturnNone
	OpMakeClosure
)

// Collection operations. IndexGetInPlace/IndexSetInPlace are the dict-write
// optimization spec §4.2 calls "the source repo's decisive... 36×
// improvement": they mutate a named binding's container without popping and
// re-pushing the whole value.
const (
	OpMakeArray Opcode = iota + 60
	OpPushArrayMarker
	OpMakeDict
	OpIndexGet
	OpIndexSet
	OpIndexGetInPlace
	OpIndexSetInPlace
	OpFieldGet
	OpFieldSet
	OpMakeStruct
)

// Spread and pattern matching.
const (
	OpSpreadArray Opcode = iota + 80
	OpSpreadArgs
	OpSpreadDict
	OpMatchPattern
	OpBeginCase
	OpEndCase
)

// Sum types (Result/Option).
const (
	OpMakeOk Opcode = iota + 95
	OpMakeErr
	OpMakeSome
	OpMakeNone
	OpTryUnwrap
)

// Scoping and iteration.
const (
	OpPushScope Opcode = iota + 105
	OpPopScope
	OpMakeIterator
	OpIteratorNext
	OpIteratorHasNext
)

// Generators and async.
const (
	OpYield Opcode = iota + 115
	OpResumeGenerator
	OpMakeGenerator
	OpAwait
	OpMakePromise
)

// Exception handling.
const (
	OpBeginTry Opcode = iota + 125
	OpEndTry
	OpThrow
	OpBeginCatch
	OpEndCatch
)

// Closures and upvalues.
const (
	OpCaptureUpvalue Opcode = iota + 135
	OpLoadUpvalue
	OpStoreUpvalue
	OpCloseUpvalues
)

// Channels.
const (
	OpMakeChannel Opcode = iota + 145
	OpChannelSend
	OpChannelRecv
)

// Debugging.
const (
	OpDebugStack Opcode = iota + 155
	OpDebugPrint
)

var names = map[Opcode]string{
	OpNop: "Nop", OpLoadConst: "LoadConst", OpLoadVar: "LoadVar", OpLoadGlobal: "LoadGlobal",
	OpStoreVar: "StoreVar", OpStoreGlobal: "StoreGlobal", OpPop: "Pop", OpDup: "Dup",
	OpAdd: "Add", OpSub: "Sub", OpMul: "Mul", OpDiv: "Div", OpMod: "Mod", OpNegate: "Negate",
	OpEqual: "Equal", OpNotEqual: "NotEqual", OpLessThan: "LessThan", OpGreaterThan: "GreaterThan",
	OpLessEqual: "LessEqual", OpGreaterEqual: "GreaterEqual", OpNot: "Not", OpAnd: "And", OpOr: "Or",
	OpJump: "Jump", OpJumpIfFalse: "JumpIfFalse", OpJumpIfTrue: "JumpIfTrue", OpJumpBack: "JumpBack",
	OpCall: "Call", OpCallNative: "CallNative", OpReturn: "Return", OpReturnNone: "ReturnNone",
	OpMakeClosure: "MakeClosure",
	OpMakeArray:   "MakeArray", OpPushArrayMarker: "PushArrayMarker", OpMakeDict: "MakeDict",
	OpIndexGet: "IndexGet", OpIndexSet: "IndexSet", OpIndexGetInPlace: "IndexGetInPlace",
	OpIndexSetInPlace: "IndexSetInPlace", OpFieldGet: "FieldGet", OpFieldSet: "FieldSet",
	OpMakeStruct: "MakeStruct",
	OpSpreadArray: "SpreadArray", OpSpreadArgs: "SpreadArgs", OpSpreadDict: "SpreadDict",
	OpMatchPattern: "MatchPattern", OpBeginCase: "BeginCase", OpEndCase: "EndCase",
	OpMakeOk: "MakeOk", OpMakeErr: "MakeErr", OpMakeSome: "MakeSome", OpMakeNone: "MakeNone",
	OpTryUnwrap: "TryUnwrap",
	OpPushScope: "PushScope", OpPopScope: "PopScope", OpMakeIterator: "MakeIterator",
	OpIteratorNext: "IteratorNext", OpIteratorHasNext: "IteratorHasNext",
	OpYield: "Yield", OpResumeGenerator: "ResumeGenerator", OpMakeGenerator: "MakeGenerator",
	OpAwait: "Await", OpMakePromise: "MakePromise",
	OpBeginTry: "BeginTry", OpEndTry: "EndTry", OpThrow: "Throw", OpBeginCatch: "BeginCatch",
	OpEndCatch: "EndCatch",
	OpCaptureUpvalue: "CaptureUpvalue", OpLoadUpvalue: "LoadUpvalue", OpStoreUpvalue: "StoreUpvalue",
	OpCloseUpvalues: "CloseUpvalues",
	OpMakeChannel:   "MakeChannel", OpChannelSend: "ChannelSend", OpChannelRecv: "ChannelRecv",
	OpDebugStack: "DebugStack", OpDebugPrint: "DebugPrint",
}

func (op Opcode) String() string {
	if n, ok := names[op]; ok {
		return n
	}
	return fmt.Sprintf("Opcode(%d)", byte(op))
}

// JITSupported reports whether the JIT tier (spec §4.5) can specialize this
// opcode directly. Calls, native calls, and runtime-dependent collection
// constructors are excluded -- the compiler aborts the region on them.
func (op Opcode) JITSupported() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpNegate,
		OpEqual, OpNotEqual, OpLessThan, OpGreaterThan, OpLessEqual, OpGreaterEqual,
		OpNot, OpAnd, OpOr,
		OpLoadVar, OpStoreVar, OpLoadConst,
		OpJump, OpJumpIfFalse, OpJumpIfTrue, OpJumpBack,
		OpPop, OpDup, OpNop:
		return true
	default:
		return false
	}
}

// IsBackEdge reports whether this opcode is the loop-header marker the JIT
// hotness counter watches (spec §4.3).
func (op Opcode) IsBackEdge() bool { return op == OpJumpBack }
