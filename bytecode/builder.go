package bytecode

import (
	"github.com/rufflang/ruff-sub004/errs"
	"github.com/rufflang/ruff-sub004/opcodes"
)

// Builder assembles a Chunk incrementally. Since the lexer/parser/compiler
// front end is out of scope (spec §1), Builder is the only way this
// repository constructs bytecode: demo programs, the conformance test
// suite, and the CLI's built-in programs all go through it. Constant-pool
// deduplication via linear scan follows
// stackedboxes-romualdo/pkg/bytecode/csw.go's AddConstant/SearchConstant.
type Builder struct {
	chunk  *Chunk
	curLoc errs.Location
}

func NewBuilder(name string) *Builder {
	return &Builder{chunk: &Chunk{Name: name}}
}

// SetLocation sets the source location attributed to subsequent Emit calls,
// until changed again -- callers (the test-fixture builders, the demo
// programs) call this once per source statement they're encoding.
func (b *Builder) SetLocation(loc errs.Location) { b.curLoc = loc }

// Emit appends an instruction and returns its index, for later patching by
// Patch (forward jumps whose target isn't known yet).
func (b *Builder) Emit(op opcodes.Opcode, a, b_, c int32) int {
	idx := len(b.chunk.Instructions)
	b.chunk.Instructions = append(b.chunk.Instructions, Instruction{Op: op, A: a, B: b_, C: c})
	b.chunk.Debug.Locations = append(b.chunk.Debug.Locations, b.curLoc)
	return idx
}

// Patch overwrites the jump-target operand (A) of a previously emitted
// instruction -- the standard emit-now/patch-later technique for forward
// jumps in a single linear pass.
func (b *Builder) Patch(idx int, target int32) {
	b.chunk.Instructions[idx].A = target
}

func (b *Builder) Here() int32 { return int32(len(b.chunk.Instructions)) }

// AddConstant deduplicates scalar constants (Int/Float/String/Bool/Null) by
// linear scan, matching the teacher's SearchConstant-before-AddConstant
// idiom; non-scalar constants (Chunk/Array/Dict/Pattern) are never
// deduplicated since they may be independently mutable or simply large.
func (b *Builder) AddConstant(c Constant) int32 {
	switch c.Kind {
	case ConstInt, ConstFloat, ConstString, ConstBool, ConstNull:
		for i, existing := range b.chunk.Constants {
			if existing.Kind == c.Kind && existing.Int == c.Int && existing.Float == c.Float &&
				existing.Str == c.Str && existing.Bool == c.Bool {
				return int32(i)
			}
		}
	}
	b.chunk.Constants = append(b.chunk.Constants, c)
	return int32(len(b.chunk.Constants) - 1)
}

func (b *Builder) AddExceptionHandler(e ExceptionTableEntry) {
	b.chunk.ExceptionTable = append(b.chunk.ExceptionTable, e)
}

// SetParams records parameter names (spec's Environment is name-addressed,
// so the VM binds arguments by name into the callee's frame just as the
// interpreter tier does -- see vm.bindParams) plus whether the last
// parameter is variadic.
func (b *Builder) SetParams(names []string, variadic bool) {
	b.chunk.NumParams = len(names)
	b.chunk.ParamNames = names
	b.chunk.IsVariadic = variadic
}

func (b *Builder) SetNumLocals(n int) { b.chunk.NumLocals = n }

func (b *Builder) Chunk() *Chunk { return b.chunk }
