// Package bytecode implements the compiled-code representation spec §4.1
// calls a Chunk: an instruction list, a constant pool, an exception table,
// and a source-location sidecar. The shape is grounded on
// stackedboxes-romualdo's pkg/bytecode (Chunk/CompiledStoryworld/DebugInfo),
// generalized from that teacher's 9-opcode, no-operand instruction stream to
// Ruff's fixed-width three-operand instructions carrying opcodes.Opcode
// values (spec §6's exhaustive list).
package bytecode

import (
	"fmt"

	"github.com/rufflang/ruff-sub004/errs"
	"github.com/rufflang/ruff-sub004/opcodes"
)

// Instruction is fixed-width: every opcode's operands fit in at most three
// int32 slots (constant-pool indices, jump targets, argument counts, local
// slot numbers). This keeps the VM's fetch-decode step O(1) and matches the
// "statically verifiable" stack-depth contract spec §4.2 requires.
type Instruction struct {
	Op   opcodes.Opcode
	A, B, C int32
}

// ConstKind tags a constant pool entry.
type ConstKind byte

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstString
	ConstBool
	ConstNull
	ConstChunk
	ConstPattern
	ConstTypeDesc
	ConstArray
	ConstDict
)

// Constant is one entry in a Chunk's constant pool (spec §4.1).
type Constant struct {
	Kind    ConstKind
	Int     int64
	Float   float64
	Str     string
	Bool    bool
	Chunk   *Chunk  // nested function body, for ConstChunk
	Pattern string  // compiled match pattern source, for ConstPattern (pattern compiler is out of scope)
	Elems   []Constant // ConstArray / ConstDict; dict entries stored as (key Str const, value) pairs
}

func (c Constant) String() string {
	switch c.Kind {
	case ConstInt:
		return fmt.Sprintf("%d", c.Int)
	case ConstFloat:
		return fmt.Sprintf("%g", c.Float)
	case ConstString:
		return fmt.Sprintf("%q", c.Str)
	case ConstBool:
		return fmt.Sprintf("%v", c.Bool)
	case ConstNull:
		return "null"
	case ConstChunk:
		return fmt.Sprintf("<chunk %s>", c.Chunk.Name)
	case ConstPattern:
		return fmt.Sprintf("<pattern %q>", c.Pattern)
	case ConstTypeDesc:
		return fmt.Sprintf("<type %s>", c.Str)
	case ConstArray, ConstDict:
		return fmt.Sprintf("<const collection, %d elems>", len(c.Elems))
	default:
		return "<?>"
	}
}

// ExceptionTableEntry mirrors spec §4.1's exception-table contract exactly:
// {try_start, try_end, catch_start, exception_var_name}.
type ExceptionTableEntry struct {
	TryStart     int
	TryEnd       int
	CatchStart   int
	ExceptionVar string
}

// DebugInfo is the source-location sidecar, one Location per instruction
// index, following stackedboxes-romualdo/pkg/bytecode/debug_info.go's
// per-chunk-name/per-instruction-line layout but adding column, which spec
// §4.1 requires and that teacher's DebugInfo omits.
type DebugInfo struct {
	Locations []errs.Location
}

func (d *DebugInfo) At(ip int) errs.Location {
	if d == nil || ip < 0 || ip >= len(d.Locations) {
		return errs.Location{}
	}
	return d.Locations[ip]
}

// Chunk is the unit of compiled code.
type Chunk struct {
	Name           string
	Instructions   []Instruction
	Constants      []Constant
	ExceptionTable []ExceptionTableEntry
	Debug          DebugInfo
	NumParams      int
	ParamNames     []string
	IsVariadic     bool
	NumLocals      int
	UpvalueCount   int
}

// HandlerFor returns the innermost exception handler covering ip, or false
// if none applies -- spec §4.1's "locates the innermost handler whose
// [try_start, try_end) contains the current instruction pointer". Table
// entries are assumed ordered outermost-first; scanning in reverse finds
// the innermost match first.
func (c *Chunk) HandlerFor(ip int) (ExceptionTableEntry, bool) {
	for i := len(c.ExceptionTable) - 1; i >= 0; i-- {
		e := c.ExceptionTable[i]
		if ip >= e.TryStart && ip < e.TryEnd {
			return e, true
		}
	}
	return ExceptionTableEntry{}, false
}
