package vm

import (
	"strconv"
	"strings"

	"github.com/rufflang/ruff-sub004/bytecode"
	"github.com/rufflang/ruff-sub004/errs"
	"github.com/rufflang/ruff-sub004/values"
)

// executeMatchPattern probes the scrutinee BeginCase left on the stack
// against chunk.Constants[inst.A] (a ConstPattern) without consuming it --
// [v] -> [v, matched] -- so a chain of MatchPattern/JumpIfTrue arms can
// each test the same scrutinee in turn, the same "leave the tested value
// on the stack" convention spec §4.2 documents for JumpIfTrue/JumpIfFalse.
func (vm *VM) executeMatchPattern(f *Frame, stack *[]values.Value, inst bytecode.Instruction) (values.Value, execCtl, error) {
	c := f.chunk.Constants[inst.A]
	if c.Kind != bytecode.ConstPattern {
		return values.Value{}, ctlNone, errs.New(errs.ICE, "MatchPattern constant is not a pattern")
	}
	v := vm.peek(stack)
	matched, err := matchPattern(c.Pattern, v)
	if err != nil {
		return values.Value{}, ctlNone, err
	}
	vm.push(stack, values.NewBool(matched))
	return values.Value{}, ctlNone, nil
}

// matchPattern tests v against the compiled pattern stored in a
// bytecode.ConstPattern's Pattern field ("compiled match pattern source,
// for ConstPattern" per bytecode/chunk.go -- the pattern *compiler* that
// would turn `match` surface syntax into this string is out of scope per
// spec §1, the same way a ConstChunk's bytecode is assumed already
// compiled by an out-of-scope front end). The grammar below is Ruff's own
// compiled-pattern encoding: tag patterns over the Result/Option sum types
// spec §3 defines, plus literal and wildcard patterns -- enough for
// MatchPattern to have a real, testable stack effect instead of an
// unconditional ICE.
//
// Supported forms: "_" (wildcard), "null", "true", "false", "int:<n>",
// "str:<s>", "ok", "err", "some", "none".
func matchPattern(pattern string, v values.Value) (bool, error) {
	switch {
	case pattern == "_":
		return true, nil
	case pattern == "null":
		return v.Type() == values.Null, nil
	case pattern == "true":
		b, ok := v.AsBool()
		return ok && b, nil
	case pattern == "false":
		b, ok := v.AsBool()
		return ok && !b, nil
	case pattern == "ok":
		r, ok := v.AsResult()
		return ok && r.Ok, nil
	case pattern == "err":
		r, ok := v.AsResult()
		return ok && !r.Ok, nil
	case pattern == "some":
		o, ok := v.AsOption()
		return ok && o.HasValue, nil
	case pattern == "none":
		o, ok := v.AsOption()
		return ok && !o.HasValue, nil
	case strings.HasPrefix(pattern, "int:"):
		n, convErr := strconv.ParseInt(pattern[len("int:"):], 10, 64)
		if convErr != nil {
			return false, errs.New(errs.ICE, "malformed int pattern %q", pattern)
		}
		i, ok := v.AsInt()
		return ok && i == n, nil
	case strings.HasPrefix(pattern, "str:"):
		s, ok := v.AsString()
		return ok && s == pattern[len("str:"):], nil
	default:
		return false, errs.New(errs.ICE, "unrecognized compiled pattern %q", pattern)
	}
}
