package vm

import (
	"github.com/rufflang/ruff-sub004/bytecode"
	"github.com/rufflang/ruff-sub004/errs"
	"github.com/rufflang/ruff-sub004/values"
)

// thrownValue wraps a Value thrown by OpThrow so it can travel as a Go
// error through executeInstruction's ordinary error-return path until run's
// unwind logic catches it -- the same "unwind via a distinguished sentinel"
// discipline interp.go uses for ctrlThrow, adapted to the VM's error-return
// dispatch loop instead of a control struct.
type thrownValue struct {
	value values.Value
}

func (t *thrownValue) Error() string { return "thrown: " + t.value.String() }

func newThrow(v values.Value) error { return &thrownValue{value: v} }

func (vm *VM) executeBeginTry(f *Frame, stack *[]values.Value, inst bytecode.Instruction) (values.Value, execCtl, error) {
	handler, ok := f.chunk.HandlerFor(f.ip)
	if !ok {
		return values.Value{}, ctlNone, errs.New(errs.ICE, "BeginTry at ip %d has no matching exception table entry", f.ip)
	}
	f.tryStack = append(f.tryStack, tryRegion{stackDepth: len(*stack), handler: handler})
	return values.Value{}, ctlNone, nil
}

// unwind is called whenever executeInstruction returns a non-nil error. It
// reports handled=true when the innermost active try region (spec §4.1:
// LIFO top of f.tryStack) catches the error: the operand stack is
// truncated back to the depth BeginTry recorded, the caught value is
// bound, and f.ip jumps to the handler's catch_start, all matching spec
// §4.1's unwind contract exactly. Non-Throw errors (TypeError, native
// failures, etc.) are caught the same way a user Throw would be, wrapped
// as an ErrorVal, since spec §4.1 makes no distinction at the catch site.
func (vm *VM) unwind(f *Frame, stack *[]values.Value, err error) (handled bool, caught values.Value, propagate error) {
	if len(f.tryStack) == 0 {
		return false, values.Value{}, nil
	}
	region := f.tryStack[len(f.tryStack)-1]
	f.tryStack = f.tryStack[:len(f.tryStack)-1]

	var thrown values.Value
	if tv, ok := err.(*thrownValue); ok {
		thrown = tv.value
	} else if e, ok := err.(*errs.Error); ok {
		thrown = values.NewError(e.Message)
	} else {
		thrown = values.NewError(err.Error())
	}

	if region.stackDepth <= len(*stack) {
		*stack = (*stack)[:region.stackDepth]
	}
	f.env.Define(region.handler.ExceptionVar, thrown)
	f.ip = region.handler.CatchStart
	return true, thrown, nil
}
