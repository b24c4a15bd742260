package vm

import (
	"github.com/rufflang/ruff-sub004/bytecode"
	"github.com/rufflang/ruff-sub004/errs"
	"github.com/rufflang/ruff-sub004/opcodes"
	"github.com/rufflang/ruff-sub004/values"
)

// executeCall pops argc args plus the callee and invokes it. inst.A == -1
// means a dynamic argc (the compiler emitted OpPushArrayMarker before the
// arguments, for a call with a spread final argument -- OpSpreadArgs
// pushes a variable number of individual args), the same marker convention
// executeMakeArray uses for spread-containing array literals.
func (vm *VM) executeCall(f *Frame, stack *[]values.Value, inst bytecode.Instruction) (values.Value, execCtl, error) {
	var base int
	if inst.A < 0 {
		n := len(f.markerStack)
		base = f.markerStack[n-1]
		f.markerStack = f.markerStack[:n-1]
	} else {
		argc := int(inst.A)
		base = len(*stack) - argc
	}
	args := append([]values.Value(nil), (*stack)[base:]...)
	*stack = (*stack)[:base]
	callee := vm.pop(stack)

	result, err := vm.Call(callee, args)
	if err != nil {
		return values.Value{}, ctlNone, err
	}
	vm.push(stack, result)
	return values.Value{}, ctlNone, nil
}

func (vm *VM) executeCallNative(f *Frame, stack *[]values.Value, inst bytecode.Instruction) (values.Value, execCtl, error) {
	name := vm.constStr(f, inst.A)
	argc := int(inst.B)
	base := len(*stack) - argc
	args := append([]values.Value(nil), (*stack)[base:]...)
	*stack = (*stack)[:base]

	result, err := vm.Registry.Dispatch(vm, name, args)
	if err != nil {
		if e, ok := err.(*errs.Error); ok && e.Kind == errs.NativeError {
			vm.push(stack, values.NewError(e.Message))
			return values.Value{}, ctlNone, nil
		}
		return values.Value{}, ctlNone, err
	}
	vm.push(stack, result)
	return values.Value{}, ctlNone, nil
}

// executeMakeClosure builds a closure value for chunk Constants[inst.A]
// (a ConstChunk), capturing inst.B upvalues. The capturing instructions
// immediately follow MakeClosure in the stream as a run of OpCaptureUpvalue
// (each naming, via its own A operand, the enclosing frame's variable to
// capture) rather than being independently dispatched: MakeClosure consumes
// them as an operand list and advances ip past them itself, the same way a
// variable-length instruction works in a fixed-width encoding.
func (vm *VM) executeMakeClosure(f *Frame, stack *[]values.Value, inst bytecode.Instruction) (values.Value, execCtl, error) {
	chunkConst := f.chunk.Constants[inst.A]
	if chunkConst.Kind != bytecode.ConstChunk {
		return values.Value{}, ctlNone, errs.New(errs.ICE, "MakeClosure constant is not a chunk")
	}
	n := int(inst.B)
	upvalues := make([]*values.Upvalue, 0, n)
	for i := 0; i < n; i++ {
		capInst := f.chunk.Instructions[f.ip+1+i]
		if capInst.Op != opcodes.OpCaptureUpvalue {
			return values.Value{}, ctlNone, errs.New(errs.ICE, "MakeClosure expected %d OpCaptureUpvalue operands", n)
		}
		name := vm.constStr(f, capInst.A)
		uv := values.NewOpenUpvalue(f.env, name)
		upvalues = append(upvalues, uv)
		f.pendingCaptures = append(f.pendingCaptures, uv)
	}
	f.ip += n

	fn := values.NewFunction(&values.Function{
		Name: chunkConst.Chunk.Name, Params: paramNames(chunkConst.Chunk), IsVariadic: chunkConst.Chunk.IsVariadic,
		Body: chunkConst.Chunk, HasChunk: true, Upvalues: upvalues,
	})
	vm.push(stack, fn)
	return values.Value{}, ctlNone, nil
}

// executeCaptureUpvalue only runs if an OpCaptureUpvalue instruction is
// ever reached directly by the dispatch loop, which a well-formed chunk
// never does (see executeMakeClosure) -- every real capture is consumed as
// MakeClosure's operand stream. Kept as a defensive no-op rather than a
// panic so a malformed chunk degrades to a wrong value instead of crashing
// the VM.
func (vm *VM) executeCaptureUpvalue(f *Frame, stack *[]values.Value, inst bytecode.Instruction) (values.Value, execCtl, error) {
	return values.Value{}, ctlNone, nil
}

func paramNames(c *bytecode.Chunk) []string {
	return c.ParamNames
}
