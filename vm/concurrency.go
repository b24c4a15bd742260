package vm

import (
	"github.com/rufflang/ruff-sub004/ast"
	"github.com/rufflang/ruff-sub004/bytecode"
	"github.com/rufflang/ruff-sub004/errs"
	"github.com/rufflang/ruff-sub004/interp"
	"github.com/rufflang/ruff-sub004/runtime"
	"github.com/rufflang/ruff-sub004/values"
)

// makeGeneratorValue builds the Generator Value a `gen` function produces
// on call (spec §4.6), instead of running its body immediately. The
// goroutine backing runtime.Generator doesn't start until the first
// Advance (runtime/generator.go), so construction itself is cheap and has
// no observable side effect -- matching "gen functions produce a Generator
// Value on call, not a result."
func (vm *VM) makeGeneratorValue(f *values.Function, args []values.Value) values.Value {
	env := vm.bindParams(f, args)
	if chunk, ok := f.Body.(*bytecode.Chunk); ok {
		g := runtime.NewGenerator(func(sink *runtime.Sink) (values.Value, error) {
			frame := newFrame(chunk, env, f.Upvalues, 0, f)
			return vm.run(frame, sink)
		})
		return values.NewGenerator(g)
	}
	body, _ := f.Body.(ast.Node)
	g := runtime.NewGenerator(func(sink *runtime.Sink) (values.Value, error) {
		child := interp.New(vm.Registry, vm)
		child.Sink = sink
		return child.Eval(body, env)
	})
	return values.NewGenerator(g)
}

// executeYield is only reachable inside a chunk-tier generator body (the
// VM only ever sets f.genSink when run is invoked from makeGeneratorValue).
func (vm *VM) executeYield(f *Frame, stack *[]values.Value, inst bytecode.Instruction) (values.Value, execCtl, error) {
	if f.genSink == nil {
		return values.Value{}, ctlNone, errs.New(errs.RuntimeError, "yield outside a generator body")
	}
	v := vm.pop(stack)
	resumed := f.genSink.Yield(v)
	vm.push(stack, resumed)
	return values.Value{}, ctlNone, nil
}

// executeResumeGenerator pops a Generator and pushes the advanced value (or
// the terminal sentinel Null/false pair surfaced as an Option, matching the
// Iterator protocol's ok flag -- see spec invariant 4).
func (vm *VM) executeResumeGenerator(f *Frame, stack *[]values.Value, inst bytecode.Instruction) (values.Value, execCtl, error) {
	v := vm.pop(stack)
	payload, ok := v.GeneratorPayload()
	if !ok {
		return values.Value{}, ctlNone, errs.New(errs.TypeError, "ResumeGenerator requires a generator, got %s", v.Type())
	}
	g := payload.(*runtime.Generator)
	val, more, err := g.Advance()
	if err != nil {
		return values.Value{}, ctlNone, err
	}
	if !more {
		vm.push(stack, values.NewNone())
		return values.Value{}, ctlNone, nil
	}
	vm.push(stack, values.NewSome(val))
	return values.Value{}, ctlNone, nil
}

// executeMakeGeneratorOp pops a Function Value and pushes the Generator it
// produces, for call sites that construct a generator without going
// through vm.Call's normal dispatch (e.g. a generator expression bound to a
// variable before being advanced elsewhere).
func (vm *VM) executeMakeGeneratorOp(f *Frame, stack *[]values.Value, inst bytecode.Instruction) (values.Value, execCtl, error) {
	argc := int(inst.A)
	base := len(*stack) - argc
	args := append([]values.Value(nil), (*stack)[base:]...)
	*stack = (*stack)[:base]
	fnVal := vm.pop(stack)
	fn, ok := fnVal.AsFunction()
	if !ok {
		return values.Value{}, ctlNone, errs.New(errs.TypeError, "MakeGenerator requires a function, got %s", fnVal.Type())
	}
	vm.push(stack, vm.makeGeneratorValue(fn, args))
	return values.Value{}, ctlNone, nil
}

// executeMakePromise pops a Function Value (and its bound args, pushed
// beforehand per inst.A count) and spawns an async worker, per spec §4.7
// step (b): "a snapshot of the captured environment" is the copy of the
// Function whose Env is replaced by Env.Snapshot() here, which bindParams
// then extends for the worker goroutine through runner.Call.
func (vm *VM) executeMakePromise(f *Frame, stack *[]values.Value, inst bytecode.Instruction) (values.Value, execCtl, error) {
	argc := int(inst.A)
	base := len(*stack) - argc
	args := append([]values.Value(nil), (*stack)[base:]...)
	*stack = (*stack)[:base]
	fnVal := vm.pop(stack)
	if fn, ok := fnVal.AsFunction(); ok && fn.Env != nil {
		snap := *fn
		snap.Env = fn.Env.Snapshot()
		fnVal = values.NewFunction(&snap)
	}
	p := runtime.NewPromise(vm, fnVal, args)
	vm.push(stack, values.NewPromise(p))
	return values.Value{}, ctlNone, nil
}

func (vm *VM) executeMakeChannel(f *Frame, stack *[]values.Value, inst bytecode.Instruction) (values.Value, execCtl, error) {
	capacity := int(inst.A)
	ch := runtime.NewChannel(capacity)
	vm.push(stack, values.NewChannel(ch))
	return values.Value{}, ctlNone, nil
}

func (vm *VM) executeChannelSend(f *Frame, stack *[]values.Value, inst bytecode.Instruction) (values.Value, execCtl, error) {
	v := vm.pop(stack)
	chVal := vm.pop(stack)
	payload, ok := chVal.ChannelPayload()
	if !ok {
		return values.Value{}, ctlNone, errs.New(errs.TypeError, "ChannelSend requires a channel, got %s", chVal.Type())
	}
	ch := payload.(*runtime.Channel)
	if err := ch.Send(v); err != nil {
		return values.Value{}, ctlNone, err
	}
	return values.Value{}, ctlNone, nil
}

// executeChannelRecv blocks the current VM dispatch loop (and so the
// current OS thread/goroutine -- never the whole process, since every
// spawned/async runtime instance owns its own) until a value is available
// or the channel closes, pushing an Option: Some(v) or None for the
// terminal sentinel (spec §4.7).
func (vm *VM) executeChannelRecv(f *Frame, stack *[]values.Value, inst bytecode.Instruction) (values.Value, execCtl, error) {
	chVal := vm.pop(stack)
	payload, ok := chVal.ChannelPayload()
	if !ok {
		return values.Value{}, ctlNone, errs.New(errs.TypeError, "ChannelRecv requires a channel, got %s", chVal.Type())
	}
	ch := payload.(*runtime.Channel)
	v, ok := ch.Receive()
	if !ok {
		vm.push(stack, values.NewNone())
		return values.Value{}, ctlNone, nil
	}
	vm.push(stack, values.NewSome(v))
	return values.Value{}, ctlNone, nil
}
