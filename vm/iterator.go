package vm

import (
	"github.com/rufflang/ruff-sub004/bytecode"
	"github.com/rufflang/ruff-sub004/errs"
	"github.com/rufflang/ruff-sub004/interp"
	"github.com/rufflang/ruff-sub004/values"
)

// executeMakeIterator wraps interp.Iterator as an IteratorT payload so both
// tiers drive the exact same cursor logic over Array/Set/Dict/Generator
// (spec §3's Iterator variant) -- see interp/iterator.go's doc comment for
// why its Next contract is shared between ast.ForIn and this opcode trio.
func (vm *VM) executeMakeIterator(f *Frame, stack *[]values.Value, inst bytecode.Instruction) (values.Value, execCtl, error) {
	coll := vm.pop(stack)
	it, err := interp.NewIterator(coll)
	if err != nil {
		return values.Value{}, ctlNone, err
	}
	vm.push(stack, values.NewIterator(it))
	return values.Value{}, ctlNone, nil
}

func (vm *VM) executeIteratorHasNext(f *Frame, stack *[]values.Value, inst bytecode.Instruction) (values.Value, execCtl, error) {
	v := vm.peek(stack)
	it, err := asIterator(v)
	if err != nil {
		return values.Value{}, ctlNone, err
	}
	vm.push(stack, values.NewBool(it.HasNext()))
	return values.Value{}, ctlNone, nil
}

func (vm *VM) executeIteratorNext(f *Frame, stack *[]values.Value, inst bytecode.Instruction) (values.Value, execCtl, error) {
	v := vm.peek(stack)
	it, err := asIterator(v)
	if err != nil {
		return values.Value{}, ctlNone, err
	}
	val, ok := it.Next()
	if !ok {
		return values.Value{}, ctlNone, errs.New(errs.RuntimeError, "IteratorNext called past exhaustion")
	}
	vm.push(stack, val)
	return values.Value{}, ctlNone, nil
}

func asIterator(v values.Value) (*interp.Iterator, error) {
	payload, ok := v.IteratorPayload()
	if !ok {
		return nil, errs.New(errs.TypeError, "expected an iterator, got %s", v.Type())
	}
	it, ok := payload.(*interp.Iterator)
	if !ok {
		return nil, errs.New(errs.ICE, "malformed iterator payload")
	}
	return it, nil
}
