package vm

import (
	"github.com/rufflang/ruff-sub004/bytecode"
	"github.com/rufflang/ruff-sub004/errs"
	"github.com/rufflang/ruff-sub004/values"
)

// indexGetValue/indexSetValue mirror interp's unexported equivalents
// (interp/interp.go indexGet/indexSet): the two tiers must agree on
// indexing semantics bit-for-bit, but interp keeps them unexported to stay
// a leaf package, so the VM carries its own copy rather than force an
// import that would serve only these two functions.
func indexGetValue(coll, idx values.Value) (values.Value, error) {
	switch coll.Type() {
	case values.ArrayT:
		arr, _ := coll.AsArray()
		i, ok := idx.AsInt()
		if !ok {
			return values.Value{}, errs.New(errs.TypeError, "array index must be int, got %s", idx.Type())
		}
		if i < 0 || int(i) >= len(arr.Elements) {
			return values.Value{}, errs.New(errs.RuntimeError, "array index %d out of range", i)
		}
		return arr.Elements[i], nil
	case values.DictT:
		d, _ := coll.AsDict()
		k, ok := idx.AsString()
		if !ok {
			return values.Value{}, errs.New(errs.TypeError, "dict key must be string, got %s", idx.Type())
		}
		v, ok := d.Get(k)
		if !ok {
			return values.Value{}, errs.New(errs.RuntimeError, "missing key %q", k)
		}
		return v, nil
	default:
		return values.Value{}, errs.New(errs.TypeError, "cannot index into %s", coll.Type())
	}
}

func indexSetValue(coll, idx, v values.Value) error {
	switch coll.Type() {
	case values.ArrayT:
		arr, _ := coll.AsArray()
		i, ok := idx.AsInt()
		if !ok {
			return errs.New(errs.TypeError, "array index must be int, got %s", idx.Type())
		}
		if i < 0 || int(i) >= len(arr.Elements) {
			return errs.New(errs.RuntimeError, "array index %d out of range", i)
		}
		arr.Elements[i] = v
		return nil
	case values.DictT:
		d, _ := coll.AsDict()
		k, ok := idx.AsString()
		if !ok {
			return errs.New(errs.TypeError, "dict key must be string, got %s", idx.Type())
		}
		d.Set(k, v)
		return nil
	default:
		return errs.New(errs.TypeError, "cannot index-assign into %s", coll.Type())
	}
}

// executeMakeArray builds an array literal. inst.A == -1 means a dynamic
// length (the compiler emitted OpPushArrayMarker before the elements, for
// spread-containing literals); otherwise inst.A is the exact element count.
func (vm *VM) executeMakeArray(f *Frame, stack *[]values.Value, inst bytecode.Instruction) (values.Value, execCtl, error) {
	var elems []values.Value
	if inst.A < 0 {
		n := len(f.markerStack)
		base := f.markerStack[n-1]
		f.markerStack = f.markerStack[:n-1]
		elems = append([]values.Value(nil), (*stack)[base:]...)
		*stack = (*stack)[:base]
	} else {
		n := int(inst.A)
		base := len(*stack) - n
		elems = append([]values.Value(nil), (*stack)[base:]...)
		*stack = (*stack)[:base]
	}
	vm.push(stack, values.NewArray(elems))
	return values.Value{}, ctlNone, nil
}

// executeMakeDict builds a dict literal from n key/value pairs on the
// stack. inst.A == -1 means a dynamic pair count (the compiler emitted
// OpPushArrayMarker before the entries, for spread-containing literals --
// OpSpreadDict pushes a variable number of key/value pairs), the same
// marker convention executeMakeArray uses for spread-containing arrays.
func (vm *VM) executeMakeDict(f *Frame, stack *[]values.Value, inst bytecode.Instruction) (values.Value, execCtl, error) {
	d := values.NewDict()
	var pairs []values.Value
	var base int
	if inst.A < 0 {
		n := len(f.markerStack)
		base = f.markerStack[n-1]
		f.markerStack = f.markerStack[:n-1]
		pairs = (*stack)[base:]
	} else {
		n := int(inst.A)
		base = len(*stack) - 2*n
		pairs = (*stack)[base:]
	}
	n := len(pairs) / 2
	for i := 0; i < n; i++ {
		k := pairs[2*i]
		v := pairs[2*i+1]
		ks, ok := k.AsString()
		if !ok {
			return values.Value{}, ctlNone, errs.New(errs.TypeError, "dict key must be string, got %s", k.Type())
		}
		d.Set(ks, v)
	}
	*stack = (*stack)[:base]
	vm.push(stack, values.NewDictValue(d))
	return values.Value{}, ctlNone, nil
}

// executeSpreadArray and executeSpreadArgs share an implementation: both
// pop a single Array value and push its elements back onto the stack
// individually, in order, so a following OpMakeArray(-1)/OpCall(-1) (the
// dynamic-count marker convention executeMakeArray/executeCall use) picks
// them up as ordinary elements/arguments. The two opcodes exist separately
// only to keep the bytecode stream self-documenting about whether a spread
// sits inside an array literal or a call's argument list; the VM's
// handling of the stack is identical either way.
func (vm *VM) executeSpreadArray(f *Frame, stack *[]values.Value, inst bytecode.Instruction) (values.Value, execCtl, error) {
	v := vm.pop(stack)
	arr, ok := v.AsArray()
	if !ok {
		return values.Value{}, ctlNone, errs.New(errs.TypeError, "cannot spread non-array %s", v.Type())
	}
	for _, elem := range arr.Elements {
		vm.push(stack, elem)
	}
	return values.Value{}, ctlNone, nil
}

// executeSpreadDict pops a single Dict value and pushes its entries back
// as key/value pairs (key pushed as a String Value, then its paired
// value), in insertion order, for a following OpMakeDict(-1) to collect
// via the same dynamic-count marker convention.
func (vm *VM) executeSpreadDict(f *Frame, stack *[]values.Value, inst bytecode.Instruction) (values.Value, execCtl, error) {
	v := vm.pop(stack)
	d, ok := v.AsDict()
	if !ok {
		return values.Value{}, ctlNone, errs.New(errs.TypeError, "cannot spread non-dict %s", v.Type())
	}
	for _, k := range d.Keys() {
		val, _ := d.Get(k)
		vm.push(stack, values.NewString(k))
		vm.push(stack, val)
	}
	return values.Value{}, ctlNone, nil
}

// executeIndexGetInPlace and executeIndexSetInPlace are the dict-write
// fast path spec §4.2 calls out: they read/mutate a named binding's
// composite value through Environment.GetRaw's shared pointer instead of
// paying Get's deep-copy cost, matching the teacher's own documented
// motivation for the equivalent PHP opcode pair this is generalized from.
func (vm *VM) executeIndexGetInPlace(f *Frame, stack *[]values.Value, inst bytecode.Instruction) (values.Value, execCtl, error) {
	name := vm.constStr(f, inst.A)
	idx := vm.pop(stack)
	coll, ok := f.env.GetRaw(name)
	if !ok {
		return values.Value{}, ctlNone, errs.New(errs.RuntimeError, "undefined variable %q", name)
	}
	v, err := indexGetValue(coll, idx)
	if err != nil {
		return values.Value{}, ctlNone, err
	}
	vm.push(stack, v)
	return values.Value{}, ctlNone, nil
}

func (vm *VM) executeIndexSetInPlace(f *Frame, stack *[]values.Value, inst bytecode.Instruction) (values.Value, execCtl, error) {
	name := vm.constStr(f, inst.A)
	v := vm.pop(stack)
	idx := vm.pop(stack)
	coll, ok := f.env.GetRaw(name)
	if !ok {
		return values.Value{}, ctlNone, errs.New(errs.RuntimeError, "undefined variable %q", name)
	}
	if err := indexSetValue(coll, idx, v); err != nil {
		return values.Value{}, ctlNone, err
	}
	return values.Value{}, ctlNone, nil
}

func (vm *VM) executeFieldGet(f *Frame, stack *[]values.Value, inst bytecode.Instruction) (values.Value, execCtl, error) {
	field := vm.constStr(f, inst.A)
	recv := vm.pop(stack)
	st, ok := recv.AsStruct()
	if !ok {
		return values.Value{}, ctlNone, errs.New(errs.TypeError, "cannot read field %q on %s", field, recv.Type())
	}
	v, ok := st.Get(field)
	if !ok {
		return values.Value{}, ctlNone, errs.New(errs.RuntimeError, "struct %s has no field %q", st.Name, field)
	}
	vm.push(stack, v)
	return values.Value{}, ctlNone, nil
}

func (vm *VM) executeFieldSet(f *Frame, stack *[]values.Value, inst bytecode.Instruction) (values.Value, execCtl, error) {
	field := vm.constStr(f, inst.A)
	v := vm.pop(stack)
	recv := vm.pop(stack)
	st, ok := recv.AsStruct()
	if !ok {
		return values.Value{}, ctlNone, errs.New(errs.TypeError, "cannot set field %q on %s", field, recv.Type())
	}
	if !st.Set(field, v) {
		return values.Value{}, ctlNone, errs.New(errs.RuntimeError, "struct %s has no field %q", st.Name, field)
	}
	vm.push(stack, recv)
	return values.Value{}, ctlNone, nil
}

// executeMakeStruct builds a struct literal. inst.A is the constant pool
// index of the type name (ConstString); inst.B is the constant pool index
// of a ConstArray of ConstString field names, whose length is the number
// of values to pop off the stack (pushed in field order, bottom to top).
func (vm *VM) executeMakeStruct(f *Frame, stack *[]values.Value, inst bytecode.Instruction) (values.Value, execCtl, error) {
	typeName := vm.constStr(f, inst.A)
	fieldsConst := f.chunk.Constants[inst.B]
	fields := make([]string, len(fieldsConst.Elems))
	for i, e := range fieldsConst.Elems {
		fields[i] = e.Str
	}
	n := len(fields)
	base := len(*stack) - n
	vals := append([]values.Value(nil), (*stack)[base:]...)
	*stack = (*stack)[:base]
	vm.push(stack, values.NewStruct(typeName, fields, vals))
	return values.Value{}, ctlNone, nil
}

// executeTryUnwrap implements the `?` short-circuit operator (spec §4.2):
// Ok(v)/Some(v) unwraps to v on the stack; Err(e)/None short-circuits the
// current function with an immediate return of the wrapped sum value,
// without walking the exception table (it is not an exception).
func (vm *VM) executeTryUnwrap(f *Frame, stack *[]values.Value, inst bytecode.Instruction) (values.Value, execCtl, error) {
	v := vm.pop(stack)
	switch v.Type() {
	case values.ResultT:
		r, _ := v.AsResult()
		if r.Ok {
			vm.push(stack, r.Payload)
			return values.Value{}, ctlNone, nil
		}
		return v, ctlReturn, nil
	case values.OptionT:
		o, _ := v.AsOption()
		if o.HasValue {
			vm.push(stack, o.Payload)
			return values.Value{}, ctlNone, nil
		}
		return v, ctlReturn, nil
	default:
		return values.Value{}, ctlNone, errs.New(errs.TypeError, "? operator requires a Result or Option, got %s", v.Type())
	}
}
