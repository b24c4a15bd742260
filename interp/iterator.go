package interp

import (
	"github.com/rufflang/ruff-sub004/errs"
	"github.com/rufflang/ruff-sub004/runtime"
	"github.com/rufflang/ruff-sub004/values"
)

// Iterator is the stateful cursor spec §3 describes over an Array, Set, the
// values of a Dict (insertion order), or a Generator. It backs both
// `for...in` (ast.ForIn, this package) and the VM's MakeIterator/
// IteratorNext/IteratorHasNext opcode trio (package vm), which is why its
// Next contract -- (value, more bool) with no separate HasNext call needed
// to make progress -- is deliberately simple enough for both tiers to
// drive identically.
type Iterator struct {
	elems []values.Value
	pos   int
	gen   *runtime.Generator
	// pending holds a value already pulled from gen by a prior HasNext
	// probe, so IteratorNext doesn't re-advance the generator.
	pending   values.Value
	hasPend   bool
	genDone   bool
}

// NewIterator constructs a cursor over coll, per spec §3's Iterator
// variant. Returns a TypeError for values that aren't iterable.
func NewIterator(coll values.Value) (*Iterator, error) {
	switch coll.Type() {
	case values.ArrayT:
		a, _ := coll.AsArray()
		return &Iterator{elems: a.Elements}, nil
	case values.SetT:
		s, _ := coll.AsSet()
		return &Iterator{elems: s.Values()}, nil
	case values.DictT:
		d, _ := coll.AsDict()
		elems := make([]values.Value, 0, d.Len())
		for _, k := range d.Keys() {
			v, _ := d.Get(k)
			elems = append(elems, v)
		}
		return &Iterator{elems: elems}, nil
	case values.GeneratorT:
		payload, _ := coll.GeneratorPayload()
		g, ok := payload.(*runtime.Generator)
		if !ok {
			return nil, errs.New(errs.TypeError, "malformed generator value")
		}
		return &Iterator{gen: g}, nil
	default:
		return nil, errs.New(errs.TypeError, "%s is not iterable", coll.Type())
	}
}

// HasNext reports whether Next would yield a value without consuming it.
func (it *Iterator) HasNext() bool {
	if it.gen == nil {
		return it.pos < len(it.elems)
	}
	if it.hasPend {
		return true
	}
	if it.genDone {
		return false
	}
	v, ok, err := it.gen.Advance()
	if err != nil || !ok {
		it.genDone = true
		return false
	}
	it.pending, it.hasPend = v, true
	return true
}

// Next advances the cursor, returning ok=false once exhausted (spec
// invariant 4's terminal behavior, surfaced here as a plain bool rather
// than a repeated sentinel Value).
func (it *Iterator) Next() (values.Value, bool) {
	if it.gen == nil {
		if it.pos >= len(it.elems) {
			return values.NewNull(), false
		}
		v := it.elems[it.pos]
		it.pos++
		return v, true
	}
	if it.hasPend {
		v := it.pending
		it.hasPend = false
		return v, true
	}
	if !it.HasNext() {
		return values.NewNull(), false
	}
	return it.Next()
}
