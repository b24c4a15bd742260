// Package values implements Ruff's tagged-union runtime Value, grounded on
// the layout of github.com/wudi/hey's values.Value (a Type+Data pair with
// typed constructors and Is*/As* predicates) but redesigned for Ruff's
// stricter, non-PHP semantics: no loose numeric-string coercion, deep-copy
// on assignment for composites, and reference-shared mutex-guarded handles
// for the runtime objects spec calls out explicitly (environments, channels,
// promises, generators).
//
// Generator, Promise, and Channel payloads are owned by the runtime package,
// which would create an import cycle if this package imported it back. The
// same problem and the same fix appear in the teacher's
// runtime/generator.go ("ARCHITECTURE NOTE" on GeneratorExecutionState): the
// payload is carried as interface{} here and type-asserted by the owning
// package's accessor helpers.
package values

import (
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync"
)

// Type is the tag half of the tagged union.
type Type byte

const (
	Null Type = iota
	Int
	Float
	Bool
	String
	ArrayT
	DictT
	SetT
	StructT
	FunctionT
	NativeT
	GeneratorT
	IteratorT
	PromiseT
	ChannelT
	ResultT
	OptionT
	ErrorT
	WeakT
)

func (t Type) String() string {
	switch t {
	case Null:
		return "null"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case String:
		return "string"
	case ArrayT:
		return "array"
	case DictT:
		return "dict"
	case SetT:
		return "set"
	case StructT:
		return "struct"
	case FunctionT:
		return "function"
	case NativeT:
		return "native"
	case GeneratorT:
		return "generator"
	case IteratorT:
		return "iterator"
	case PromiseT:
		return "promise"
	case ChannelT:
		return "channel"
	case ResultT:
		return "result"
	case OptionT:
		return "option"
	case ErrorT:
		return "error"
	case WeakT:
		return "weak"
	default:
		return "unknown"
	}
}

// Value is deliberately a flat, copyable struct: passing it by value on the
// Go stack is what lets the VM's operand stack be a plain []Value. Only the
// rare large variants are boxed behind ptr, per spec §9 "Value
// representation size".
type Value struct {
	typ Type
	num uint64      // Int (as bits), Float (math.Float64bits), Bool (0/1)
	str string      // String payload
	ptr interface{} // *Array, *Dict, *Set, *Struct, *Function, *NativeFunction,
	// generator/promise/channel payloads (owned by runtime), *ResultVal,
	// *OptionVal, *ErrorVal, *WeakRef
}

func (v Value) Type() Type { return v.typ }

// --- Primitive constructors ---

func NewNull() Value { return Value{typ: Null} }

func NewInt(i int64) Value { return Value{typ: Int, num: uint64(i)} }

func NewFloat(f float64) Value { return Value{typ: Float, num: math.Float64bits(f)} }

func NewBool(b bool) Value {
	var n uint64
	if b {
		n = 1
	}
	return Value{typ: Bool, num: n}
}

func NewString(s string) Value { return Value{typ: String, str: s} }

func (v Value) IsNull() bool { return v.typ == Null }

func (v Value) AsInt() (int64, bool) {
	if v.typ != Int {
		return 0, false
	}
	return int64(v.num), true
}

func (v Value) AsFloat() (float64, bool) {
	if v.typ != Float {
		return 0, false
	}
	return math.Float64frombits(v.num), true
}

func (v Value) AsBool() (bool, bool) {
	if v.typ != Bool {
		return false, false
	}
	return v.num != 0, true
}

func (v Value) AsString() (string, bool) {
	if v.typ != String {
		return "", false
	}
	return v.str, true
}

// Truthy implements spec §4.2's explicit truthiness rule: null and false are
// falsy; everything else -- including 0, 0.0, "", and empty collections --
// is truthy.
func (v Value) Truthy() bool {
	switch v.typ {
	case Null:
		return false
	case Bool:
		return v.num != 0
	default:
		return true
	}
}

// --- Composite types ---

// Array is an ordered sequence of Value; insertion order is preserved.
type Array struct {
	Elements []Value
}

func NewArray(elems []Value) Value {
	return Value{typ: ArrayT, ptr: &Array{Elements: elems}}
}

func (v Value) AsArray() (*Array, bool) {
	if v.typ != ArrayT {
		return nil, false
	}
	return v.ptr.(*Array), true
}

// Dict maps string keys to Value, preserving insertion order. Duplicate
// keys overwrite in place, per spec §3.
type Dict struct {
	order []string
	m     map[string]Value
}

func NewDict() *Dict {
	return &Dict{m: make(map[string]Value)}
}

func NewDictValue(d *Dict) Value { return Value{typ: DictT, ptr: d} }

func (v Value) AsDict() (*Dict, bool) {
	if v.typ != DictT {
		return nil, false
	}
	return v.ptr.(*Dict), true
}

func (d *Dict) Set(key string, val Value) {
	if _, exists := d.m[key]; !exists {
		d.order = append(d.order, key)
	}
	d.m[key] = val
}

func (d *Dict) Get(key string) (Value, bool) {
	v, ok := d.m[key]
	return v, ok
}

func (d *Dict) Delete(key string) {
	if _, ok := d.m[key]; !ok {
		return
	}
	delete(d.m, key)
	for i, k := range d.order {
		if k == key {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

func (d *Dict) Len() int { return len(d.order) }

// Keys returns keys in insertion order.
func (d *Dict) Keys() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

func (d *Dict) Clone() *Dict {
	nd := &Dict{
		order: append([]string(nil), d.order...),
		m:     make(map[string]Value, len(d.m)),
	}
	for k, v := range d.m {
		nd.m[k] = v.Clone()
	}
	return nd
}

// Set is a distinct collection of Value, keyed by a canonical hash string
// so arbitrary Value kinds (not just strings) can be members.
type Set struct {
	order []string
	repr  map[string]Value
}

func NewSet() *Set {
	return &Set{repr: make(map[string]Value)}
}

func NewSetValue(s *Set) Value { return Value{typ: SetT, ptr: s} }

func (v Value) AsSet() (*Set, bool) {
	if v.typ != SetT {
		return nil, false
	}
	return v.ptr.(*Set), true
}

func (s *Set) Add(v Value) {
	key := v.hashKey()
	if _, ok := s.repr[key]; !ok {
		s.order = append(s.order, key)
	}
	s.repr[key] = v
}

func (s *Set) Has(v Value) bool {
	_, ok := s.repr[v.hashKey()]
	return ok
}

func (s *Set) Len() int { return len(s.order) }

func (s *Set) Values() []Value {
	out := make([]Value, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.repr[k])
	}
	return out
}

func (s *Set) Clone() *Set {
	ns := &Set{order: append([]string(nil), s.order...), repr: make(map[string]Value, len(s.repr))}
	for k, v := range s.repr {
		ns.repr[k] = v.Clone()
	}
	return ns
}

// hashKey produces a canonical string for use as a Set/map member key.
// Composite keys are unsupported (documented limitation, not spec-required).
func (v Value) hashKey() string {
	switch v.typ {
	case Null:
		return "n:"
	case Bool:
		return fmt.Sprintf("b:%v", v.num != 0)
	case Int:
		return fmt.Sprintf("i:%d", int64(v.num))
	case Float:
		return fmt.Sprintf("f:%v", math.Float64frombits(v.num))
	case String:
		return "s:" + v.str
	default:
		return fmt.Sprintf("p:%p", v.ptr)
	}
}

// Struct is a named type with a fixed, ordered set of fields.
type Struct struct {
	Name   string
	Fields []string
	Values []Value
}

func NewStruct(name string, fields []string, vals []Value) Value {
	return Value{typ: StructT, ptr: &Struct{Name: name, Fields: fields, Values: vals}}
}

func (v Value) AsStruct() (*Struct, bool) {
	if v.typ != StructT {
		return nil, false
	}
	return v.ptr.(*Struct), true
}

func (s *Struct) Get(field string) (Value, bool) {
	for i, f := range s.Fields {
		if f == field {
			return s.Values[i], true
		}
	}
	return Value{}, false
}

func (s *Struct) Set(field string, val Value) bool {
	for i, f := range s.Fields {
		if f == field {
			s.Values[i] = val
			return true
		}
	}
	return false
}

func (s *Struct) Clone() *Struct {
	vals := make([]Value, len(s.Values))
	for i, v := range s.Values {
		vals[i] = v.Clone()
	}
	return &Struct{Name: s.Name, Fields: append([]string(nil), s.Fields...), Values: vals}
}

// Function is a user-defined function value: parameters, a share-counted
// reference to its body (AST for interpreter-only functions, or a
// *bytecode.Chunk for VM-tier functions -- see spec §4.3/§4.6), and an optional
// captured environment. Body is interface{} to avoid importing ast/chunk
// back into values; Env is *Environment, defined below in this package
// (spec treats Environment as its own component, but the capture pointer
// must live on Function so closures can share it).
type Function struct {
	Name       string
	Params     []string
	IsVariadic bool
	IsAsync    bool
	IsGen      bool
	Body       interface{} // *ast.Block (tier 1) or *bytecode.Chunk (tier 2/3)
	ChunkIndex int
	HasChunk   bool
	Env        *Environment // nil for top-level declarations (see §4.6 asymmetry)
	Upvalues   []*Upvalue   // VM/JIT-tier explicit capture slots (§4.6); empty for interpreter-tier closures, which rely on Env instead
}

func NewFunction(f *Function) Value { return Value{typ: FunctionT, ptr: f} }

func (v Value) AsFunction() (*Function, bool) {
	if v.typ != FunctionT {
		return nil, false
	}
	return v.ptr.(*Function), true
}

// NativeFunction is an opaque handle identified by name and dispatched
// through the registry (spec §4.8); it carries no Go closure itself so that
// Value stays comparable-by-identity-of-name across tiers.
type NativeFunction struct {
	Name string
}

func NewNativeFunction(name string) Value {
	return Value{typ: NativeT, str: name, ptr: &NativeFunction{Name: name}}
}

func (v Value) AsNative() (*NativeFunction, bool) {
	if v.typ != NativeT {
		return nil, false
	}
	return v.ptr.(*NativeFunction), true
}

// --- Generator / Iterator / Promise / Channel: owned by runtime, carried
// here as opaque payloads. ---

func NewGenerator(payload interface{}) Value { return Value{typ: GeneratorT, ptr: payload} }
func (v Value) GeneratorPayload() (interface{}, bool) {
	if v.typ != GeneratorT {
		return nil, false
	}
	return v.ptr, true
}

func NewIterator(payload interface{}) Value { return Value{typ: IteratorT, ptr: payload} }
func (v Value) IteratorPayload() (interface{}, bool) {
	if v.typ != IteratorT {
		return nil, false
	}
	return v.ptr, true
}

func NewPromise(payload interface{}) Value { return Value{typ: PromiseT, ptr: payload} }
func (v Value) PromisePayload() (interface{}, bool) {
	if v.typ != PromiseT {
		return nil, false
	}
	return v.ptr, true
}

func NewChannel(payload interface{}) Value { return Value{typ: ChannelT, ptr: payload} }
func (v Value) ChannelPayload() (interface{}, bool) {
	if v.typ != ChannelT {
		return nil, false
	}
	return v.ptr, true
}

// Result and Option are tagged sums over Value.
type ResultVal struct {
	Ok      bool
	Payload Value
}

func NewOk(v Value) Value  { return Value{typ: ResultT, ptr: &ResultVal{Ok: true, Payload: v}} }
func NewErrResult(v Value) Value { return Value{typ: ResultT, ptr: &ResultVal{Ok: false, Payload: v}} }

func (v Value) AsResult() (*ResultVal, bool) {
	if v.typ != ResultT {
		return nil, false
	}
	return v.ptr.(*ResultVal), true
}

type OptionVal struct {
	HasValue bool
	Payload  Value
}

func NewSome(v Value) Value { return Value{typ: OptionT, ptr: &OptionVal{HasValue: true, Payload: v}} }
func NewNone() Value        { return Value{typ: OptionT, ptr: &OptionVal{HasValue: false}} }

func (v Value) AsOption() (*OptionVal, bool) {
	if v.typ != OptionT {
		return nil, false
	}
	return v.ptr.(*OptionVal), true
}

// ErrorVal is the structured error *value* (bound by catch clauses, carried
// in Result's Err case) -- distinct from errs.Error, which is the Go-level
// error this runtime's own Go functions return.
type ErrorVal struct {
	Message string
	Loc     string
	Cause   *ErrorVal
}

func NewError(message string) Value {
	return Value{typ: ErrorT, ptr: &ErrorVal{Message: message}}
}

func NewErrorWithCause(message string, cause *ErrorVal) Value {
	return Value{typ: ErrorT, ptr: &ErrorVal{Message: message, Cause: cause}}
}

func (v Value) AsError() (*ErrorVal, bool) {
	if v.typ != ErrorT {
		return nil, false
	}
	return v.ptr.(*ErrorVal), true
}

func (e *ErrorVal) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Cause.Error())
	}
	return e.Message
}

// --- Environment: the shared, mutex-guarded scope-frame map spec calls out
// as reference-shared with interior mutability (invariant 2). Environment
// itself lives here (not in a separate package) specifically to let
// Function.Env point at it without an import cycle; the scope lookup,
// Define and Assign logic is the methods below, over chains of
// *Environment linked through their parent pointers. ---

type Environment struct {
	mu     sync.RWMutex
	vars   map[string]Value
	Parent *Environment
}

func NewEnvironment(parent *Environment) *Environment {
	return &Environment{vars: make(map[string]Value), Parent: parent}
}

func (e *Environment) Get(name string) (Value, bool) {
	e.mu.RLock()
	v, ok := e.vars[name]
	e.mu.RUnlock()
	if ok {
		return v.Clone(), true
	}
	if e.Parent != nil {
		return e.Parent.Get(name)
	}
	return Value{}, false
}

// GetRaw looks up name without cloning the result -- the escape hatch the
// VM's IndexGetInPlace/IndexSetInPlace opcodes use (spec §4.2) to mutate a
// named binding's composite value through its shared pointer instead of
// paying Get's deep-copy cost on every read. Ordinary interpreter/VM
// variable reads must use Get, never this.
func (e *Environment) GetRaw(name string) (Value, bool) {
	e.mu.RLock()
	v, ok := e.vars[name]
	e.mu.RUnlock()
	if ok {
		return v, true
	}
	if e.Parent != nil {
		return e.Parent.GetRaw(name)
	}
	return Value{}, false
}

// Define always inserts into this frame (spec: "let always inserts into the
// innermost frame").
func (e *Environment) Define(name string, v Value) {
	e.mu.Lock()
	e.vars[name] = v
	e.mu.Unlock()
}

// Assign walks outward searching for an existing binding and updates it in
// place; if none is found, it defines in this (innermost, per caller
// convention) frame.
func (e *Environment) Assign(name string, v Value) {
	for frame := e; frame != nil; frame = frame.Parent {
		frame.mu.Lock()
		if _, ok := frame.vars[name]; ok {
			frame.vars[name] = v
			frame.mu.Unlock()
			return
		}
		frame.mu.Unlock()
	}
	e.Define(name, v)
}

// Snapshot performs a shallow copy of bindings into a fresh Environment
// sharing the same parent chain -- used when an async function body
// captures "a snapshot of the captured environment" (spec §4.7).
func (e *Environment) Snapshot() *Environment {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ne := &Environment{vars: make(map[string]Value, len(e.vars)), Parent: e.Parent}
	for k, v := range e.vars {
		ne.vars[k] = v
	}
	return ne
}

// --- Weak references (spec §9 "Cyclic references") ---

type shareEntry struct {
	alive bool
	mu    sync.Mutex
	val   Value
}

var (
	shareMu       sync.Mutex
	shareRegistry = map[uint64]*shareEntry{}
	nextShareID   uint64
)

type WeakRef struct {
	id uint64
}

// NewWeak registers v in the process-wide share registry and returns a
// WeakT handle to that entry. The entry stores v itself, so a registered
// referent stays reachable: its finalizer does not run while the entry
// exists, and Strengthen keeps returning the Value. Strengthen reports
// false only for an entry that is missing or marked dead.
func NewWeak(v Value) Value {
	shareMu.Lock()
	nextShareID++
	id := nextShareID
	entry := &shareEntry{alive: true, val: v}
	shareRegistry[id] = entry
	shareMu.Unlock()

	if v.ptr != nil {
		runtime.SetFinalizer(v.ptr, func(interface{}) {
			shareMu.Lock()
			if e, ok := shareRegistry[id]; ok {
				e.mu.Lock()
				e.alive = false
				e.mu.Unlock()
			}
			shareMu.Unlock()
		})
	}
	return Value{typ: WeakT, ptr: &WeakRef{id: id}}
}

func (v Value) AsWeak() (*WeakRef, bool) {
	if v.typ != WeakT {
		return nil, false
	}
	return v.ptr.(*WeakRef), true
}

func (w *WeakRef) Strengthen() (Value, bool) {
	shareMu.Lock()
	entry, ok := shareRegistry[w.id]
	shareMu.Unlock()
	if !ok {
		return Value{}, false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if !entry.alive {
		return Value{}, false
	}
	return entry.val, true
}

// DebugShares enumerates live shares registered via NewWeak, the "debugging
// facility to enumerate live shares" spec §9 asks for.
func DebugShares() []uint64 {
	shareMu.Lock()
	defer shareMu.Unlock()
	var ids []uint64
	for id, e := range shareRegistry {
		e.mu.Lock()
		alive := e.alive
		e.mu.Unlock()
		if alive {
			ids = append(ids, id)
		}
	}
	return ids
}

// --- Clone: deep-copy for composites (invariant 1), share for runtime
// objects (invariant 2). ---

func (v Value) Clone() Value {
	switch v.typ {
	case ArrayT:
		a := v.ptr.(*Array)
		elems := make([]Value, len(a.Elements))
		for i, e := range a.Elements {
			elems[i] = e.Clone()
		}
		return Value{typ: ArrayT, ptr: &Array{Elements: elems}}
	case DictT:
		return Value{typ: DictT, ptr: v.ptr.(*Dict).Clone()}
	case SetT:
		return Value{typ: SetT, ptr: v.ptr.(*Set).Clone()}
	case StructT:
		return Value{typ: StructT, ptr: v.ptr.(*Struct).Clone()}
	case ResultT:
		r := v.ptr.(*ResultVal)
		return Value{typ: ResultT, ptr: &ResultVal{Ok: r.Ok, Payload: r.Payload.Clone()}}
	case OptionT:
		o := v.ptr.(*OptionVal)
		if !o.HasValue {
			return v
		}
		return Value{typ: OptionT, ptr: &OptionVal{HasValue: true, Payload: o.Payload.Clone()}}
	default:
		// Primitives are already value types; Function/Native/Generator/
		// Iterator/Promise/Channel/Error/Weak are reference-shared per
		// invariant 2 -- sharing the pointer is the correct "clone".
		return v
	}
}

// Equal implements value equality for primitives and structural equality
// for composites. Cross-type comparisons are always false (no PHP-style
// coercion).
func Equal(a, b Value) bool {
	if a.typ != b.typ {
		return false
	}
	switch a.typ {
	case Null:
		return true
	case Bool, Int:
		return a.num == b.num
	case Float:
		return math.Float64frombits(a.num) == math.Float64frombits(b.num)
	case String:
		return a.str == b.str
	case ArrayT:
		aa, _ := a.AsArray()
		ba, _ := b.AsArray()
		if len(aa.Elements) != len(ba.Elements) {
			return false
		}
		for i := range aa.Elements {
			if !Equal(aa.Elements[i], ba.Elements[i]) {
				return false
			}
		}
		return true
	case DictT:
		ad, _ := a.AsDict()
		bd, _ := b.AsDict()
		if ad.Len() != bd.Len() {
			return false
		}
		for _, k := range ad.Keys() {
			av, _ := ad.Get(k)
			bv, ok := bd.Get(k)
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return a.ptr == b.ptr
	}
}

// String renders a Value for display (DebugPrint, error messages, tests).
func (v Value) String() string {
	switch v.typ {
	case Null:
		return "null"
	case Bool:
		b, _ := v.AsBool()
		return fmt.Sprintf("%v", b)
	case Int:
		i, _ := v.AsInt()
		return fmt.Sprintf("%d", i)
	case Float:
		f, _ := v.AsFloat()
		return fmt.Sprintf("%g", f)
	case String:
		return v.str
	case ArrayT:
		a, _ := v.AsArray()
		parts := make([]string, len(a.Elements))
		for i, e := range a.Elements {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case DictT:
		d, _ := v.AsDict()
		parts := make([]string, 0, d.Len())
		for _, k := range d.Keys() {
			val, _ := d.Get(k)
			parts = append(parts, fmt.Sprintf("%s: %s", k, val.String()))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case SetT:
		s, _ := v.AsSet()
		parts := make([]string, 0, s.Len())
		for _, e := range s.Values() {
			parts = append(parts, e.String())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case StructT:
		st, _ := v.AsStruct()
		parts := make([]string, len(st.Fields))
		for i, f := range st.Fields {
			parts[i] = fmt.Sprintf("%s: %s", f, st.Values[i].String())
		}
		return fmt.Sprintf("%s{%s}", st.Name, strings.Join(parts, ", "))
	case FunctionT:
		f, _ := v.AsFunction()
		name := f.Name
		if name == "" {
			name = "<anonymous>"
		}
		return fmt.Sprintf("<function %s>", name)
	case NativeT:
		return fmt.Sprintf("<native %s>", v.str)
	case GeneratorT:
		return "<generator>"
	case IteratorT:
		return "<iterator>"
	case PromiseT:
		return "<promise>"
	case ChannelT:
		return "<channel>"
	case ResultT:
		r, _ := v.AsResult()
		if r.Ok {
			return fmt.Sprintf("Ok(%s)", r.Payload.String())
		}
		return fmt.Sprintf("Err(%s)", r.Payload.String())
	case OptionT:
		o, _ := v.AsOption()
		if o.HasValue {
			return fmt.Sprintf("Some(%s)", o.Payload.String())
		}
		return "None"
	case ErrorT:
		e, _ := v.AsError()
		return fmt.Sprintf("Error(%s)", e.Message)
	case WeakT:
		return "<weak>"
	default:
		return "<?>"
	}
}
