// Upvalue is the VM/JIT-tier closure capture cell spec §4.6 calls for:
// "variables referenced from an enclosing scope are lifted to explicit
// upvalue slots indexed by LoadUpvalue(i)/StoreUpvalue(i)". It lives in
// this package (not vm) so Function, defined above, can hold a slice of
// them without an import cycle -- the same constraint documented on
// Function.Env.
//
// Because Ruff's Environment (above) is a heap-allocated map rather than a
// raw operand-stack slot array, an Upvalue never needs the classic
// "promote a stack slot to the heap" trick real bytecode VMs use: it is
// always a pointer into a live *Environment frame. Open/Close exists only
// to give CloseUpvalues (spec §4.6) an observable state transition: once
// closed, the upvalue snapshots its current value and detaches from the
// frame's environment, so later writes to a since-recycled frame name (a
// new call reusing the same Environment object from a pool, say) cannot
// bleed into an already-returned closure.
package values

import "sync"

type Upvalue struct {
	mu     sync.Mutex
	closed bool
	env    *Environment
	name   string
	frozen Value
}

// NewOpenUpvalue creates an upvalue referencing name inside env. While
// open, Get/Set pass through to the live environment binding.
func NewOpenUpvalue(env *Environment, name string) *Upvalue {
	return &Upvalue{env: env, name: name}
}

func (u *Upvalue) Get() Value {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return u.frozen
	}
	v, ok := u.env.Get(u.name)
	if !ok {
		return NewNull()
	}
	return v
}

func (u *Upvalue) Set(v Value) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		u.frozen = v
		return
	}
	u.env.Assign(u.name, v)
}

// Close snapshots the current value and detaches from the environment, per
// spec §4.6's "CloseUpvalues... moves upvalues from the call frame to the
// heap when the frame returns while a closure still references them."
func (u *Upvalue) Close() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return
	}
	v, ok := u.env.Get(u.name)
	if !ok {
		v = NewNull()
	}
	u.frozen = v
	u.closed = true
	u.env = nil
}

func (u *Upvalue) IsClosed() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.closed
}
