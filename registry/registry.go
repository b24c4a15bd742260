// Package registry implements the native function dispatch table spec §4.8
// describes: "a module-organized dispatch table keyed by name. Each module
// exposes a handler (name, args) -> Option<Value>; the dispatcher tries
// modules in order and returns the first Some." The thread-safe,
// lookup-by-name shape (names match exactly, case included) is grounded on
// github.com/wudi/hey's registry.Registry (RegisterFunction/GetFunction
// guarded by sync.RWMutex), generalized here from a single flat function
// map to the spec's explicit ordered-module-list dispatch contract.
package registry

import (
	"sync"

	"github.com/rufflang/ruff-sub004/errs"
	"github.com/rufflang/ruff-sub004/values"
)

// CallContext is the "handle to the runtime" spec §4.8 says handlers that
// invoke user code (map/filter/reduce callbacks) receive. The VM implements
// this interface; registry itself stays free of a dependency on vm to avoid
// an import cycle, the same concern wudi-hey's registry.BuiltinCallContext
// documents for the same reason.
type CallContext interface {
	CallFunction(fn values.Value, args []values.Value) (values.Value, error)
	WriteOutput(s string)
}

// Handler implements one native function. ok=false with a nil error means
// "not handled by this module, try the next"; a non-nil error is always a
// NativeError (spec: "return an Error Value (not a thrown exception) for
// recoverable failures" -- the VM converts the returned error into that
// Error Value at the CallNative call site).
type Handler func(ctx CallContext, name string, args []values.Value) (result values.Value, ok bool, err error)

// Module is a named group of handlers, e.g. "math", "string", "collections".
type Module struct {
	Name    string
	Handler Handler
}

// Registry holds the ordered list of modules the dispatcher consults.
type Registry struct {
	mu      sync.RWMutex
	modules []*Module
}

func New() *Registry { return &Registry{} }

// Register appends a module to the dispatch order. Modules registered
// earlier take priority, matching "the dispatcher tries modules in order".
func (r *Registry) Register(m *Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules = append(r.modules, m)
}

// Dispatch tries each registered module's handler in order and returns the
// first one to claim the call (ok=true). If no module claims it, returns a
// NativeError.
func (r *Registry) Dispatch(ctx CallContext, name string, args []values.Value) (values.Value, error) {
	r.mu.RLock()
	mods := make([]*Module, len(r.modules))
	copy(mods, r.modules)
	r.mu.RUnlock()

	for _, m := range mods {
		result, ok, err := m.Handler(ctx, name, args)
		if err != nil {
			return values.Value{}, errs.Wrap(errs.NativeError, err, "native function %q failed", name)
		}
		if ok {
			return result, nil
		}
	}
	return values.Value{}, errs.New(errs.NativeError, "unknown native function %q", name)
}
