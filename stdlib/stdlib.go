// Package stdlib provides the native function modules registered into the
// registry.Registry spec §4.8 describes. These are concrete instances of
// "native function bindings" the spec places out of scope as a surface
// standard library, but the dispatch mechanism itself is core and needs at
// least a handful of real modules to exercise CallNative meaningfully, the
// way github.com/wudi/hey's runtime package supplies builtins for its VM.
package stdlib

import "github.com/rufflang/ruff-sub004/registry"

// RegisterAll wires every built-in module into reg, in the priority order
// the dispatcher consults.
func RegisterAll(reg *registry.Registry) {
	reg.Register(&registry.Module{Name: "math", Handler: mathHandler})
	reg.Register(&registry.Module{Name: "string", Handler: stringHandler})
	reg.Register(&registry.Module{Name: "collections", Handler: collectionsHandler})
	reg.Register(&registry.Module{Name: "concurrency", Handler: concurrencyHandler})
}
