//go:build !(amd64 && (linux || darwin))

package jit

import "github.com/rufflang/ruff-sub004/bytecode"

// compileNative never succeeds on platforms this package has no code
// generator for; TryCompile's abort path (the VM keeps running the region
// at tier 2) is the only behavior a host outside amd64 linux/darwin ever
// sees from the JIT tier, matching spec §4.5's "compilation is best
// effort" contract.
func compileNative(chunk *bytecode.Chunk, loopStart, back int, intLocals []string) (nativeExec, bool) {
	return nil, false
}
