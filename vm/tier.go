// Tier promotion (spec §4.3) and the VM-side half of the JIT handoff (spec
// §4.5): the hotness counters live in Profiler, the machine-code itself in
// package jit; this file is the glue that decides when to ask jit.Compiler
// to compile a region and, once one exists, actually dispatches into it
// every time the dispatch loop reaches that region's entry instruction.
package vm

import (
	"github.com/rufflang/ruff-sub004/bytecode"
	"github.com/rufflang/ruff-sub004/opcodes"
	"github.com/rufflang/ruff-sub004/values"
)

// maybeJIT is called whenever run's dispatch loop reaches a JumpBack
// instruction (the back-edge spec §4.2 says marks a loop header). It bumps
// the per-site iteration counter and, once it crosses JITPromotionIters,
// asks jit.Compiler to compile the region; a successful compile is
// published to compiledByEntry so the next time this frame (or any other
// call of the same chunk) reaches the loop's entry instruction, it takes
// the native path instead of interpreting.
func (vm *VM) maybeJIT(f *Frame, inst bytecode.Instruction) {
	back := f.ip
	crossed := vm.Profiler.RecordBackEdge(f.chunk, back, vm.Tiers.JITPromotionIters)
	if !crossed {
		return
	}
	loopStart := int(inst.A)
	key := compiledKey{chunk: f.chunk, entry: loopStart}

	vm.compiledMu.Lock()
	_, exists := vm.compiledByEntry[key]
	vm.compiledMu.Unlock()
	if exists {
		return
	}

	names := collectLocalNames(f.chunk, loopStart, back)
	if len(names) == 0 {
		return
	}
	region, ok := vm.JIT.TryCompile(f.chunk, loopStart, back, names)
	if !ok {
		return
	}
	vm.compiledMu.Lock()
	vm.compiledByEntry[key] = region
	vm.compiledMu.Unlock()
}

// tryRunCompiled checks whether f.ip is the entry point of a compiled
// region for f.chunk and, if so, attempts the entry-point type guard spec
// §4.5 requires: every candidate local must currently hold an Int. A guard
// failure is not an error -- it just means this particular call's values
// don't match what the region was specialized for, so execution falls back
// to ordinary interpretation starting from the same instruction, exactly
// where it would have resumed anyway.
func (vm *VM) tryRunCompiled(f *Frame) (resumeIP int, ran bool) {
	vm.compiledMu.Lock()
	region, ok := vm.compiledByEntry[compiledKey{chunk: f.chunk, entry: f.ip}]
	vm.compiledMu.Unlock()
	if !ok {
		return 0, false
	}

	locals := make([]int64, len(region.SlotNames))
	for i, name := range region.SlotNames {
		v, ok := f.env.Get(name)
		if !ok {
			vm.JIT.RecordGuardFailure()
			return 0, false
		}
		iv, ok := v.AsInt()
		if !ok {
			vm.JIT.RecordGuardFailure()
			return 0, false
		}
		locals[i] = iv
	}

	resumeIP = region.Run(locals)
	for i, name := range region.SlotNames {
		f.env.Assign(name, values.NewInt(locals[i]))
	}
	return resumeIP, true
}

// collectLocalNames scans [loopStart, back] for every distinct variable
// name a LoadVar/StoreVar instruction in the region touches -- the
// candidate set jit.Compiler.TryCompile is asked to specialize for. It
// makes no claim about their runtime types; TryCompile's own opcode scan
// and tryRunCompiled's entry guard are what actually gate eligibility.
func collectLocalNames(chunk *bytecode.Chunk, loopStart, back int) []string {
	seen := map[string]bool{}
	var names []string
	for ip := loopStart; ip <= back; ip++ {
		inst := chunk.Instructions[ip]
		if inst.Op != opcodes.OpLoadVar && inst.Op != opcodes.OpStoreVar {
			continue
		}
		name := chunk.Constants[inst.A].Str
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}
