// Package jit implements the tier-3 just-in-time compiler (spec §4.5): it
// consumes a "compilable region" -- currently loop bodies, selected by the
// VM once a JumpBack site crosses its hotness threshold (spec §4.3) -- and
// attempts to translate it to native machine code guarded by a single
// entry-point type check.
//
// The AMD64CodeGenerator/ExecutableMemory/NativeFunctionCaller split, and
// the mmap-then-cast-function-pointer calling technique, are grounded
// directly on github.com/wudi/hey's compiler/jit package (amd64.go,
// memory.go, native_call.go): real machine code in mmap'd PROT_EXEC pages,
// invoked by reinterpreting the entry address as a Go func value via
// unsafe.Pointer -- the same "dangerous... may crash the program" trick
// that teacher's own executeNativeUnix comment calls out, guarded the same
// way with a deferred recover().
//
// Scope is narrower than the teacher's: only Int-typed local-variable
// arithmetic/comparison/jump loops compile (opcodes.Opcode.JITSupported
// already excludes everything else at the VM level). Compilation is
// best-effort per spec §4.5: any obstacle -- a non-amd64/non-unix host, a
// region exceeding the register budget, a non-Int dominant type -- aborts
// compilation and the region simply keeps running in the VM; this package
// never changes observable program behavior, only how fast it arrives.
package jit

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rufflang/ruff-sub004/bytecode"
)

// maxJITLocals bounds how many distinct Int local slots a region may
// reference. The compiled code keeps locals in a memory array addressed
// through RDI (slot i at byte offset 8*i), not in registers. Only Int
// locals are compiled; Bool and Float locals are not.
const maxJITLocals = 4

// Config holds the tunables spec §4.3's "Open Questions" asks to be made
// explicit, documented configuration rather than guessed constants.
type Config struct {
	// CacheSize bounds the LRU of compiled regions (DOMAIN STACK:
	// replaces the teacher's unbounded sync.Map cache).
	CacheSize int
}

func DefaultConfig() Config { return Config{CacheSize: 256} }

// regionKey identifies a compilable region: a chunk plus the instruction
// index of its JumpBack (the loop header spec §4.2 says back-edges mark).
type regionKey struct {
	chunk *bytecode.Chunk
	back  int
}

// Compiler owns the bounded cache of compiled regions and the aggregate
// stats spec §4.4 requires JIT activity to be "observable" through.
type Compiler struct {
	cfg   Config
	cache *lru.Cache[regionKey, *CompiledRegion]

	mu    sync.Mutex
	stats Stats
}

func NewCompiler(cfg Config) *Compiler {
	cache, _ := lru.New[regionKey, *CompiledRegion](cfg.CacheSize)
	return &Compiler{cfg: cfg, cache: cache}
}

// CompiledRegion is a successfully compiled loop: native code plus the
// bookkeeping needed to read/write its Int locals around a call.
type CompiledRegion struct {
	Chunk     *bytecode.Chunk
	LoopStart int // first instruction of the loop (the JumpBack's target); the region runs from here through the JumpBack
	LoopEnd   int // first instruction index after the loop (deopt/continuation point)
	SlotNames []string
	exec      nativeExec // platform-specific; nil on unsupported platforms
}

// nativeExec is implemented per-platform (codegen_amd64.go) or stubbed out
// (codegen_fallback.go) depending on build tags.
type nativeExec interface {
	// Run executes the compiled loop over locals (indexed per SlotNames)
	// until it reaches an instruction outside the compiled region, writing
	// the final values back into locals (in place, via the pointer Run was
	// handed) and returning the bytecode instruction index execution
	// should resume at.
	Run(locals []int64) (resumeIP int)
	Release()
}

// TryCompile attempts to compile the loop headed by the JumpBack at
// instruction index back (loopStart is the loop's first instruction, back
// is itself the last). intLocals names every local the region loads or
// stores. TryCompile does not consult the profiler's dominant types and
// does not check the locals' runtime types; the VM's entry guard
// (vm.tryRunCompiled) checks that each one holds an Int before running
// the region. Returns (nil, false) -- never an error -- on any obstacle,
// per the "compilation is best-effort" rule.
func (c *Compiler) TryCompile(chunk *bytecode.Chunk, loopStart, back int, intLocals []string) (*CompiledRegion, bool) {
	key := regionKey{chunk: chunk, back: back}
	if r, ok := c.cache.Get(key); ok {
		return r, true
	}

	c.mu.Lock()
	c.stats.CompileAttempts++
	c.mu.Unlock()

	if len(intLocals) == 0 || len(intLocals) > maxJITLocals {
		c.recordAbort()
		return nil, false
	}
	for ip := loopStart; ip <= back; ip++ {
		if !chunk.Instructions[ip].Op.JITSupported() {
			c.recordAbort()
			return nil, false
		}
	}

	exec, ok := compileNative(chunk, loopStart, back, intLocals)
	if !ok {
		c.recordAbort()
		return nil, false
	}

	region := &CompiledRegion{
		Chunk: chunk, LoopStart: loopStart, LoopEnd: back + 1,
		SlotNames: intLocals, exec: exec,
	}
	c.cache.Add(key, region)
	c.mu.Lock()
	c.stats.CompileSuccesses++
	c.mu.Unlock()
	return region, true
}

func (c *Compiler) recordAbort() {
	c.mu.Lock()
	c.stats.CompileAborts++
	c.mu.Unlock()
}

// Run executes the region over the given Int locals (one entry per
// r.SlotNames, caller's responsibility to keep the two slices parallel).
// The caller (vm.VM) has already performed the entry type guard; Run
// itself cannot observe a guard failure because the supported opcode set
// is closed under Int arithmetic (see package doc).
func (r *CompiledRegion) Run(locals []int64) int {
	return r.exec.Run(locals)
}

// Release frees the region's executable memory. Eviction from the
// Compiler's LRU cache does not call it, and nothing else in this
// repository does either.
func (r *CompiledRegion) Release() {
	if r.exec != nil {
		r.exec.Release()
	}
}

// Stats mirrors wudi-hey's compiler/jit/hotspot.go GetStats() report,
// extended with the abort counter spec §4.5's best-effort contract makes
// meaningful to report.
type Stats struct {
	CompileAttempts  int
	CompileSuccesses int
	CompileAborts    int
	GuardFailures    int
}

func (c *Compiler) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Compiler) RecordGuardFailure() {
	c.mu.Lock()
	c.stats.GuardFailures++
	c.mu.Unlock()
}
