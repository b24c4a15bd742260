// Package config gathers the tier-promotion thresholds and JIT cache
// sizing that spec §4.3/§4.5's Open Questions leave to the
// implementation into one constructible, flag-bindable struct, the way
// _examples/wudi-hey/pkg/fpm/pool.PoolConfig groups a pool's tunables
// behind a single DefaultPoolConfig() rather than scattering package-level
// vars.
package config

import (
	"github.com/rufflang/ruff-sub004/jit"
	"github.com/rufflang/ruff-sub004/vm"
)

// Config is the root configuration object cmd/ruff builds from CLI flags
// (via urfave/cli/v3). cmd/ruff copies Tiers onto the vm.VM it creates;
// vm.New always builds its jit.Compiler from jit.DefaultConfig(), so the
// JIT field is not applied to a running VM.
type Config struct {
	// Tiers controls the interpreter->VM and VM->JIT promotion thresholds.
	Tiers vm.TierConfig

	// JIT controls the compiled-region cache.
	JIT jit.Config

	// MetricsNamespace prefixes every exported Prometheus metric name
	// (internal/stats.NewCollector's namespace argument).
	MetricsNamespace string

	// Profile enables profiler-report output after a program finishes.
	Profile bool

	// Disassemble prints a chunk's bytecode.Disassemble output before
	// running it.
	Disassemble bool

	// Color controls ANSI coloring in disassembly and diagnostics
	// output (fatih/color), independent of terminal auto-detection --
	// useful for piping to a file or CI log that still wants plain text.
	Color bool
}

// Default returns a Config with the same promotion thresholds and cache
// size vm.DefaultTierConfig/jit.DefaultConfig already ship, plus the
// ambient defaults the CLI surface adds.
func Default() Config {
	return Config{
		Tiers:             vm.DefaultTierConfig(),
		JIT:               jit.DefaultConfig(),
		MetricsNamespace:  "ruff",
		Profile:           false,
		Disassemble:       false,
		Color:             true,
	}
}
