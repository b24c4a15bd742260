// Package suite is a TOML-driven conformance harness for internal/programs,
// adapted from _examples/stackedboxes-romualdo/pkg/test/testing.go's
// config/step/runCase pipeline. Romualdo's harness drives a twi/vm pair
// against Storyworld source trees and captures stdout through a Mouth/Ear
// pair; Ruff has no source trees (internal/programs hand-assembles
// bytecode.Builder chunks directly), so a "case" names a Program by key
// instead of a source directory, and output capture is a plain
// strings.Builder passed as vm.New's Stdout callback instead of a
// romutil.Mouth.
package suite

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/rufflang/ruff-sub004/internal/programs"
	"github.com/rufflang/ruff-sub004/registry"
	"github.com/rufflang/ruff-sub004/stdlib"
	"github.com/rufflang/ruff-sub004/vm"
)

// Case mirrors one [[case]] table in a suite TOML file.
type Case struct {
	Name string `toml:"name"`

	// Program is the internal/programs.Lookup key to run.
	Program string `toml:"program"`

	// Output, if non-empty, must equal the program's accumulated stdout
	// exactly (joined with no separator, matching vm.VM.Stdout's
	// one-string-per-call contract).
	Output string `toml:"output"`

	// Result, if non-empty, must equal result.String() of the program's
	// return value.
	Result string `toml:"result"`

	// ErrorMessage, if non-empty, is a regexp the returned error's
	// message must match; a case with ErrorMessage set expects Call to
	// fail rather than succeed.
	ErrorMessage string `toml:"error_message"`

	// VMPromotionCallCount and JITPromotionIters override vm.TierConfig's
	// defaults for this case; a zero value means "use the default" (see
	// canonicalize), so the lowest threshold a case can set is 1. Every
	// internal/programs entry is a chunk-bodied Function, which vm.VM runs
	// on the VM tier from its first call whatever VMPromotionCallCount
	// says; JITPromotionIters sets the back-edge count at which a loop is
	// offered to the JIT compiler.
	VMPromotionCallCount int `toml:"vm_promotion_call_count"`
	JITPromotionIters    int `toml:"jit_promotion_iters"`
}

// Suite is the root structure of a suite TOML file: a flat list of cases.
type Suite struct {
	Cases []Case `toml:"case"`
}

// LoadSuite reads and parses a suite TOML file.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite %s: %w", path, err)
	}
	var s Suite
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing suite %s: %w", path, err)
	}
	canonicalize(&s)
	return &s, nil
}

// canonicalize fills in the tier-threshold defaults Romualdo's
// canonicalizeConfig fills for Type/SourceDir/Input/Output: a case that
// doesn't care about tiering should still run, using the engine's normal
// promotion thresholds rather than zero values that would force every
// case through the JIT whether or not that's the point being tested.
func canonicalize(s *Suite) {
	for i := range s.Cases {
		c := &s.Cases[i]
		if c.VMPromotionCallCount == 0 {
			c.VMPromotionCallCount = vm.DefaultTierConfig().VMPromotionCallCount
		}
		if c.JITPromotionIters == 0 {
			c.JITPromotionIters = vm.DefaultTierConfig().JITPromotionIters
		}
		if c.Name == "" {
			c.Name = c.Program
		}
	}
}

// Result is the outcome of running a single Case.
type Result struct {
	Case    string
	Passed  bool
	Message string
}

// Run executes every case in s and returns one Result per case, the way
// runCase reports a pass/fail per test.toml rather than aborting the
// whole suite on the first failure.
func Run(s *Suite) []Result {
	results := make([]Result, len(s.Cases))
	for i, c := range s.Cases {
		results[i] = RunCase(c)
	}
	return results
}

// RunCase runs a single case against a fresh VM and registry, so cases
// never share mutable global state (a prior case's globals, a prior
// case's JIT cache) the way Romualdo's runCase starts a fresh
// MemoryMouth/FatefulEar pair per step.
func RunCase(c Case) Result {
	prog, ok := programs.Lookup(c.Program)
	if !ok {
		msg := fmt.Sprintf("no such program %q", c.Program)
		if c.ErrorMessage != "" {
			re, reErr := regexp.Compile(c.ErrorMessage)
			if reErr == nil && re.MatchString(msg) {
				return Result{Case: c.Name, Passed: true}
			}
		}
		return Result{Case: c.Name, Passed: false, Message: msg}
	}

	var out strings.Builder
	reg := registry.New()
	stdlib.RegisterAll(reg)

	machine := vm.New(reg, func(s string) { out.WriteString(s) })
	machine.Tiers.VMPromotionCallCount = c.VMPromotionCallCount
	machine.Tiers.JITPromotionIters = c.JITPromotionIters

	entry := prog.Build()
	result, err := machine.Call(entry, nil)

	if c.ErrorMessage != "" {
		if err == nil {
			return Result{Case: c.Name, Passed: false, Message: "expected an error, got none"}
		}
		re, reErr := regexp.Compile(c.ErrorMessage)
		if reErr != nil {
			return Result{Case: c.Name, Passed: false, Message: fmt.Sprintf("bad error_message regexp: %v", reErr)}
		}
		if !re.MatchString(err.Error()) {
			return Result{Case: c.Name, Passed: false, Message: fmt.Sprintf("expected error matching %q, got %q", c.ErrorMessage, err.Error())}
		}
		return Result{Case: c.Name, Passed: true}
	}

	if err != nil {
		return Result{Case: c.Name, Passed: false, Message: fmt.Sprintf("unexpected error: %v", err)}
	}

	if c.Output != "" && out.String() != c.Output {
		return Result{Case: c.Name, Passed: false, Message: fmt.Sprintf("expected output %q, got %q", c.Output, out.String())}
	}

	if c.Result != "" && result.String() != c.Result {
		return Result{Case: c.Name, Passed: false, Message: fmt.Sprintf("expected result %q, got %q", c.Result, result.String())}
	}

	return Result{Case: c.Name, Passed: true}
}
