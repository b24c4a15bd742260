// Command ruff runs one of the hand-assembled demonstration programs in
// internal/programs through the tiered VM, following the shape of
// _examples/wudi-hey/cmd/hey/main.go's urfave/cli/v3 single-command
// app (flags plus one Action) -- without a lexer/parser front end, "ruff
// <demo>" plays the role "hey <file>" plays for that teacher binary.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/urfave/cli/v3"

	"github.com/rufflang/ruff-sub004/bytecode"
	"github.com/rufflang/ruff-sub004/config"
	"github.com/rufflang/ruff-sub004/internal/programs"
	"github.com/rufflang/ruff-sub004/internal/stats"
	"github.com/rufflang/ruff-sub004/registry"
	"github.com/rufflang/ruff-sub004/stdlib"
	"github.com/rufflang/ruff-sub004/vm"
)

func main() {
	out := colorable.NewColorableStdout()

	app := &cli.Command{
		Name:  "ruff",
		Usage: "Run a Ruff program through the tiered interpreter/VM/JIT engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "demo",
				Value: "fibonacci",
				Usage: "Which internal/programs entry to run (see --list)",
			},
			&cli.BoolFlag{
				Name:  "list",
				Usage: "List available demo programs and exit",
			},
			&cli.BoolFlag{
				Name:  "disassemble",
				Usage: "Print the demo's bytecode before running it",
			},
			&cli.BoolFlag{
				Name:  "profile",
				Usage: "Print the type-profiler and JIT compiler report after running",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable ANSI coloring in disassembly output",
			},
			&cli.IntFlag{
				Name:  "vm-promote-calls",
				Value: int64(config.Default().Tiers.VMPromotionCallCount),
				Usage: "Call count the profiler records as a function's interpreter-to-VM crossing (demo programs have chunk bodies and always run on the VM)",
			},
			&cli.IntFlag{
				Name:  "jit-promote-iters",
				Value: int64(config.Default().Tiers.JITPromotionIters),
				Usage: "Back-edge count at which a loop is offered to the JIT compiler",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "If set, serve /metrics (Prometheus) on this address after the demo finishes, blocking until interrupted",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("list") {
				for _, p := range programs.All {
					fmt.Fprintf(out, "%-18s %s\n", p.Name, p.Description)
				}
				return nil
			}
			return run(out, cmd)
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "ruff: %v\n", err)
		os.Exit(1)
	}
}

func run(out io.Writer, cmd *cli.Command) error {
	name := cmd.String("demo")
	prog, ok := programs.Lookup(name)
	if !ok {
		return fmt.Errorf("no such demo %q (use --list to see available demos)", name)
	}

	cfg := config.Default()
	cfg.Tiers.VMPromotionCallCount = int(cmd.Int("vm-promote-calls"))
	cfg.Tiers.JITPromotionIters = int(cmd.Int("jit-promote-iters"))
	cfg.Color = !cmd.Bool("no-color")
	cfg.Disassemble = cmd.Bool("disassemble")
	cfg.Profile = cmd.Bool("profile")
	metricsAddr := cmd.String("metrics-addr")

	entry := prog.Build()
	fn, _ := entry.AsFunction()

	if cfg.Disassemble {
		chunk, ok := fn.Body.(*bytecode.Chunk)
		if !ok {
			return fmt.Errorf("demo %q has no chunk body to disassemble", name)
		}
		fmt.Fprint(out, bytecode.Disassemble(chunk, cfg.Color))
	}

	reg := registry.New()
	stdlib.RegisterAll(reg)

	machine := vm.New(reg, func(s string) { fmt.Fprint(out, s) })
	machine.Tiers = cfg.Tiers

	result, err := machine.Call(entry, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	fmt.Fprintf(out, "%s => %s\n", name, result.String())

	if cfg.Profile || metricsAddr != "" {
		collector := stats.NewCollector(cfg.MetricsNamespace)
		collector.ObserveJIT(machine.JIT.GetStats())
		collector.ObserveProfiler(machine.Profiler.Report())

		if cfg.Profile {
			printProfile(out, machine)
		}

		if metricsAddr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", collector.Handler())
			fmt.Fprintf(out, "serving /metrics on %s\n", metricsAddr)
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				return fmt.Errorf("metrics server: %w", err)
			}
		}
	}

	return nil
}

func printProfile(out io.Writer, machine *vm.VM) {
	report := machine.Profiler.Report()
	fmt.Fprintf(out, "-- profiler: %d sites, %d hot loops\n", len(report.Sites), len(report.HotLoops))
	for _, site := range report.Sites {
		fmt.Fprintf(out, "   site %s@%d: %d samples monomorphic=%v\n", site.Chunk, site.IP, site.Samples, site.Monomorphic)
	}
	for _, loop := range report.HotLoops {
		fmt.Fprintf(out, "   loop  %s@%d: %d iterations\n", loop.Chunk, loop.IP, loop.Iterations)
	}
	jitStats := machine.JIT.GetStats()
	fmt.Fprintf(out, "-- jit: attempts=%d successes=%d aborts=%d guard_failures=%d\n",
		jitStats.CompileAttempts, jitStats.CompileSuccesses, jitStats.CompileAborts, jitStats.GuardFailures)
}
