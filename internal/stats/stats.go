// Package stats exports vm.Profiler and jit.Compiler introspection as
// Prometheus collectors, the way _examples/oriys-nova/internal/metrics
// wraps its daemon counters/gauges in a dedicated registry rather than
// using the global prometheus.DefaultRegisterer. Ruff has no long-running
// daemon of its own (cmd/ruff runs one program and exits), but the same
// shape lets a host embedding the vm/jit packages scrape tier-promotion
// and JIT health the way oriys-nova's aurora daemon exposes VM pool health.
package stats

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rufflang/ruff-sub004/jit"
	"github.com/rufflang/ruff-sub004/vm"
)

// Collector wraps a dedicated prometheus.Registry scoped to one VM run.
// Counters here are re-set rather than incremented on every Collect call
// because vm.Profiler and jit.Compiler already keep their own running
// totals; Collector just mirrors the latest snapshot into gauges.
type Collector struct {
	registry *prometheus.Registry

	jitCompileAttempts  prometheus.Gauge
	jitCompileSuccesses prometheus.Gauge
	jitCompileAborts    prometheus.Gauge
	jitGuardFailures    prometheus.Gauge

	profileSamples     *prometheus.GaugeVec
	profileMonomorphic *prometheus.GaugeVec
	hotLoopIterations  *prometheus.GaugeVec
}

// NewCollector builds a Collector under the given namespace and registers
// its collectors, following InitPrometheus's construct-then-MustRegister
// shape from oriys-nova/internal/metrics/prometheus.go.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,

		jitCompileAttempts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jit_compile_attempts_total",
			Help:      "Total loop regions offered to the JIT compiler",
		}),
		jitCompileSuccesses: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jit_compile_successes_total",
			Help:      "Total loop regions that produced native code",
		}),
		jitCompileAborts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jit_compile_aborts_total",
			Help:      "Total loop regions rejected by the JIT compiler",
		}),
		jitGuardFailures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jit_guard_failures_total",
			Help:      "Total entry-point type guard failures that fell back to interpretation",
		}),

		profileSamples: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "profile_site_samples",
			Help:      "Observed-type samples recorded at a call/arith site",
		}, []string{"chunk", "ip"}),

		profileMonomorphic: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "profile_site_monomorphic",
			Help:      "1 if a site's dominant type cleared the monomorphic threshold, else 0",
		}, []string{"chunk", "ip"}),

		hotLoopIterations: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hot_loop_iterations",
			Help:      "Back-edge iterations observed at a loop site",
		}, []string{"chunk", "ip"}),
	}

	registry.MustRegister(
		c.jitCompileAttempts,
		c.jitCompileSuccesses,
		c.jitCompileAborts,
		c.jitGuardFailures,
		c.profileSamples,
		c.profileMonomorphic,
		c.hotLoopIterations,
	)

	return c
}

// ObserveJIT snapshots a jit.Compiler's counters into the exported gauges.
func (c *Collector) ObserveJIT(stats jit.Stats) {
	c.jitCompileAttempts.Set(float64(stats.CompileAttempts))
	c.jitCompileSuccesses.Set(float64(stats.CompileSuccesses))
	c.jitCompileAborts.Set(float64(stats.CompileAborts))
	c.jitGuardFailures.Set(float64(stats.GuardFailures))
}

// ObserveProfiler snapshots a vm.Profiler's report into the exported
// per-site and per-loop vectors.
func (c *Collector) ObserveProfiler(report vm.ProfileReport) {
	for _, site := range report.Sites {
		ip := strconv.Itoa(site.IP)
		c.profileSamples.WithLabelValues(site.Chunk, ip).Set(float64(site.Samples))
		mono := 0.0
		if site.Monomorphic {
			mono = 1.0
		}
		c.profileMonomorphic.WithLabelValues(site.Chunk, ip).Set(mono)
	}
	for _, loop := range report.HotLoops {
		c.hotLoopIterations.WithLabelValues(loop.Chunk, strconv.Itoa(loop.IP)).Set(float64(loop.Iterations))
	}
}

// Handler returns an HTTP handler exposing this collector's registry in
// the Prometheus exposition format, mirroring PrometheusHandler's use of
// promhttp.HandlerFor against a dedicated registry rather than the global
// DefaultGatherer.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for callers that want to
// register additional collectors alongside this one.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
